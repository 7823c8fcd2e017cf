package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "fleetlog",
	Short: "Fleetlog — multi-tenant fleet operations log",
	Long:  "Fleetlog records fuel fill-ups, odometer readings, services and money transactions for vehicle fleets, with per-tenant isolation and role-based access.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: configs/fleetlog.yaml)")
}

func main() {
	// Local-development convenience; missing .env is not an error.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
