package operation

import (
	"errors"
	"testing"
	"time"

	"github.com/fleetlog/fleetlog/internal/category"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t.Fatalf("parsing %q: %v", s, err)
	}
	return ts
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		input   string
		want    Kind
		wantErr bool
	}{
		{"fuel", KindFuel, false},
		{"odometer", KindOdometer, false},
		{"service", KindService, false},
		{"transaction", KindTransaction, false},
		{"", "", true},
		{"Fuel", "", true},
		{"repair", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseKind(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidKind) {
					t.Errorf("expected ErrInvalidKind, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseKind(%q) returned error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseKind(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTransactionTypeSource(t *testing.T) {
	src, err := TransactionExpense.Source()
	if err != nil {
		t.Fatalf("expense source: %v", err)
	}
	if src != category.SourceExpense {
		t.Errorf("expense maps to %q", src)
	}

	src, err = TransactionIncome.Source()
	if err != nil {
		t.Fatalf("income source: %v", err)
	}
	if src != category.SourceIncome {
		t.Errorf("income maps to %q", src)
	}

	if _, err := TransactionType("transfer").Source(); !errors.Is(err, ErrInvalidTransactionType) {
		t.Errorf("expected ErrInvalidTransactionType, got %v", err)
	}
}

func TestCursorRoundTrip(t *testing.T) {
	ts, id, err := decodeCursor(encodeCursor(mustTime(t, "2026-08-29T10:30:00.123456Z"), "op-1"))
	if err != nil {
		t.Fatalf("decodeCursor returned error: %v", err)
	}
	if id != "op-1" {
		t.Errorf("cursor id = %q", id)
	}
	if got := ts.Format("2006-01-02T15:04:05.999999Z07:00"); got != "2026-08-29T10:30:00.123456Z" {
		t.Errorf("cursor timestamp = %q", got)
	}
}

func TestDecodeCursorInvalid(t *testing.T) {
	tests := []string{
		"not-base64!",
		"aGVsbG8",           // no separator
		"bm90YXRpbWV8b3AtMQ", // bad timestamp
	}
	for _, cursor := range tests {
		if _, _, err := decodeCursor(cursor); err == nil {
			t.Errorf("decodeCursor(%q) accepted malformed cursor", cursor)
		}
	}
}
