package auth

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Action is an operation class on a protected resource.
type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Policy is the immutable (resource, action) -> allowed-roles table. It is
// built once at process start; an entry with no roles means any
// authenticated, tenant-scoped caller is allowed.
type Policy struct {
	rules map[string]map[Action][]Role
}

// Allowed reports whether the given role set may perform action on resource.
// Unknown resources and actions fall back to "any tenant member".
func (p *Policy) Allowed(resource string, action Action, roles RoleSet) bool {
	actions, ok := p.rules[resource]
	if !ok {
		return true
	}
	allowed, ok := actions[action]
	if !ok || len(allowed) == 0 {
		return true
	}
	return roles.HasAny(allowed...)
}

// DefaultPolicy returns the built-in access table. Mutating operations on
// shared tenant state are restricted to management roles; reads and
// operation logging are open to every member.
func DefaultPolicy() *Policy {
	return &Policy{rules: map[string]map[Action][]Role{
		"tenants": {
			ActionUpdate: {RoleOwner, RoleAdmin},
			ActionDelete: {RoleOwner},
		},
		"memberships": {
			ActionCreate: {RoleOwner, RoleAdmin},
			ActionDelete: {RoleOwner, RoleAdmin},
		},
		"vehicles": {
			ActionCreate: {RoleOwner, RoleAdmin, RoleFleetManager},
			ActionUpdate: {RoleOwner, RoleAdmin, RoleFleetManager},
			ActionDelete: {RoleOwner, RoleAdmin, RoleFleetManager},
		},
		"categories": {
			ActionCreate: {RoleOwner, RoleAdmin, RoleFleetManager},
			ActionUpdate: {RoleOwner, RoleAdmin, RoleFleetManager},
			ActionDelete: {RoleOwner, RoleAdmin, RoleFleetManager},
		},
		// Operation logging is open to every tenant member; the kind-specific
		// resources exist so deployments can tighten them via the policy file.
		"operations":  {},
		"fuel":        {},
		"odometer":    {},
		"service":     {},
		"transaction": {},
		"invitation": {
			ActionCreate: {RoleOwner, RoleAdmin},
			ActionDelete: {RoleOwner, RoleAdmin},
		},
	}}
}

// policyFile is the YAML shape of an access policy override file:
//
//	vehicles:
//	  create: [owner, admin]
type policyFile map[string]map[string][]string

// LoadPolicy reads a policy file and returns the table it defines. Entries
// replace the built-in defaults per (resource, action).
func LoadPolicy(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading policy file: %w", err)
	}

	var pf policyFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parsing policy file: %w", err)
	}

	p := DefaultPolicy()
	for resource, actions := range pf {
		if p.rules[resource] == nil {
			p.rules[resource] = make(map[Action][]Role)
		}
		for action, roleNames := range actions {
			roles := make([]Role, 0, len(roleNames))
			for _, name := range roleNames {
				r, err := ParseRole(name)
				if err != nil {
					return nil, fmt.Errorf("policy %s.%s: %w", resource, action, err)
				}
				roles = append(roles, r)
			}
			p.rules[resource][Action(action)] = roles
		}
	}
	return p, nil
}
