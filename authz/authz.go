// Package authz defines the permission check consumed by the bulk unlock
// engine, with an allow-all default and a casbin-backed implementation.
package authz

import (
	"fmt"

	"github.com/casbin/casbin/v2"
)

// Permission names a right required to reverse a lock.
type Permission string

const (
	// PermissionUpdate is required to restore a soft-deleted record.
	PermissionUpdate Permission = "update"
	// PermissionPurge is required to permanently delete a record.
	PermissionPurge Permission = "purge"
)

// Permissioner answers whether the current actor holds a permission on one
// entity. Denials are recorded as per-record failures by the engine, never
// raised as errors.
type Permissioner interface {
	Can(kind string, id int64, permission Permission) bool
}

// AllowAll grants every permission. It is the default when no permission
// layer is wired in.
type AllowAll struct{}

// Can implements the Permissioner interface.
func (AllowAll) Can(string, int64, Permission) bool {
	return true
}

// Enforcer adapts a casbin enforcer to the Permissioner interface. Policies
// are keyed (subject, kind, permission); record ids are not part of the
// policy model.
type Enforcer struct {
	enforcer *casbin.Enforcer
	subject  string
}

// NewEnforcer loads a casbin model and policy from the given files and binds
// them to a fixed subject (the acting user or role).
func NewEnforcer(modelPath, policyPath, subject string) (*Enforcer, error) {
	e, err := casbin.NewEnforcer(modelPath, policyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load authz policy: %w", err)
	}
	return &Enforcer{enforcer: e, subject: subject}, nil
}

// NewEnforcerFromCasbin wraps an already-configured casbin enforcer.
func NewEnforcerFromCasbin(e *casbin.Enforcer, subject string) *Enforcer {
	return &Enforcer{enforcer: e, subject: subject}
}

// Can implements the Permissioner interface. Enforcement errors deny.
func (e *Enforcer) Can(kind string, _ int64, permission Permission) bool {
	allowed, err := e.enforcer.Enforce(e.subject, kind, string(permission))
	if err != nil {
		return false
	}
	return allowed
}
