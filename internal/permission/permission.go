// Package permission answers access checks against component/instance pairs.
package permission

import (
	"context"
	"strings"

	"github.com/formicula/backend/pkg/auth"
)

// Level is an access level. Higher levels include lower ones.
type Level int

const (
	None     Level = 0
	Overview Level = 100
	Read     Level = 200
	Comment  Level = 300
	Moderate Level = 400
	Edit     Level = 500
	Add      Level = 600
	Delete   Level = 700
	Admin    Level = 800
)

// Component is the permission component of this module.
const Component = "Formicula::"

// Checker decides whether the caller in ctx holds level on component/instance.
type Checker interface {
	HasPermission(ctx context.Context, component, instance string, level Level) bool
}

// RoleChecker grants Admin to the configured administrator and Comment to
// everyone else, which lets visitors submit forms.
type RoleChecker struct {
	adminID string
}

var _ Checker = (*RoleChecker)(nil)

// NewRoleChecker returns a checker treating adminID as the administrator.
func NewRoleChecker(adminID string) *RoleChecker {
	return &RoleChecker{adminID: strings.TrimSpace(adminID)}
}

// HasPermission implements Checker.
func (c *RoleChecker) HasPermission(ctx context.Context, component, instance string, level Level) bool {
	return c.Granted(ctx) >= level
}

// Granted returns the level held by the caller.
func (c *RoleChecker) Granted(ctx context.Context) Level {
	userID, ok := auth.UserIDFromContext(ctx)
	if ok && c.adminID != "" && strings.EqualFold(userID, c.adminID) {
		return Admin
	}
	return Comment
}
