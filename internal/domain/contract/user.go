package contract

import (
	"context"
	"strings"
)

// ManageableUser is a user as known by the identity provider
type ManageableUser struct {
	ID        string   `json:"id"`
	Username  string   `json:"username"`
	Email     string   `json:"email"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Roles     []string `json:"roles"`
	Enabled   bool     `json:"enabled"`
}

// FullName returns first and last name, falling back to the username
func (u ManageableUser) FullName() string {
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if name == "" {
		return u.Username
	}
	return name
}

// HasRole reports whether the user carries the given role
func (u ManageableUser) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// RoleQuery selects users by role membership.
// With All set a user must hold every role, otherwise any role suffices.
type RoleQuery struct {
	Roles []string
	All   bool
}

// UserManagementService looks up users in the identity provider
type UserManagementService interface {
	// GetCurrentUser returns the authenticated user of ctx
	GetCurrentUser(ctx context.Context) (*ManageableUser, error)
	FindByID(ctx context.Context, id string) (*ManageableUser, error)
	FindByEmail(ctx context.Context, email string) (*ManageableUser, error)
	FindByRole(ctx context.Context, role string) ([]ManageableUser, error)
	FindByRoles(ctx context.Context, query RoleQuery) ([]ManageableUser, error)
	GetAllUsers(ctx context.Context, first, max int) ([]ManageableUser, error)
}

// CurrentUser is the authenticated principal of a request
type CurrentUser struct {
	ID       string
	Username string
	Email    string
	Name     string
	Roles    []string
}

type currentUserKey struct{}

// WithCurrentUser stores the authenticated principal in ctx
func WithCurrentUser(ctx context.Context, user CurrentUser) context.Context {
	return context.WithValue(ctx, currentUserKey{}, user)
}

// CurrentUserFrom returns the authenticated principal stored in ctx
func CurrentUserFrom(ctx context.Context) (CurrentUser, bool) {
	u, ok := ctx.Value(currentUserKey{}).(CurrentUser)
	return u, ok
}

// ActorFrom returns the username of the principal in ctx, or "" for system calls
func ActorFrom(ctx context.Context) string {
	if u, ok := CurrentUserFrom(ctx); ok {
		return u.Username
	}
	return ""
}
