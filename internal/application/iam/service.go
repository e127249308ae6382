package iam

import (
	"context"
	"errors"
	"strings"

	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/contract"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

// ListUsersRequest is bound from the query string of the user list endpoint
type ListUsersRequest struct {
	First int `form:"first" binding:"omitempty,min=0"`
	Max   int `form:"max" binding:"omitempty,min=1"`
}

// AuthorityRequest selects users by one or more comma separated roles
type AuthorityRequest struct {
	Authority string `uri:"authority" binding:"required"`
	All       bool   `form:"all"`
}

// UserService exposes the identity provider's users
type UserService struct {
	users contract.UserManagementService
}

// NewUserService creates a new UserService
func NewUserService(users contract.UserManagementService) *UserService {
	return &UserService{users: users}
}

// List returns a window of all users
func (s *UserService) List(ctx context.Context, req ListUsersRequest) ([]contract.ManageableUser, error) {
	size := req.Max
	switch {
	case size <= 0:
		size = defaultPageSize
	case size > maxPageSize:
		size = maxPageSize
	}
	return s.users.GetAllUsers(ctx, req.First, size)
}

// Get returns a user by id
func (s *UserService) Get(ctx context.Context, id string) (*contract.ManageableUser, error) {
	return notFoundAsUser(s.users.FindByID(ctx, id))
}

// GetByEmail returns the user with exactly this e-mail address
func (s *UserService) GetByEmail(ctx context.Context, email string) (*contract.ManageableUser, error) {
	if !contract.ValidEmail(email) {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invalid e-mail address")
	}
	return notFoundAsUser(s.users.FindByEmail(ctx, email))
}

// ByAuthority returns the enabled users holding the requested roles
func (s *UserService) ByAuthority(ctx context.Context, req AuthorityRequest) ([]contract.ManageableUser, error) {
	var roles []string
	for _, r := range strings.Split(req.Authority, ",") {
		if r = strings.TrimSpace(r); r != "" {
			roles = append(roles, r)
		}
	}
	switch len(roles) {
	case 0:
		return nil, shared.NewDomainError("INVALID_INPUT", "At least one authority is required")
	case 1:
		return s.users.FindByRole(ctx, roles[0])
	}
	return s.users.FindByRoles(ctx, contract.RoleQuery{Roles: roles, All: req.All})
}

// Account returns the authenticated user
func (s *UserService) Account(ctx context.Context) (*contract.ManageableUser, error) {
	if _, ok := contract.CurrentUserFrom(ctx); !ok {
		return nil, shared.ErrUnauthorized
	}
	return s.users.GetCurrentUser(ctx)
}

func notFoundAsUser(u *contract.ManageableUser, err error) (*contract.ManageableUser, error) {
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("USER_NOT_FOUND", "User not found")
		}
		return nil, err
	}
	return u, nil
}
