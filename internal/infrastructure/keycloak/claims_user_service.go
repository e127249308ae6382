package keycloak

import (
	"context"

	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/contract"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
)

// ClaimsUserService answers user lookups from the bearer token alone. It is
// used when the admin API is disabled, so only the caller can be resolved.
type ClaimsUserService struct{}

// NewClaimsUserService creates a ClaimsUserService
func NewClaimsUserService() *ClaimsUserService {
	return &ClaimsUserService{}
}

func (ClaimsUserService) GetCurrentUser(ctx context.Context) (*contract.ManageableUser, error) {
	return userFromClaims(ctx)
}

func (ClaimsUserService) FindByID(ctx context.Context, id string) (*contract.ManageableUser, error) {
	u, err := userFromClaims(ctx)
	if err != nil || u.ID != id {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func (ClaimsUserService) FindByEmail(ctx context.Context, email string) (*contract.ManageableUser, error) {
	u, err := userFromClaims(ctx)
	if err != nil || email == "" || u.Email != email {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func (ClaimsUserService) FindByRole(context.Context, string) ([]contract.ManageableUser, error) {
	return []contract.ManageableUser{}, nil
}

func (ClaimsUserService) FindByRoles(context.Context, contract.RoleQuery) ([]contract.ManageableUser, error) {
	return []contract.ManageableUser{}, nil
}

func (ClaimsUserService) GetAllUsers(context.Context, int, int) ([]contract.ManageableUser, error) {
	return []contract.ManageableUser{}, nil
}

var _ contract.UserManagementService = ClaimsUserService{}
