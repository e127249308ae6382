package keycloak

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/contract"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/infrastructure/cache"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	userKeyPrefix  = "iam:user:"
	emailKeyPrefix = "iam:email:"
	roleKeyPrefix  = "iam:role:"
)

// admin is the subset of the admin API the service needs
type admin interface {
	User(ctx context.Context, id string) (*UserRepresentation, error)
	UsersByEmail(ctx context.Context, email string) ([]UserRepresentation, error)
	Users(ctx context.Context, first, max int) ([]UserRepresentation, error)
	RealmRoleUsers(ctx context.Context, role string) ([]UserRepresentation, error)
	ClientRoleUsers(ctx context.Context, role string) ([]UserRepresentation, error)
	UserRealmRoles(ctx context.Context, userID string) ([]string, error)
	UserClientRoles(ctx context.Context, userID string) ([]string, error)
}

// UserManagementService implements contract.UserManagementService on Keycloak
type UserManagementService struct {
	admin  admin
	loader *cache.Loader
	logger *zap.Logger
}

// NewUserManagementService creates the service. loader may be nil to disable caching.
func NewUserManagementService(client admin, loader *cache.Loader, logger *zap.Logger) *UserManagementService {
	return &UserManagementService{
		admin:  client,
		loader: loader,
		logger: logger.Named("iam"),
	}
}

// GetCurrentUser builds the user from the token claims stored in ctx
func (s *UserManagementService) GetCurrentUser(ctx context.Context) (*contract.ManageableUser, error) {
	return userFromClaims(ctx)
}

func userFromClaims(ctx context.Context) (*contract.ManageableUser, error) {
	cu, ok := contract.CurrentUserFrom(ctx)
	if !ok {
		return nil, shared.ErrUnauthorized
	}
	first, last, _ := strings.Cut(strings.TrimSpace(cu.Name), " ")
	return &contract.ManageableUser{
		ID:        cu.ID,
		Username:  cu.Username,
		Email:     cu.Email,
		FirstName: first,
		LastName:  strings.TrimSpace(last),
		Roles:     slices.Clone(cu.Roles),
		Enabled:   true,
	}, nil
}

// FindByID returns the user with its aggregated realm and client roles
func (s *UserManagementService) FindByID(ctx context.Context, id string) (*contract.ManageableUser, error) {
	if id == "" {
		return nil, shared.ErrInvalidInput
	}
	u, err := cache.GetOrLoad(ctx, s.loader, userKeyPrefix+id, func(ctx context.Context) (contract.ManageableUser, error) {
		return s.loadUser(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *UserManagementService) loadUser(ctx context.Context, id string) (contract.ManageableUser, error) {
	var (
		rep         *UserRepresentation
		realmRoles  []string
		clientRoles []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rep, err = s.admin.User(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		realmRoles, err = s.admin.UserRealmRoles(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		clientRoles, err = s.admin.UserClientRoles(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return contract.ManageableUser{}, err
	}

	u := toManageableUser(*rep)
	u.Roles = mergeRoles(realmRoles, clientRoles)
	return u, nil
}

// FindByEmail returns the user whose e-mail matches exactly (case-insensitive)
func (s *UserManagementService) FindByEmail(ctx context.Context, email string) (*contract.ManageableUser, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, shared.ErrInvalidInput
	}
	id, err := cache.GetOrLoad(ctx, s.loader, emailKeyPrefix+strings.ToLower(email), func(ctx context.Context) (string, error) {
		users, err := s.admin.UsersByEmail(ctx, email)
		if err != nil {
			return "", err
		}
		for _, u := range users {
			if strings.EqualFold(u.Email, email) {
				return u.ID, nil
			}
		}
		return "", shared.ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return s.FindByID(ctx, id)
}

// FindByRole returns enabled users holding the role as realm role or as role on the configured client
func (s *UserManagementService) FindByRole(ctx context.Context, role string) ([]contract.ManageableUser, error) {
	if role == "" {
		return nil, shared.ErrInvalidInput
	}
	return cache.GetOrLoad(ctx, s.loader, roleKeyPrefix+role, func(ctx context.Context) ([]contract.ManageableUser, error) {
		return s.loadRoleUsers(ctx, role)
	})
}

func (s *UserManagementService) loadRoleUsers(ctx context.Context, role string) ([]contract.ManageableUser, error) {
	var realmUsers, clientUsers []UserRepresentation
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		realmUsers, err = s.admin.RealmRoleUsers(gctx, role)
		return err
	})
	g.Go(func() error {
		var err error
		clientUsers, err = s.admin.ClientRoleUsers(gctx, role)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byID := make(map[string]contract.ManageableUser)
	for _, rep := range append(realmUsers, clientUsers...) {
		if !rep.Enabled {
			continue
		}
		if _, seen := byID[rep.ID]; seen {
			continue
		}
		u := toManageableUser(rep)
		u.Roles = []string{role}
		byID[rep.ID] = u
	}
	return sortedUsers(byID), nil
}

// FindByRoles returns users having every role (All) or any of the roles
func (s *UserManagementService) FindByRoles(ctx context.Context, query contract.RoleQuery) ([]contract.ManageableUser, error) {
	roles := slices.Compact(slices.Sorted(slices.Values(query.Roles)))
	if len(roles) == 0 {
		return []contract.ManageableUser{}, nil
	}

	perRole := make([][]contract.ManageableUser, len(roles))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, role := range roles {
		g.Go(func() error {
			users, err := s.FindByRole(gctx, role)
			if err != nil {
				return err
			}
			perRole[i] = users
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byID := make(map[string]contract.ManageableUser)
	counts := make(map[string]int)
	for i, users := range perRole {
		for _, u := range users {
			counts[u.ID]++
			existing, ok := byID[u.ID]
			if !ok {
				existing = u
				existing.Roles = nil
			}
			existing.Roles = append(existing.Roles, roles[i])
			byID[u.ID] = existing
		}
	}
	if query.All {
		for id, n := range counts {
			if n < len(roles) {
				delete(byID, id)
			}
		}
	}
	return sortedUsers(byID), nil
}

// GetAllUsers returns one page of users
func (s *UserManagementService) GetAllUsers(ctx context.Context, first, max int) ([]contract.ManageableUser, error) {
	if first < 0 {
		first = 0
	}
	if max <= 0 || max > 1000 {
		max = pageSize
	}
	reps, err := s.admin.Users(ctx, first, max)
	if err != nil {
		return nil, err
	}
	users := make([]contract.ManageableUser, 0, len(reps))
	for _, r := range reps {
		users = append(users, toManageableUser(r))
	}
	return users, nil
}

// Invalidate drops cached lookups for a user, or every IAM entry when id is empty
func (s *UserManagementService) Invalidate(ctx context.Context, id string) {
	if s.loader == nil {
		return
	}
	prefix := "iam:"
	if id != "" {
		prefix = userKeyPrefix + id
	}
	if err := s.loader.Invalidate(ctx, prefix); err != nil {
		s.logger.Warn("failed to invalidate iam cache", zap.String("prefix", prefix), zap.Error(err))
	}
}

func toManageableUser(r UserRepresentation) contract.ManageableUser {
	return contract.ManageableUser{
		ID:        r.ID,
		Username:  r.Username,
		Email:     r.Email,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Enabled:   r.Enabled,
	}
}

func mergeRoles(sets ...[]string) []string {
	var all []string
	for _, s := range sets {
		all = append(all, s...)
	}
	slices.Sort(all)
	return slices.Compact(all)
}

// sortedUsers orders by last name then first name, case-insensitive
func sortedUsers(byID map[string]contract.ManageableUser) []contract.ManageableUser {
	users := make([]contract.ManageableUser, 0, len(byID))
	for _, u := range byID {
		slices.Sort(u.Roles)
		users = append(users, u)
	}
	slices.SortFunc(users, func(a, b contract.ManageableUser) int {
		if c := strings.Compare(strings.ToLower(a.LastName), strings.ToLower(b.LastName)); c != 0 {
			return c
		}
		if c := strings.Compare(strings.ToLower(a.FirstName), strings.ToLower(b.FirstName)); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return users
}

// IsUnavailable reports whether err means the identity provider could not answer
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrIAMUnavailable)
}

var _ contract.UserManagementService = (*UserManagementService)(nil)
