// Package keycloak implements user management against the Keycloak admin REST API.
package keycloak

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/infrastructure/config"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// ErrIAMUnavailable is returned when the identity provider cannot be reached or fails
var ErrIAMUnavailable = shared.NewDomainError("IAM_UNAVAILABLE", "Identity provider is unavailable")

const pageSize = 100

// UserRepresentation is the admin API user resource
type UserRepresentation struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Enabled   bool   `json:"enabled"`
}

type roleRepresentation struct {
	Name string `json:"name"`
}

type clientRepresentation struct {
	ID       string `json:"id"`
	ClientID string `json:"clientId"`
}

// Client calls the admin API with a service account token
type Client struct {
	baseURL      string
	realm        string
	roleClientID string
	http         *http.Client
	logger       *zap.Logger

	mu         sync.Mutex
	clientUUID string
}

// NewClient creates an admin API client authenticated with client credentials
func NewClient(ctx context.Context, cfg config.KeycloakConfig, logger *zap.Logger) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     base + "/realms/" + url.PathEscape(cfg.Realm) + "/protocol/openid-connect/token",
	}

	tokenHTTP := &http.Client{Timeout: cfg.Timeout}
	httpClient := cc.Client(context.WithValue(ctx, oauth2.HTTPClient, tokenHTTP))
	httpClient.Timeout = cfg.Timeout

	return &Client{
		baseURL:      base,
		realm:        cfg.Realm,
		roleClientID: cfg.RoleClientID,
		http:         httpClient,
		logger:       logger.Named("keycloak"),
	}
}

func (c *Client) adminURL(path string, query url.Values) string {
	u := c.baseURL + "/admin/realms/" + url.PathEscape(c.realm) + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.adminURL(path, query), nil)
	if err != nil {
		return fmt.Errorf("failed to build keycloak request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("keycloak request failed", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrIAMUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return shared.ErrNotFound
	case resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("keycloak returned an error",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body),
		)
		return ErrIAMUnavailable.WithDetails(map[string]any{"status": resp.StatusCode})
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode keycloak response: %w", err)
	}
	return nil
}

// User returns a user by id
func (c *Client) User(ctx context.Context, id string) (*UserRepresentation, error) {
	var u UserRepresentation
	if err := c.getJSON(ctx, "/users/"+url.PathEscape(id), nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UsersByEmail searches users by exact e-mail
func (c *Client) UsersByEmail(ctx context.Context, email string) ([]UserRepresentation, error) {
	var users []UserRepresentation
	q := url.Values{"email": {email}, "exact": {"true"}}
	if err := c.getJSON(ctx, "/users", q, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Users lists one page of users
func (c *Client) Users(ctx context.Context, first, max int) ([]UserRepresentation, error) {
	var users []UserRepresentation
	q := url.Values{"first": {strconv.Itoa(first)}, "max": {strconv.Itoa(max)}, "briefRepresentation": {"true"}}
	if err := c.getJSON(ctx, "/users", q, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// RealmRoleUsers returns all users holding the realm role. A missing role yields no users.
func (c *Client) RealmRoleUsers(ctx context.Context, role string) ([]UserRepresentation, error) {
	return c.pagedUsers(ctx, "/roles/"+url.PathEscape(role)+"/users")
}

// ClientRoleUsers returns all users holding the role on the configured client.
// Without a configured role client, or when the client or role is missing, it yields no users.
func (c *Client) ClientRoleUsers(ctx context.Context, role string) ([]UserRepresentation, error) {
	id, err := c.roleClientUUID(ctx)
	if err != nil || id == "" {
		return nil, err
	}
	return c.pagedUsers(ctx, "/clients/"+url.PathEscape(id)+"/roles/"+url.PathEscape(role)+"/users")
}

func (c *Client) pagedUsers(ctx context.Context, path string) ([]UserRepresentation, error) {
	var all []UserRepresentation
	for first := 0; ; first += pageSize {
		var page []UserRepresentation
		q := url.Values{"first": {strconv.Itoa(first)}, "max": {strconv.Itoa(pageSize)}}
		err := c.getJSON(ctx, path, q, &page)
		if errors.Is(err, shared.ErrNotFound) {
			return all, nil
		}
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < pageSize {
			return all, nil
		}
	}
}

// UserRealmRoles returns the effective realm roles of a user
func (c *Client) UserRealmRoles(ctx context.Context, userID string) ([]string, error) {
	return c.roleNames(ctx, "/users/"+url.PathEscape(userID)+"/role-mappings/realm/composite")
}

// UserClientRoles returns the effective roles of a user on the configured client
func (c *Client) UserClientRoles(ctx context.Context, userID string) ([]string, error) {
	id, err := c.roleClientUUID(ctx)
	if err != nil || id == "" {
		return nil, err
	}
	return c.roleNames(ctx, "/users/"+url.PathEscape(userID)+"/role-mappings/clients/"+url.PathEscape(id)+"/composite")
}

func (c *Client) roleNames(ctx context.Context, path string) ([]string, error) {
	var roles []roleRepresentation
	err := c.getJSON(ctx, path, nil, &roles)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, r.Name)
	}
	return names, nil
}

// roleClientUUID resolves the internal id of the role client once
func (c *Client) roleClientUUID(ctx context.Context) (string, error) {
	if c.roleClientID == "" {
		return "", nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.clientUUID != "" {
		return c.clientUUID, nil
	}

	var clients []clientRepresentation
	if err := c.getJSON(ctx, "/clients", url.Values{"clientId": {c.roleClientID}}, &clients); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	for _, cl := range clients {
		if cl.ClientID == c.roleClientID {
			c.clientUUID = cl.ID
			return cl.ID, nil
		}
	}
	c.logger.Warn("role client not found", zap.String("client_id", c.roleClientID))
	return "", nil
}
