package middleware

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/contract"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/infrastructure/auth"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/infrastructure/config"
)

func newTestJWTService(t *testing.T) *auth.JWTService {
	t.Helper()
	svc, err := auth.NewJWTService(config.JWTConfig{
		Secret:   "test-secret-key-at-least-32-chars",
		Issuer:   "http://keycloak/realms/valtimo",
		ClientID: "valtimo-console",
	})
	require.NoError(t, err)
	return svc
}

func issue(t *testing.T, svc *auth.JWTService, in auth.IssueInput) string {
	t.Helper()
	token, err := svc.IssueToken(in)
	require.NoError(t, err)
	return token
}

type revocations struct {
	revoked map[string]bool
	err     error
}

func (r revocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	return r.revoked[jti], r.err
}

func TestJWTAuthMiddleware(t *testing.T) {
	svc := newTestJWTService(t)
	token := issue(t, svc, auth.IssueInput{
		Subject:     "u-1",
		Username:    "jdoe",
		Email:       "jdoe@example.com",
		RealmRoles:  []string{"ROLE_USER"},
		ClientRoles: []string{"ROLE_ADMIN"},
	})

	var seen contract.CurrentUser
	router := gin.New()
	router.Use(RequestID(), JWTAuthMiddleware(svc))
	router.GET("/api/v1/test", func(c *gin.Context) {
		seen, _ = contract.CurrentUserFrom(c.Request.Context())
		c.Status(http.StatusOK)
	})
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("valid token stores the principal", func(t *testing.T) {
		w := serve(router, http.MethodGet, "/api/v1/test", map[string]string{AuthHeaderKey: BearerPrefix + token})

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "u-1", seen.ID)
		assert.Equal(t, "jdoe", seen.Username)
		assert.Equal(t, []string{"ROLE_ADMIN", "ROLE_USER"}, seen.Roles)
	})

	t.Run("missing header", func(t *testing.T) {
		w := serve(router, http.MethodGet, "/api/v1/test", nil)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), `"code":"INVALID_TOKEN"`)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		w := serve(router, http.MethodGet, "/api/v1/test", map[string]string{AuthHeaderKey: "Basic " + token})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		expired := issue(t, svc, auth.IssueInput{Subject: "u-1", TTL: time.Nanosecond})
		time.Sleep(1100 * time.Millisecond)

		w := serve(router, http.MethodGet, "/api/v1/test", map[string]string{AuthHeaderKey: BearerPrefix + expired})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "TOKEN_EXPIRED")
	})

	t.Run("skip path needs no token", func(t *testing.T) {
		w := serve(router, http.MethodGet, "/health", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestJWTAuthMiddleware_Revocation(t *testing.T) {
	svc := newTestJWTService(t)
	token := issue(t, svc, auth.IssueInput{Subject: "u-1"})
	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)

	newRouter := func(r RevocationChecker) *gin.Engine {
		cfg := DefaultJWTConfig(svc)
		cfg.Revocations = r
		router := gin.New()
		router.Use(JWTAuthMiddlewareWithConfig(cfg))
		router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })
		return router
	}
	headers := map[string]string{AuthHeaderKey: BearerPrefix + token}

	w := serve(newRouter(revocations{revoked: map[string]bool{claims.ID: true}}), http.MethodGet, "/test", headers)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "TOKEN_REVOKED")

	w = serve(newRouter(revocations{err: errors.New("redis down")}), http.MethodGet, "/test", headers)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRole(t *testing.T) {
	svc := newTestJWTService(t)
	admin := issue(t, svc, auth.IssueInput{Subject: "a", RealmRoles: []string{RoleAdmin}})
	user := issue(t, svc, auth.IssueInput{Subject: "u", RealmRoles: []string{"ROLE_USER"}})

	router := gin.New()
	router.GET("/admin", OptionalJWTAuthMiddleware(svc), RequireRole(RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/admin", map[string]string{AuthHeaderKey: BearerPrefix + admin}).Code)
	assert.Equal(t, http.StatusForbidden, serve(router, http.MethodGet, "/admin", map[string]string{AuthHeaderKey: BearerPrefix + user}).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(router, http.MethodGet, "/admin", nil).Code)
}
