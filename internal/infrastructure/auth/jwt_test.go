package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/infrastructure/cache"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/infrastructure/config"
)

const testSecret = "test-secret-key-at-least-32-chars"

func newTestJWTService(t *testing.T) *JWTService {
	t.Helper()
	svc, err := NewJWTService(config.JWTConfig{
		Secret:   testSecret,
		Issuer:   "http://keycloak/realms/valtimo",
		ClientID: "valtimo-console",
	})
	require.NoError(t, err)
	return svc
}

func rsaKeyPair(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	return key, string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
}

func TestNewJWTService(t *testing.T) {
	_, err := NewJWTService(config.JWTConfig{})
	assert.ErrorIs(t, err, ErrNoVerifier)

	_, err = NewJWTService(config.JWTConfig{PublicKey: "not-a-key"})
	assert.Error(t, err)

	_, pemKey := rsaKeyPair(t)
	svc, err := NewJWTService(config.JWTConfig{PublicKey: pemKey, ClientID: "console"})
	require.NoError(t, err)
	assert.Equal(t, "console", svc.ClientID())
}

func TestJWTService_IssueAndValidate(t *testing.T) {
	svc := newTestJWTService(t)

	token, err := svc.IssueToken(IssueInput{
		Subject:     "user-1",
		Username:    "jdoe",
		Email:       "jdoe@example.com",
		Name:        "John Doe",
		RealmRoles:  []string{"ROLE_USER", "offline_access"},
		ClientRoles: []string{"ROLE_ADMIN", "ROLE_USER"},
	})
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "jdoe", claims.Username())
	assert.Equal(t, []string{"ROLE_ADMIN", "ROLE_USER", "offline_access"}, claims.Roles(svc.ClientID()))
	assert.Equal(t, []string{"ROLE_USER", "offline_access"}, claims.Roles(""))

	user := claims.CurrentUser(svc.ClientID())
	assert.Equal(t, "user-1", user.ID)
	assert.Equal(t, "John Doe", user.Name)
	assert.Equal(t, "jdoe@example.com", user.Email)
}

func TestJWTService_ValidateRS256(t *testing.T) {
	key, pemKey := rsaKeyPair(t)
	svc, err := NewJWTService(config.JWTConfig{PublicKey: pemKey, ClientID: "console"})
	require.NoError(t, err)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "kc-user",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
		PreferredUsername: "kc",
		RealmAccess:       RoleList{Roles: []string{"ROLE_USER"}},
		ResourceAccess:    map[string]RoleList{"console": {Roles: []string{"ROLE_DEVELOPER"}}},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)

	got, err := svc.ValidateAccessToken(signed)
	require.NoError(t, err)
	assert.Equal(t, []string{"ROLE_DEVELOPER", "ROLE_USER"}, got.Roles("console"))

	// a bare base64 key is accepted as well
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	bare, err := NewJWTService(config.JWTConfig{PublicKey: base64.StdEncoding.EncodeToString(der)})
	require.NoError(t, err)
	_, err = bare.ValidateAccessToken(signed)
	assert.NoError(t, err)

	// HS256 is rejected when no secret is configured
	hs, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	_, err = svc.ValidateAccessToken(hs)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_ValidateErrors(t *testing.T) {
	svc := newTestJWTService(t)

	t.Run("expired", func(t *testing.T) {
		claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u",
			Issuer:    "http://keycloak/realms/valtimo",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		_, err = svc.ValidateAccessToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewJWTService(config.JWTConfig{Secret: "another-secret-another-secret-32", Issuer: "http://keycloak/realms/valtimo"})
		require.NoError(t, err)
		token, err := other.IssueToken(IssueInput{Subject: "u"})
		require.NoError(t, err)
		_, err = svc.ValidateAccessToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other, err := NewJWTService(config.JWTConfig{Secret: testSecret, Issuer: "http://elsewhere"})
		require.NoError(t, err)
		token, err := other.IssueToken(IssueInput{Subject: "u"})
		require.NoError(t, err)
		_, err = svc.ValidateAccessToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing subject", func(t *testing.T) {
		token, err := svc.IssueToken(IssueInput{})
		require.NoError(t, err)
		_, err = svc.ValidateAccessToken(token)
		assert.ErrorIs(t, err, ErrMissingSubject)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateAccessToken("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestClaims_DisplayName(t *testing.T) {
	c := &Claims{GivenName: "Jane", FamilyName: "Doe"}
	assert.Equal(t, "Jane Doe", c.DisplayName())
	c.Name = "J. Doe"
	assert.Equal(t, "J. Doe", c.DisplayName())

	c.RegisteredClaims.Subject = "sub-1"
	assert.Equal(t, "sub-1", c.Username())
	assert.Zero(t, c.GetRemainingTTL())
}

func TestRevocationList(t *testing.T) {
	store := cache.NewInMemoryStore()
	defer store.Close()
	list := NewRevocationList(store)
	ctx := context.Background()

	revoked, err := list.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, list.Revoke(ctx, "jti-1", time.Hour))
	revoked, err = list.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	require.NoError(t, list.Revoke(ctx, "jti-2", time.Millisecond))
	time.Sleep(10 * time.Millisecond)
	revoked, err = list.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)

	// tokens without an id cannot be revoked
	require.NoError(t, list.Revoke(ctx, "", time.Hour))
	revoked, err = list.IsRevoked(ctx, "")
	require.NoError(t, err)
	assert.False(t, revoked)
}
