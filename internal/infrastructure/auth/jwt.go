package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/contract"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/infrastructure/config"
)

// Common errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingSubject   = errors.New("missing sub in claims")
	ErrNoVerifier       = errors.New("neither a public key nor a secret is configured")
	ErrTokenRevoked     = errors.New("token has been revoked")
)

// RoleList is the {"roles": [...]} object Keycloak uses for role claims
type RoleList struct {
	Roles []string `json:"roles"`
}

// Claims are the Keycloak access token claims the backend relies on
type Claims struct {
	jwt.RegisteredClaims
	PreferredUsername string              `json:"preferred_username,omitempty"`
	Email             string              `json:"email,omitempty"`
	Name              string              `json:"name,omitempty"`
	GivenName         string              `json:"given_name,omitempty"`
	FamilyName        string              `json:"family_name,omitempty"`
	RealmAccess       RoleList            `json:"realm_access"`
	ResourceAccess    map[string]RoleList `json:"resource_access,omitempty"`
}

// Roles returns the realm roles merged with the roles of clientID, de-duplicated and sorted
func (c *Claims) Roles(clientID string) []string {
	roles := slices.Clone(c.RealmAccess.Roles)
	if clientID != "" {
		roles = append(roles, c.ResourceAccess[clientID].Roles...)
	}
	slices.Sort(roles)
	return slices.Compact(roles)
}

// Username returns preferred_username, falling back to the subject
func (c *Claims) Username() string {
	if c.PreferredUsername != "" {
		return c.PreferredUsername
	}
	return c.Subject
}

// DisplayName returns the name claim, or given and family name joined
func (c *Claims) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return strings.TrimSpace(c.GivenName + " " + c.FamilyName)
}

// CurrentUser converts the claims into the principal stored in request contexts
func (c *Claims) CurrentUser(clientID string) contract.CurrentUser {
	return contract.CurrentUser{
		ID:       c.Subject,
		Username: c.Username(),
		Email:    c.Email,
		Name:     c.DisplayName(),
		Roles:    c.Roles(clientID),
	}
}

// GetExpiresAtTime returns the token's expiration time as time.Time
func (c *Claims) GetExpiresAtTime() time.Time {
	if c.ExpiresAt != nil {
		return c.ExpiresAt.Time
	}
	return time.Time{}
}

// GetRemainingTTL returns the remaining time until the token expires
func (c *Claims) GetRemainingTTL() time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	remaining := time.Until(c.ExpiresAt.Time)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// JWTService validates bearer tokens issued by Keycloak.
// RS256 tokens are checked with the realm public key; HS256 tokens with the shared secret.
type JWTService struct {
	publicKey *rsa.PublicKey
	secret    []byte
	issuer    string
	audience  string
	clientID  string
}

// NewJWTService creates a validator from configuration
func NewJWTService(cfg config.JWTConfig) (*JWTService, error) {
	s := &JWTService{
		secret:   []byte(cfg.Secret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		clientID: cfg.ClientID,
	}
	if pem := strings.TrimSpace(cfg.PublicKey); pem != "" {
		key, err := parsePublicKey(pem)
		if err != nil {
			return nil, err
		}
		s.publicKey = key
	}
	if s.publicKey == nil && len(s.secret) == 0 {
		return nil, ErrNoVerifier
	}
	return s, nil
}

// parsePublicKey accepts a full PEM block or the bare base64 key shown in the Keycloak console
func parsePublicKey(key string) (*rsa.PublicKey, error) {
	if !strings.HasPrefix(key, "-----BEGIN") {
		key = "-----BEGIN PUBLIC KEY-----\n" + key + "\n-----END PUBLIC KEY-----"
	}
	pub, err := jwt.ParseRSAPublicKeyFromPEM([]byte(key))
	if err != nil {
		return nil, fmt.Errorf("invalid jwt public key: %w", err)
	}
	return pub, nil
}

// ClientID returns the client whose roles are merged with realm roles
func (s *JWTService) ClientID() string {
	return s.clientID
}

// ValidateAccessToken validates a token and returns its claims
func (s *JWTService) ValidateAccessToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256", "HS256"}),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	if s.audience != "" {
		opts = append(opts, jwt.WithAudience(s.audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, s.keyFor, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, ErrTokenNotYetValid
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}
	return claims, nil
}

func (s *JWTService) keyFor(token *jwt.Token) (any, error) {
	switch token.Method.(type) {
	case *jwt.SigningMethodRSA:
		if s.publicKey == nil {
			return nil, ErrInvalidToken
		}
		return s.publicKey, nil
	case *jwt.SigningMethodHMAC:
		if len(s.secret) == 0 {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}
	return nil, ErrInvalidToken
}

// IssueInput describes a token to sign with the shared secret
type IssueInput struct {
	Subject     string
	Username    string
	Email       string
	Name        string
	RealmRoles  []string
	ClientRoles []string
	TTL         time.Duration
}

// IssueToken signs an HS256 token shaped like a Keycloak access token.
// It serves local development and tests where no Keycloak is running.
func (s *JWTService) IssueToken(in IssueInput) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrNoVerifier
	}
	if in.TTL <= 0 {
		in.TTL = 15 * time.Minute
	}
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    s.issuer,
			Subject:   in.Subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(in.TTL)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		PreferredUsername: in.Username,
		Email:             in.Email,
		Name:              in.Name,
		RealmAccess:       RoleList{Roles: in.RealmRoles},
	}
	if s.audience != "" {
		claims.Audience = jwt.ClaimStrings{s.audience}
	}
	if s.clientID != "" && len(in.ClientRoles) > 0 {
		claims.ResourceAccess = map[string]RoleList{s.clientID: {Roles: in.ClientRoles}}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
