package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/infrastructure/cache"
)

// RevocationList remembers tokens that were logged out before they expired.
// Entries live in the shared cache store, so with redis every instance sees them.
type RevocationList struct {
	store cache.Store
}

// NewRevocationList creates a revocation list on top of a cache store
func NewRevocationList(store cache.Store) *RevocationList {
	return &RevocationList{store: store}
}

func revocationKey(jti string) string {
	return "auth:revoked:" + jti
}

// Revoke marks the token id as revoked for ttl, normally the token's remaining lifetime
func (r *RevocationList) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" || ttl <= 0 {
		return nil
	}
	if err := r.store.Set(ctx, revocationKey(jti), []byte("1"), ttl); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether the token id was revoked
func (r *RevocationList) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	_, err := r.store.Get(ctx, revocationKey(jti))
	if errors.Is(err, cache.ErrCacheMiss) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return true, nil
}
