package domain

import (
	"context"
	"time"
)

// Store tracks live refresh tokens by jti. A token absent from the store is
// treated as revoked even when its signature and expiry check out.
// Consume atomically removes a jti and returns its identity, so two racing
// refreshes of the same token can never both rotate it; it returns
// ErrTokenRevoked for an unknown or expired jti.
type Store interface {
	Save(ctx context.Context, jti, identity string, ttl time.Duration) error
	Consume(ctx context.Context, jti string) (string, error)
}
