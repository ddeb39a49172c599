// Package session issues and validates the time-bounded tokens that
// gate authenticated actions. A session's TTL is fixed at creation:
// there is no refresh-on-access, and expiry is evaluated lazily by
// the backing store, never by a sweeper here.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"MiniShop/internal/kv"
	"MiniShop/pkg/kit"
)

// ErrInvalid covers missing, expired and destroyed sessions alike;
// callers cannot distinguish "never existed" from "expired and
// reaped", and must not try.
var ErrInvalid = errors.New("session: invalid or expired")

// DefaultTTL matches the reference configuration of 360 time units.
const DefaultTTL = 360 * time.Second

type Manager struct {
	kv      kv.Store
	ttl     time.Duration
	metrics *kit.Metrics
}

func NewManager(store kv.Store, ttl time.Duration, metrics *kit.Metrics) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{kv: store, ttl: ttl, metrics: metrics}
}

func sessionKey(token string) string {
	return "session:" + token
}

// Create issues a fresh UUIDv4 token and stores the session mapping
// under it with the fixed TTL. UUIDv4 carries 122 random bits, so a
// collision with a live session is cryptographically negligible.
func (m *Manager) Create(ctx context.Context, username string) (string, error) {
	token := uuid.NewString()
	key := sessionKey(token)

	if err := m.kv.HSet(ctx, key, map[string]string{"username": username}); err != nil {
		return "", fmt.Errorf("session create: %w", err)
	}
	if err := m.kv.Expire(ctx, key, m.ttl); err != nil {
		return "", fmt.Errorf("session create: %w", err)
	}

	if m.metrics != nil {
		m.metrics.SessionsIssued.Inc()
	}
	return token, nil
}

// IsValid reports whether the session exists with strictly positive
// remaining TTL. It never extends the TTL.
func (m *Manager) IsValid(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}

	ttl, found, err := m.kv.TTL(ctx, sessionKey(token))
	if err != nil {
		return false, err
	}
	return found && ttl > 0, nil
}

// Username resolves the owner of a live session.
func (m *Manager) Username(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrInvalid
	}

	name, err := m.kv.HGet(ctx, sessionKey(token), "username")
	if errors.Is(err, kv.ErrNotFound) {
		return "", ErrInvalid
	}
	if err != nil {
		return "", err
	}
	return name, nil
}

// Destroy is idempotent: destroying an absent session is a no-op.
func (m *Manager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return m.kv.Delete(ctx, sessionKey(token))
}
