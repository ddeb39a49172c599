// Package user is the credential store: it owns the username→password
// hash records and keeps them in sync with the membership filter that
// gates every existence check.
package user

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"MiniShop/internal/filter"
	"MiniShop/internal/kv"
)

var (
	ErrDuplicateUser      = errors.New("user: username already exists")
	ErrUserNotFound       = errors.New("user: username not found")
	ErrInvalidCredentials = errors.New("user: invalid credentials")
)

// Baskets is the slice of the basket store the credential store
// needs: registration creates an empty basket, deletion drops it.
type Baskets interface {
	EnsureExists(ctx context.Context, username string) error
	Drop(ctx context.Context, username string) error
}

type Store struct {
	kv      kv.Store
	filter  filter.Filter
	baskets Baskets
}

func NewStore(store kv.Store, f filter.Filter, baskets Baskets) *Store {
	return &Store{kv: store, filter: f, baskets: baskets}
}

func credentialKey(username string) string {
	return "user:" + username + ":password"
}

// Register stores a bcrypt hash of the password, records the username
// in the membership filter and initializes an empty basket. The
// filter check and the subsequent writes are not transactional:
// concurrent duplicate registrations race last-write-wins.
func (s *Store) Register(ctx context.Context, username, password string) error {
	exists, err := s.filter.Exists(ctx, username)
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}
	if exists {
		return ErrDuplicateUser
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	if err := s.kv.Set(ctx, credentialKey(username), hash, 0); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	if err := s.filter.Add(ctx, username); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	return s.baskets.EnsureExists(ctx, username)
}

// Verify fails closed: a username absent from the filter, a missing
// record and a wrong password are all ErrInvalidCredentials.
func (s *Store) Verify(ctx context.Context, username, password string) error {
	exists, err := s.filter.Exists(ctx, username)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	if !exists {
		return ErrInvalidCredentials
	}

	hash, err := s.kv.Get(ctx, credentialKey(username))
	if errors.Is(err, kv.ErrNotFound) {
		// Filter false positive: no record behind the membership bit.
		return ErrInvalidCredentials
	}
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}

	if bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Exists reports filter membership; it is the authoritative existence
// signal even though false positives are possible.
func (s *Store) Exists(ctx context.Context, username string) (bool, error) {
	return s.filter.Exists(ctx, username)
}

// Delete removes the credential record, the filter membership and the
// basket, keeping the three in sync.
func (s *Store) Delete(ctx context.Context, username string) error {
	exists, err := s.filter.Exists(ctx, username)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	if !exists {
		return ErrUserNotFound
	}

	if err := s.kv.Delete(ctx, credentialKey(username)); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	if err := s.filter.Remove(ctx, username); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	return s.baskets.Drop(ctx, username)
}
