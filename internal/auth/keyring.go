package auth

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	// ServiceName is the keyring service the token is filed under
	ServiceName = "reposync"

	defaultAccount = "github-token"
)

// TokenStore persists the GitHub token outside the configuration file
type TokenStore interface {
	Get() (string, error)
	Set(token string) error
	Delete() error
	Name() string
}

// KeyringStore keeps the token in the system keyring
type KeyringStore struct {
	service string
	account string
}

// NewKeyringStore creates a store for account, or the default account when
// empty
func NewKeyringStore(account string) *KeyringStore {
	if account == "" {
		account = defaultAccount
	}
	return &KeyringStore{service: ServiceName, account: account}
}

// Get returns the stored token. A missing entry yields ErrNoToken.
func (s *KeyringStore) Get() (string, error) {
	token, err := keyring.Get(s.service, s.account)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", ClassifyError(fmt.Errorf("failed to read keyring: %w", err))
	}
	return token, nil
}

func (s *KeyringStore) Set(token string) error {
	if token == "" {
		return errors.New("refusing to store an empty token")
	}
	if err := keyring.Set(s.service, s.account, token); err != nil {
		return ClassifyError(fmt.Errorf("failed to write keyring: %w", err))
	}
	return nil
}

// Delete removes the token. Deleting a missing entry is not an error.
func (s *KeyringStore) Delete() error {
	err := keyring.Delete(s.service, s.account)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return ClassifyError(fmt.Errorf("failed to delete keyring entry: %w", err))
	}
	return nil
}

func (s *KeyringStore) Name() string {
	return "system-keyring"
}

// TokenFallback adapts a store for config.FileStore.WithTokenFallback
func TokenFallback(store TokenStore) func() (string, error) {
	return store.Get
}
