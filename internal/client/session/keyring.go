package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/cartana/accounts/internal/common"
	"github.com/zalando/go-keyring"
)

// keyringService namespaces our entries in the OS credential store.
const keyringService = "cartana"

// KeyringStore persists the session token in the operating system keychain
// (Keychain, Secret Service, Credential Manager). Preferable to the on-disk
// store on developer machines.
type KeyringStore struct {
	service string
}

var _ Store = (*KeyringStore)(nil)

func NewKeyringStore() *KeyringStore {
	return &KeyringStore{service: keyringService}
}

func (s *KeyringStore) Read(ctx context.Context) (string, error) {
	token, err := keyring.Get(s.service, common.SessionTokenKey)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read session token from keyring: %w", err)
	}
	return token, nil
}

func (s *KeyringStore) Write(ctx context.Context, token string) error {
	if err := keyring.Set(s.service, common.SessionTokenKey, token); err != nil {
		return fmt.Errorf("failed to write session token to keyring: %w", err)
	}
	return nil
}

func (s *KeyringStore) Clear(ctx context.Context) error {
	err := keyring.Delete(s.service, common.SessionTokenKey)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to clear session token from keyring: %w", err)
	}
	return nil
}
