package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/dockbook/internal/constants"
	"github.com/julianstephens/dockbook/internal/logger"
)

// Keyring keeps the session in the OS keyring under the application name.
type Keyring struct {
	service string
}

func NewKeyring() *Keyring {
	return &Keyring{service: constants.AppName}
}

func (k *Keyring) Get(_ context.Context, key string) (string, error) {
	v, err := keyring.Get(k.service, key)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return v, nil
}

func (k *Keyring) Set(_ context.Context, key, value string) error {
	if value == "" {
		return errors.New("session value cannot be empty")
	}
	if err := keyring.Set(k.service, key, value); err != nil {
		return fmt.Errorf("failed to store session in keyring: %w", err)
	}
	return nil
}

// Clear removes every session key. Keys that are already absent are skipped.
func (k *Keyring) Clear(_ context.Context) error {
	for _, key := range Keys {
		err := keyring.Delete(k.service, key)
		if err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("failed to delete session from keyring: %w", err)
		}
	}
	logger.Info("Session cleared", "backend", constants.SessionBackendKeyring)
	return nil
}

// Available checks if the OS keyring is available on the current system.
// A missing key still counts as available.
func (k *Keyring) Available() bool {
	_, err := keyring.Get(k.service, "test-availability")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
