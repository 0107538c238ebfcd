package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/dockbook/internal/config"
	"github.com/julianstephens/dockbook/internal/constants"
	"github.com/julianstephens/dockbook/internal/logger"
	"github.com/julianstephens/dockbook/internal/models"
)

var (
	// ErrNotFound is returned when a key holds no value
	ErrNotFound = errors.New("session value not found")
	// ErrUnavailable is returned when the backing store cannot be reached
	ErrUnavailable = errors.New("session store is not available")
)

// Keys written by Save. Clear removes exactly these.
var Keys = []string{constants.KeyringTokenUser, constants.KeyringProfileUser}

// Store is the auth/session key-value store the client reads its token from.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Clear(ctx context.Context) error
}

// Open builds the store selected by cfg.
func Open(cfg config.SessionConfig) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", constants.SessionBackendKeyring:
		return NewKeyring(), nil
	case constants.SessionBackendRedis:
		return NewRedis(cfg.RedisAddr, cfg.RedisPrefix), nil
	case constants.SessionBackendMemory:
		return NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown session backend %q", cfg.Backend)
}

// Save stores a login result.
func Save(ctx context.Context, s Store, resp models.LoginResponse) error {
	if resp.Token == "" {
		return errors.New("login response carries no token")
	}
	profile, err := json.Marshal(resp.User)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	if err := s.Set(ctx, constants.KeyringTokenUser, resp.Token); err != nil {
		return err
	}
	if err := s.Set(ctx, constants.KeyringProfileUser, string(profile)); err != nil {
		return err
	}
	logger.Info("Session stored", "user", resp.User.Email)
	return nil
}

// Token returns the stored bearer token, or ErrNotFound.
func Token(ctx context.Context, s Store) (string, error) {
	return s.Get(ctx, constants.KeyringTokenUser)
}

// Profile returns the stored user, or ErrNotFound.
func Profile(ctx context.Context, s Store) (models.User, error) {
	raw, err := s.Get(ctx, constants.KeyringProfileUser)
	if err != nil {
		return models.User{}, err
	}
	var u models.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return models.User{}, fmt.Errorf("failed to decode stored profile: %w", err)
	}
	return u, nil
}
