package services

import (
	"context"
	"errors"

	"github.com/prudhvinik1/displayhub/internal/cache"
	"github.com/prudhvinik1/displayhub/internal/models"
	"github.com/prudhvinik1/displayhub/internal/repositories"
)

var (
	// ErrUnauthorized covers every credential failure — missing,
	// unknown or expired — so responses never leak how close a
	// credential came to matching.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden marks a valid session used against a device it was
	// not issued for.
	ErrForbidden = errors.New("session not authorized for this device")
)

// AuthService validates the two credential domains: browser sessions
// (write config) and device tokens (read own config).
type AuthService struct {
	store repositories.Store
	clock cache.Clock
}

func NewAuthService(store repositories.Store, clock cache.Clock) *AuthService {
	if clock == nil {
		clock = cache.SystemClock
	}
	return &AuthService{store: store, clock: clock}
}

// ResolveSession maps a session token to its device ID. Lookup plus
// expiry check.
func (s *AuthService) ResolveSession(ctx context.Context, sessionToken string) (string, error) {
	if sessionToken == "" {
		return "", ErrUnauthorized
	}
	session, err := s.store.FindSession(ctx, sessionToken)
	if err != nil {
		return "", ErrUnauthorized
	}
	if s.clock.Now().After(session.ExpiresAt) {
		return "", ErrUnauthorized
	}
	return session.DeviceID, nil
}

// AuthorizeDeviceWrite checks that the session was issued for exactly
// the target device.
func (s *AuthService) AuthorizeDeviceWrite(ctx context.Context, sessionToken, deviceID string) error {
	sessionDeviceID, err := s.ResolveSession(ctx, sessionToken)
	if err != nil {
		return err
	}
	if sessionDeviceID != deviceID {
		return ErrForbidden
	}
	return nil
}

// ResolveDevice maps a device token to its device. Tokens are
// invalidated by rotation; expiry applies only when a token TTL was
// configured at pairing time.
func (s *AuthService) ResolveDevice(ctx context.Context, deviceToken string) (*models.Device, error) {
	if deviceToken == "" {
		return nil, ErrUnauthorized
	}
	device, err := s.store.FindDeviceByToken(ctx, deviceToken)
	if err != nil {
		return nil, ErrUnauthorized
	}
	if device.DeviceTokenExpiresAt != nil && s.clock.Now().After(*device.DeviceTokenExpiresAt) {
		return nil, ErrUnauthorized
	}
	return device, nil
}
