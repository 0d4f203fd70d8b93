package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/prudhvinik1/displayhub/internal/models"
)

var (
	ErrNotFound = errors.New("not found")

	// Pairing-claim failures, diagnosed inside the claim transaction.
	ErrCodeInvalid = errors.New("invalid code")
	ErrCodeClaimed = errors.New("code already claimed")
	ErrCodeExpired = errors.New("code expired")

	// All candidate codes collided with live pairings.
	ErrCodeSpaceExhausted = errors.New("failed to allocate pair code")
)

// BeginPairingParams carries one pairing-start attempt. NewDeviceID and
// DeviceToken are generated by the caller so the store stays free of
// crypto concerns.
type BeginPairingParams struct {
	HardwareUID string
	// NewDeviceID is used only when no device exists for HardwareUID.
	NewDeviceID string
	// DeviceToken unconditionally replaces the device's current token.
	DeviceToken string
	// TokenExpiresAt is nil when device tokens do not expire.
	TokenExpiresAt *time.Time
	// CandidateCodes are tried in order; a code only collides with an
	// unclaimed, unexpired pairing row.
	CandidateCodes []string
	PairExpiresAt  time.Time
	Now            time.Time
}

type BeginPairingResult struct {
	DeviceID string
	PairCode string
}

// Store is the persistence contract consumed by the services. The two
// composite operations are atomic: a crash mid-sequence never leaves an
// orphaned pairing pointing at a device with a stale token, and exactly
// one of two concurrent claims of the same code succeeds.
type Store interface {
	// BeginPairing finds or creates the device, rotates its token and
	// inserts a pairing row for the first free candidate code, all in
	// one atomic unit. Returns ErrCodeSpaceExhausted when every
	// candidate collides.
	BeginPairing(ctx context.Context, params BeginPairingParams) (*BeginPairingResult, error)

	// ClaimPairing consumes an unclaimed, unexpired pairing and creates
	// the session in the same atomic unit. Returns ErrCodeInvalid,
	// ErrCodeClaimed or ErrCodeExpired on failure.
	ClaimPairing(ctx context.Context, code, sessionToken string, sessionExpiresAt, now time.Time) (string, error)

	FindDeviceByHardwareUID(ctx context.Context, hardwareUID string) (*models.Device, error)
	FindDeviceByToken(ctx context.Context, deviceToken string) (*models.Device, error)
	FindPairing(ctx context.Context, code string) (*models.Pairing, error)
	FindSession(ctx context.Context, sessionToken string) (*models.Session, error)

	UpsertModuleConfig(ctx context.Context, deviceID string, moduleType models.ModuleType, params json.RawMessage) error
	FindModuleConfig(ctx context.Context, deviceID string) (*models.ModuleConfig, error)

	Ping(ctx context.Context) error
}
