package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prudhvinik1/displayhub/internal/cache"
	"github.com/prudhvinik1/displayhub/internal/metrics"
	"github.com/prudhvinik1/displayhub/internal/repositories"
	"github.com/prudhvinik1/displayhub/internal/utils"
	"go.uber.org/zap"
)

var ErrHardwareUIDRequired = errors.New("hardware_uid is required")

// codeAttempts bounds the pair-code collision retry loop. With a 10^6
// code space exhausting all attempts signals the caller to retry later.
const codeAttempts = 5

// PairingService drives the device-browser handshake:
// start issues a fresh device token plus a short-lived code, claim
// consumes the code and opens a browser session.
type PairingService struct {
	store          repositories.Store
	clock          cache.Clock
	logger         *zap.Logger
	pairTTL        time.Duration
	sessionTTL     time.Duration
	deviceTokenTTL time.Duration // 0 means device tokens never expire
}

func NewPairingService(
	store repositories.Store,
	clock cache.Clock,
	logger *zap.Logger,
	pairTTL, sessionTTL, deviceTokenTTL time.Duration,
) *PairingService {
	if clock == nil {
		clock = cache.SystemClock
	}
	return &PairingService{
		store:          store,
		clock:          clock,
		logger:         logger,
		pairTTL:        pairTTL,
		sessionTTL:     sessionTTL,
		deviceTokenTTL: deviceTokenTTL,
	}
}

type StartResult struct {
	PairCode    string `json:"pair_code"`
	DeviceToken string `json:"device_token"`
	DeviceID    string `json:"device_id"`
	ExpiresIn   int    `json:"expires_in"`
}

type ClaimResult struct {
	DeviceID     string
	SessionToken string
	ExpiresAt    time.Time
}

// Start registers or refreshes the device for hardwareUID and issues a
// pairing code. The device token is rotated unconditionally; any
// previously issued token stops authenticating immediately
// (last-writer-wins under concurrent starts, by policy).
func (s *PairingService) Start(ctx context.Context, hardwareUID string) (*StartResult, error) {
	if hardwareUID == "" {
		return nil, ErrHardwareUIDRequired
	}

	now := s.clock.Now()
	codes := make([]string, 0, codeAttempts)
	for i := 0; i < codeAttempts; i++ {
		codes = append(codes, utils.GenerateCode())
	}

	var tokenExpiresAt *time.Time
	if s.deviceTokenTTL > 0 {
		t := now.Add(s.deviceTokenTTL)
		tokenExpiresAt = &t
	}

	params := repositories.BeginPairingParams{
		HardwareUID:    hardwareUID,
		NewDeviceID:    utils.GenerateID("dev"),
		DeviceToken:    utils.GenerateToken(utils.DefaultTokenBytes),
		TokenExpiresAt: tokenExpiresAt,
		CandidateCodes: codes,
		PairExpiresAt:  now.Add(s.pairTTL),
		Now:            now,
	}

	result, err := s.store.BeginPairing(ctx, params)
	if err != nil {
		if errors.Is(err, repositories.ErrCodeSpaceExhausted) {
			s.logger.Warn("pair code space exhausted", zap.String("hardware_uid", hardwareUID))
			return nil, err
		}
		return nil, fmt.Errorf("failed to start pairing: %w", err)
	}

	metrics.PairingsStarted.Inc()
	s.logger.Info("pairing started",
		zap.String("device_id", result.DeviceID),
		zap.String("hardware_uid", hardwareUID),
	)

	return &StartResult{
		PairCode:    result.PairCode,
		DeviceToken: params.DeviceToken,
		DeviceID:    result.DeviceID,
		ExpiresIn:   int(s.pairTTL.Seconds()),
	}, nil
}

// Claim consumes a pairing code and opens a session for the code's
// device. The store serializes concurrent claims of the same code.
func (s *PairingService) Claim(ctx context.Context, code string) (*ClaimResult, error) {
	now := s.clock.Now()
	sessionToken := utils.GenerateToken(utils.DefaultTokenBytes)
	expiresAt := now.Add(s.sessionTTL)

	deviceID, err := s.store.ClaimPairing(ctx, code, sessionToken, expiresAt, now)
	if err != nil {
		if errors.Is(err, repositories.ErrCodeInvalid) ||
			errors.Is(err, repositories.ErrCodeClaimed) ||
			errors.Is(err, repositories.ErrCodeExpired) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to claim pairing: %w", err)
	}

	metrics.PairingsClaimed.Inc()
	s.logger.Info("pairing claimed", zap.String("device_id", deviceID))

	return &ClaimResult{
		DeviceID:     deviceID,
		SessionToken: sessionToken,
		ExpiresAt:    expiresAt,
	}, nil
}
