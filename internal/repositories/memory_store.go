package repositories

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/prudhvinik1/displayhub/internal/models"
)

// MemoryStore is a mutex-guarded Store used by unit tests. The single
// lock gives the same atomicity guarantees the Postgres implementation
// gets from transactions.
type MemoryStore struct {
	mu       sync.Mutex
	devices  map[string]*models.Device // keyed by device ID
	pairings map[string]*models.Pairing
	sessions map[string]*models.Session
	configs  map[string]*models.ModuleConfig
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		devices:  make(map[string]*models.Device),
		pairings: make(map[string]*models.Pairing),
		sessions: make(map[string]*models.Session),
		configs:  make(map[string]*models.ModuleConfig),
	}
}

func (s *MemoryStore) BeginPairing(_ context.Context, params BeginPairingParams) (*BeginPairingResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var device *models.Device
	for _, d := range s.devices {
		if d.HardwareUID == params.HardwareUID {
			device = d
			break
		}
	}
	if device == nil {
		device = &models.Device{
			ID:          params.NewDeviceID,
			HardwareUID: params.HardwareUID,
			CreatedAt:   params.Now,
		}
		s.devices[device.ID] = device
	}
	device.DeviceToken = params.DeviceToken
	device.DeviceTokenExpiresAt = params.TokenExpiresAt

	for _, code := range params.CandidateCodes {
		existing, ok := s.pairings[code]
		if ok && existing.ClaimedAt == nil && existing.ExpiresAt.After(params.Now) {
			continue
		}
		s.pairings[code] = &models.Pairing{
			PairCode:  code,
			DeviceID:  device.ID,
			ExpiresAt: params.PairExpiresAt,
		}
		return &BeginPairingResult{DeviceID: device.ID, PairCode: code}, nil
	}
	return nil, ErrCodeSpaceExhausted
}

func (s *MemoryStore) ClaimPairing(_ context.Context, code, sessionToken string, sessionExpiresAt, now time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pairing, ok := s.pairings[code]
	if !ok {
		return "", ErrCodeInvalid
	}
	if pairing.ClaimedAt != nil {
		return "", ErrCodeClaimed
	}
	if !pairing.ExpiresAt.After(now) {
		return "", ErrCodeExpired
	}

	claimedAt := now
	pairing.ClaimedAt = &claimedAt
	s.sessions[sessionToken] = &models.Session{
		SessionToken: sessionToken,
		DeviceID:     pairing.DeviceID,
		ExpiresAt:    sessionExpiresAt,
		CreatedAt:    now,
	}
	return pairing.DeviceID, nil
}

func (s *MemoryStore) FindDeviceByHardwareUID(_ context.Context, hardwareUID string) (*models.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range s.devices {
		if d.HardwareUID == hardwareUID {
			copy := *d
			return &copy, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) FindDeviceByToken(_ context.Context, deviceToken string) (*models.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if deviceToken == "" {
		return nil, ErrNotFound
	}
	for _, d := range s.devices {
		if d.DeviceToken == deviceToken {
			copy := *d
			return &copy, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) FindPairing(_ context.Context, code string) (*models.Pairing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pairing, ok := s.pairings[code]
	if !ok {
		return nil, ErrNotFound
	}
	copy := *pairing
	return &copy, nil
}

func (s *MemoryStore) FindSession(_ context.Context, sessionToken string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionToken]
	if !ok {
		return nil, ErrNotFound
	}
	copy := *session
	return &copy, nil
}

func (s *MemoryStore) UpsertModuleConfig(_ context.Context, deviceID string, moduleType models.ModuleType, params json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if params == nil {
		params = json.RawMessage(`{}`)
	}
	s.configs[deviceID] = &models.ModuleConfig{
		DeviceID:  deviceID,
		Type:      moduleType,
		Params:    params,
		UpdatedAt: time.Now(),
	}
	return nil
}

func (s *MemoryStore) FindModuleConfig(_ context.Context, deviceID string) (*models.ModuleConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	config, ok := s.configs[deviceID]
	if !ok {
		return nil, ErrNotFound
	}
	copy := *config
	return &copy, nil
}

func (s *MemoryStore) Ping(_ context.Context) error { return nil }
