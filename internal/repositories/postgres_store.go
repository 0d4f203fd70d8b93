package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prudhvinik1/displayhub/internal/models"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) BeginPairing(ctx context.Context, params BeginPairingParams) (*BeginPairingResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin pairing tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var deviceID string
	err = tx.QueryRow(ctx,
		`SELECT id FROM device WHERE hardware_uid = $1`,
		params.HardwareUID,
	).Scan(&deviceID)
	if errors.Is(err, pgx.ErrNoRows) {
		deviceID = params.NewDeviceID
		_, err = tx.Exec(ctx,
			`INSERT INTO device (id, hardware_uid, device_token, created_at) VALUES ($1, $2, '', $3)`,
			deviceID, params.HardwareUID, params.Now,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to upsert device: %w", err)
	}

	// Single-active-token policy: every pairing start invalidates the
	// previous token.
	_, err = tx.Exec(ctx,
		`UPDATE device SET device_token = $1, device_token_expires_at = $2 WHERE id = $3`,
		params.DeviceToken, params.TokenExpiresAt, deviceID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to rotate device token: %w", err)
	}

	pairCode := ""
	for _, code := range params.CandidateCodes {
		// A code is taken only while an unclaimed, unexpired pairing
		// holds it; dead rows are overwritten in place.
		tag, err := tx.Exec(ctx,
			`INSERT INTO pairing (pair_code, device_id, expires_at, claimed_at)
			 VALUES ($1, $2, $3, NULL)
			 ON CONFLICT (pair_code) DO UPDATE
			 SET device_id = EXCLUDED.device_id, expires_at = EXCLUDED.expires_at, claimed_at = NULL
			 WHERE pairing.claimed_at IS NOT NULL OR pairing.expires_at <= $4`,
			code, deviceID, params.PairExpiresAt, params.Now,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert pairing: %w", err)
		}
		if tag.RowsAffected() > 0 {
			pairCode = code
			break
		}
	}
	if pairCode == "" {
		return nil, ErrCodeSpaceExhausted
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit pairing tx: %w", err)
	}
	return &BeginPairingResult{DeviceID: deviceID, PairCode: pairCode}, nil
}

func (s *PostgresStore) ClaimPairing(ctx context.Context, code, sessionToken string, sessionExpiresAt, now time.Time) (string, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to begin claim tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// The conditional update is the one-time-use enforcement point: of
	// two concurrent claims, only one sees claimed_at still NULL.
	var deviceID string
	err = tx.QueryRow(ctx,
		`UPDATE pairing SET claimed_at = $2
		 WHERE pair_code = $1 AND claimed_at IS NULL AND expires_at > $2
		 RETURNING device_id`,
		code, now,
	).Scan(&deviceID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", s.diagnoseClaimFailure(ctx, tx, code)
	}
	if err != nil {
		return "", fmt.Errorf("failed to claim pairing: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO session (session_token, device_id, expires_at, created_at) VALUES ($1, $2, $3, $4)`,
		sessionToken, deviceID, sessionExpiresAt, now,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("failed to commit claim tx: %w", err)
	}
	return deviceID, nil
}

func (s *PostgresStore) diagnoseClaimFailure(ctx context.Context, tx pgx.Tx, code string) error {
	var claimedAt *time.Time
	err := tx.QueryRow(ctx,
		`SELECT claimed_at FROM pairing WHERE pair_code = $1`,
		code,
	).Scan(&claimedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrCodeInvalid
	}
	if err != nil {
		return fmt.Errorf("failed to inspect pairing: %w", err)
	}
	if claimedAt != nil {
		return ErrCodeClaimed
	}
	return ErrCodeExpired
}

func (s *PostgresStore) FindDeviceByHardwareUID(ctx context.Context, hardwareUID string) (*models.Device, error) {
	return s.findDevice(ctx, `hardware_uid = $1`, hardwareUID)
}

func (s *PostgresStore) FindDeviceByToken(ctx context.Context, deviceToken string) (*models.Device, error) {
	if deviceToken == "" {
		return nil, ErrNotFound
	}
	return s.findDevice(ctx, `device_token = $1`, deviceToken)
}

func (s *PostgresStore) findDevice(ctx context.Context, where string, arg any) (*models.Device, error) {
	query := `SELECT id, hardware_uid, device_token, device_token_expires_at, created_at
	          FROM device WHERE ` + where

	var device models.Device
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&device.ID,
		&device.HardwareUID,
		&device.DeviceToken,
		&device.DeviceTokenExpiresAt,
		&device.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get device: %w", err)
	}
	return &device, nil
}

func (s *PostgresStore) FindPairing(ctx context.Context, code string) (*models.Pairing, error) {
	query := `SELECT pair_code, device_id, expires_at, claimed_at FROM pairing WHERE pair_code = $1`

	var pairing models.Pairing
	err := s.pool.QueryRow(ctx, query, code).Scan(
		&pairing.PairCode,
		&pairing.DeviceID,
		&pairing.ExpiresAt,
		&pairing.ClaimedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pairing: %w", err)
	}
	return &pairing, nil
}

func (s *PostgresStore) FindSession(ctx context.Context, sessionToken string) (*models.Session, error) {
	query := `SELECT session_token, device_id, expires_at, created_at FROM session WHERE session_token = $1`

	var session models.Session
	err := s.pool.QueryRow(ctx, query, sessionToken).Scan(
		&session.SessionToken,
		&session.DeviceID,
		&session.ExpiresAt,
		&session.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

func (s *PostgresStore) UpsertModuleConfig(ctx context.Context, deviceID string, moduleType models.ModuleType, params json.RawMessage) error {
	if params == nil {
		params = json.RawMessage(`{}`)
	}
	query := `INSERT INTO module_config (device_id, type, params, updated_at)
	          VALUES ($1, $2, $3, NOW())
	          ON CONFLICT (device_id) DO UPDATE
	          SET type = EXCLUDED.type, params = EXCLUDED.params, updated_at = EXCLUDED.updated_at`

	if _, err := s.pool.Exec(ctx, query, deviceID, string(moduleType), params); err != nil {
		return fmt.Errorf("failed to upsert module config: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindModuleConfig(ctx context.Context, deviceID string) (*models.ModuleConfig, error) {
	query := `SELECT device_id, type, params, updated_at FROM module_config WHERE device_id = $1`

	var config models.ModuleConfig
	err := s.pool.QueryRow(ctx, query, deviceID).Scan(
		&config.DeviceID,
		&config.Type,
		&config.Params,
		&config.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get module config: %w", err)
	}
	return &config, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
