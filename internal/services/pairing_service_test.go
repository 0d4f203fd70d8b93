package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prudhvinik1/displayhub/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testPairTTL    = 300 * time.Second
	testSessionTTL = 30 * time.Minute
)

func newPairingFixture(t *testing.T) (*PairingService, *AuthService, *repositories.MemoryStore, *fakeClock) {
	t.Helper()
	store := repositories.NewMemoryStore()
	clock := newFakeClock()
	pairing := NewPairingService(store, clock, zap.NewNop(), testPairTTL, testSessionTTL, 0)
	auth := NewAuthService(store, clock)
	return pairing, auth, store, clock
}

func TestPairingService_StartIssuesCodeAndToken(t *testing.T) {
	pairing, _, store, _ := newPairingFixture(t)
	ctx := context.Background()

	result, err := pairing.Start(ctx, "esp32c3:9C:9E:6E:C3:39:80")

	require.NoError(t, err)
	assert.Len(t, result.PairCode, 6)
	assert.NotEmpty(t, result.DeviceToken)
	assert.Equal(t, 300, result.ExpiresIn)

	device, err := store.FindDeviceByHardwareUID(ctx, "esp32c3:9C:9E:6E:C3:39:80")
	require.NoError(t, err)
	assert.Equal(t, device.ID, result.DeviceID)
	assert.Equal(t, device.DeviceToken, result.DeviceToken)
}

func TestPairingService_StartTwiceRotatesToken(t *testing.T) {
	pairing, auth, _, _ := newPairingFixture(t)
	ctx := context.Background()

	first, err := pairing.Start(ctx, "hw-1")
	require.NoError(t, err)
	second, err := pairing.Start(ctx, "hw-1")
	require.NoError(t, err)

	assert.Equal(t, first.DeviceID, second.DeviceID, "same hardware keeps its device identity")
	assert.NotEqual(t, first.DeviceToken, second.DeviceToken, "token rotates on every start")

	// The earlier token must stop authenticating immediately.
	_, err = auth.ResolveDevice(ctx, first.DeviceToken)
	assert.ErrorIs(t, err, ErrUnauthorized)

	device, err := auth.ResolveDevice(ctx, second.DeviceToken)
	require.NoError(t, err)
	assert.Equal(t, second.DeviceID, device.ID)
}

func TestPairingService_StartRequiresHardwareUID(t *testing.T) {
	pairing, _, _, _ := newPairingFixture(t)

	_, err := pairing.Start(context.Background(), "")
	assert.ErrorIs(t, err, ErrHardwareUIDRequired)
}

func TestPairingService_ClaimHappyPath(t *testing.T) {
	pairing, auth, _, _ := newPairingFixture(t)
	ctx := context.Background()

	start, err := pairing.Start(ctx, "hw-1")
	require.NoError(t, err)

	claim, err := pairing.Claim(ctx, start.PairCode)
	require.NoError(t, err)
	assert.Equal(t, start.DeviceID, claim.DeviceID)
	assert.NotEmpty(t, claim.SessionToken)

	deviceID, err := auth.ResolveSession(ctx, claim.SessionToken)
	require.NoError(t, err)
	assert.Equal(t, start.DeviceID, deviceID)
}

func TestPairingService_ClaimIsOneTimeUse(t *testing.T) {
	pairing, _, _, _ := newPairingFixture(t)
	ctx := context.Background()

	start, err := pairing.Start(ctx, "hw-1")
	require.NoError(t, err)

	_, err = pairing.Claim(ctx, start.PairCode)
	require.NoError(t, err)

	_, err = pairing.Claim(ctx, start.PairCode)
	assert.ErrorIs(t, err, repositories.ErrCodeClaimed)
}

func TestPairingService_ClaimUnknownCode(t *testing.T) {
	pairing, _, _, _ := newPairingFixture(t)

	_, err := pairing.Claim(context.Background(), "000000")
	assert.ErrorIs(t, err, repositories.ErrCodeInvalid)
}

func TestPairingService_ClaimExpiredCode(t *testing.T) {
	pairing, _, _, clock := newPairingFixture(t)
	ctx := context.Background()

	start, err := pairing.Start(ctx, "hw-1")
	require.NoError(t, err)

	clock.Advance(testPairTTL + time.Second)

	_, err = pairing.Claim(ctx, start.PairCode)
	assert.ErrorIs(t, err, repositories.ErrCodeExpired)
}

func TestPairingService_ConcurrentClaimsExactlyOneWins(t *testing.T) {
	pairing, _, _, _ := newPairingFixture(t)
	ctx := context.Background()

	start, err := pairing.Start(ctx, "hw-1")
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = pairing.Claim(ctx, start.PairCode)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, repositories.ErrCodeClaimed)
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one concurrent claim must win")
}

func TestPairingService_DeviceTokenTTL(t *testing.T) {
	store := repositories.NewMemoryStore()
	clock := newFakeClock()
	pairing := NewPairingService(store, clock, zap.NewNop(), testPairTTL, testSessionTTL, 8*time.Hour)
	auth := NewAuthService(store, clock)
	ctx := context.Background()

	start, err := pairing.Start(ctx, "hw-1")
	require.NoError(t, err)

	_, err = auth.ResolveDevice(ctx, start.DeviceToken)
	require.NoError(t, err)

	clock.Advance(9 * time.Hour)

	_, err = auth.ResolveDevice(ctx, start.DeviceToken)
	assert.ErrorIs(t, err, ErrUnauthorized, "configured token TTL must be enforced")
}

func TestAuthService_SessionExpiry(t *testing.T) {
	pairing, auth, _, clock := newPairingFixture(t)
	ctx := context.Background()

	start, err := pairing.Start(ctx, "hw-1")
	require.NoError(t, err)
	claim, err := pairing.Claim(ctx, start.PairCode)
	require.NoError(t, err)

	clock.Advance(testSessionTTL + time.Minute)

	_, err = auth.ResolveSession(ctx, claim.SessionToken)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthService_SessionScopedToDevice(t *testing.T) {
	pairing, auth, _, _ := newPairingFixture(t)
	ctx := context.Background()

	startA, err := pairing.Start(ctx, "hw-a")
	require.NoError(t, err)
	claimA, err := pairing.Claim(ctx, startA.PairCode)
	require.NoError(t, err)

	startB, err := pairing.Start(ctx, "hw-b")
	require.NoError(t, err)

	err = auth.AuthorizeDeviceWrite(ctx, claimA.SessionToken, startA.DeviceID)
	assert.NoError(t, err)

	err = auth.AuthorizeDeviceWrite(ctx, claimA.SessionToken, startB.DeviceID)
	assert.ErrorIs(t, err, ErrForbidden, "session for device A must not write device B")
}

func TestAuthService_MissingCredentials(t *testing.T) {
	_, auth, _, _ := newPairingFixture(t)
	ctx := context.Background()

	_, err := auth.ResolveSession(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = auth.ResolveDevice(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = auth.ResolveDevice(ctx, "no-such-token")
	assert.ErrorIs(t, err, ErrUnauthorized)
}
