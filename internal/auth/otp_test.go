package auth

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brokerapp/server/internal/clock"
	"github.com/brokerapp/server/internal/model"
	"github.com/brokerapp/server/internal/repo"
)

func TestGenerateCode(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 2000; i++ {
		code, err := GenerateCode()
		require.NoError(t, err)
		require.Len(t, code, 6)
		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 100000)
		assert.LessOrEqual(t, n, 999999)
		seen[code] = struct{}{}
	}
	// 2000 draws from 900k values almost never collide more than a handful of times.
	assert.Greater(t, len(seen), 1990)
}

func TestOtpManager_IssueAndVerify(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewManual(testStart)
	store := repo.NewMemory()
	m := NewOtpManager(store.Otps(), 10*time.Minute, clk)

	code, err := m.Issue(ctx, "alice@example.com")
	require.NoError(t, err)

	recs := store.OtpRecords()
	require.Len(t, recs, 1)
	assert.Equal(t, "alice@example.com", recs[0].Email)
	assert.Equal(t, code, recs[0].Code)
	assert.Equal(t, testStart.Add(10*time.Minute), recs[0].ExpiresAt)
	assert.False(t, recs[0].Used)

	ok, err := m.Verify(ctx, "alice@example.com", code)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.Verify(ctx, "alice@example.com", code)
	require.NoError(t, err)
	assert.False(t, ok, "codes are single use")
}

func TestOtpManager_Expiry(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewManual(testStart)
	m := NewOtpManager(repo.NewMemory().Otps(), 10*time.Minute, clk)

	code, err := m.Issue(ctx, "alice@example.com")
	require.NoError(t, err)

	clk.Advance(10*time.Minute + time.Second)
	ok, err := m.Verify(ctx, "alice@example.com", code)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOtpManager_ExpiryBoundaryInclusive(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewManual(testStart)
	m := NewOtpManager(repo.NewMemory().Otps(), 10*time.Minute, clk)

	code, err := m.Issue(ctx, "alice@example.com")
	require.NoError(t, err)

	clk.Advance(10 * time.Minute)
	ok, err := m.Verify(ctx, "alice@example.com", code)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOtpManager_ReissueKeepsEarlierCodes(t *testing.T) {
	ctx := context.Background()
	m := NewOtpManager(repo.NewMemory().Otps(), 10*time.Minute, clock.NewManual(testStart))

	first, err := m.Issue(ctx, "alice@example.com")
	require.NoError(t, err)
	second, err := m.Issue(ctx, "alice@example.com")
	require.NoError(t, err)

	ok, _ := m.Verify(ctx, "alice@example.com", first)
	assert.True(t, ok)
	ok, _ = m.Verify(ctx, "alice@example.com", second)
	assert.True(t, ok || first == second)
}

func TestOtpManager_WrongEmailOrCode(t *testing.T) {
	ctx := context.Background()
	m := NewOtpManager(repo.NewMemory().Otps(), 10*time.Minute, clock.NewManual(testStart))

	code, err := m.Issue(ctx, "alice@example.com")
	require.NoError(t, err)

	ok, _ := m.Verify(ctx, "bob@example.com", code)
	assert.False(t, ok)

	wrong := "000000"
	ok, _ = m.Verify(ctx, "alice@example.com", wrong)
	assert.False(t, ok)
}

type failingOtpRepo struct{}

func (failingOtpRepo) Create(context.Context, model.OtpRecord) (int64, error) {
	return 0, errors.New("db down")
}

func (failingOtpRepo) ConsumeValid(context.Context, string, string, time.Time) (bool, error) {
	return false, errors.New("db down")
}

func TestOtpManager_StoreErrors(t *testing.T) {
	ctx := context.Background()
	m := NewOtpManager(failingOtpRepo{}, time.Minute, clock.New())

	_, err := m.Issue(ctx, "a@x.io")
	assert.ErrorContains(t, err, "db down")

	_, err = m.Verify(ctx, "a@x.io", "123456")
	assert.ErrorContains(t, err, "db down")
}
