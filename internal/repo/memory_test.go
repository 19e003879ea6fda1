package repo

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brokerapp/server/internal/model"
)

func TestMemory_GetOrCreateByEmail(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	now := time.Now().UTC()

	u1, err := m.Users().GetOrCreateByEmail(ctx, "alice@example.com", now)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultRole, u1.Role)
	assert.True(t, u1.IsActive)

	u2, err := m.Users().GetOrCreateByEmail(ctx, "alice@example.com", now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, u1, u2)

	got, err := m.Users().GetByID(ctx, u1.ID)
	require.NoError(t, err)
	assert.Equal(t, u1, got)

	_, err = m.Users().GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_ConsumeValid(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	now := time.Now().UTC()

	_, err := m.Otps().Create(ctx, model.OtpRecord{Email: "a@x.io", Code: "111111", ExpiresAt: now.Add(time.Minute), CreatedAt: now})
	require.NoError(t, err)
	_, err = m.Otps().Create(ctx, model.OtpRecord{Email: "a@x.io", Code: "222222", ExpiresAt: now.Add(-time.Second), CreatedAt: now})
	require.NoError(t, err)

	ok, err := m.Otps().ConsumeValid(ctx, "a@x.io", "111111", now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = m.Otps().ConsumeValid(ctx, "a@x.io", "111111", now)
	assert.False(t, ok, "second use")

	ok, _ = m.Otps().ConsumeValid(ctx, "a@x.io", "222222", now)
	assert.False(t, ok, "expired")

	ok, _ = m.Otps().ConsumeValid(ctx, "b@x.io", "111111", now)
	assert.False(t, ok, "other email")

	recs := m.OtpRecords()
	require.Len(t, recs, 2)
	assert.True(t, recs[0].Used)
	assert.False(t, recs[1].Used)
}

func TestMemory_ConsumeValid_Concurrent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	now := time.Now().UTC()
	_, err := m.Otps().Create(ctx, model.OtpRecord{Email: "a@x.io", Code: "123456", ExpiresAt: now.Add(time.Minute), CreatedAt: now})
	require.NoError(t, err)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := m.Otps().ConsumeValid(ctx, "a@x.io", "123456", now); ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func TestMemory_Sessions(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	now := time.Now().UTC()
	u, err := m.Users().GetOrCreateByEmail(ctx, "a@x.io", now)
	require.NoError(t, err)

	s := model.Session{ID: "s1", UserID: u.ID, ExpiresAt: now.Add(time.Hour), CreatedAt: now}
	require.NoError(t, m.Sessions().Create(ctx, s))
	assert.ErrorIs(t, m.Sessions().Create(ctx, s), ErrConflict)
	assert.ErrorIs(t, m.Sessions().Create(ctx, model.Session{ID: "s2", UserID: 999}), ErrNotFound)

	gotU, gotS, err := m.Sessions().Resolve(ctx, "s1", now)
	require.NoError(t, err)
	assert.Equal(t, u, gotU)
	assert.Equal(t, s, gotS)

	_, _, err = m.Sessions().Resolve(ctx, "s1", now.Add(2*time.Hour))
	assert.ErrorIs(t, err, ErrNotFound, "expired")

	_, _, err = m.Sessions().Resolve(ctx, "unknown", now)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Sessions().Delete(ctx, "s1"))
	require.NoError(t, m.Sessions().Delete(ctx, "s1"))
	assert.Equal(t, 0, m.SessionCount())
}

func TestMemory_DeleteExpired(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	now := time.Now().UTC()
	u, _ := m.Users().GetOrCreateByEmail(ctx, "a@x.io", now)

	require.NoError(t, m.Sessions().Create(ctx, model.Session{ID: "old", UserID: u.ID, ExpiresAt: now.Add(-time.Minute)}))
	require.NoError(t, m.Sessions().Create(ctx, model.Session{ID: "edge", UserID: u.ID, ExpiresAt: now}))
	require.NoError(t, m.Sessions().Create(ctx, model.Session{ID: "new", UserID: u.ID, ExpiresAt: now.Add(time.Hour)}))

	n, err := m.Sessions().DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 2, m.SessionCount())
}

func TestNewMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	assert.NotNil(t, s.Users)
	assert.NotNil(t, s.Otps)
	assert.NotNil(t, s.Sessions)
}
