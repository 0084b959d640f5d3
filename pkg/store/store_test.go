package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pashkov/biliwatch/pkg/domain"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") + "?cache=shared&mode=rwc"
	s, err := New(context.Background(), Config{DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMarkerRoundTrip(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	marker, err := s.GetMarker(ctx, "42")
	require.NoError(t, err)
	assert.Empty(t, marker, "unseen uid yields empty marker")

	require.NoError(t, s.SetMarker(ctx, "42", "100"))

	marker, err = s.GetMarker(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, "100", marker)

	// overwrite with a higher id
	require.NoError(t, s.SetMarker(ctx, "42", "105"))
	marker, err = s.GetMarker(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, "105", marker)
}

func TestMarkerMonotonic(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetMarker(ctx, "42", "200"))
	require.NoError(t, s.SetMarker(ctx, "42", "150"), "backward move silently refused")

	marker, err := s.GetMarker(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, "200", marker)

	// equal id is allowed, refreshes updated_at
	require.NoError(t, s.SetMarker(ctx, "42", "200"))
}

func TestMarkerBigIDs(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	big := "922337203685477580800" // beyond int64
	require.NoError(t, s.SetMarker(ctx, "42", big))
	require.NoError(t, s.SetMarker(ctx, "42", "922337203685477580799"))

	marker, err := s.GetMarker(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, big, marker)
}

func TestMarkers(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	all, err := s.Markers(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.SetMarker(ctx, fmt.Sprintf("uid%d", i), fmt.Sprintf("%d", 100+i)))
	}

	all, err = s.Markers(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"uid0": "100", "uid1": "101", "uid2": "102"}, all)
}

func TestLiveRoundTrip(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, found, err := s.GetLive(ctx, "42")
	require.NoError(t, err)
	assert.False(t, found, "unseen uid reports not found")

	require.NoError(t, s.SetLive(ctx, "42", domain.LiveState{Status: 1, StartTS: 1700000000}))

	state, found, err := s.GetLive(ctx, "42")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, domain.LiveState{Status: 1, StartTS: 1700000000}, state)

	require.NoError(t, s.SetLive(ctx, "42", domain.LiveState{Status: 0}))
	state, found, err = s.GetLive(ctx, "42")
	require.NoError(t, err)
	assert.True(t, found)
	assert.False(t, state.Live())
	assert.Zero(t, state.StartTS)
}

func TestStateSurvivesReopen(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "test.db") + "?cache=shared&mode=rwc"
	ctx := context.Background()

	s, err := New(ctx, Config{DSN: dsn})
	require.NoError(t, err)
	require.NoError(t, s.SetMarker(ctx, "42", "300"))
	require.NoError(t, s.SetLive(ctx, "42", domain.LiveState{Status: 1, StartTS: 5}))
	require.NoError(t, s.Close())

	s2, err := New(ctx, Config{DSN: dsn})
	require.NoError(t, err)
	defer s2.Close()

	marker, err := s2.GetMarker(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, "300", marker)

	state, found, err := s2.GetLive(ctx, "42")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, domain.LiveState{Status: 1, StartTS: 5}, state)
}

func TestWithRetryStopsOnNonLockError(t *testing.T) {
	s := setupTestStore(t)

	calls := 0
	err := s.withRetry(context.Background(), func() error {
		calls++
		return errors.New("syntax error")
	})
	assert.ErrorContains(t, err, "syntax error")
	assert.Equal(t, 1, calls, "non-lock errors must not be retried")

	calls = 0
	err = s.withRetry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("database is locked")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls, "lock errors keep retrying")
}

func TestCriticalErrorTerminal(t *testing.T) {
	base := errors.New("disk I/O error")
	err := &criticalError{err: base}
	assert.True(t, errors.Is(err, errCritical), "repeater matches the sentinel via Is")
	assert.Equal(t, base, errors.Unwrap(err))
}

func TestIsLockError(t *testing.T) {
	assert.True(t, isLockError(errors.New("SQLITE_BUSY: database is locked")))
	assert.True(t, isLockError(errors.New("database table is locked")))
	assert.False(t, isLockError(errors.New("syntax error")))
	assert.False(t, isLockError(nil))
}
