package localstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/2beens/formcheck/internal/formcheck"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSummary(id string, endedAt time.Time) formcheck.Summary {
	return formcheck.Summary{
		SessionID:    id,
		Exercise:     formcheck.ExerciseSquat,
		StartedAt:    endedAt.Add(-time.Minute),
		EndedAt:      endedAt,
		TotalReps:    8,
		FormAccuracy: 75,
		AverageScore: 86.5,
		CommonErrors: []formcheck.CommonError{
			{ErrorType: "insufficient_depth", Count: 12, Percentage: 25},
		},
		TotalFrames: 48,
	}
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "formcheck.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})
	return store
}

func TestStore_SaveGet(t *testing.T) {
	store := openTestStore(t)
	savedAt := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return savedAt }
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	summary := testSummary("s-1", time.Date(2024, 3, 9, 11, 0, 0, 0, time.UTC))
	require.NoError(t, store.Save(ctx, summary, "Go deeper."))

	entry, err := store.Get(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, summary, entry.Summary)
	assert.Equal(t, "Go deeper.", entry.Coaching)
	assert.Equal(t, savedAt, entry.SavedAt)

	// saving again replaces
	summary.TotalReps = 9
	require.NoError(t, store.Save(ctx, summary, ""))
	entry, err = store.Get(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, 9, entry.TotalReps)
	assert.Empty(t, entry.Coaching)
}

func TestStore_List(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 3, 9, 11, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(ctx, testSummary("old", base), ""))
	require.NoError(t, store.Save(ctx, testSummary("newest", base.Add(2*time.Hour)), ""))
	require.NoError(t, store.Save(ctx, testSummary("middle", base.Add(time.Hour)), ""))

	entries, err := store.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "newest", entries[0].SessionID)
	assert.Equal(t, "middle", entries[1].SessionID)

	entries, err = store.List(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}
