package repository_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/jask/otpfield/internal/database"
	"github.com/jask/otpfield/internal/database/repository"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.OpenMigrated(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestAttemptInsertAndList(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := repository.NewAttemptRepo(openDB(t))

	dist := 1
	a := repository.Attempt{
		ID:         uuid.NewString(),
		CodeDigest: "abc",
		Source:     "sms",
		OK:         false,
		Distance:   &dist,
		Generation: 3,
		CreatedAt:  database.Now(),
	}
	require.NoError(t, repo.Insert(ctx, a))

	list, err := repo.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	got := list[0]
	require.Equal(t, a.ID, got.ID)
	require.Equal(t, "abc", got.CodeDigest)
	require.Equal(t, "sms", got.Source)
	require.False(t, got.OK)
	require.NotNil(t, got.Distance)
	require.Equal(t, 1, *got.Distance)
	require.EqualValues(t, 3, got.Generation)
	require.True(t, a.CreatedAt.Equal(got.CreatedAt))
}

func TestAttemptListStatsAndPrune(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := repository.NewAttemptRepo(openDB(t))

	now := database.Now()
	for i, ok := range []bool{true, false, false, true, true} {
		require.NoError(t, repo.Insert(ctx, repository.Attempt{
			ID:         uuid.NewString(),
			CodeDigest: "d",
			Source:     "manual",
			OK:         ok,
			CreatedAt:  now.Add(time.Duration(i-4) * 24 * time.Hour),
		}))
	}

	list, err := repo.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.True(t, list[0].CreatedAt.After(list[1].CreatedAt))
	require.Nil(t, list[0].Distance)

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, repository.AttemptStats{Total: 5, Accepted: 3, Rejected: 2}, stats)

	n, err := repo.DeleteBefore(ctx, now.Add(-36*time.Hour))
	require.NoError(t, err)
	require.EqualValues(t, 3, n)

	all, err := repo.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestStatsEmpty(t *testing.T) {
	t.Parallel()

	stats, err := repository.NewAttemptRepo(openDB(t)).Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, repository.AttemptStats{}, stats)
}
