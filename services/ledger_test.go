package services

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"

	"goon-fighter/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsurePlayer_LazyAndIdempotent(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, newTestDB(t))

	first, err := l.EnsurePlayer(ctx, "alice")
	require.NoError(t, err)
	assert.Zero(t, first.Points)
	assert.Zero(t, first.GamesPlayed)
	assert.Equal(t, int64(0), first.CurrentRankID)

	again, err := l.EnsurePlayer(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	_, err = l.EnsurePlayer(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = l.EnsurePlayer(ctx, models.SparringPartner)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSettle_WinnerAndLoser(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, newTestDB(t))

	out, err := l.Settle(ctx, "alice", "bob", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(10), out.Winner.Points)
	assert.Equal(t, int64(1), out.Winner.GamesPlayed)
	assert.Equal(t, int64(0), out.Loser.Points)
	assert.Equal(t, int64(1), out.Loser.GamesPlayed)
}

func TestSettle_SaturatesInsteadOfWrapping(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, newTestDB(t))

	_, err := l.Settle(ctx, "alice", "alice", math.MaxInt64-5, 0)
	require.NoError(t, err)
	out, err := l.Settle(ctx, "alice", "alice", 10, 0)
	require.NoError(t, err)

	assert.Equal(t, int64(math.MaxInt64), out.Winner.Points)
	assert.Equal(t, int64(2), out.Winner.GamesPlayed)
	assert.Equal(t, int64(math.MaxInt64), out.Winner.HighestPointBalance)
	assert.Equal(t, out.Winner.HighestRank, out.Winner.CurrentRankID)
	assert.NotZero(t, out.Winner.CurrentRankID)

	out, err = l.Settle(ctx, "bob", "alice", math.MaxInt64, math.MinInt64)
	require.NoError(t, err)
	assert.Zero(t, out.Loser.Points)
	assert.Equal(t, int64(math.MaxInt64), out.Winner.Points)
}

func TestSettle_FloorsAtZero(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, newTestDB(t))

	_, err := l.Settle(ctx, "bob", "alice", 5, 0)
	require.NoError(t, err)
	out, err := l.Settle(ctx, "carol", "bob", 10, -50)
	require.NoError(t, err)

	assert.Equal(t, int64(0), out.Loser.Points)
	assert.Equal(t, int64(2), out.Loser.GamesPlayed)
	assert.Equal(t, int64(5), out.Loser.HighestPointBalance)
}

func TestSettle_RejectsNegativeWinningPoints(t *testing.T) {
	l := newTestLedger(t, newTestDB(t))
	_, err := l.Settle(context.Background(), "alice", "bob", -1, 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSettle_HighestRankNeverDrops(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, newTestDB(t))

	out, err := l.Settle(ctx, "alice", "bob", 260, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), out.Winner.CurrentRankID)
	assert.Equal(t, int64(2), out.Winner.HighestRank)
	assert.NotNil(t, out.Winner.LastRankUpAt)

	out, err = l.Settle(ctx, "bob", "alice", 10, -200)
	require.NoError(t, err)
	assert.Equal(t, int64(60), out.Loser.Points)
	assert.Equal(t, int64(0), out.Loser.CurrentRankID)
	assert.Equal(t, int64(2), out.Loser.HighestRank)
	assert.Equal(t, int64(260), out.Loser.HighestPointBalance)
}

func TestSettle_SoloCountsOnce(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, newTestDB(t))

	out, err := l.Settle(ctx, "alice", "alice", 10, -5)
	require.NoError(t, err)
	assert.Nil(t, out.Loser)
	assert.Equal(t, int64(10), out.Winner.Points)
	assert.Equal(t, int64(1), out.Winner.GamesPlayed)
}

func TestSettle_SkipsNPCs(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	l := newTestLedger(t, db)

	out, err := l.Settle(ctx, "alice", models.SparringPartner, 10, 0)
	require.NoError(t, err)
	assert.Nil(t, out.Loser)
	assert.Equal(t, int64(10), out.Winner.Points)

	var count int64
	require.NoError(t, db.Model(&models.PlayerStats{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSettle_ConcurrentUpdatesAreNotLost(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, newTestDB(t))

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := l.Settle(ctx, "alice", models.Principal(fmt.Sprintf("p%d", i)), 10, 0)
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	stats, err := l.Stats(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(n*10), stats.Points)
	assert.Equal(t, int64(n), stats.GamesPlayed)
}

func TestLeaderboard_OrderAndTies(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, newTestDB(t))

	for _, p := range []models.Principal{"alice", "bob", "carol"} {
		_, err := l.EnsurePlayer(ctx, p)
		require.NoError(t, err)
	}
	_, err := l.Settle(ctx, "carol", "alice", 10, 0)
	require.NoError(t, err)
	_, err = l.Settle(ctx, "bob", "alice", 10, 0)
	require.NoError(t, err)

	board, err := l.Leaderboard(ctx, 10)
	require.NoError(t, err)
	require.Len(t, board, 3)
	assert.Equal(t, models.Principal("bob"), board[0].Principal)
	assert.Equal(t, models.Principal("carol"), board[1].Principal)
	assert.Equal(t, models.Principal("alice"), board[2].Principal)
	assert.Equal(t, 1, board[0].Position)

	board, err = l.Leaderboard(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, board, 1)

	board, err = l.Leaderboard(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, board)
}
