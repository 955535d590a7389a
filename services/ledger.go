package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"goon-fighter/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MaxLeaderboardSize caps a single leaderboard read.
const MaxLeaderboardSize = 1000

// Ledger owns the per-player stats rows. Updates for one player are
// serialized by row locks; different players proceed independently.
type Ledger struct {
	DB    *gorm.DB
	Ranks *RankTable
}

func NewLedger(db *gorm.DB, ranks *RankTable) *Ledger {
	return &Ledger{DB: db, Ranks: ranks}
}

// Settlement holds the rows after a settle. A side is nil when it belongs to
// an NPC, and Loser is nil when winner and loser are the same player.
type Settlement struct {
	Winner *models.PlayerStats `json:"winner,omitempty"`
	Loser  *models.PlayerStats `json:"loser,omitempty"`
}

// EnsurePlayer creates the stats row for p if it does not exist (idempotent).
func (l *Ledger) EnsurePlayer(ctx context.Context, p models.Principal) (*models.PlayerStats, error) {
	if p.IsAnonymous() {
		return nil, ErrUnauthorized
	}
	if p.IsNPC() {
		return nil, fmt.Errorf("%w: %s has no ledger row", ErrInvalidArgument, p)
	}

	db := l.DB.WithContext(ctx)
	if err := l.insertIfMissing(db, p); err != nil {
		return nil, err
	}

	var row models.PlayerStats
	if err := db.Where("external_user_id = ?", p).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// Stats returns the caller's row, creating it on first use.
func (l *Ledger) Stats(ctx context.Context, p models.Principal) (*models.PlayerStats, error) {
	return l.EnsurePlayer(ctx, p)
}

// Settle applies a match outcome: winningPoints to the winner, losingPoints
// (possibly negative) to the loser, with balances floored at zero. Both
// players get one more game. When winner == loser only winningPoints apply.
func (l *Ledger) Settle(ctx context.Context, winner, loser models.Principal, winningPoints, losingPoints int64) (*Settlement, error) {
	if winningPoints < 0 {
		return nil, fmt.Errorf("%w: winning points must not be negative", ErrInvalidArgument)
	}
	if winner.IsAnonymous() || loser.IsAnonymous() {
		return nil, fmt.Errorf("%w: winner and loser are required", ErrInvalidArgument)
	}

	deltas := map[models.Principal]int64{}
	if !winner.IsNPC() {
		deltas[winner] = winningPoints
	}
	if loser != winner && !loser.IsNPC() {
		deltas[loser] = losingPoints
	}

	// lock rows in a stable order so two settles over the same pair cannot deadlock
	order := make([]models.Principal, 0, len(deltas))
	for p := range deltas {
		order = append(order, p)
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	updated := make(map[models.Principal]*models.PlayerStats, len(order))
	err := l.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, p := range order {
			if err := l.insertIfMissing(tx, p); err != nil {
				return err
			}
		}
		for _, p := range order {
			var row models.PlayerStats
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("external_user_id = ?", p).
				First(&row).Error; err != nil {
				return fmt.Errorf("stats row not found for %s: %w", p, err)
			}

			if err := l.apply(&row, deltas[p]); err != nil {
				return err
			}
			if err := tx.Save(&row).Error; err != nil {
				return err
			}
			updated[p] = &row
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := &Settlement{Winner: updated[winner]}
	if loser != winner {
		out.Loser = updated[loser]
	}
	for _, p := range order {
		r := updated[p]
		log.Printf("🎮 [LEDGER] %s → points=%d games=%d rank=%d highest=%d", p, r.Points, r.GamesPlayed, r.CurrentRankID, r.HighestRank)
	}
	return out, nil
}

// Leaderboard returns the top count players by points; ties keep
// registration order.
func (l *Ledger) Leaderboard(ctx context.Context, count int) ([]models.LeaderboardEntry, error) {
	if count <= 0 {
		return []models.LeaderboardEntry{}, nil
	}
	if count > MaxLeaderboardSize {
		count = MaxLeaderboardSize
	}

	var rows []models.PlayerStats
	if err := l.DB.WithContext(ctx).
		Order("points DESC").
		Order("id ASC").
		Limit(count).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	entries := make([]models.LeaderboardEntry, len(rows))
	for i, r := range rows {
		entries[i] = models.LeaderboardEntry{Position: i + 1, Principal: r.ExternalUserID, Stats: r}
	}
	return entries, nil
}

func (l *Ledger) insertIfMissing(db *gorm.DB, p models.Principal) error {
	base, err := l.Ranks.RankForPoints(0)
	if err != nil {
		return err
	}
	row := models.PlayerStats{
		ExternalUserID: p,
		CurrentRankID:  base.ID,
		HighestRank:    base.ID,
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_user_id"}},
		DoNothing: true,
	}).Create(&row).Error
}

func (l *Ledger) apply(row *models.PlayerStats, delta int64) error {
	// balances are never negative, so only a positive delta can overflow
	if delta > 0 && row.Points > math.MaxInt64-delta {
		row.Points = math.MaxInt64
	} else {
		row.Points += delta
	}
	if row.Points < 0 {
		row.Points = 0
	}
	row.GamesPlayed++

	rank, err := l.Ranks.RankForPoints(row.Points)
	if err != nil {
		return err
	}
	row.CurrentRankID = rank.ID
	if l.Ranks.Outranks(rank.ID, row.HighestRank) {
		now := time.Now()
		row.HighestRank = rank.ID
		row.LastRankUpAt = &now
	}
	if row.Points > row.HighestPointBalance {
		row.HighestPointBalance = row.Points
	}
	return nil
}
