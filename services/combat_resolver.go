package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"goon-fighter/models"

	"github.com/google/uuid"
)

// PointsPolicy sets the deltas applied by combat settlement.
type PointsPolicy struct {
	Win           int64
	Loss          int64 // may be negative; balances are floored at zero
	StoryPerLevel int64
}

var DefaultPointsPolicy = PointsPolicy{Win: 10, Loss: 0, StoryPerLevel: 5}

// allowsManual reports whether a player-submitted result stays within the
// deltas an automatic resolution could have produced.
func (p PointsPolicy) allowsManual(win, loss int64) bool {
	lo, hi := min(p.Loss, 0), max(p.Loss, 0)
	return win <= p.Win && loss >= lo && loss <= hi
}

// CombatArchive stores resolved matches.
type CombatArchive interface {
	Record(ctx context.Context, rec *models.MatchRecord, clog *models.CombatLog) error
}

// CombatResolver resolves matches exactly once and settles the ledger.
type CombatResolver struct {
	Registry     *MatchRegistry
	Ledger       *Ledger
	Entitlements *EntitlementStore
	Archive      CombatArchive // optional
	Points       PointsPolicy

	now  func() time.Time
	seed func(matchID string, at time.Time) int64
}

func NewCombatResolver(registry *MatchRegistry, ledger *Ledger, entitlements *EntitlementStore, archive CombatArchive, points PointsPolicy) *CombatResolver {
	return &CombatResolver{
		Registry:     registry,
		Ledger:       ledger,
		Entitlements: entitlements,
		Archive:      archive,
		Points:       points,
		now:          time.Now,
		seed:         CombatSeed,
	}
}

// Resolve fights out a paired match for one of its players.
func (c *CombatResolver) Resolve(ctx context.Context, matchID string, caller models.Principal) (*models.CombatResult, error) {
	if caller.IsAnonymous() {
		return nil, ErrUnauthorized
	}

	m, err := c.Registry.Claim(matchID, func(m models.Match) error {
		if !m.HasPlayer(caller) {
			return ErrNotParticipant
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	at := c.now()
	seed := c.seed(m.ID, at)
	opponent := BaseFighter(m.Player2)
	if m.IsSolo() {
		opponent = SparringFighter()
	}
	clog := Simulate(m.ID, seed, BaseFighter(m.Player1), opponent)
	res := clog.Result

	if _, err := c.Ledger.Settle(ctx, res.Winner, res.Loser, c.Points.Win, c.Points.Loss); err != nil {
		c.Registry.Release(m.ID)
		return nil, fmt.Errorf("failed to settle match %s: %w", m.ID, err)
	}
	c.Registry.Complete(m.ID)

	log.Printf("⚔️ [COMBAT] Match %s resolved by %s: winner=%s hp=%d rounds=%d", m.ID, caller, res.Winner, res.WinnerHealth, res.Rounds)
	c.archive(ctx, &models.MatchRecord{
		ID:            m.ID,
		Mode:          m.Mode,
		Player1:       m.Player1,
		Player2:       opponent.Principal,
		Winner:        res.Winner,
		Loser:         res.Loser,
		WinnerHealth:  res.WinnerHealth,
		Rounds:        res.Rounds,
		WinningPoints: c.Points.Win,
		LosingPoints:  c.Points.Loss,
		Seed:          seed,
		ResolvedAt:    at,
	}, &clog)

	return &res, nil
}

// ResolveStory fights the caller against the scripted opponent of
// encounterLevel. Requires purchased access; no queued match is involved.
func (c *CombatResolver) ResolveStory(ctx context.Context, encounterLevel int64, caller models.Principal) (*models.CombatResult, error) {
	if caller.IsAnonymous() {
		return nil, ErrUnauthorized
	}
	if encounterLevel < 1 || encounterLevel > MaxEncounterLevel {
		return nil, fmt.Errorf("%w: encounter level must be between 1 and %d", ErrInvalidArgument, MaxEncounterLevel)
	}

	ok, err := c.Entitlements.HasPurchased(ctx, caller)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrForbidden
	}

	id := "story-" + uuid.NewString()
	at := c.now()
	seed := c.seed(id, at)
	npc := StoryFighter(encounterLevel)
	clog := Simulate(id, seed, BaseFighter(caller), npc)
	res := clog.Result

	winPts, losePts := c.Points.StoryPerLevel*encounterLevel, c.Points.Loss
	if res.Winner != caller {
		winPts = 0
	}
	if _, err := c.Ledger.Settle(ctx, res.Winner, res.Loser, winPts, losePts); err != nil {
		return nil, fmt.Errorf("failed to settle story encounter: %w", err)
	}

	log.Printf("📖 [COMBAT] Story level %d for %s: winner=%s rounds=%d", encounterLevel, caller, res.Winner, res.Rounds)
	c.archive(ctx, &models.MatchRecord{
		ID:            id,
		Mode:          models.ModeStory,
		Player1:       caller,
		Player2:       npc.Principal,
		Winner:        res.Winner,
		Loser:         res.Loser,
		WinnerHealth:  res.WinnerHealth,
		Rounds:        res.Rounds,
		WinningPoints: winPts,
		LosingPoints:  losePts,
		Seed:          seed,
		ResolvedAt:    at,
	}, &clog)

	return &res, nil
}

// SubmitResult settles a paired match with caller-supplied points. Admins may
// settle any match with any non-negative win. The match's players may settle
// their own match only within the PointsPolicy deltas. For a solo match
// winner and loser are both the player.
func (c *CombatResolver) SubmitResult(ctx context.Context, caller models.Principal, admin bool, matchID string, winner, loser models.Principal, winningPoints, losingPoints int64) error {
	if caller.IsAnonymous() {
		return ErrUnauthorized
	}
	if winningPoints < 0 {
		return fmt.Errorf("%w: winning points must not be negative", ErrInvalidArgument)
	}
	if !admin && !c.Points.allowsManual(winningPoints, losingPoints) {
		return fmt.Errorf("%w: points must be within +%d/%+d", ErrInvalidArgument, c.Points.Win, c.Points.Loss)
	}

	m, err := c.Registry.Claim(matchID, func(m models.Match) error {
		if !admin && !m.HasPlayer(caller) {
			return ErrNotParticipant
		}
		if !validParticipants(m, winner, loser) {
			return ErrInvalidParticipants
		}
		return nil
	})
	if err != nil {
		return err
	}

	if _, err := c.Ledger.Settle(ctx, winner, loser, winningPoints, losingPoints); err != nil {
		c.Registry.Release(m.ID)
		return fmt.Errorf("failed to settle match %s: %w", m.ID, err)
	}
	c.Registry.Complete(m.ID)

	log.Printf("📝 [COMBAT] Result submitted for match %s by %s: %s beat %s (+%d/%+d)", m.ID, caller, winner, loser, winningPoints, losingPoints)
	c.archive(ctx, &models.MatchRecord{
		ID:            m.ID,
		Mode:          m.Mode,
		Player1:       m.Player1,
		Player2:       m.Player2,
		Winner:        winner,
		Loser:         loser,
		WinningPoints: winningPoints,
		LosingPoints:  losingPoints,
		Manual:        true,
		ResolvedAt:    c.now(),
	}, nil)
	return nil
}

func validParticipants(m models.Match, winner, loser models.Principal) bool {
	if m.IsSolo() {
		return winner == m.Player1 && loser == m.Player1
	}
	if winner == loser {
		return false
	}
	return m.HasPlayer(winner) && m.HasPlayer(loser)
}

// archive is best-effort: the match is already settled.
func (c *CombatResolver) archive(ctx context.Context, rec *models.MatchRecord, clog *models.CombatLog) {
	if c.Archive == nil {
		return
	}
	if err := c.Archive.Record(ctx, rec, clog); err != nil {
		log.Printf("⚠️ [COMBAT] Failed to archive match %s: %v", rec.ID, err)
	}
}
