package services

import (
	"context"
	"strings"

	"goon-fighter/models"
)

// CapabilitiesVersion is bumped whenever the operation set changes.
const CapabilitiesVersion = 1

// Operations lists every operation the service exposes.
var Operations = []string{
	"findMatch",
	"currentMatch",
	"leaveQueue",
	"submitResult",
	"resolveCombat",
	"resolveStoryModeCombat",
	"getMyStats",
	"recentMatches",
	"getAllRanks",
	"getRankForPoints",
	"pointsToRankId",
	"getLeaderboard",
	"hasPurchasedAccess",
	"createGamePurchaseSession",
	"getStripeSessionStatus",
	"unlockWithPurchase",
	"isStripeConfigured",
	"setStripeConfiguration",
}

// Capabilities is the self-description returned to clients.
type Capabilities struct {
	Version    int      `json:"version"`
	Operations []string `json:"operations"`
}

// Caller is the authenticated principal of a request plus its gateway roles.
type Caller struct {
	Principal models.Principal
	Roles     []string
}

func (c Caller) IsAdmin() bool {
	for _, r := range c.Roles {
		if strings.EqualFold(strings.TrimSpace(r), "admin") {
			return true
		}
	}
	return false
}

// GameService wires the components together and exposes the operation set.
type GameService struct {
	Registry     *MatchRegistry
	Combat       *CombatResolver
	Ledger       *Ledger
	Ranks        *RankTable
	Entitlements *EntitlementStore
	Payments     *PaymentGateway
	PaymentCfg   *PaymentConfigStore
	Archive      *MatchArchive
}

func NewGameService(registry *MatchRegistry, combat *CombatResolver, ledger *Ledger, ranks *RankTable, ents *EntitlementStore, payments *PaymentGateway, paymentCfg *PaymentConfigStore, archive *MatchArchive) *GameService {
	return &GameService{
		Registry:     registry,
		Combat:       combat,
		Ledger:       ledger,
		Ranks:        ranks,
		Entitlements: ents,
		Payments:     payments,
		PaymentCfg:   paymentCfg,
		Archive:      archive,
	}
}

// FindMatch returns nil while the caller waits in the queue.
func (s *GameService) FindMatch(ctx context.Context, caller Caller, startSolo bool) (*models.Match, error) {
	if caller.Principal.IsAnonymous() {
		return nil, ErrUnauthorized
	}
	// register the player on first contact so the leaderboard keeps join order
	if _, err := s.Ledger.EnsurePlayer(ctx, caller.Principal); err != nil {
		return nil, err
	}
	return s.Registry.FindMatch(caller.Principal, startSolo)
}

func (s *GameService) CurrentMatch(caller Caller) (*models.Match, bool, error) {
	if caller.Principal.IsAnonymous() {
		return nil, false, ErrUnauthorized
	}
	m, queued := s.Registry.CurrentMatch(caller.Principal)
	return m, queued, nil
}

func (s *GameService) LeaveQueue(caller Caller) (bool, error) {
	if caller.Principal.IsAnonymous() {
		return false, ErrUnauthorized
	}
	return s.Registry.LeaveQueue(caller.Principal), nil
}

func (s *GameService) SubmitResult(ctx context.Context, caller Caller, matchID string, winner, loser models.Principal, winningPoints, losingPoints int64) error {
	return s.Combat.SubmitResult(ctx, caller.Principal, caller.IsAdmin(), matchID, winner, loser, winningPoints, losingPoints)
}

func (s *GameService) ResolveCombat(ctx context.Context, caller Caller, matchID string) (*models.CombatResult, error) {
	return s.Combat.Resolve(ctx, matchID, caller.Principal)
}

func (s *GameService) ResolveStoryModeCombat(ctx context.Context, caller Caller, encounterLevel int64) (*models.CombatResult, error) {
	return s.Combat.ResolveStory(ctx, encounterLevel, caller.Principal)
}

func (s *GameService) GetMyStats(ctx context.Context, caller Caller) (*models.PlayerStats, error) {
	return s.Ledger.Stats(ctx, caller.Principal)
}

func (s *GameService) RecentMatches(ctx context.Context, caller Caller, days int) ([]models.MatchRecord, error) {
	if caller.Principal.IsAnonymous() {
		return nil, ErrUnauthorized
	}
	return s.Archive.Recent(ctx, caller.Principal, days)
}

func (s *GameService) GetAllRanks() []models.Rank {
	return s.Ranks.Ranks()
}

func (s *GameService) GetRankForPoints(points int64) (models.Rank, error) {
	return s.Ranks.RankForPoints(points)
}

func (s *GameService) PointsToRankID(points int64) (int64, error) {
	return s.Ranks.PointsToRankID(points)
}

func (s *GameService) GetLeaderboard(ctx context.Context, count int) ([]models.LeaderboardEntry, error) {
	return s.Ledger.Leaderboard(ctx, count)
}

func (s *GameService) HasPurchasedAccess(ctx context.Context, caller Caller) (bool, error) {
	return s.Entitlements.HasPurchased(ctx, caller.Principal)
}

func (s *GameService) CreateGamePurchaseSession(ctx context.Context, caller Caller, successURL, cancelURL string) (string, error) {
	return s.Payments.CreateSession(ctx, caller.Principal, successURL, cancelURL)
}

func (s *GameService) GetStripeSessionStatus(ctx context.Context, sessionID string) (models.SessionStatus, error) {
	return s.Payments.SessionStatus(ctx, sessionID)
}

func (s *GameService) UnlockWithPurchase(ctx context.Context, caller Caller, sessionID string) error {
	return s.Payments.Unlock(ctx, caller.Principal, sessionID)
}

func (s *GameService) IsStripeConfigured(ctx context.Context) (bool, error) {
	return s.PaymentCfg.IsConfigured(ctx)
}

func (s *GameService) SetStripeConfiguration(ctx context.Context, caller Caller, secretKey string, allowedCountries []string) error {
	if caller.Principal.IsAnonymous() {
		return ErrUnauthorized
	}
	if !caller.IsAdmin() {
		return ErrAdminOnly
	}
	return s.PaymentCfg.Set(ctx, secretKey, allowedCountries)
}

func (s *GameService) Capabilities() Capabilities {
	ops := make([]string, len(Operations))
	copy(ops, Operations)
	return Capabilities{Version: CapabilitiesVersion, Operations: ops}
}
