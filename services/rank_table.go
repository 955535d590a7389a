package services

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"goon-fighter/models"

	"github.com/gosimple/slug"
)

// DefaultRanks is the ladder used when no RANKS_FILE is configured.
var DefaultRanks = []models.Rank{
	{ID: 0, Name: "Novice", RequiredPoints: 0},
	{ID: 1, Name: "Fighter", RequiredPoints: 100},
	{ID: 2, Name: "Brawler", RequiredPoints: 250},
	{ID: 3, Name: "Champion", RequiredPoints: 500},
	{ID: 4, Name: "Goon Legend", RequiredPoints: 1000},
}

// RankTable is an immutable ladder ordered by RequiredPoints ascending.
type RankTable struct {
	ranks []models.Rank
	pos   map[int64]int // rank id -> position in ranks
}

// NewRankTable validates and copies ranks. The table must be non-empty, start
// at zero points, have strictly ascending thresholds and unique ids.
func NewRankTable(ranks []models.Rank) (*RankTable, error) {
	if len(ranks) == 0 {
		return nil, fmt.Errorf("%w: no ranks defined", ErrConfiguration)
	}

	sorted := make([]models.Rank, len(ranks))
	copy(sorted, ranks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].RequiredPoints < sorted[j].RequiredPoints
	})

	if sorted[0].RequiredPoints != 0 {
		return nil, fmt.Errorf("%w: lowest rank must require 0 points, got %d", ErrConfiguration, sorted[0].RequiredPoints)
	}

	pos := make(map[int64]int, len(sorted))
	for i := range sorted {
		r := &sorted[i]
		if i > 0 && r.RequiredPoints == sorted[i-1].RequiredPoints {
			return nil, fmt.Errorf("%w: ranks %d and %d share threshold %d", ErrConfiguration, sorted[i-1].ID, r.ID, r.RequiredPoints)
		}
		if _, dup := pos[r.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate rank id %d", ErrConfiguration, r.ID)
		}
		if r.Code == "" {
			r.Code = slug.Make(r.Name)
		}
		pos[r.ID] = i
	}

	return &RankTable{ranks: sorted, pos: pos}, nil
}

// LoadRankTable reads a JSON array of ranks from path. An empty path yields
// DefaultRanks.
func LoadRankTable(path string) (*RankTable, error) {
	if path == "" {
		return NewRankTable(DefaultRanks)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rank table: %w", err)
	}

	var ranks []models.Rank
	if err := json.Unmarshal(data, &ranks); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rank table: %w", err)
	}
	return NewRankTable(ranks)
}

// Ranks returns a copy of the ladder.
func (t *RankTable) Ranks() []models.Rank {
	out := make([]models.Rank, len(t.ranks))
	copy(out, t.ranks)
	return out
}

// RankForPoints returns the last rank whose RequiredPoints <= points.
func (t *RankTable) RankForPoints(points int64) (models.Rank, error) {
	if t == nil || len(t.ranks) == 0 {
		return models.Rank{}, ErrConfiguration
	}
	// first index whose threshold exceeds points
	i := sort.Search(len(t.ranks), func(i int) bool {
		return t.ranks[i].RequiredPoints > points
	})
	if i == 0 {
		// only reachable for negative points
		return t.ranks[0], nil
	}
	return t.ranks[i-1], nil
}

// PointsToRankID is RankForPoints reduced to the id.
func (t *RankTable) PointsToRankID(points int64) (int64, error) {
	r, err := t.RankForPoints(points)
	if err != nil {
		return 0, err
	}
	return r.ID, nil
}

// Outranks reports whether rank a sits above rank b in table order. Unknown
// ids sit below every known rank.
func (t *RankTable) Outranks(a, b int64) bool {
	pa, okA := t.pos[a]
	pb, okB := t.pos[b]
	switch {
	case !okA:
		return false
	case !okB:
		return true
	default:
		return pa > pb
	}
}
