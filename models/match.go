package models

import "time"

// MatchStatus is the lifecycle state of a match.
type MatchStatus string

const (
	MatchOpen      MatchStatus = "open"
	MatchPaired    MatchStatus = "paired"
	MatchResolving MatchStatus = "resolving"
	MatchResolved  MatchStatus = "resolved"
)

// MatchMode tells how a match was started.
type MatchMode string

const (
	ModeQueue MatchMode = "queue"
	ModeSolo  MatchMode = "solo"
	ModeStory MatchMode = "story"
)

// Match is a single-use pairing of two players. Solo matches have
// Player1 == Player2.
type Match struct {
	ID        string      `json:"id"`
	CreatedBy Principal   `json:"created_by"`
	Player1   Principal   `json:"player1"`
	Player2   Principal   `json:"player2"`
	Status    MatchStatus `json:"status"`
	Mode      MatchMode   `json:"mode"`
	CreatedAt time.Time   `json:"created_at"`
}

// IsSolo reports whether the match was started without an opponent.
func (m *Match) IsSolo() bool { return m.Mode == ModeSolo }

// HasPlayer reports whether p is bound to the match.
func (m *Match) HasPlayer(p Principal) bool {
	return p != "" && (m.Player1 == p || m.Player2 == p)
}

// QueueEntry is a player waiting in the matchmaking queue for its open match.
type QueueEntry struct {
	Player     Principal `json:"player"`
	MatchID    string    `json:"match_id"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// MatchRecord archives a resolved match (PvP, solo or story).
type MatchRecord struct {
	ID            string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Mode          MatchMode `gorm:"type:varchar(16);not null" json:"mode"`
	Player1       Principal `gorm:"type:varchar(128);index;not null" json:"player1"`
	Player2       Principal `gorm:"type:varchar(128);index;not null" json:"player2"`
	Winner        Principal `gorm:"type:varchar(128);index;not null" json:"winner"`
	Loser         Principal `gorm:"type:varchar(128);not null" json:"loser"`
	WinnerHealth  int64     `json:"winner_health"`
	Rounds        int64     `json:"rounds"`
	WinningPoints int64     `json:"winning_points"`
	LosingPoints  int64     `json:"losing_points"`
	Seed          int64     `json:"seed"`
	Manual        bool      `json:"manual" gorm:"default:false"`
	LogURL        string    `json:"log_url,omitempty"`
	ResolvedAt    time.Time `json:"resolved_at" gorm:"index"`

	Timestamps
}
