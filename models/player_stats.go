package models

import (
	"time"

	"gorm.io/gorm"
)

// PlayerStats is the ledger row of a single player.
// ID is an autoincrement sequence and doubles as registration order.
type PlayerStats struct {
	ID                  uint      `json:"-" gorm:"primaryKey;autoIncrement"`
	ExternalUserID      Principal `json:"principal" gorm:"type:varchar(128);uniqueIndex;not null"`
	Points              int64     `json:"points" gorm:"not null;default:0;index"`
	GamesPlayed         int64     `json:"games_played" gorm:"not null;default:0"`
	CurrentRankID       int64     `json:"current_rank_id" gorm:"not null;default:0"`
	HighestRank         int64     `json:"highest_rank" gorm:"not null;default:0"`
	HighestPointBalance int64     `json:"highest_point_balance" gorm:"not null;default:0"`

	LastRankUpAt *time.Time `json:"last_rank_up_at,omitempty"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// LeaderboardEntry pairs a principal with its stats.
type LeaderboardEntry struct {
	Position  int         `json:"position"`
	Principal Principal   `json:"principal"`
	Stats     PlayerStats `json:"stats"`
}
