package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"goon-fighter/models"

	"gorm.io/gorm"
)

// MaxHistoryDays bounds the recent-matches window.
const MaxHistoryDays = 90

// LogUploader stores a serialized combat log and returns where it lives.
type LogUploader interface {
	PutJSON(ctx context.Context, key string, body []byte) (string, error)
}

// MatchArchive persists resolved matches. Logs is optional.
type MatchArchive struct {
	DB   *gorm.DB
	Logs LogUploader
}

func NewMatchArchive(db *gorm.DB, logs LogUploader) *MatchArchive {
	return &MatchArchive{DB: db, Logs: logs}
}

func (a *MatchArchive) Record(ctx context.Context, rec *models.MatchRecord, clog *models.CombatLog) error {
	if a.Logs != nil && clog != nil {
		body, err := json.Marshal(clog)
		if err != nil {
			return err
		}
		url, err := a.Logs.PutJSON(ctx, "combat-logs/"+rec.ID+".json", body)
		if err != nil {
			return fmt.Errorf("failed to upload combat log: %w", err)
		}
		rec.LogURL = url
	}
	return a.DB.WithContext(ctx).Create(rec).Error
}

// Recent returns p's matches resolved within the last days, newest first.
func (a *MatchArchive) Recent(ctx context.Context, p models.Principal, days int) ([]models.MatchRecord, error) {
	if days <= 0 {
		return nil, fmt.Errorf("%w: days must be positive", ErrInvalidArgument)
	}
	if days > MaxHistoryDays {
		days = MaxHistoryDays
	}
	since := time.Now().AddDate(0, 0, -days)

	var out []models.MatchRecord
	err := a.DB.WithContext(ctx).
		Where("(player1 = ? OR player2 = ?) AND resolved_at >= ?", p, p, since).
		Order("resolved_at DESC").
		Find(&out).Error
	return out, err
}
