package services

import (
	"context"
	"errors"
	"log"
	"time"

	"goon-fighter/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EntitlementStore records which players bought story mode.
type EntitlementStore struct {
	DB *gorm.DB
}

func NewEntitlementStore(db *gorm.DB) *EntitlementStore {
	return &EntitlementStore{DB: db}
}

// HasPurchased is false for unknown and anonymous principals.
func (s *EntitlementStore) HasPurchased(ctx context.Context, p models.Principal) (bool, error) {
	if p.IsAnonymous() {
		return false, nil
	}
	var ent models.Entitlement
	err := s.DB.WithContext(ctx).Where("external_user_id = ?", p).First(&ent).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return ent.Purchased, nil
}

// Grant marks p as purchased. Granting twice keeps the first record and
// reports created=false.
func (s *EntitlementStore) Grant(ctx context.Context, p models.Principal, sessionID string) (created bool, err error) {
	if p.IsAnonymous() {
		return false, ErrUnauthorized
	}
	now := time.Now()
	ent := models.Entitlement{
		ExternalUserID: p,
		Purchased:      true,
		SessionID:      sessionID,
		PurchasedAt:    &now,
	}
	res := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_user_id"}},
		DoNothing: true,
	}).Create(&ent)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		log.Printf("🔓 [ENTITLEMENT] Story mode unlocked for %s (session %s)", p, sessionID)
		return true, nil
	}
	return false, nil
}

// PurchaseSessionStore tracks the checkout sessions this service created.
type PurchaseSessionStore struct {
	DB *gorm.DB
}

func NewPurchaseSessionStore(db *gorm.DB) *PurchaseSessionStore {
	return &PurchaseSessionStore{DB: db}
}

func (s *PurchaseSessionStore) Create(ctx context.Context, sess *models.PurchaseSession) error {
	if sess.Status == "" {
		sess.Status = models.PurchasePending
	}
	return s.DB.WithContext(ctx).Create(sess).Error
}

// Get returns nil, nil when the session was not created here.
func (s *PurchaseSessionStore) Get(ctx context.Context, id string) (*models.PurchaseSession, error) {
	var sess models.PurchaseSession
	err := s.DB.WithContext(ctx).Where("id = ?", id).First(&sess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// Pending lists up to limit pending sessions, least recently seen first. A
// session never checked counts as seen at creation.
func (s *PurchaseSessionStore) Pending(ctx context.Context, limit int) ([]models.PurchaseSession, error) {
	var out []models.PurchaseSession
	err := s.DB.WithContext(ctx).
		Where("status = ?", models.PurchasePending).
		Order("COALESCE(last_checked_at, created_at) ASC").
		Order("id ASC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// MarkChecked stamps a poll without changing the status.
func (s *PurchaseSessionStore) MarkChecked(ctx context.Context, id string) error {
	return s.DB.WithContext(ctx).Model(&models.PurchaseSession{}).
		Where("id = ?", id).
		Update("last_checked_at", time.Now()).Error
}

// MarkCompleted is a no-op for sessions already completed.
func (s *PurchaseSessionStore) MarkCompleted(ctx context.Context, id string) error {
	now := time.Now()
	return s.DB.WithContext(ctx).Model(&models.PurchaseSession{}).
		Where("id = ? AND status <> ?", id, models.PurchaseCompleted).
		Updates(map[string]any{
			"status":          models.PurchaseCompleted,
			"completed_at":    now,
			"last_checked_at": now,
		}).Error
}

func (s *PurchaseSessionStore) MarkFailed(ctx context.Context, id string) error {
	return s.DB.WithContext(ctx).Model(&models.PurchaseSession{}).
		Where("id = ? AND status = ?", id, models.PurchasePending).
		Updates(map[string]any{
			"status":          models.PurchaseFailed,
			"last_checked_at": time.Now(),
		}).Error
}
