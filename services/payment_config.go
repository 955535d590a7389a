package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"goon-fighter/models"

	"golang.org/x/text/language"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const paymentConfigRowID = 1

// PaymentConfigStore holds the single Stripe configuration row.
type PaymentConfigStore struct {
	DB *gorm.DB
}

func NewPaymentConfigStore(db *gorm.DB) *PaymentConfigStore {
	return &PaymentConfigStore{DB: db}
}

// Get returns nil, nil when nothing has been configured.
func (s *PaymentConfigStore) Get(ctx context.Context) (*models.PaymentConfig, error) {
	var cfg models.PaymentConfig
	err := s.DB.WithContext(ctx).First(&cfg, paymentConfigRowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (s *PaymentConfigStore) IsConfigured(ctx context.Context) (bool, error) {
	cfg, err := s.Get(ctx)
	if err != nil {
		return false, err
	}
	return cfg != nil && cfg.SecretKey != "", nil
}

// Set replaces the configuration. Countries must be ISO 3166 alpha-2 codes.
func (s *PaymentConfigStore) Set(ctx context.Context, secretKey string, allowedCountries []string) error {
	secretKey = strings.TrimSpace(secretKey)
	if secretKey == "" {
		return fmt.Errorf("%w: secret key is required", ErrInvalidArgument)
	}
	countries, err := NormalizeCountries(allowedCountries)
	if err != nil {
		return err
	}

	cfg := models.PaymentConfig{
		ID:               paymentConfigRowID,
		SecretKey:        secretKey,
		AllowedCountries: strings.Join(countries, ","),
	}
	err = s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"secret_key", "allowed_countries", "updated_at"}),
	}).Create(&cfg).Error
	if err != nil {
		return err
	}
	log.Printf("💳 [PAYMENTS] Stripe configuration updated (%d allowed countries)", len(countries))
	return nil
}

// NormalizeCountries upper-cases, dedupes and validates region codes.
func NormalizeCountries(in []string) ([]string, error) {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, raw := range in {
		code := strings.ToUpper(strings.TrimSpace(raw))
		if code == "" || seen[code] {
			continue
		}
		region, err := language.ParseRegion(code)
		if err != nil || len(code) != 2 || !region.IsCountry() {
			return nil, fmt.Errorf("%w: %q is not a country code", ErrInvalidArgument, raw)
		}
		seen[code] = true
		out = append(out, code)
	}
	return out, nil
}

// SplitCountries parses the stored comma-separated list.
func SplitCountries(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
