package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"goon-fighter/utils"

	"github.com/joho/godotenv"
	"golang.org/x/text/currency"
)

// Config is the process configuration, read from the environment.
type Config struct {
	Port              string
	DatabaseURL       string
	GatewayToken      string
	AllowedOrigins    []string
	RanksFile         string
	QueueTTL          time.Duration
	ResolvedRetention time.Duration
	HousekeepingEvery time.Duration
	ReconcileInterval time.Duration

	WinPoints           int64
	LossPoints          int64
	StoryPointsPerLevel int64

	PurchasePriceCents int64
	PurchaseCurrency   string
	ProductName        string

	// Stripe bootstrap; only applied when no configuration is stored yet.
	StripeSecretKey        string
	StripeAllowedCountries []string

	R2 utils.R2Config
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (*Config, error) {
	var err error
	cfg := &Config{
		Port:            getEnv("PORT", "5200"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		GatewayToken:    os.Getenv("GAME_SERVICE_TOKEN"),
		AllowedOrigins:  splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		RanksFile:       os.Getenv("RANKS_FILE"),
		ProductName:     getEnv("PRODUCT_NAME", "Goon Fighter Story Mode"),
		StripeSecretKey: os.Getenv("STRIPE_SECRET_KEY"),
		R2: utils.R2Config{
			AccountID:       os.Getenv("CLOUDFLARE_ACCOUNT_ID"),
			AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
			AccessKeySecret: os.Getenv("R2_ACCESS_KEY_SECRET"),
			Bucket:          os.Getenv("R2_BUCKET_NAME"),
			CDNBaseURL:      os.Getenv("CDN_BASE_URL"),
		},
	}

	cfg.StripeAllowedCountries = splitList(os.Getenv("STRIPE_ALLOWED_COUNTRIES"))

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}
	if cfg.GatewayToken == "" {
		return nil, fmt.Errorf("GAME_SERVICE_TOKEN environment variable not set")
	}

	durations := []struct {
		key string
		def time.Duration
		dst *time.Duration
	}{
		{"QUEUE_TTL", 2 * time.Minute, &cfg.QueueTTL},
		{"RESOLVED_RETENTION", 10 * time.Minute, &cfg.ResolvedRetention},
		{"HOUSEKEEPING_INTERVAL", 30 * time.Second, &cfg.HousekeepingEvery},
		{"RECONCILE_INTERVAL", time.Minute, &cfg.ReconcileInterval},
	}
	for _, d := range durations {
		if *d.dst, err = getDuration(d.key, d.def); err != nil {
			return nil, err
		}
	}

	ints := []struct {
		key string
		def int64
		dst *int64
	}{
		{"WIN_POINTS", 10, &cfg.WinPoints},
		{"LOSS_POINTS", 0, &cfg.LossPoints},
		{"STORY_POINTS_PER_LEVEL", 5, &cfg.StoryPointsPerLevel},
		{"PURCHASE_PRICE_CENTS", 499, &cfg.PurchasePriceCents},
	}
	for _, n := range ints {
		if *n.dst, err = getInt(n.key, n.def); err != nil {
			return nil, err
		}
	}
	if cfg.WinPoints < 0 {
		return nil, fmt.Errorf("WIN_POINTS must not be negative")
	}
	if cfg.PurchasePriceCents <= 0 {
		return nil, fmt.Errorf("PURCHASE_PRICE_CENTS must be positive")
	}

	unit, err := currency.ParseISO(getEnv("PURCHASE_CURRENCY", "usd"))
	if err != nil {
		return nil, fmt.Errorf("invalid PURCHASE_CURRENCY: %w", err)
	}
	cfg.PurchaseCurrency = strings.ToLower(unit.String())

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: want a positive duration like 90s", key, v)
	}
	return d, nil
}

func getInt(key string, def int64) (int64, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
