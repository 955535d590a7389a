package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"goon-fighter/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a private in-memory database with every table migrated.
// One connection keeps all queries on the same in-memory database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.PlayerStats{},
		&models.MatchRecord{},
		&models.Entitlement{},
		&models.PurchaseSession{},
		&models.PaymentConfig{},
	))
	return db
}

func newTestLedger(t *testing.T, db *gorm.DB) *Ledger {
	t.Helper()
	ranks, err := NewRankTable(DefaultRanks)
	require.NoError(t, err)
	return NewLedger(db, ranks)
}

// fakeClock is a settable time source.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// fakeProvider is an in-memory checkout backend.
type fakeProvider struct {
	mu       sync.Mutex
	sessions map[string]*CheckoutSession
	requests []CheckoutRequest
	getErr   error
	nextID   int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{sessions: map[string]*CheckoutSession{}}
}

func (p *fakeProvider) CreateSession(_ context.Context, secretKey string, req CheckoutRequest) (*CheckoutSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if secretKey == "" {
		return nil, errors.New("no api key")
	}
	p.nextID++
	id := "cs_test_" + string(rune('a'+p.nextID-1))
	s := &CheckoutSession{
		ID:              id,
		URL:             "https://checkout.example/" + id,
		ClientReference: req.Principal,
		Status:          "open",
		PaymentStatus:   "unpaid",
	}
	p.sessions[id] = s
	p.requests = append(p.requests, req)
	cp := *s
	return &cp, nil
}

func (p *fakeProvider) GetSession(_ context.Context, _ string, id string) (*CheckoutSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.getErr != nil {
		return nil, p.getErr
	}
	s, ok := p.sessions[id]
	if !ok {
		return nil, errors.New("No such checkout.session: " + id)
	}
	cp := *s
	return &cp, nil
}

// pay marks a session as paid and complete.
func (p *fakeProvider) pay(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.sessions[id]
	s.Complete = true
	s.Status = "complete"
	s.PaymentStatus = "paid"
}

// add registers a session that was not created through CreateSession.
func (p *fakeProvider) add(s CheckoutSession) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions[s.ID] = &s
}

// recordingArchive captures archived matches.
type recordingArchive struct {
	mu      sync.Mutex
	records []models.MatchRecord
	err     error
}

func (a *recordingArchive) Record(_ context.Context, rec *models.MatchRecord, _ *models.CombatLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.records = append(a.records, *rec)
	return nil
}

func (a *recordingArchive) all() []models.MatchRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]models.MatchRecord, len(a.records))
	copy(out, a.records)
	return out
}
