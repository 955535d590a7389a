package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"goon-fighter/middleware"
	"goon-fighter/models"
	"goon-fighter/services"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testToken = "gateway-secret"

type stubProvider struct{}

func (stubProvider) CreateSession(_ context.Context, _ string, req services.CheckoutRequest) (*services.CheckoutSession, error) {
	return &services.CheckoutSession{ID: "cs_1", URL: "https://checkout.example/cs_1", ClientReference: req.Principal}, nil
}

func (stubProvider) GetSession(context.Context, string, string) (*services.CheckoutSession, error) {
	return nil, errors.New("no such session")
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
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

	ranks, err := services.NewRankTable(services.DefaultRanks)
	require.NoError(t, err)
	ledger := services.NewLedger(db, ranks)
	registry := services.NewMatchRegistry()
	ents := services.NewEntitlementStore(db)
	archive := services.NewMatchArchive(db, nil)
	paymentCfg := services.NewPaymentConfigStore(db)
	payments := services.NewPaymentGateway(stubProvider{}, paymentCfg, services.NewPurchaseSessionStore(db), ents,
		services.PurchaseOffer{AmountCents: 499, Currency: "usd", ProductName: "Story Mode"})
	combat := services.NewCombatResolver(registry, ledger, ents, archive, services.DefaultPointsPolicy)
	svc := services.NewGameService(registry, combat, ledger, ranks, ents, payments, paymentCfg, archive)

	app := fiber.New()
	app.Use(middleware.GatewayAuthMiddleware(testToken, "/healthz"))
	app.Use(middleware.UserContextMiddleware())
	SetupGameRoutes(app, svc)
	SetupPaymentRoutes(app, svc)
	return app
}

type call struct {
	method string
	path   string
	user   string
	roles  string
	body   string
}

func do(t *testing.T, app *fiber.App, c call) (int, map[string]any) {
	t.Helper()
	var body io.Reader
	if c.body != "" {
		body = strings.NewReader(c.body)
	}
	req := httptest.NewRequest(c.method, c.path, body)
	req.Header.Set("Authorization", "Bearer "+testToken)
	if c.body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.user != "" {
		req.Header.Set("X-User-ID", c.user)
	}
	if c.roles != "" {
		req.Header.Set("X-User-Roles", c.roles)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func TestGatewayAuth(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ranks", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/ranks", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	for _, header := range []string{"bearer " + testToken, testToken, "Bearer  " + testToken + " "} {
		req = httptest.NewRequest(http.MethodGet, "/ranks", nil)
		req.Header.Set("Authorization", header)
		resp, err = app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode, header)
	}

	req = httptest.NewRequest(http.MethodGet, "/ranks", nil)
	req.Header.Set("Authorization", "Bearer ")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestRankRoutes(t *testing.T) {
	app := newTestApp(t)

	status, body := do(t, app, call{method: http.MethodGet, path: "/ranks"})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["ranks"], 5)

	status, body = do(t, app, call{method: http.MethodGet, path: "/ranks/for-points/100"})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Fighter", body["name"])

	status, body = do(t, app, call{method: http.MethodGet, path: "/ranks/id-for-points/500"})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(3), body["rank_id"])

	status, _ = do(t, app, call{method: http.MethodGet, path: "/ranks/for-points/lots"})
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestMatchRoutes_SoloFlow(t *testing.T) {
	app := newTestApp(t)

	status, body := do(t, app, call{method: http.MethodPost, path: "/matches/find", user: "alice", body: `{"start_solo": true}`})
	require.Equal(t, fiber.StatusOK, status)
	match := body["match"].(map[string]any)
	id := match["id"].(string)
	assert.Equal(t, "alice", match["player2"])

	status, _ = do(t, app, call{
		method: http.MethodPost, path: "/matches/" + id + "/result", user: "alice",
		body: `{"winner":"alice","loser":"alice","winning_points":10,"losing_points":0}`,
	})
	assert.Equal(t, fiber.StatusOK, status)

	status, body = do(t, app, call{method: http.MethodGet, path: "/me/stats", user: "alice"})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(10), body["points"])
	assert.Equal(t, float64(1), body["games_played"])

	status, body = do(t, app, call{method: http.MethodPost, path: "/matches/" + id + "/resolve", user: "alice"})
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Contains(t, body["error"], "already completed")

	status, body = do(t, app, call{method: http.MethodGet, path: "/leaderboard?count=5"})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["leaderboard"], 1)
}

func TestMatchRoutes_QueueAndResolve(t *testing.T) {
	app := newTestApp(t)

	status, body := do(t, app, call{method: http.MethodPost, path: "/matches/find", user: "alice"})
	assert.Equal(t, fiber.StatusAccepted, status)
	assert.Equal(t, "queued", body["status"])

	status, body = do(t, app, call{method: http.MethodPost, path: "/matches/find", user: "alice"})
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Contains(t, body["error"], "already in the queue")

	status, body = do(t, app, call{method: http.MethodGet, path: "/matches/current", user: "alice"})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["queued"])

	status, body = do(t, app, call{method: http.MethodPost, path: "/matches/find", user: "bob"})
	require.Equal(t, fiber.StatusOK, status)
	id := body["match"].(map[string]any)["id"].(string)

	status, body = do(t, app, call{method: http.MethodPost, path: "/matches/" + id + "/resolve", user: "mallory"})
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Contains(t, body["error"], "not a participant")

	status, body = do(t, app, call{method: http.MethodPost, path: "/matches/" + id + "/resolve", user: "alice"})
	assert.Equal(t, fiber.StatusOK, status)
	assert.NotEmpty(t, body["winner"])

	status, body = do(t, app, call{method: http.MethodGet, path: "/me/matches?days=1", user: "bob"})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["matches"], 1)

	status, _ = do(t, app, call{method: http.MethodPost, path: "/matches/nope/resolve", user: "alice"})
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestMatchRoutes_RequireUser(t *testing.T) {
	app := newTestApp(t)

	status, body := do(t, app, call{method: http.MethodPost, path: "/matches/find"})
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Contains(t, body["error"], "X-User-ID")

	status, _ = do(t, app, call{method: http.MethodDelete, path: "/matches/queue"})
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestStoryAndPaymentRoutes(t *testing.T) {
	app := newTestApp(t)

	status, body := do(t, app, call{method: http.MethodPost, path: "/story/encounters/1/resolve", user: "alice"})
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Contains(t, body["error"], "forbidden")

	path := fmt.Sprintf("/story/encounters/%d/resolve", services.MaxEncounterLevel+1)
	status, _ = do(t, app, call{method: http.MethodPost, path: path, user: "alice"})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = do(t, app, call{method: http.MethodGet, path: "/me/access", user: "alice"})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, false, body["purchased"])

	status, body = do(t, app, call{method: http.MethodGet, path: "/payments/configured"})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, false, body["configured"])

	sessionBody := `{"success_url":"https://ok","cancel_url":"https://cancel"}`
	status, _ = do(t, app, call{method: http.MethodPost, path: "/purchases/sessions", user: "alice", body: sessionBody})
	assert.Equal(t, fiber.StatusServiceUnavailable, status)

	cfgBody := `{"secret_key":"sk_test","allowed_countries":["US"]}`
	status, _ = do(t, app, call{method: http.MethodPut, path: "/admin/payments/config", user: "alice", body: cfgBody})
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = do(t, app, call{method: http.MethodPut, path: "/admin/payments/config", user: "ops", roles: "user, admin", body: cfgBody})
	assert.Equal(t, fiber.StatusNoContent, status)

	status, body = do(t, app, call{method: http.MethodPost, path: "/purchases/sessions", user: "alice", body: sessionBody})
	assert.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, "cs_1", body["id"])

	status, body = do(t, app, call{method: http.MethodGet, path: "/purchases/sessions/cs_1"})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "failed", body["status"])

	status, _ = do(t, app, call{method: http.MethodPost, path: "/purchases/sessions/cs_1/unlock", user: "alice"})
	assert.Equal(t, fiber.StatusPaymentRequired, status)
}

func TestCapabilities(t *testing.T) {
	app := newTestApp(t)
	status, body := do(t, app, call{method: http.MethodGet, path: "/capabilities"})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, float64(services.CapabilitiesVersion), body["version"])
	assert.Len(t, body["operations"], len(services.Operations))
}

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		services.ErrNotFound:            fiber.StatusNotFound,
		services.ErrUnauthorized:        fiber.StatusUnauthorized,
		services.ErrAlreadyResolved:     fiber.StatusConflict,
		services.ErrPaymentNotCompleted: fiber.StatusPaymentRequired,
		services.ErrNotConfigured:       fiber.StatusServiceUnavailable,
		services.ErrConfiguration:       fiber.StatusInternalServerError,
		errors.New("boom"):              fiber.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, StatusFor(fmt.Errorf("wrapped: %w", err)), err.Error())
	}
}
