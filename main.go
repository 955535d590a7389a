package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"goon-fighter/config"
	"goon-fighter/handlers"
	"goon-fighter/middleware"
	"goon-fighter/models"
	"goon-fighter/services"
	"goon-fighter/utils"
	"goon-fighter/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration: ", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.PlayerStats{},
		&models.MatchRecord{},
		&models.Entitlement{},
		&models.PurchaseSession{},
		&models.PaymentConfig{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	ranks, err := services.LoadRankTable(cfg.RanksFile)
	if err != nil {
		log.Fatal("failed to load rank table:", err)
	}

	// combat logs go to R2 only when it is configured
	var logUploader services.LogUploader
	if cfg.R2.Enabled() {
		r2, err := utils.NewR2Client(ctx, cfg.R2)
		if err != nil {
			log.Fatal("failed to initialize R2 client:", err)
		}
		logUploader = r2
	} else {
		log.Println("⚠️  R2 not configured, combat logs will not be uploaded")
	}

	ledger := services.NewLedger(db, ranks)
	registry := services.NewMatchRegistry()
	entitlements := services.NewEntitlementStore(db)
	archive := services.NewMatchArchive(db, logUploader)
	paymentCfg := services.NewPaymentConfigStore(db)
	purchaseSessions := services.NewPurchaseSessionStore(db)

	combat := services.NewCombatResolver(registry, ledger, entitlements, archive, services.PointsPolicy{
		Win:           cfg.WinPoints,
		Loss:          cfg.LossPoints,
		StoryPerLevel: cfg.StoryPointsPerLevel,
	})
	payments := services.NewPaymentGateway(services.StripeProvider{}, paymentCfg, purchaseSessions, entitlements, services.PurchaseOffer{
		AmountCents: cfg.PurchasePriceCents,
		Currency:    cfg.PurchaseCurrency,
		ProductName: cfg.ProductName,
	})
	gameService := services.NewGameService(registry, combat, ledger, ranks, entitlements, payments, paymentCfg, archive)

	bootstrapStripe(ctx, paymentCfg, cfg)

	sched, err := registry.StartHousekeeping(services.HousekeepingConfig{
		QueueTTL:          cfg.QueueTTL,
		ResolvedRetention: cfg.ResolvedRetention,
		Interval:          cfg.HousekeepingEvery,
	})
	if err != nil {
		log.Fatal("failed to start scheduler:", err)
	}

	reconciler := workers.NewPurchaseReconciler(payments, purchaseSessions)
	go workers.PollPurchases(ctx, reconciler, cfg.ReconcileInterval)

	app := fiber.New(fiber.Config{
		AppName: "goon-fighter",
	})
	app.Use(recover.New())
	app.Use(logger.New())

	// 🔐❗ GLOBAL: Only Gateway requests allowed
	app.Use(middleware.GatewayAuthMiddleware(cfg.GatewayToken, "/healthz"))

	allowedOrigins := strings.Join(cfg.AllowedOrigins, ",")
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID, X-User-Roles",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))
	app.Use(middleware.UserContextMiddleware())

	handlers.SetupGameRoutes(app, gameService)
	handlers.SetupPaymentRoutes(app, gameService)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", cfg.Port)
	log.Printf("✅ Queue TTL %s, purchase reconciliation every %s", cfg.QueueTTL, cfg.ReconcileInterval)
	log.Printf("✅ CORS configured for origins: %s", allowedOrigins)

	<-ctx.Done()
	log.Println("Shutting down server...")

	if err := sched.Shutdown(); err != nil {
		log.Printf("Scheduler shutdown error: %v", err)
	}
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}

// bootstrapStripe seeds the payment configuration from the environment the
// first time the service starts. A stored configuration always wins.
func bootstrapStripe(ctx context.Context, store *services.PaymentConfigStore, cfg *config.Config) {
	if cfg.StripeSecretKey == "" {
		return
	}
	configured, err := store.IsConfigured(ctx)
	if err != nil {
		log.Printf("⚠️  Could not read payment configuration: %v", err)
		return
	}
	if configured {
		return
	}
	if err := store.Set(ctx, cfg.StripeSecretKey, cfg.StripeAllowedCountries); err != nil {
		log.Printf("⚠️  Ignoring STRIPE_SECRET_KEY bootstrap: %v", err)
	}
}
