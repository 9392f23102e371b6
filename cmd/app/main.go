package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sirupsen/logrus"

	"github.com/wichananm65/storefront/internal/address"
	"github.com/wichananm65/storefront/internal/cart"
	"github.com/wichananm65/storefront/internal/checkout"
	"github.com/wichananm65/storefront/internal/config"
	"github.com/wichananm65/storefront/internal/graphql"
	"github.com/wichananm65/storefront/internal/idempotency"
	"github.com/wichananm65/storefront/internal/logging"
	"github.com/wichananm65/storefront/internal/order"
	"github.com/wichananm65/storefront/internal/payment"
	"github.com/wichananm65/storefront/internal/pricing"
	"github.com/wichananm65/storefront/internal/product"
	"github.com/wichananm65/storefront/internal/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	log := logging.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		guests   cart.GuestStore           = cart.NewMemoryGuestStore(nil)
		keys     idempotency.ExpiringStore = idempotency.NewMemoryStore()
		pgGuests *cart.PostgresGuestStore
	)
	if cfg.DatabaseURL != "" {
		db := mustOpenDB(ctx, cfg.DatabaseURL)
		defer db.Close()

		pgGuests = cart.NewPostgresGuestStore(db)
		pgKeys := idempotency.NewPostgresStore(db)
		if err := pgGuests.Migrate(ctx); err != nil {
			log.WithError(err).Fatal("migrating guest_carts")
		}
		if err := pgKeys.Migrate(ctx); err != nil {
			log.WithError(err).Fatal("migrating idempotency_keys")
		}
		guests, keys = pgGuests, pgKeys
	} else {
		log.Warn("DATABASE_URL not set, guest carts and idempotency keys are kept in memory")
	}

	api := graphql.NewClient(cfg.GraphQLURL, &http.Client{Timeout: 15 * time.Second}, log)

	catalog := product.NewGraphQLCatalog(api)
	hydrator := cart.NewHydrator(catalog, cfg.PlaceholderImageURL, cfg.HydrateConcurrency, log)
	calc := pricing.NewCalculator(cfg.TaxRate, cfg.PromoDiscount)
	cartService := cart.NewService(guests, cart.NewGraphQLStore(api), hydrator, calc, keys, log)

	settlements := payment.NewSettlements(cfg.SettleTimeout)
	var settlement order.Settlement = settlements
	if cfg.WebhookSecret == "" {
		log.Warn("PAYMENT_WEBHOOK_SECRET not set, orders are placed without waiting for settlement")
		settlement = nil
	}
	creator := order.NewCreator(order.NewGraphQLRepository(api), settlement, keys, log)

	addressService := address.NewService(address.NewGraphQLRepository(api))
	checkoutService := checkout.NewService(
		checkout.NewMemorySessionStore(),
		addressService,
		payment.NewGraphQLGateway(api),
		creator,
		log,
	)

	app := fiber.New(fiber.Config{ErrorHandler: errorHandler(log)})
	setupCORS(app)
	app.Use(logging.Middleware(log))

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.SendString("ok") })
	if cfg.WebhookSecret != "" {
		payment.NewWebhookHandler(cfg.WebhookSecret, settlements, log).RegisterPublicRoutes(app)
	}

	cart.NewHandler(cartService).RegisterRoutes(app, user.OptionalAuth(cfg.JWTSecret))

	// everything registered below requires a valid token
	app.Use(user.RequireAuth(cfg.JWTSecret))
	user.NewHandler().RegisterProtectedRoutes(app)
	address.NewHandler(addressService).RegisterProtectedRoutes(app)
	order.NewHandler(creator).RegisterProtectedRoutes(app)
	checkout.NewHandler(checkoutService, cfg.CartPagePath).RegisterProtectedRoutes(app)

	go runJanitor(ctx, log, pgGuests, keys, settlements)

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.WithError(err).Error("shutdown")
		}
	}()

	log.WithField("addr", cfg.Addr).Info("storefront listening")
	if err := app.Listen(cfg.Addr); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

func setupCORS(app *fiber.App) {
	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowMethods:  "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, X-Guest-ID, Idempotency-Key",
		ExposeHeaders: "X-Guest-ID",
	}))
}

func mustOpenDB(ctx context.Context, dbURL string) *sql.DB {
	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		logrus.WithError(err).Fatal("opening database")
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		logrus.WithError(err).Fatal("pinging database")
	}
	return db
}

// errorHandler turns errors that escape a handler into the usual
// {"message": ...} body.
func errorHandler(log *logrus.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fe *fiber.Error
		switch {
		case errors.As(err, &fe):
			code = fe.Code
		case graphql.IsRemote(err):
			code = fiber.StatusBadGateway
		}
		if code >= fiber.StatusInternalServerError {
			log.WithError(err).WithField("path", c.Path()).Error("unhandled error")
		}
		return c.Status(code).JSON(fiber.Map{"message": err.Error()})
	}
}
