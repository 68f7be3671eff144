package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"

	"staybook/internal/app/commands"
	"staybook/internal/app/middleware"
	appoutbox "staybook/internal/app/outbox"
	"staybook/internal/app/queries"
	"staybook/internal/app/uow"
	"staybook/internal/app/validation"
	domainquote "staybook/internal/domain/quote"
	domaintenant "staybook/internal/domain/tenant"
	"staybook/internal/infra/broker/kafka"
	redcache "staybook/internal/infra/cache/redis"
	"staybook/internal/infra/config"
	mongodb "staybook/internal/infra/db/mongo"
	ginserver "staybook/internal/infra/http/gin"
	"staybook/internal/infra/obs"
	infraoutbox "staybook/internal/infra/outbox"
	"staybook/internal/infra/security"
	"staybook/internal/infra/storage/memory"

	availabilityapp "staybook/internal/app/handlers/availability"
	bookingapp "staybook/internal/app/handlers/booking"
	calendarapp "staybook/internal/app/handlers/calendar"
	listingsapp "staybook/internal/app/handlers/listings"
	pricingapp "staybook/internal/app/handlers/pricing"
	quotesapp "staybook/internal/app/handlers/quotes"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration invalid", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("application wiring failed", "error", err)
		os.Exit(1)
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: app.ready,
	}, app.handlers)

	if app.worker != nil {
		go func() {
			if err := app.worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox worker stopped", "error", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers ginserver.Handlers
	worker   *infraoutbox.Worker
	ready    func(ctx context.Context) error
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (application, error) {
	var (
		factory     uow.UoWFactory
		tenants     domaintenant.Repository
		redemptions domainquote.RedemptionRepository
		idStore     middleware.IdempotencyStore
		box         appoutbox.Outbox
		worker      *infraoutbox.Worker
		ready       = func(ctx context.Context) error { return nil }
	)

	switch cfg.StorageMode {
	case "mongo":
		client, err := mongodb.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return application{}, err
		}
		mf := mongodb.NewFactory(client.DB)
		factory = mf
		tenants = mf.TenantsRepo
		redemptions = mf.RedemptionsRepo
		idStore = mongodb.NewIdempotencyStore(client.DB, cfg.IdempotencyTTL)
		store := infraoutbox.NewStore(client.DB)
		box = store
		ready = func(ctx context.Context) error { return client.Ping(ctx) }

		if len(cfg.KafkaBrokers) > 0 {
			producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
			if err != nil {
				return application{}, err
			}
			worker = &infraoutbox.Worker{
				Store:       store,
				Producer:    producer,
				Interval:    cfg.OutboxPollInterval,
				TopicPrefix: cfg.KafkaTopicPrefix,
				ID:          uuid.NewString(),
				Backoff:     cfg.RetryBackoff,
			}
		} else {
			logger.Warn("kafka brokers not configured, outbox events stay queued")
		}
	default:
		mf := memory.NewFactory()
		factory = mf
		tenants = mf.TenantsRepo
		redemptions = mf.RedemptionsRepo
		idStore = memory.NewIdempotencyStore()
		box = memory.NewOutbox()
		if cfg.DefaultTenantSlug != "" {
			if err := seedDefaultTenant(ctx, mf.TenantsRepo, cfg.DefaultTenantSlug); err != nil {
				return application{}, err
			}
			logger.Info("default tenant seeded", "slug", cfg.DefaultTenantSlug)
		}
	}

	if cfg.RedisAddr != "" {
		client := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		idStore = redcache.NewIdempotencyStore(client, cfg.IdempotencyTTL)
	}

	quoteSvc := &domainquote.Service{
		Key:         []byte(cfg.QuoteSigningKey),
		Nonces:      security.RandomNonceGenerator{},
		Redemptions: redemptions,
	}

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, quotesapp.IssueQuoteCommand{}.Key(), &quotesapp.IssueQuoteHandler{
		Logger:     logger,
		UoWFactory: factory,
		Quotes:     quoteSvc,
		DefaultTTL: cfg.QuoteTTL,
	})
	commands.RegisterHandler(commandBus, bookingapp.RequestBookingCommand{}.Key(), &bookingapp.RequestBookingHandler{
		Logger:     logger,
		UoWFactory: factory,
		Quotes:     quoteSvc,
		Outbox:     box,
		Encoder:    appoutbox.JSONEventEncoder{},
	})
	commands.RegisterHandler(commandBus, bookingapp.CancelBookingCommand{}.Key(), &bookingapp.CancelBookingHandler{
		Logger:     logger,
		UoWFactory: factory,
		Outbox:     box,
		Encoder:    appoutbox.JSONEventEncoder{},
	})
	commands.RegisterHandler(commandBus, calendarapp.UpsertCalendarCommand{}.Key(), &calendarapp.UpsertCalendarHandler{
		Logger:     logger,
		UoWFactory: factory,
	})
	commands.RegisterHandler(commandBus, listingsapp.SetPricingCommand{}.Key(), &listingsapp.SetPricingHandler{
		Logger:     logger,
		UoWFactory: factory,
	})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, availabilityapp.ResolveQuery{}.Key(), &availabilityapp.ResolveHandler{
		UoWFactory: factory,
	})
	queries.RegisterHandler(queryBus, pricingapp.StayQuoteQuery{}.Key(), &pricingapp.StayQuoteHandler{
		UoWFactory: factory,
	})
	queries.RegisterHandler(queryBus, calendarapp.GetCalendarQuery{}.Key(), &calendarapp.GetCalendarHandler{
		UoWFactory: factory,
	})

	validator := validation.New()
	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Validation(validator),
		middleware.Idempotency(idStore, nil),
		middleware.Transaction(factory, nil),
		middleware.OutboxFlush(box),
	)
	queryBusWithMiddleware := middleware.ChainQueries(
		queryBus,
		middleware.QueryValidation(validator),
	)

	tenantMW := ginserver.TenantResolver{
		Tenants:     tenants,
		DefaultSlug: cfg.DefaultTenantSlug,
		Env:         cfg.Env,
	}

	return application{
		handlers: ginserver.Handlers{
			Availability:     ginserver.AvailabilityHandler{Queries: queryBusWithMiddleware},
			Pricing:          ginserver.PricingHandler{Queries: queryBusWithMiddleware},
			Calendar:         ginserver.CalendarHandler{Commands: commandBusWithMiddleware, Queries: queryBusWithMiddleware},
			Quote:            ginserver.QuoteHandler{Commands: commandBusWithMiddleware},
			Booking:          ginserver.BookingHandler{Commands: commandBusWithMiddleware},
			Listing:          ginserver.ListingHandler{Commands: commandBusWithMiddleware},
			TenantMiddleware: tenantMW.Middleware(),
		},
		worker: worker,
		ready:  ready,
	}, nil
}

func seedDefaultTenant(ctx context.Context, repo domaintenant.Repository, slug string) error {
	if _, err := repo.BySlug(ctx, slug); err == nil {
		return nil
	}
	ten, err := domaintenant.New(domaintenant.ID(uuid.NewString()), slug, slug, domaintenant.Settings{
		DefaultCapacity: 1,
		Currency:        "USD",
	}, time.Now())
	if err != nil {
		return err
	}
	return repo.Save(ctx, ten)
}
