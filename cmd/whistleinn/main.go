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

	"github.com/prometheus/client_golang/prometheus"
	redis "github.com/redis/go-redis/v9"

	"whistleinn/internal/app/commands"
	availabilityapp "whistleinn/internal/app/handlers/availability"
	bookingapp "whistleinn/internal/app/handlers/booking"
	calendarapp "whistleinn/internal/app/handlers/calendar"
	checkoutapp "whistleinn/internal/app/handlers/checkout"
	couponsapp "whistleinn/internal/app/handlers/coupons"
	externalapp "whistleinn/internal/app/handlers/external"
	quoteapp "whistleinn/internal/app/handlers/quote"
	ratesapp "whistleinn/internal/app/handlers/rates"
	"whistleinn/internal/app/middleware"
	appoutbox "whistleinn/internal/app/outbox"
	"whistleinn/internal/app/policies"
	"whistleinn/internal/app/queries"
	"whistleinn/internal/app/services/auth"
	"whistleinn/internal/app/services/feedsync"
	"whistleinn/internal/app/uow"
	domainauth "whistleinn/internal/domain/auth"
	domainrates "whistleinn/internal/domain/rates"
	"whistleinn/internal/domain/shared/money"
	"whistleinn/internal/infra/broker/kafka"
	"whistleinn/internal/infra/config"
	mongoinfra "whistleinn/internal/infra/db/mongo"
	ginserver "whistleinn/internal/infra/http/gin"
	"whistleinn/internal/infra/ical"
	"whistleinn/internal/infra/notify"
	"whistleinn/internal/infra/obs"
	outboxinfra "whistleinn/internal/infra/outbox"
	stripeinfra "whistleinn/internal/infra/payments/stripe"
	"whistleinn/internal/infra/security"
	"whistleinn/internal/infra/storage/memory"
	redisstore "whistleinn/internal/infra/storage/redis"
	syncinfra "whistleinn/internal/infra/sync"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	logger := obs.NewLogger(cfg.Env)
	if err != nil {
		logger.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	metrics := obs.NewMetrics(registry)

	storage, err := buildStorage(cfg, logger)
	if err != nil {
		logger.Error("storage init failed", "error", err)
		os.Exit(1)
	}

	sessions, idempotency := buildTokenStores(cfg, storage, logger)

	payments, verifier := buildPayments(cfg, logger)
	notifier := buildNotifier(cfg, logger)

	base := domainrates.BasePricing{
		WeekdayNight:  money.USD(cfg.BaseWeekdayRate),
		WeekendNight:  money.USD(cfg.BaseWeekendRate),
		CleaningFee:   money.USD(cfg.CleaningFee),
		MinimumNights: cfg.MinimumNights,
	}

	encoder := appoutbox.JSONEventEncoder{}

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, checkoutapp.StartCheckoutCommand{}.Key(), &checkoutapp.StartCheckoutHandler{
		UoWFactory: storage.factory,
		Base:       base,
		Payments:   payments,
		Outbox:     storage.outbox,
		Encoder:    encoder,
	})
	commands.RegisterHandler(commandBus, bookingapp.CompletePaymentCommand{}.Key(), &bookingapp.CompletePaymentHandler{
		UoWFactory: storage.factory,
		Outbox:     storage.outbox,
		Encoder:    encoder,
		Notifier:   notifier,
		Logger:     logger,
	})
	commands.RegisterHandler(commandBus, bookingapp.UpdateBookingStatusCommand{}.Key(), &bookingapp.UpdateBookingStatusHandler{
		UoWFactory: storage.factory,
		Payments:   payments,
		Outbox:     storage.outbox,
		Encoder:    encoder,
		Notifier:   notifier,
		Logger:     logger,
	})
	commands.RegisterHandler(commandBus, bookingapp.ExpirePendingCommand{}.Key(), &bookingapp.ExpirePendingHandler{
		UoWFactory: storage.factory,
		Outbox:     storage.outbox,
		Encoder:    encoder,
		Logger:     logger,
	})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, quoteapp.GetQuoteQuery{}.Key(), &quoteapp.GetQuoteHandler{
		UoWFactory: storage.factory,
		Base:       base,
	})
	queries.RegisterHandler(queryBus, availabilityapp.BlockedRangesQuery{}.Key(), &availabilityapp.BlockedRangesHandler{
		UoWFactory: storage.factory,
	})
	queries.RegisterHandler(queryBus, bookingapp.GetBookingQuery{}.Key(), &bookingapp.GetBookingHandler{
		UoWFactory: storage.factory,
	})
	queries.RegisterHandler(queryBus, bookingapp.ListBookingsQuery{}.Key(), &bookingapp.ListBookingsHandler{
		UoWFactory: storage.factory,
	})
	queries.RegisterHandler(queryBus, calendarapp.ExportQuery{}.Key(), &calendarapp.ExportHandler{
		UoWFactory: storage.factory,
	})

	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Idempotency(idempotency, nil),
		middleware.Transaction(storage.factory, nil),
		middleware.OutboxFlush(storage.outbox),
	)
	queryBusWithMiddleware := middleware.ChainQueries(queryBus)

	authService := &auth.Service{
		AdminUsername:     cfg.AdminUsername,
		AdminPasswordHash: cfg.AdminPasswordHash,
		Sessions:          sessions,
		Passwords:         security.BcryptHasher{},
		Tokens:            security.RandomTokenGenerator{},
		SessionTTL:        cfg.SessionTTL,
		Logger:            logger,
	}

	syncer := &feedsync.Syncer{
		UoWFactory: storage.factory,
		Fetcher:    ical.NewFetcher(),
		Logger:     logger,
	}

	handlers := ginserver.Handlers{
		Quote: ginserver.QuoteHandler{
			Queries: queryBusWithMiddleware,
			Logger:  logger,
		},
		Checkout: ginserver.CheckoutHandler{
			Commands: commandBusWithMiddleware,
			SiteURL:  cfg.SiteURL,
			Metrics:  metrics,
			Logger:   logger,
		},
		Availability: ginserver.AvailabilityHandler{
			Queries: queryBusWithMiddleware,
			Logger:  logger,
		},
		Calendar: ginserver.CalendarHandler{
			Queries: queryBusWithMiddleware,
			Logger:  logger,
		},
		Webhook: ginserver.WebhookHandler{
			Commands: commandBusWithMiddleware,
			Verifier: verifier,
			MockMode: cfg.PaymentsMode == "mock",
			Metrics:  metrics,
			Logger:   logger,
		},
		Auth: ginserver.AuthHandler{
			Service: authService,
			Logger:  logger,
		},
		Admin: ginserver.AdminHandler{
			Commands: commandBusWithMiddleware,
			Queries:  queryBusWithMiddleware,
			Rates:    &ratesapp.AdminService{UoWFactory: storage.factory},
			Coupons:  &couponsapp.AdminService{UoWFactory: storage.factory},
			External: &externalapp.AdminService{UoWFactory: storage.factory},
			Feeds:    &calendarapp.FeedAdminService{UoWFactory: storage.factory},
			Syncer:   syncer,
			Scheduler: ginserver.SchedulerInfo{
				FeedSyncInterval: cfg.FeedSyncInterval.String(),
				ReaperInterval:   cfg.ReaperInterval.String(),
				PendingHoldTTL:   cfg.PendingHoldTTL.String(),
			},
			Logger: logger,
		},
		AuthMiddleware: ginserver.AuthMiddleware{Service: authService, Logger: logger}.Handle,
		RequireAdmin:   ginserver.RequireAdminMiddleware(),
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger, Metrics: metrics}, obs.HealthHandlers{
		Ready: storage.ready,
	}, registry, handlers)

	startWorkers(ctx, cfg, storage, commandBusWithMiddleware, syncer, metrics, logger)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode, "payments", cfg.PaymentsMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type storageDeps struct {
	factory     uow.Factory
	outbox      appoutbox.Outbox
	outboxStore *outboxinfra.Store
	mongoClient *mongoinfra.Client
	ready       func() error
}

func buildStorage(cfg config.Config, logger *slog.Logger) (storageDeps, error) {
	if cfg.StorageMode == "memory" {
		logger.Warn("in-memory storage selected, data is lost on restart")
		return storageDeps{
			factory: memory.NewFactory(),
			outbox:  memory.NewOutbox(),
			ready:   func() error { return nil },
		}, nil
	}

	client, err := mongoinfra.New(cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return storageDeps{}, err
	}
	store := outboxinfra.NewStore(client.DB)
	factory := mongoinfra.Factory{
		DB:           client.DB,
		BookingRepo:  mongoinfra.NewBookingRepository(client.DB),
		ExternalRepo: mongoinfra.NewExternalRepository(client.DB),
		RatesRepo:    mongoinfra.NewRatesRepository(client.DB),
		CouponRepo:   mongoinfra.NewCouponRepository(client.DB),
		FeedRepo:     mongoinfra.NewFeedRepository(client.DB),
	}
	return storageDeps{
		factory:     factory,
		outbox:      store,
		outboxStore: store,
		mongoClient: client,
		ready: func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(pingCtx)
		},
	}, nil
}

func buildTokenStores(cfg config.Config, storage storageDeps, logger *slog.Logger) (domainauth.SessionStore, middleware.IdempotencyStore) {
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return redisstore.NewSessionStore(client), redisstore.NewIdempotencyStore(client, cfg.IdempotencyTTL)
	}
	if storage.mongoClient != nil {
		logger.Info("redis not configured, idempotency records stored in mongo")
		return memory.NewSessionStore(), mongoinfra.NewIdempotencyStore(storage.mongoClient.DB, cfg.IdempotencyTTL)
	}
	return memory.NewSessionStore(), memory.NewIdempotencyStore()
}

func buildPayments(cfg config.Config, logger *slog.Logger) (policies.PaymentsPort, stripeinfra.WebhookVerifier) {
	verifier := stripeinfra.WebhookVerifier{SigningSecret: cfg.StripeWebhookSecret}
	if cfg.PaymentsMode == "mock" {
		logger.Warn("mock payment gateway selected, no real charges will happen")
		return stripeinfra.MockGateway{}, verifier
	}
	return stripeinfra.New(cfg.StripeSecretKey), verifier
}

func buildNotifier(cfg config.Config, logger *slog.Logger) policies.Notifier {
	if cfg.NotifyMode == "log" {
		return notify.LogNotifier{Logger: logger}
	}
	var channels []policies.Notifier
	if cfg.ResendAPIKey != "" {
		channels = append(channels, notify.NewEmailNotifier(cfg.ResendAPIKey, cfg.EmailFrom))
	}
	if cfg.TwilioSID != "" {
		channels = append(channels, notify.NewSMSNotifier(cfg.TwilioSID, cfg.TwilioToken, cfg.TwilioFrom))
	}
	if len(channels) == 0 {
		logger.Warn("notify mode set but no channel configured, falling back to log")
		return notify.LogNotifier{Logger: logger}
	}
	var notifier policies.Notifier = notify.Fanout{Channels: channels}
	notifier = notify.OwnerCopy{
		Next:       notifier,
		OwnerEmail: cfg.OwnerEmail,
		OwnerPhone: cfg.OwnerPhone,
	}
	return notify.Async{Next: notifier, Logger: logger}
}

func startWorkers(ctx context.Context, cfg config.Config, storage storageDeps, bus commands.Bus, syncer *feedsync.Syncer, metrics *obs.Metrics, logger *slog.Logger) {
	if storage.outboxStore != nil && len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			logger.Error("kafka producer init failed, outbox relay disabled", "error", err)
		} else {
			worker := &outboxinfra.Worker{
				Store:       storage.outboxStore,
				Producer:    producer,
				Interval:    cfg.OutboxPollInterval,
				TopicPrefix: cfg.KafkaTopicPrefix,
				Source:      "app://whistleinn",
				Backoff:     cfg.RetryBackoff,
			}
			go func() {
				if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("outbox worker stopped", "error", err)
				}
			}()
		}
	} else if len(cfg.KafkaBrokers) == 0 {
		logger.Info("kafka not configured, domain events stay in the outbox")
	}

	feedWorker := &syncinfra.FeedWorker{
		Syncer:   syncer,
		Interval: cfg.FeedSyncInterval,
		Metrics:  metrics,
		Logger:   logger,
	}
	go func() {
		if err := feedWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("feed worker stopped", "error", err)
		}
	}()

	reaper := &syncinfra.ReaperWorker{
		Commands: bus,
		Interval: cfg.ReaperInterval,
		HoldTTL:  cfg.PendingHoldTTL,
		Logger:   logger,
	}
	go func() {
		if err := reaper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("pending reaper stopped", "error", err)
		}
	}()
}
