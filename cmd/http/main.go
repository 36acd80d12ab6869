package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"konsulin-wallet-service/cmd/migration"
	"konsulin-wallet-service/internal/app/config"
	"konsulin-wallet-service/internal/app/contracts"
	"konsulin-wallet-service/internal/app/delivery/http/controllers"
	"konsulin-wallet-service/internal/app/delivery/http/middlewares"
	"konsulin-wallet-service/internal/app/delivery/http/routers"
	"konsulin-wallet-service/internal/app/drivers/database"
	"konsulin-wallet-service/internal/app/drivers/logger"
	"konsulin-wallet-service/internal/app/drivers/messaging"
	"konsulin-wallet-service/internal/app/services/core/ledger"
	"konsulin-wallet-service/internal/app/services/core/plans"
	"konsulin-wallet-service/internal/app/services/core/subscriptions"
	"konsulin-wallet-service/internal/app/services/core/transactions"
	"konsulin-wallet-service/internal/app/services/core/wallets"
	"konsulin-wallet-service/internal/app/services/shared/events"
	"konsulin-wallet-service/internal/app/services/shared/fraud"
	"konsulin-wallet-service/internal/app/services/shared/locker"
	"konsulin-wallet-service/internal/app/services/shared/payment_gateway"
	"konsulin-wallet-service/internal/app/services/shared/redis"
	"konsulin-wallet-service/internal/pkg/constvars"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
)

// Version sets the default build version
var Version = "develop"

// Tag sets the default latest commit tag
var Tag = "0.0.1-rc"

func main() {
	driverConfig := config.NewDriverConfig()
	internalConfig := config.NewInternalConfig()

	log := logger.NewLogrusLogger(internalConfig)
	log.WithFields(logrus.Fields{"version": Version, "tag": Tag}).Info("Starting " + constvars.ServiceName)

	location, err := time.LoadLocation(internalConfig.App.Timezone)
	if err != nil {
		log.Fatalf("Error loading location: %v", err)
	}
	time.Local = location

	zapLogger, err := logger.NewZapLogger(driverConfig, internalConfig)
	if err != nil {
		log.Fatalf("Error initializing zap logger: %v", err)
	}

	bootstrap := &config.Bootstrap{
		Router:         chi.NewRouter(),
		Logger:         zapLogger,
		BootLogger:     log,
		InternalConfig: internalConfig,
		DriverConfig:   driverConfig,
	}

	if err := connectDrivers(bootstrap); err != nil {
		log.Errorf("Error connecting drivers: %v", err)
		_ = bootstrap.Shutdown(context.Background())
		os.Exit(1)
	}

	appCtx, cancelApp := context.WithCancel(context.Background())
	defer cancelApp()

	if err := bootstrapingTheApp(appCtx, bootstrap); err != nil {
		log.Errorf("Error bootstrapping the app: %v", err)
		_ = bootstrap.Shutdown(context.Background())
		os.Exit(1)
	}

	server := &http.Server{
		Addr:              ":" + internalConfig.App.Port,
		Handler:           bootstrap.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("Server listening on %s", server.Addr)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	<-c

	log.Println("Waiting for pending requests that already received by server to be processed..")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Second*time.Duration(internalConfig.App.ShutdownTimeoutInSeconds),
	)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}

	cancelApp()
	if err := bootstrap.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Error releasing resources: %v", err)
	}

	log.Println("Server exiting")
}

// connectDrivers starts only the drivers the configured storage and event
// sinks need.
func connectDrivers(bootstrap *config.Bootstrap) error {
	var (
		cfg       = bootstrap.InternalConfig
		driverCfg = bootstrap.DriverConfig
		log       = bootstrap.BootLogger
		err       error
	)

	if cfg.Ledger.Storage == constvars.StoragePostgres || cfg.Subscription.Storage == constvars.StoragePostgres {
		bootstrap.Postgres, err = database.NewPostgresDB(driverCfg, log)
		if err != nil {
			return err
		}
		if _, err := migration.Run(bootstrap.Postgres, log); err != nil {
			return err
		}
	}

	if driverCfg.Redis.Enabled {
		bootstrap.Redis, err = database.NewRedisClient(driverCfg, log)
		if err != nil {
			return err
		}
	}

	for _, sink := range events.ParseSinks(cfg.Events.Sinks) {
		switch sink {
		case events.SinkRabbitMQ:
			bootstrap.RabbitMQ, err = messaging.NewRabbitMQ(driverCfg, log)
		case events.SinkMongo:
			bootstrap.MongoDB, err = database.NewMongoDB(driverCfg, log)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func bootstrapingTheApp(ctx context.Context, bootstrap *config.Bootstrap) error {
	cfg := bootstrap.InternalConfig
	log := bootstrap.Logger

	// Redis
	var redisRepository contracts.RedisRepository
	if bootstrap.Redis != nil {
		redisRepository = redis.NewRedisRepository(bootstrap.Redis)
	} else {
		log.Warn("redis disabled, locks and fraud velocity are process local")
		redisRepository = redis.NewMemoryRepository()
	}
	lockerService := locker.NewLockService(redisRepository, log)

	// Payment gateway and fraud
	paymentGateway, err := payment_gateway.NewPaymentGateway(cfg, log)
	if err != nil {
		return err
	}
	fraudChecker := fraud.NewAllowAllChecker()
	if cfg.Fraud.Enabled {
		fraudChecker = fraud.NewVelocityChecker(redisRepository, cfg, log)
	}

	// Events
	sinks := events.Sinks{RabbitMQ: bootstrap.RabbitMQ, Redis: redisRepository}
	if bootstrap.MongoDB != nil {
		sinks.Mongo = bootstrap.MongoDB.Database(bootstrap.DriverConfig.MongoDB.DbName)
	}
	eventPublisher, err := events.NewPublisherFromConfig(cfg, sinks, log)
	if err != nil {
		return err
	}

	// Ledger
	ledgerStore := newLedgerStore(cfg, bootstrap.Postgres, log)
	transactionManager := transactions.NewTransactionManager(log, cfg.Ledger.ReferenceAttempts, time.Now)
	walletUsecase := wallets.NewWalletUsecase(ledgerStore, transactionManager, paymentGateway, fraudChecker, eventPublisher, cfg, log)
	if _, err := walletUsecase.EnsurePlatformWallet(ctx); err != nil {
		return err
	}

	// Plans
	var planRepository contracts.PlanRepository
	var subscriptionRepository contracts.SubscriptionRepository
	if cfg.Subscription.Storage == constvars.StoragePostgres {
		planRepository = plans.NewPlanPostgresRepository(bootstrap.Postgres, log)
		subscriptionRepository = subscriptions.NewSubscriptionPostgresRepository(bootstrap.Postgres, log)
	} else {
		planRepository = plans.NewPlanMemoryRepository()
		subscriptionRepository = subscriptions.NewSubscriptionMemoryRepository()
	}
	planUsecase := plans.NewPlanUsecase(planRepository, cfg, log)
	if cfg.Subscription.SeedDefaultPlans {
		if err := planUsecase.SeedDefaultPlans(ctx); err != nil {
			return err
		}
	}

	// Subscriptions
	subscriptionUsecase := subscriptions.NewSubscriptionUsecase(subscriptionRepository, planUsecase, walletUsecase, lockerService, eventPublisher, cfg, log)
	if cfg.Subscription.WorkerEnabled {
		worker := subscriptions.NewWorker(log, cfg, lockerService, subscriptionUsecase)
		worker.Start(ctx)
		bootstrap.WorkerStop = worker.Stop
	}

	// Controllers
	walletController := controllers.NewWalletController(log, walletUsecase)
	paymentController := controllers.NewPaymentController(log, walletUsecase, subscriptionUsecase)
	subscriptionController := controllers.NewSubscriptionController(log, planUsecase, subscriptionUsecase)
	adminController := controllers.NewAdminController(log, subscriptionUsecase)

	routers.SetupRoutes(
		bootstrap.Router,
		cfg,
		middlewares.NewMiddlewares(log, cfg),
		walletController,
		paymentController,
		subscriptionController,
		adminController,
	)

	log.Info("application bootstrapped",
		zap.String("ledger_storage", cfg.Ledger.Storage),
		zap.String("subscription_storage", cfg.Subscription.Storage),
		zap.String("payment_gateway", cfg.PaymentGateway.Provider),
		zap.Bool("worker_enabled", cfg.Subscription.WorkerEnabled),
	)
	return nil
}

func newLedgerStore(cfg *config.InternalConfig, db *sql.DB, log *zap.Logger) contracts.LedgerStore {
	if cfg.Ledger.Storage == constvars.StoragePostgres {
		return ledger.NewLedgerPostgresStore(db, log, cfg.Ledger.LockTimeout)
	}
	return ledger.NewLedgerMemoryStore(log, cfg.Ledger.LockTimeout)
}
