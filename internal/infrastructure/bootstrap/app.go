// Package bootstrap wires configuration into repositories, gateway clients
// and services. cmd/server and cmd/ledgerctl share it.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/wekeepgrowing/payment-reconciler/internal/config"
	"github.com/wekeepgrowing/payment-reconciler/internal/domain/entity"
	"github.com/wekeepgrowing/payment-reconciler/internal/domain/event"
	domainGateway "github.com/wekeepgrowing/payment-reconciler/internal/domain/gateway"
	"github.com/wekeepgrowing/payment-reconciler/internal/infrastructure/database"
	"github.com/wekeepgrowing/payment-reconciler/internal/infrastructure/gateway"
	"github.com/wekeepgrowing/payment-reconciler/internal/infrastructure/messaging"
	"github.com/wekeepgrowing/payment-reconciler/internal/usecase"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Services are the usecases built on one set of repositories
type Services struct {
	Guard         *usecase.TransitionGuard
	Resolver      *usecase.PlanResolver
	Repair        *usecase.PlanRepairService
	Reconciler    *usecase.ReconciliationService
	Renewals      *usecase.RenewalService
	Transactions  *usecase.TransactionService
	Notifications *usecase.NotificationService
	Reverify      *usecase.ReverifyService
	Stats         *usecase.VerificationStatsService
}

// App owns every long lived resource of the process
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	DB        *gorm.DB
	Redis     *redis.Client
	Repos     *database.Repositories
	Checker   domainGateway.StatusChecker
	Publisher event.SettlementPublisher
	Catalog   *entity.PlanCatalog
	Services  *Services
}

// New connects to the database, runs migrations, and builds the services.
// Redis is optional: without redis.addr the plan cache is disabled.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	app := &App{Config: cfg, Logger: logger}

	catalog, err := NewCatalog(&cfg.Plans)
	if err != nil {
		return nil, err
	}
	app.Catalog = catalog

	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = db

	if err := database.Migrate(db, logger); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	if cfg.Redis.Enabled() {
		client, err := newRedisClient(&cfg.Redis)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.Redis = client
	}

	app.Repos = database.NewRepositories(db, app.Redis, cfg.Redis.KeyPrefix, logger)

	checker, err := gateway.NewChecker(&cfg.Gateway, logger)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to create gateway checker: %w", err)
	}
	app.Checker = checker

	publisher, err := messaging.NewPublisher(&cfg.Messaging, app.Redis, logger)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to create event publisher: %w", err)
	}
	app.Publisher = publisher

	app.Services = NewServices(app.Repos, app.Checker, app.Publisher, catalog, &cfg.Gateway, logger)

	logger.Info("Application initialized",
		zap.String("database", cfg.Database.Driver),
		zap.String("gateway", app.Checker.Name()),
		zap.String("messaging", cfg.Messaging.Driver),
		zap.Bool("plan_cache", app.Repos.PlanCache != nil),
		zap.Strings("plans", catalog.Names()))

	return app, nil
}

// NewServices builds the usecases. It does no I/O.
func NewServices(
	repos *database.Repositories,
	checker domainGateway.StatusChecker,
	publisher event.SettlementPublisher,
	catalog *entity.PlanCatalog,
	gatewayCfg *config.GatewayConfig,
	logger *zap.Logger,
) *Services {
	guard := usecase.NewTransitionGuard(repos.Transaction, repos.Audit, publisher, catalog, logger.Named("guard"))
	resolver := usecase.NewPlanResolver(repos.Transaction, logger)
	repair := usecase.NewPlanRepairService(repos.Transaction, repos.PlanCache, logger.Named("repair"))

	return &Services{
		Guard:    guard,
		Resolver: resolver,
		Repair:   repair,
		Reconciler: usecase.NewReconciliationService(
			repos.Transaction, checker, guard, repair, resolver, logger.Named("reconcile")),
		Renewals:     usecase.NewRenewalService(repos.Transaction, guard, repos.PlanCache, logger),
		Transactions: usecase.NewTransactionService(repos.Transaction, catalog, logger),
		Notifications: usecase.NewNotificationService(
			repos.Transaction, repos.Audit, checker, guard, gatewayCfg.WebhookSecret, logger.Named("webhook")),
		Reverify: usecase.NewReverifyService(repos.Audit, checker, gatewayCfg.AssumedTolerance, logger.Named("reverify")),
		Stats:    usecase.NewVerificationStatsService(repos.Audit, logger),
	}
}

// NewCatalog builds the plan catalog from configuration.
func NewCatalog(cfg *config.PlansConfig) (*entity.PlanCatalog, error) {
	specs := make([]entity.PlanSpec, 0, len(cfg.Catalog))
	for _, p := range cfg.Catalog {
		spec := entity.PlanSpec{Name: p.Name, Period: p.Period, Currency: p.Currency}
		if p.Amount != "" {
			amount, err := decimal.NewFromString(p.Amount)
			if err != nil {
				return nil, fmt.Errorf("invalid amount for plan %q: %w", p.Name, err)
			}
			spec.Amount = &amount
		}
		specs = append(specs, spec)
	}
	return entity.NewPlanCatalog(cfg.DefaultPeriod, specs...), nil
}

func newRedisClient(cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// Close releases everything New opened, in reverse order.
func (a *App) Close() {
	if a.Publisher != nil {
		if err := a.Publisher.Close(); err != nil {
			a.Logger.Error("Failed to close event publisher", zap.Error(err))
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Error("Failed to close redis client", zap.Error(err))
		}
	}
	if a.DB != nil {
		if err := database.Close(a.DB, a.Logger); err != nil {
			a.Logger.Error("Failed to close database connection", zap.Error(err))
		}
	}
}
