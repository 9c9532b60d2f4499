package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/vanity-bot/internal/handler"
	"github.com/noah-isme/vanity-bot/internal/models"
	"github.com/noah-isme/vanity-bot/internal/repository"
	"github.com/noah-isme/vanity-bot/internal/service"
	"github.com/noah-isme/vanity-bot/pkg/cache"
	"github.com/noah-isme/vanity-bot/pkg/config"
	"github.com/noah-isme/vanity-bot/pkg/database"
)

type configStore interface {
	Get(ctx context.Context, communityID string) (*models.CommunityConfig, error)
	Upsert(ctx context.Context, cfg *models.CommunityConfig) error
	ListConfigured(ctx context.Context) ([]models.CommunityConfig, error)
}

type ledgerStore interface {
	ListByCommunity(ctx context.Context, communityID string) ([]models.LedgerEntry, error)
	Add(ctx context.Context, entry models.LedgerEntry) error
	Reset(ctx context.Context, communityID string) (int64, error)
}

// app holds the stores and services shared by every subcommand.
type app struct {
	metrics *service.MetricsService
	configs *service.ConfigService
	ledger  *service.LedgerService
	checks  map[string]handler.ReadinessCheck
	closers []func() error
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	a := &app{
		metrics: service.NewMetricsService(),
		checks:  map[string]handler.ReadinessCheck{},
	}

	var (
		configs configStore
		ledger  ledgerStore
	)
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		if err := database.Migrate(ctx, db); err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		configs = repository.NewCommunityConfigRepository(db)
		ledger = repository.NewLedgerRepository(db)
		a.checks["postgres"] = func(ctx context.Context) error { return db.PingContext(ctx) }
	default:
		db, err := database.NewBadger(cfg.Badger, logger)
		if err != nil {
			return nil, fmt.Errorf("open badger at %s (a running server holds it; stop it or use the admin API): %w", cfg.Badger.Path, err)
		}
		a.closers = append(a.closers, db.Close)
		configs = repository.NewBadgerCommunityConfigRepository(db)
		ledger = repository.NewBadgerLedgerRepository(db)
		a.checks["badger"] = func(context.Context) error {
			if db.IsClosed() {
				return errors.New("store closed")
			}
			return nil
		}
	}

	client, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		// The cache is optional; run uncached rather than refusing to start.
		logger.Warn("redis unavailable, config cache disabled", zap.Error(err))
		client = nil
	}
	cacheRepo := repository.NewCacheRepository(client, logger)
	a.closers = append(a.closers, cacheRepo.Close)
	if client != nil {
		a.checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	}
	cacheSvc := service.NewCacheService(cacheRepo, a.metrics, cfg.Redis.CacheTTL, logger, client != nil)

	a.configs = service.NewConfigService(configs, cacheSvc, validator.New(), logger)
	a.ledger = service.NewLedgerService(ledger, a.metrics, logger, cfg.Vanity.LedgerRefresh)
	return a, nil
}

// Close releases stores in reverse order of opening.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func withTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, 30*time.Second)
}
