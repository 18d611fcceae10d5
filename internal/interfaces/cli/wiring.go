package cli

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	appfx "github.com/shoppos/backend/internal/application/fx"
	apptill "github.com/shoppos/backend/internal/application/till"
	"github.com/shoppos/backend/internal/infrastructure/auth"
	"github.com/shoppos/backend/internal/infrastructure/cache"
	"github.com/shoppos/backend/internal/infrastructure/config"
	"github.com/shoppos/backend/internal/infrastructure/event"
	"github.com/shoppos/backend/internal/infrastructure/logger"
	"github.com/shoppos/backend/internal/infrastructure/persistence"
	"github.com/shoppos/backend/internal/infrastructure/printing"
	"github.com/shoppos/backend/internal/infrastructure/storage"
	"go.uber.org/zap"
)

// ConfigDeps opens the ledger the server is configured for. A completed day
// is exported synchronously when export is enabled, so the command returns
// only after the archive is uploaded.
func ConfigDeps(cfg *config.Config, log *zap.Logger) Deps {
	return Deps{
		Open: func(ctx context.Context) (*Services, func(), error) {
			return openServices(ctx, cfg, log)
		},
		Tokens: func() (*auth.JWTService, error) {
			if cfg.JWT.Secret == "" {
				return nil, fmt.Errorf("jwt.secret is not configured")
			}
			return auth.NewJWTService(cfg.JWT), nil
		},
	}
}

func openServices(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Services, func(), error) {
	location, err := cfg.EOD.Location()
	if err != nil {
		return nil, nil, err
	}
	db, err := persistence.NewDatabase(&cfg.Database,
		persistence.WithLogger(logger.NewGormLogger(log, logger.MapGormLogLevel("warn"))))
	if err != nil {
		return nil, nil, err
	}
	closers := []func(){func() { _ = db.Close() }}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	if db.Driver() == "sqlite" {
		if err := db.AutoMigrate(); err != nil {
			closeAll()
			return nil, nil, err
		}
	}

	tillCfg := apptill.Config{Location: location, BalanceEpsilon: cfg.EOD.BalanceEpsilon}
	scope := persistence.NewGormTransactionScope(db.DB, cfg.Database.LockTimeout)
	bus := event.NewInMemoryEventBus(log)

	var links DownloadLinker
	if cfg.Storage.Enabled {
		s3Store, err := storage.NewS3ObjectStore(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		links = s3Store
	}

	if cfg.EOD.ExportEnabled {
		store, err := storage.New(ctx, &cfg.Storage, log)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		pdf, err := printing.NewChromedpRenderer(&printing.ChromedpConfig{
			Timeout:   cfg.Printing.Timeout,
			RemoteURL: cfg.Printing.ChromeRemoteURL,
			Logger:    log,
		})
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, func() { _ = pdf.Close() })

		var redisClient *redis.Client
		if cfg.Redis.Enabled {
			if client, err := cache.NewRedisClient(ctx, cfg.Redis); err == nil {
				redisClient = client
			} else {
				log.Warn("redis unavailable, export dedup is process-local", zap.Error(err))
			}
		}
		dedup := cache.NewIdempotencyStore(redisClient, log)
		closers = append(closers, func() { _ = dedup.Close() })

		exporter := apptill.NewEODExportHandler(scope, store, printing.NewZReportRenderer(pdf, log), log)
		bus.Subscribe(event.NewIdempotentHandler(exporter, dedup, log,
			event.WithKeyFunc(event.KeyByAggregate("eod-export"))))
	}

	days := apptill.NewBusinessDayService(scope, bus, tillCfg)
	rates := appfx.NewExchangeRateService(persistence.NewGormRateRepository(db.DB))
	return &Services{
		Days:  days,
		Recon: apptill.NewReconciliationService(scope, days, rates, bus, tillCfg),
		Links: links,
	}, closeAll, nil
}
