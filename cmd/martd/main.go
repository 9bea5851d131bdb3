package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/zaffran-mart/zaffran-mart/internal/app"
	"github.com/zaffran-mart/zaffran-mart/internal/catalog"
	"github.com/zaffran-mart/zaffran-mart/internal/notify"
	"github.com/zaffran-mart/zaffran-mart/internal/observability"
	"github.com/zaffran-mart/zaffran-mart/internal/orders"
	"github.com/zaffran-mart/zaffran-mart/internal/platform/cache"
	"github.com/zaffran-mart/zaffran-mart/internal/platform/db"
	"github.com/zaffran-mart/zaffran-mart/internal/snapshot"
	"github.com/zaffran-mart/zaffran-mart/internal/store"
	"github.com/zaffran-mart/zaffran-mart/jobs"
)

// zoneClock evaluates the store schedule in the configured timezone.
type zoneClock struct {
	loc *time.Location
}

func (c zoneClock) Now() time.Time { return time.Now().In(c.loc) }

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	metrics := observability.NewMetrics()

	var snapStore snapshot.Store
	switch cfg.SnapshotBackend {
	case "postgres":
		pool, err := db.New(ctx, cfg.PGDSN)
		if err != nil {
			logger.Error("connect postgres", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()
		snapStore, err = snapshot.NewPostgresStore(ctx, pool)
		if err != nil {
			logger.Error("init snapshot store", slog.Any("error", err))
			os.Exit(1)
		}
	default:
		redisClient, err := cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Error("connect redis", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
		snapStore = snapshot.NewRedisStore(redisClient, cfg.SnapshotPrefix)
	}

	snap, err := snapStore.Load(ctx)
	if err != nil {
		logger.Warn("load snapshot, starting empty", slog.Any("error", err))
		snap = snapshot.Snapshot{}
	}

	feed := notify.NewFeed()
	notifiers := notify.Multi{feed, notify.LogNotifier{Logger: logger}}

	queueClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Warn("jobs client unavailable", slog.Any("error", err))
	} else {
		defer func() {
			if err := queueClient.Close(); err != nil {
				logger.Warn("jobs client close", slog.Any("error", err))
			}
		}()
		notifiers = append(notifiers, jobs.QueueNotifier{Client: queueClient, Logger: logger})
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Warn("load timezone, using local", slog.String("tz", cfg.Timezone), slog.Any("error", err))
		loc = time.Local
	}

	catalogService := catalog.NewService(logger, snap.Products, snap.InventoryLogs, notifiers, snapStore, metrics)
	ordersService := orders.NewService(logger, snap.Orders, catalogService, notifiers, snapStore, metrics)
	storeService := store.NewService(logger, snap.StoreInfo, snap.StoreLogs, notifiers, snapStore, metrics, zoneClock{loc: loc})
	scheduler := store.NewScheduler(storeService, cfg.StoreTickInterval, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		CatalogHandler: catalog.NewHandler(logger, catalogService),
		OrdersHandler:  orders.NewHandler(logger, ordersService),
		StoreHandler:   store.NewHandler(logger, storeService),
		NotifyHandler:  notify.NewHandler(feed),
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		return scheduler.Run(groupCtx)
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && err != context.Canceled {
		logger.Error("runtime", slog.Any("error", err))
		os.Exit(1)
	}
}
