package main

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/todomore/api/handler"
	"github.com/fastygo/todomore/internal/config"
	"github.com/fastygo/todomore/internal/infrastructure/buffer"
	"github.com/fastygo/todomore/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/todomore/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/todomore/internal/infrastructure/redis"
	"github.com/fastygo/todomore/internal/metrics"
	"github.com/fastygo/todomore/internal/middleware"
	"github.com/fastygo/todomore/internal/router"
	"github.com/fastygo/todomore/internal/services"
	"github.com/fastygo/todomore/internal/services/lifecycle"
	"github.com/fastygo/todomore/pkg/httpcontext"
	"github.com/fastygo/todomore/pkg/logger"
	"github.com/fastygo/todomore/repository"
	"github.com/fastygo/todomore/repository/memory"
	"github.com/fastygo/todomore/repository/postgres"
	redisRepo "github.com/fastygo/todomore/repository/redis"
	"github.com/fastygo/todomore/usecase"
	dashboardUC "github.com/fastygo/todomore/usecase/dashboard"
	goalUC "github.com/fastygo/todomore/usecase/goal"
	streakUC "github.com/fastygo/todomore/usecase/streak"
	taskUC "github.com/fastygo/todomore/usecase/task"
)

type repositories struct {
	tasks   repository.TaskRepository
	goals   repository.GoalRepository
	streaks repository.StreakRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:      cfg.Logger.Level,
		Encoding:   cfg.Logger.Encoding,
		File:       cfg.Logger.File,
		MaxSizeMB:  cfg.Logger.MaxSizeMB,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAgeDays: cfg.Logger.MaxAgeDays,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	appMetrics := metrics.New(cfg.AppName)

	var pool *pgxpool.Pool
	var repos repositories
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		if cfg.Migrations.Enabled {
			if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
				zapLogger.Fatal("migrations failed", zap.Error(err))
			}
		}
		pool, err = pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
		if err != nil {
			zapLogger.Fatal("postgres connection failed", zap.Error(err))
		}
		manager.Register("postgres", func(ctx context.Context) error {
			pool.Close()
			return nil
		})
		repos = repositories{
			tasks:   postgres.NewTaskRepository(pool),
			goals:   postgres.NewGoalRepository(pool),
			streaks: postgres.NewStreakRepository(pool),
		}
	default:
		zapLogger.Warn("using in-memory storage, data is lost on restart")
		store := memory.NewStore()
		repos = repositories{
			tasks:   memory.NewTaskRepository(store),
			goals:   memory.NewGoalRepository(store),
			streaks: memory.NewStreakRepository(store),
		}
	}

	summaryCache := memory.NewSummaryCache()
	var probes []func(*monitor.Monitor)
	if pool != nil {
		probes = append(probes, func(m *monitor.Monitor) {
			m.AddProbe("postgresql", 2*time.Second, monitor.PostgresProbe(pool))
		})
	}
	if cfg.Redis.Enabled {
		redisClient, err := redisInfra.NewClient(appCtx, cfg.Redis, zapLogger)
		if err != nil {
			zapLogger.Warn("redis unavailable, caching summaries in memory", zap.Error(err))
		} else {
			manager.Register("redis", func(ctx context.Context) error {
				return redisClient.Close()
			})
			summaryCache = redisRepo.NewSummaryCache(redisClient, cfg.Dashboard.CacheTTL)
			probes = append(probes, func(m *monitor.Monitor) {
				m.AddProbe("redis", 2*time.Second, monitor.RedisProbe(redisClient))
			})
		}
	}

	var bufferStore *buffer.Store
	if cfg.Buffer.Enabled && pool != nil {
		bufferStore, err = buffer.Open(cfg.Buffer.Path, "task_operations")
		if err != nil {
			zapLogger.Fatal("failed to open buffer store", zap.Error(err))
		}
		manager.Register("buffer", func(ctx context.Context) error {
			return bufferStore.Close()
		})
	}

	mon := monitor.New(bufferStore, 10*time.Second, zapLogger)
	for _, add := range probes {
		add(mon)
	}
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	streakUseCase := streakUC.New(repos.streaks, appMetrics, zapLogger)
	goalUseCase := goalUC.New(repos.goals, repos.tasks, summaryCache, appMetrics, zapLogger)
	dashboardUseCase := dashboardUC.New(repos.tasks, repos.goals, streakUseCase, summaryCache, cfg.Dashboard.CacheTTL, zapLogger)

	var opBuffer usecase.OperationBuffer
	if bufferStore != nil {
		bufferProcessor := services.NewBufferProcessor(
			bufferStore,
			mon,
			repos.tasks,
			goalUseCase,
			zapLogger,
			services.ProcessorConfig{
				Interval:   cfg.Buffer.SyncInterval,
				BatchSize:  cfg.Buffer.BatchSize,
				MaxRetries: cfg.Buffer.MaxRetry,
				Retention:  time.Duration(cfg.Buffer.RetentionHours) * time.Hour,
			},
		)
		bufferProcessor.Start()
		manager.Register("buffer_processor", func(ctx context.Context) error {
			bufferProcessor.Stop(ctx)
			return nil
		})
		opBuffer = services.NewBufferBridge(bufferProcessor)
	}

	taskUseCase := taskUC.New(taskUC.Deps{
		Tasks:   repos.tasks,
		Goals:   goalUseCase,
		Streaks: streakUseCase,
		Buffer:  opBuffer,
		Cache:   summaryCache,
		Metrics: appMetrics,
		Logger:  zapLogger,
	})

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Task:     apiHandler.NewTaskHandler(taskUseCase, ctxAdapter, zapLogger),
		Goal:     apiHandler.NewGoalHandler(goalUseCase, ctxAdapter, zapLogger),
		Progress: apiHandler.NewProgressHandler(streakUseCase, dashboardUseCase, ctxAdapter, zapLogger),
		Health:   apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(middleware.AuthConfig{
		Secret:   cfg.JWT.Secret,
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
	}, zapLogger)

	opts := router.Options{Pprof: cfg.HTTP.EnablePprof}
	if cfg.HTTP.EnableMetrics {
		opts.Metrics = appMetrics.Handler()
	}
	r := router.New(handlers, authMiddleware, opts)

	server := &fasthttp.Server{
		Handler: router.Chain(r.Handler,
			middleware.Recovery(zapLogger),
			middleware.RequestLogger(appMetrics, zapLogger),
		),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Concurrency:  cfg.HTTP.MaxConn,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started",
			zap.String("address", cfg.Address()),
			zap.String("storage", cfg.Storage.Driver))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
