// Package main is the entry point for the cookie clicker game server.
// It only handles dependency injection and server initialization.
// NO business logic belongs here.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KottenAlin/reb-wbsite/internal/engine"
	"github.com/KottenAlin/reb-wbsite/internal/events"
	"github.com/KottenAlin/reb-wbsite/internal/infra/storage"
	"github.com/KottenAlin/reb-wbsite/internal/network"
	"github.com/KottenAlin/reb-wbsite/internal/platform/config"
	"github.com/KottenAlin/reb-wbsite/internal/platform/logger"
	"github.com/KottenAlin/reb-wbsite/internal/platform/metrics"
	"github.com/KottenAlin/reb-wbsite/internal/platform/optimization"
)

type repositories struct {
	saves  storage.SaveRepository
	events storage.EventRepository
	close  func()
}

func openStorage(ctx context.Context, cfg config.Server, opt *optimization.Config, appLogger *logger.Logger) (repositories, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		appLogger.Info("Connecting to PostgreSQL...")
		pool, err := storage.OpenPostgres(ctx, cfg.DatabaseURL, int32(opt.DBMaxOpenConns))
		if err != nil {
			return repositories{}, err
		}
		return repositories{
			saves:  storage.NewPostgresSaveRepository(pool),
			events: storage.NewPostgresEventRepository(pool),
			close:  pool.Close,
		}, nil
	default:
		appLogger.Info(fmt.Sprintf("Initializing SQLite database %q...", cfg.DBPath))
		db, err := storage.InitSQLite(cfg.DBPath)
		if err != nil {
			return repositories{}, err
		}
		return repositories{
			saves:  storage.NewSQLiteSaveRepository(db),
			events: storage.NewSQLiteEventRepository(db),
			close:  func() { db.Close() },
		}, nil
	}
}

func main() {
	appLogger := logger.NewLogger()
	if err := run(appLogger); err != nil {
		appLogger.Error(err.Error())
		os.Exit(1)
	}
}

func run(appLogger *logger.Logger) error {
	appLogger.Info("Initializing cookie clicker server...")

	cfg, err := config.LoadServer()
	if err != nil {
		return err
	}
	balance, err := config.LoadBalance(cfg.BalanceFile)
	if err != nil {
		return err
	}
	opt := optimization.ForProfile(cfg.Profile)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, err := openStorage(ctx, cfg, opt, appLogger)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer repos.close()

	appLogger.Info("Bootstrapping EventLog...")
	eventLog := events.NewEventLog(storage.NewEventPersister(repos.events, cfg.SaveID))
	defer eventLog.Flush()

	appLogger.Info("Bootstrapping Engine Subsystems...")
	gameEngine := engine.NewEngine(eventLog, appLogger, engine.Config{
		Random:  engine.NewRandomSource(cfg.Seed),
		Balance: balance,
	})

	saves := storage.NewSaveManager(repos.saves, gameEngine, cfg.SaveID, appLogger)
	found, err := saves.Load(ctx)
	switch {
	case err != nil:
		// A corrupt save is kept in the database; the game starts fresh.
		appLogger.Error("Failed to restore save, starting fresh: " + err.Error())
	case found:
		appLogger.Info("Restored save " + cfg.SaveID)
	default:
		appLogger.Info("No save found, starting a new bakery")
	}

	go gameEngine.Run(ctx)
	defer gameEngine.Stop()

	saveDone := make(chan struct{})
	go func() {
		defer close(saveDone)
		saves.Run(ctx, cfg.SaveInterval)
	}()

	appLogger.Info("Bootstrapping WebSocket Hub...")
	hub := network.NewHub(gameEngine, opt, appLogger)
	go hub.Run(ctx)
	hub.StartEventPoller(ctx, eventLog, 200*time.Millisecond)
	hub.StartStatePusher(ctx, cfg.BroadcastInterval)

	mux := http.NewServeMux()
	network.NewAPIHandler(hub, saves, repos.events, eventLog, cfg.SaveID, appLogger).RegisterRoutes(mux)
	srv := &http.Server{Addr: cfg.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	serveErr := make(chan error, 1)
	go func() {
		appLogger.Info("HTTP API & WS Server listening on " + cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			stop()
			<-saveDone
			return fmt.Errorf("http server: %w", err)
		}
	}

	appLogger.Info("Shutting down...")
	stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Warn("HTTP shutdown: " + err.Error())
	}
	<-saveDone

	for _, note := range optimization.Analyze(metrics.Get().Snapshot()).Notes {
		appLogger.Warn("Tuning: " + note)
	}
	return nil
}
