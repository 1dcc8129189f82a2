package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"omega/internal/adapters"
	"omega/internal/bootstrap"
	"omega/internal/delivery"
	analysisDelivery "omega/internal/delivery/analysis"
	archiveDelivery "omega/internal/delivery/archive"
	boardDelivery "omega/internal/delivery/board"
	"omega/internal/repository"
	archiveuc "omega/internal/usecase/archive"
	"omega/internal/usecase/search"
	"omega/internal/usecase/session"
)

type archiveStore interface {
	archiveuc.ArchiveStore
	search.ArchiveStore
}

func main() {
	logger := NewLogger()
	cfg, err := bootstrap.Setup(".env")
	if err != nil {
		logger.Errorw("failed to setup configuration", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go handleShutdown(cancel, logger)

	store, closeStore := initArchive(ctx, logger, cfg)
	defer closeStore()

	engine, stopEngine := initEngine(logger, cfg)
	defer stopEngine()

	hub := boardDelivery.NewHub()
	go hub.Run(ctx.Done())
	if local, ok := engine.(*repository.EngineClient); ok {
		local.OnUpdate(hub.BroadcastSuggestions)
	}

	s := session.New(logger, engine)
	s.OnChange(hub.BroadcastState)

	handlers := &delivery.MainDeliveryHandler{
		Board:    boardDelivery.NewBoardHandler(logger, s, hub),
		Analysis: analysisDelivery.NewAnalysisHandler(cfg, logger, s),
		Archive: archiveDelivery.NewArchiveHandler(logger,
			archiveuc.NewArchiveUseCase(store, cfg.ArchiveDir),
			search.NewSearchUseCase(logger, store, s),
			s),
	}
	r := chi.NewRouter()
	handlers.Router(r, cfg.IsLocalCors)

	server := &http.Server{Addr: ":" + cfg.ServerPort, Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Errorw("http shutdown", "error", err)
		}
	}()

	logger.Infof("Server is running on port %s", cfg.ServerPort)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalw("failed to start server", "error", err)
	}
}

func NewLogger() *zap.SugaredLogger {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	return logger.Sugar()
}

// initArchive opens the archive backend named by ARCHIVE_BACKEND.
func initArchive(ctx context.Context, log *zap.SugaredLogger, cfg *bootstrap.Config) (archiveStore, func()) {
	if cfg.ArchiveBackend == "mongo" {
		mongoAdapter := adapters.NewAdapterMongo(cfg, log)
		if err := mongoAdapter.Init(ctx); err != nil {
			log.Fatalw("failed to init MongoDB", "error", err)
		}
		redisAdapter := adapters.NewAdapterRedis(cfg, log)
		if err := redisAdapter.Init(ctx); err != nil {
			log.Fatalw("failed to init Redis", "error", err)
		}
		log.Info("database adapters initialized")
		if n, err := redisAdapter.FlushSearchResults(ctx, repository.SearchCachePrefix); err != nil {
			log.Warnw("failed to drop stale search results", "error", err)
		} else if n > 0 {
			log.Infow("dropped stale search results", "count", n)
		}

		repo := repository.NewArchiveRepository(cfg, log, redisAdapter.GetClient(), mongoAdapter.Database)
		return repo, func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = mongoAdapter.Close(closeCtx)
			_ = redisAdapter.Close(closeCtx)
		}
	}

	db, err := repository.NewBadgerArchive(cfg, log)
	if err != nil {
		log.Fatalw("failed to open archive", "dir", cfg.ArchiveDBDir, "error", err)
	}
	log.Infow("using embedded archive", "dir", cfg.ArchiveDBDir)
	return db, func() { _ = db.Close() }
}

// initEngine connects to a remote analysis service when ENGINE_ADDR is set
// and otherwise starts a local engine. Without either the board still works.
func initEngine(log *zap.SugaredLogger, cfg *bootstrap.Config) (session.Engine, func()) {
	if cfg.EngineAddr != "" {
		remote, err := repository.NewRemoteEngine(cfg, log)
		if err != nil {
			log.Errorw("remote engine unavailable", "error", err)
			return nil, func() {}
		}
		return remote, func() { _ = remote.Close() }
	}
	if !cfg.EngineEnabled {
		log.Info("engine disabled")
		return nil, func() {}
	}
	local, err := repository.NewEngineClient(cfg, log)
	if err != nil {
		log.Errorw("engine unavailable, analysis disabled", "error", err)
		return nil, func() {}
	}
	return local, local.Shutdown
}

func handleShutdown(cancelFunc context.CancelFunc, log *zap.SugaredLogger) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Info("Received shutdown signal")
	cancelFunc()
}
