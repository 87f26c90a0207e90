// Package main is the entry point for the Pocket Monster pet server.
// It only handles dependency injection and server initialization.
// NO business logic belongs here.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MRamiBalles/pocketmonster/internal/config"
	"github.com/MRamiBalles/pocketmonster/internal/engine"
	"github.com/MRamiBalles/pocketmonster/internal/events"
	"github.com/MRamiBalles/pocketmonster/internal/i18n"
	"github.com/MRamiBalles/pocketmonster/internal/infra/storage"
	"github.com/MRamiBalles/pocketmonster/internal/network"
	"github.com/MRamiBalles/pocketmonster/internal/platform/logger"
	"github.com/MRamiBalles/pocketmonster/internal/platform/metrics"
)

func main() {
	configPath := flag.String("config", "pet.yaml", "path to an optional YAML config file")
	flag.Parse()

	log.Println("[PET-SERVER] Initializing Pocket Monster Authoritative Server...")

	appLogger := logger.NewLogger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.Error("Failed to load config: " + err.Error())
		os.Exit(1)
	}
	collector := metrics.Get()

	appLogger.Infof("Initializing SQLite database '%s'...", cfg.DBPath)
	db, err := storage.InitSQLite(cfg.DBPath, cfg.Tuning.DBMaxOpenConns, cfg.Tuning.DBMaxIdleConns)
	if err != nil {
		appLogger.Error("Failed to initialize SQLite: " + err.Error())
		os.Exit(1)
	}
	defer db.Close()

	saves := storage.NewSaveStore(storage.NewSQLiteKVRepository(db), cfg.MonsterName, appLogger, collector)
	eventRepo := storage.NewSQLiteEventRepository(db)

	appLogger.Info("Bootstrapping EventLog...")
	eventLog := events.NewEventLog(storage.NewEventPersister(eventRepo, 2*time.Second), cfg.Tuning.EventRetention)
	eventLog.OnPersistError(func(err error) {
		appLogger.Warnf("event ledger write failed: %v", err)
	})

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	appLogger.Info("Bootstrapping Engine...")
	petEngine := engine.NewEngine(saves, eventLog, appLogger, collector, engine.Options{
		MonsterName:    cfg.MonsterName,
		TickInterval:   cfg.Simulation.TickInterval,
		ActionDuration: cfg.Simulation.ActionDuration,
		Clock:          engine.SystemClock,
		Rand:           rand.New(rand.NewSource(seed)),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appLogger.Info("Bootstrapping WebSocket Hub...")
	catalog := i18n.NewCatalog(cfg.Locale)
	hub := network.NewHub(catalog, appLogger, collector, network.HubOptions{
		BroadcastBuffer: cfg.Tuning.BroadcastBuffer,
		MaxClients:      cfg.Tuning.MaxClients,
		NoticeTTL:       cfg.Simulation.NoticeTTL,
	})
	go hub.Run(ctx)
	petEngine.SetNotifier(hub)

	greeting := petEngine.Boot(ctx)
	appLogger.Info(catalog.Render(catalog.Default(), greeting.Key, greeting.Args...))
	petEngine.Start(ctx)

	// Setup API Routes
	api := network.NewAPI(petEngine, saves, storage.NewRecapper(eventRepo), network.NewHistoryHandler(eventRepo, appLogger),
		hub, catalog, collector, appLogger, network.APIOptions{
			ClientSendBuffer: cfg.Tuning.ClientSendBuffer,
			RateLimit:        cfg.Network.RateLimit,
		})
	mux := http.NewServeMux()
	api.RegisterRoutes(mux)

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("[PET-SERVER] HTTP API & WS Server listening on %s", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	log.Println("[PET-SERVER] Server running. Press Ctrl+C to exit.")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[PET-SERVER] Shutting down...")
	petEngine.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Warnf("HTTP shutdown: %v", err)
	}
}
