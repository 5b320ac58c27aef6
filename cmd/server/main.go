package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kettleofketchup/dota-tournament-sub000/internal/config"
	"github.com/kettleofketchup/dota-tournament-sub000/internal/engine"
	"github.com/kettleofketchup/dota-tournament-sub000/internal/fanout"
	"github.com/kettleofketchup/dota-tournament-sub000/internal/gateway"
	"github.com/kettleofketchup/dota-tournament-sub000/internal/httpapi"
	"github.com/kettleofketchup/dota-tournament-sub000/internal/presence"
	"github.com/kettleofketchup/dota-tournament-sub000/internal/store"
	"github.com/kettleofketchup/dota-tournament-sub000/internal/ticker"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage backend
	var st store.Store
	switch cfg.StoreBackend {
	case "memory":
		st = store.NewMemoryStore()
		log.Info().Msg("using in-memory store")
	default:
		pool, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to ping database")
		}
		st = store.NewPostgresStore(pool)
		log.Info().Str("database", cfg.Database.Database).Msg("connected to postgres")
	}

	// NATS fan-out
	nc, err := fanout.ConnectNATS(cfg.NATSURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to NATS")
	}
	defer nc.Close()
	pub := fanout.NewNATSPublisher(nc)

	clock := clockwork.NewRealClock()

	// Draft engine and its tick supervisor
	eng := engine.New(st, pub, clock, engine.Config{
		GraceTimeMs:   cfg.Timing.GraceTimeMs,
		ReserveTimeMs: cfg.Timing.ReserveTimeMs,
	})
	supervisor := ticker.NewSupervisor(ctx, st, eng, pub, clock)
	eng.SetLoops(supervisor)

	// Captain presence tracking
	ttl := time.Duration(cfg.Timing.PresenceTTLSeconds) * time.Second
	coordinator := presence.NewCoordinator(eng, clock, ttl)
	go coordinator.Run(ctx)

	// WebSocket gateway fed by NATS
	manager := gateway.NewConnectionManager(gateway.DefaultConnectionConfig(), coordinator)
	go manager.Start(ctx)

	consumer := gateway.NewEventConsumer(manager, nc)
	go func() {
		if err := consumer.Start(ctx); err != nil {
			log.Error().Err(err).Msg("event consumer failed")
		}
	}()
	defer consumer.Stop()

	// HTTP surface
	mux := http.NewServeMux()
	httpapi.NewHandler(eng).RegisterRoutes(mux)
	gateway.NewHandler(manager).RegisterRoutes(mux)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("failed to write health check response")
		}
	})

	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: h2c.NewHandler(c.Handler(mux), &http2.Server{}),
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("draft server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}

	cancel()
	supervisor.Close()

	log.Info().Msg("draft server shutdown complete")
}
