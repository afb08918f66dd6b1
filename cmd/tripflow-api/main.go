// README: Entry point; loads config, wires the intake services, starts the HTTP server.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tripflow/internal/ai"
	"tripflow/internal/config"
	httptransport "tripflow/internal/http"
	"tripflow/internal/infra"
	tripmaps "tripflow/internal/maps"
	"tripflow/internal/modules/auth"
	"tripflow/internal/modules/quota"
	"tripflow/internal/modules/tips"
	"tripflow/internal/modules/trip"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, err := ai.NewGeminiProvider(ctx, cfg.AI.GeminiKey, cfg.Trip.BudgetCeiling)
	if err != nil {
		log.Fatalf("gemini init: %v", err)
	}
	defer provider.Close()

	var places tips.Places
	if cfg.AI.MapsKey != "" {
		placesSvc, err := tripmaps.NewPlacesService(cfg.AI.MapsKey)
		if err != nil {
			log.Fatalf("maps init: %v", err)
		}
		places = placesSvc
	} else {
		log.Printf("MAPS_API_KEY not set; quick tips will skip Places highlights")
	}

	var tracker quota.Tracker
	switch cfg.Quota.Backend {
	case config.BackendPostgres:
		dbPool, err := infra.NewDB(ctx, cfg.Quota.DSN)
		if err != nil {
			log.Fatalf("postgres init: %v", err)
		}
		defer dbPool.Close()
		tracker = quota.NewPostgres(dbPool, cfg.Quota.Ceiling)
	case config.BackendMemory:
		tracker = quota.NewMemory(cfg.Quota.Ceiling)
	default:
		log.Fatalf("unknown quota backend %q", cfg.Quota.Backend)
	}

	var store trip.Store
	switch cfg.Session.Backend {
	case config.BackendRedis:
		redisClient := infra.NewRedis(cfg.Session.RedisAddr)
		defer redisClient.Close()
		store = trip.NewRedisStore(redisClient, cfg.Session.TTL)
	case config.BackendMemory:
		store = trip.NewMemoryStore()
	default:
		log.Fatalf("unknown session backend %q", cfg.Session.Backend)
	}

	gate := auth.NewGate(cfg.Auth.AllowedUsers)
	if len(gate.Authorized()) == 0 {
		log.Printf("TRIPFLOW_ALLOWED_USERS is empty; every request will be denied")
	}

	tipsSvc := tips.NewService(provider, places)
	tripSvc := trip.NewService(gate, tracker, store, provider, tipsSvc, cfg.Quota.Ceiling)

	server := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: httptransport.NewRouter(tripSvc),
	}

	go func() {
		log.Printf("listening on %s", cfg.HTTP.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
