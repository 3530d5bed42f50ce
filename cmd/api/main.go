package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"calora/backend/internal/ai"
	"calora/backend/internal/analytics"
	"calora/backend/internal/config"
	"calora/backend/internal/db"
	"calora/backend/internal/server"
	"calora/backend/internal/store"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("invalid timezone: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DatabaseURL, db.Options{MaxConns: int32(cfg.DBMaxConns)})
	if err != nil {
		log.Fatalf("database connect failed: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("database ping failed: %v", err)
	}
	if cfg.DBAutoMigrate {
		if err := store.EnsureSchema(ctx, pool); err != nil {
			log.Fatalf("database migrate failed: %v", err)
		}
	}
	if err := store.ValidateRuntimeSchema(ctx, pool); err != nil {
		log.Fatalf("database schema mismatch: %v", err)
	}

	var client ai.Client = ai.NewOpenAIResponsesClient(cfg)
	if cfg.AIMock {
		client = ai.MockClient{}
		log.Printf("ai client mode=mock")
	} else if !client.Available() {
		log.Printf("OPENAI_API_KEY not set; insights will use the fallback message")
	}

	svc := analytics.NewService(store.New(pool), analytics.WithLocation(loc))
	cache := analytics.NewInsightCache(cfg.InsightCacheTTL(), nil)
	insights := analytics.NewInsightGenerator(svc, cache, client, analytics.GeneratorConfig{
		Model:           cfg.OpenAIModel,
		MaxOutputTokens: cfg.AIMaxOutputTokens,
		Timeout:         cfg.AITimeout(),
	})

	app := server.New(cfg, server.Deps{Analytics: svc, Insights: insights, DB: pool})
	httpServer := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           app.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("calora api listening on http://localhost:%s timezone=%s", cfg.AppPort, loc)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
