package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"

	"event-hub/internal/aggregate"
	"event-hub/internal/cache"
	"event-hub/internal/config"
	"event-hub/internal/debuglog"
	"event-hub/internal/enrich"
	"event-hub/internal/metrics"
	"event-hub/internal/provider"
	"event-hub/internal/web"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	debug := debuglog.New(200)

	// База опциональна: без неё кэш живёт в памяти, а локальные события
	// недоступны
	var pool *pgxpool.Pool
	if cfg.Cache.DatabaseURL != "" {
		pool, err = pgxpool.New(ctx, cfg.Cache.DatabaseURL)
		if err != nil {
			log.Fatalf("db connect: %v", err)
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			log.Fatalf("db ping: %v", err)
		}
		if err := cache.EnsureSchema(ctx, pool); err != nil {
			log.Fatalf("schema: %v", err)
		}
		log.Println("[main] connected to postgres")
	} else {
		log.Println("[main] no database configured, using in-memory cache")
	}

	var store cache.Store
	if pool != nil {
		store = cache.NewPostgres(pool)
	} else {
		store = cache.NewMemory()
	}

	svc := buildService(cfg, pool, store, debug)

	// Ежедневная чистка протухших записей
	c := cron.New()
	_, err = c.AddFunc(cfg.Cache.SweepCron, func() {
		sweepCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		n, err := store.PurgeExpired(sweepCtx)
		if err != nil {
			log.Printf("[sweep] purge expired failed: %v", err)
			return
		}
		metrics.CachePurged.WithLabelValues("expired").Add(float64(n))
		log.Printf("[sweep] purged %d expired cache rows", n)
	})
	if err != nil {
		log.Fatalf("invalid sweep_cron %q: %v", cfg.Cache.SweepCron, err)
	}
	c.Start()
	defer c.Stop()

	server := &http.Server{
		Addr:         cfg.Listen,
		Handler:      web.NewServer(svc).Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  90 * time.Second,
	}

	go func() {
		log.Printf("[main] event hub listening on %s", cfg.Listen)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("[main] shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[main] shutdown: %v", err)
	}
}

func buildService(cfg *config.Config, pool *pgxpool.Pool, store cache.Store, debug *debuglog.Log) *aggregate.Service {
	entries := []aggregate.Entry{
		{
			Provider: provider.NewEventbrite(cfg.Eventbrite.Credential, cfg.Eventbrite.BaseURL, debug),
			Enabled:  cfg.Eventbrite.Enabled,
			Note:     credentialNote(cfg.Eventbrite),
		},
		{
			Provider: provider.NewTicketmaster(cfg.Ticketmaster.Credential, cfg.Ticketmaster.BaseURL, debug),
			Enabled:  cfg.Ticketmaster.Enabled,
			Note:     credentialNote(cfg.Ticketmaster),
		},
		{
			Provider: provider.NewLocalStore(pool, debug),
			Enabled:  cfg.Local.Enabled,
			Note:     localNote(cfg, pool),
		},
	}

	return aggregate.New(
		entries,
		enrich.New(cfg.Enrichment, debug),
		store,
		debug,
		time.Duration(cfg.Cache.TTLSeconds)*time.Second,
		cfg.Defaults.RadiusMiles,
		cfg.Defaults.Limit,
	)
}

func credentialNote(pc config.ProviderConfig) string {
	if pc.Enabled && pc.Credential == "" {
		return "missing credential"
	}
	if !pc.Enabled {
		return "disabled in config"
	}
	return ""
}

func localNote(cfg *config.Config, pool *pgxpool.Pool) string {
	if !cfg.Local.Enabled {
		return "disabled in config"
	}
	if pool == nil {
		return "no database configured"
	}
	return ""
}
