// synctest — операторский инструмент: проверить подключение каждого
// источника и выполнить по одному пробному поиску
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"event-hub/internal/config"
	"event-hub/internal/debuglog"
	"event-hub/internal/provider"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to config file")
	location := flag.String("location", "Austin, TX", "search location")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	debug := debuglog.New(50)

	var pool *pgxpool.Pool
	if cfg.Cache.DatabaseURL != "" {
		pool, err = pgxpool.New(ctx, cfg.Cache.DatabaseURL)
		if err != nil {
			log.Printf("db connect: %v (local events unavailable)", err)
		} else {
			defer pool.Close()
		}
	}

	q := provider.Query{
		Location:    *location,
		RadiusMiles: cfg.Defaults.RadiusMiles,
		Limit:       5,
	}

	providers := []provider.Provider{
		provider.NewEventbrite(cfg.Eventbrite.Credential, cfg.Eventbrite.BaseURL, debug),
		provider.NewTicketmaster(cfg.Ticketmaster.Credential, cfg.Ticketmaster.BaseURL, debug),
		provider.NewLocalStore(pool, debug),
	}

	for _, p := range providers {
		fmt.Printf("\n=== %s ===\n", p.Name())

		ok, msg := p.TestConnection(ctx)
		status := "FAIL"
		if ok {
			status = "OK"
		}
		fmt.Printf("  connection: %s — %s\n", status, msg)
		if !ok {
			continue
		}

		events := p.FetchEvents(ctx, q)
		fmt.Printf("  найдено %d событий\n", len(events))
		for _, e := range events {
			when := e.Date
			if when == "" {
				when = "дата неизвестна"
			}
			if e.Time != "" {
				when += " " + e.Time
			}
			fmt.Printf("  [%s] %s — %s (%s)\n", e.Category, e.Title, when, e.Price)
		}
	}
}
