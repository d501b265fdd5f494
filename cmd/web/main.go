package main

import (
	"fmt"
	"log"
	"log/slog"
	"net/http"

	"github.com/AdamBeresnev/bracket-engine/internal/cache"
	"github.com/AdamBeresnev/bracket-engine/internal/config"
	"github.com/AdamBeresnev/bracket-engine/internal/db"
	"github.com/AdamBeresnev/bracket-engine/internal/metrics"
	"github.com/AdamBeresnev/bracket-engine/internal/notify"
	"github.com/AdamBeresnev/bracket-engine/internal/service"
	"github.com/AdamBeresnev/bracket-engine/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration:", err)
	}

	database := db.InitDB(cfg)
	defer database.Close()

	bus := notify.NewBus()
	defer notify.LogEvents(bus, slog.Default())()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	defer metrics.New(registry).Subscribe(bus)()

	var backend cache.Backend = cache.NewMemory()
	if cfg.RedisURL != "" {
		redisBackend, err := cache.NewRedis(cfg.RedisURL)
		if err != nil {
			log.Println("Redis unavailable, using in-memory cache:", err)
		} else {
			defer redisBackend.Close()
			backend = redisBackend
		}
	}

	opts := service.Options{AwardByeWin: cfg.SwissAwardByeWin, AutoAdvance: cfg.SwissAutoAdvance}
	tournamentStore := store.NewTournamentStore(database)
	scoreStore := store.NewScoreStore(database)
	swissStore := store.NewSwissStore(database)
	swissService := service.NewSwissService(database, tournamentStore, swissStore, bus, opts)

	app := &application{
		tournaments: service.NewTournamentService(database, tournamentStore, swissStore, bus, opts),
		matches:     service.NewMatchService(database, tournamentStore, scoreStore, swissStore, swissService, bus, opts),
		swiss:       swissService,
		cache:       cache.New(backend, cfg.CacheTTL),
	}
	router := newRouter(app, cfg.CORSAllowedOrigins, registry)

	addr := fmt.Sprintf(":%d", cfg.ServerPort)
	log.Printf("Server starting on http://localhost%s", addr)
	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatal(err)
	}
}
