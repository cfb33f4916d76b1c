package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"agent-arena/internal/agent"
	"agent-arena/internal/config"
	"agent-arena/internal/logging"
	"agent-arena/internal/store"
	"agent-arena/internal/tournament"
)

func main() {
	logCfg, err := config.LoadLog()
	if err != nil {
		panic(err)
	}
	logging.Init(logCfg)
	cfg, err := config.LoadServer()
	if err != nil {
		log.Fatal().Err(err).Msg("load server config failed")
	}
	gatewayCfg, err := config.LoadAgentGateway()
	if err != nil {
		log.Fatal().Err(err).Msg("load agent gateway config failed")
	}
	defaults, err := config.LoadTournament()
	if err != nil {
		log.Fatal().Err(err).Msg("load tournament defaults failed")
	}

	var st tournament.Store
	var pg *store.Postgres
	if cfg.PostgresDSN != "" {
		pg, err = store.NewPostgres(context.Background(), cfg.PostgresDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("store init failed")
		}
		if err := pg.Ping(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("db ping failed")
		}
		if err := pg.EnsureSchema(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("ensure schema failed")
		}
		st = pg
		defer pg.Close()
	} else {
		log.Warn().Msg("POSTGRES_DSN not set, using in-memory store")
		st = store.NewMemory()
	}

	decider := agent.New(gatewayCfg)
	manager := tournament.NewManager(st, decider, time.Duration(gatewayCfg.TimeoutMS)*time.Millisecond)

	r := newRouter(st, pg, cfg, defaults, manager)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")
	manager.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
}
