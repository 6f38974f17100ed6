/*
Package main
File: main.go
Description: Server entry point. Loads the catalog, builds the state store,
starts the playlist heartbeat and the real-time WebSocket hub, and serves
the REST API until interrupted.
*/

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/everforgeworks/boutique-music/internal/api"
	"github.com/everforgeworks/boutique-music/internal/config"
	"github.com/everforgeworks/boutique-music/internal/game"
	"github.com/everforgeworks/boutique-music/internal/metrics"
	"github.com/everforgeworks/boutique-music/internal/notify"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		logrus.WithError(err).Fatal("config")
	}
	log := cfg.Logger()

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

func run(cfg config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Load the catalog
	fx := game.DefaultFixture()
	if cfg.FixturePath != "" {
		loaded, err := game.LoadFixture(cfg.FixturePath)
		if err != nil {
			return err
		}
		fx = loaded
	}

	// 2. Build the store
	store, err := game.NewStore(fx, game.WithLogger(log.WithField("component", "store")))
	if err != nil {
		return err
	}

	// 3. Real-time hub and outbound fan-out
	hub := api.NewHub(log.WithField("component", "hub"))
	go hub.Run(ctx)

	pubs := []notify.Publisher{hub}
	if cfg.RedisURL != "" {
		rdb, err := notify.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		pubs = append(pubs, rdb)
		log.Info("redis fan-out enabled")
	}
	fanout := notify.NewFanout(log.WithField("component", "notify"), 0, pubs...)
	store.Subscribe(fanout.Observe)
	go fanout.Run(ctx)

	// 4. The playlist heartbeat
	player := game.NewPlayer(store, cfg.PlaybackInterval, log.WithField("component", "playback"))
	player.OnTick = metrics.RecordTick
	go player.Run(ctx)

	// 5. HTTP server
	limiter := api.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, log.WithField("component", "ratelimit"))
	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: api.NewServer(store, hub, limiter, log.WithField("component", "api")).Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.Addr).Info("boutique music server live")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
