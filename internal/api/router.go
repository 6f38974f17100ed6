/*
Package api
File: router.go
Description:
    Wires the store, the websocket hub and middleware into one chi router.
    Mutating routes sit behind the per-client rate limiter; reads and the
    websocket endpoint do not.
*/

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/everforgeworks/boutique-music/internal/game"
	"github.com/everforgeworks/boutique-music/internal/metrics"
)

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	store   *game.Store
	hub     *Hub
	limiter *RateLimiter
	log     logrus.FieldLogger
}

// NewServer creates a Server. limiter may be nil to disable rate limiting.
func NewServer(store *game.Store, hub *Hub, limiter *RateLimiter, log logrus.FieldLogger) *Server {
	return &Server{store: store, hub: hub, limiter: limiter, log: log}
}

// Router builds the HTTP handler tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Instrument)
	r.Use(corsMiddleware)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", metrics.Handler())
	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		ServeWs(s.hub, w, r)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleGetState)
		r.Get("/portfolio", s.handlePortfolio)
		r.Get("/releases/top", s.handleTopGrowing)
		r.Get("/releases/invested", s.handleInvested)
		r.Get("/rewards", s.handleRewards)
		r.Get("/leaderboard", s.handleLeaderboard)
		r.Get("/genres", s.handleGenres)
		r.Get("/tokens/packages", s.handleTokenPackages)

		r.Group(func(r chi.Router) {
			if s.limiter != nil {
				r.Use(s.limiter.Handler)
			}
			r.Post("/navigate", s.handleNavigate)
			r.Post("/account/activate", s.handleActivate)
			r.Post("/tokens/buy", s.handleBuyTokens)
			r.Post("/releases/{id}/invest", s.handleInvest)
			r.Post("/releases/{id}/play", s.handlePlay)
			r.Post("/releases/{id}/vote", s.handleVote)
			r.Post("/presale/reserve", s.handleReservePresale)
			r.Post("/playlist/toggle", s.handleTogglePlaylist)
			r.Post("/mute/toggle", s.handleToggleMute)
		})
	})

	return r
}
