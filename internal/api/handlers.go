/*
Package api
File: handlers.go
Description:
    HTTP handlers for the REST API.
    They decode JSON requests, validate input, call the store and return
    JSON responses. The store enforces its own rules; handlers only map the
    outcome to a status code.

    Routes are mounted on a chi router in router.go.
*/

package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/everforgeworks/boutique-music/internal/game"
	"github.com/everforgeworks/boutique-music/internal/metrics"
)

// Request DTOs

type NavigateRequest struct {
	Screen   string `json:"screen"`
	ArtistID *int   `json:"artist_id,omitempty"`
}

type BuyTokensRequest struct {
	Amount int `json:"amount"`
}

type VoteRequest struct {
	Variant string `json:"variant"`
}

// InvestResponse reports the outcome of an investment and the new balance.
type InvestResponse struct {
	Invested     bool `json:"invested"`
	TokenBalance int  `json:"token_balance"`
	Tokens       int  `json:"tokens"` // Tokens now held in the release
}

const defaultTopN = 10

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// releaseID parses {id} and checks it names a catalog release.
func (s *Server) releaseID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid release id")
		return 0, false
	}
	if !s.store.HasRelease(id) {
		writeError(w, http.StatusNotFound, "release not found")
		return 0, false
	}
	return id, true
}

func limitParam(r *http.Request) int {
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n >= 0 {
		return n
	}
	return defaultTopN
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// handleGetState returns the full snapshot.
func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Snapshot())
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var req NavigateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	screen, err := game.ParseScreen(req.Screen)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ArtistID != nil && !s.store.HasArtist(*req.ArtistID) {
		writeError(w, http.StatusNotFound, "artist not found")
		return
	}

	s.store.NavigateTo(screen, req.ArtistID)
	metrics.RecordOperation("navigate", true)
	writeJSON(w, http.StatusOK, s.store.Snapshot().Navigation)
}

func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	s.store.ActivateAccount()
	metrics.RecordOperation("activate", true)
	writeJSON(w, http.StatusOK, s.store.Snapshot().User)
}

func (s *Server) handleBuyTokens(w http.ResponseWriter, r *http.Request) {
	var req BuyTokensRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Amount <= 0 {
		metrics.RecordOperation("buy_tokens", false)
		writeError(w, http.StatusBadRequest, "amount must be positive")
		return
	}

	s.store.BuyTokens(req.Amount)
	metrics.RecordOperation("buy_tokens", true)
	writeJSON(w, http.StatusOK, map[string]int{"token_balance": s.store.Snapshot().User.TokenBalance})
}

// handleInvest spends one token. 402 tells the view to send the user to the
// token shop.
func (s *Server) handleInvest(w http.ResponseWriter, r *http.Request) {
	id, ok := s.releaseID(w, r)
	if !ok {
		return
	}

	invested := s.store.InvestInRelease(id)
	metrics.RecordOperation("invest", invested)

	user := s.store.Snapshot().User
	resp := InvestResponse{Invested: invested, TokenBalance: user.TokenBalance, Tokens: user.Investments[id]}
	if !invested {
		writeJSON(w, http.StatusPaymentRequired, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	id, ok := s.releaseID(w, r)
	if !ok {
		return
	}
	s.store.SimulatePlay(id)
	metrics.RecordOperation("play", true)
	writeJSON(w, http.StatusOK, map[string]int{"contribution": s.store.Snapshot().User.Contribution[id]})
}

func (s *Server) handleReservePresale(w http.ResponseWriter, r *http.Request) {
	reserved := s.store.ReservePresaleToken()
	metrics.RecordOperation("reserve_presale", reserved)
	writeJSON(w, http.StatusOK, s.store.Snapshot().Presale)
}

func (s *Server) handleVote(w http.ResponseWriter, r *http.Request) {
	id, ok := s.releaseID(w, r)
	if !ok {
		return
	}
	var req VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	variant, err := game.ParseVariant(req.Variant)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	accepted := s.store.VoteForVersion(id, variant)
	metrics.RecordOperation("vote", accepted)
	if !accepted {
		writeError(w, http.StatusConflict, "vote not accepted: already voted or release has no versions")
		return
	}

	for _, ref := range game.AllReleases(s.store.Snapshot()) {
		if ref.ID == id {
			writeJSON(w, http.StatusOK, ref.Versions)
			return
		}
	}
}

func (s *Server) handleTogglePlaylist(w http.ResponseWriter, r *http.Request) {
	s.store.TogglePlaylist()
	metrics.RecordOperation("toggle_playlist", true)
	writeJSON(w, http.StatusOK, s.store.Snapshot().Playback)
}

func (s *Server) handleToggleMute(w http.ResponseWriter, r *http.Request) {
	s.store.ToggleMute()
	metrics.RecordOperation("toggle_mute", true)
	writeJSON(w, http.StatusOK, s.store.Snapshot().Playback)
}

// Derived views

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, game.ComputePortfolio(s.store.Snapshot()))
}

func (s *Server) handleTopGrowing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, game.TopGrowing(s.store.Snapshot(), limitParam(r)))
}

func (s *Server) handleInvested(w http.ResponseWriter, r *http.Request) {
	refs := game.InvestedReleases(s.store.Snapshot())
	if refs == nil {
		refs = []game.ReleaseRef{}
	}
	writeJSON(w, http.StatusOK, refs)
}

func (s *Server) handleRewards(w http.ResponseWriter, r *http.Request) {
	refs := game.Appreciated(s.store.Snapshot())
	if refs == nil {
		refs = []game.ReleaseRef{}
	}
	writeJSON(w, http.StatusOK, refs)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, game.Leaderboard(s.store.Snapshot().Fans, limitParam(r)))
}

func (s *Server) handleGenres(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, game.GroupByGenre(s.store.Snapshot()))
}

func (s *Server) handleTokenPackages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, game.TokenPackages(s.store.Snapshot().UnitPrice))
}
