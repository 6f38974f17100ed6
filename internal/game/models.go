/*
Package game
File: models.go
Description:
    Defines the data structures used by the Boutique Music state store.
    This file is the "schema" of the application, mapping directly to the
    YAML seed fixture and to the JSON snapshots served to the view layer.

    No logic is performed here apart from enum parsing.
*/

package game

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Screen identifies which view the client is showing.
type Screen string

const (
	ScreenOnboarding Screen = "onboarding"
	ScreenDiscover   Screen = "discover"
	ScreenArtist     Screen = "artist"
	ScreenCampaign   Screen = "campaign"
	ScreenRewards    Screen = "rewards"
	ScreenPresale    Screen = "presale"
	ScreenBuyTokens  Screen = "buyTokens"
	ScreenFinance    Screen = "finance"
)

var screens = map[Screen]struct{}{
	ScreenOnboarding: {},
	ScreenDiscover:   {},
	ScreenArtist:     {},
	ScreenCampaign:   {},
	ScreenRewards:    {},
	ScreenPresale:    {},
	ScreenBuyTokens:  {},
	ScreenFinance:    {},
}

// ParseScreen validates a screen name coming from outside the process.
func ParseScreen(s string) (Screen, error) {
	if _, ok := screens[Screen(s)]; !ok {
		return "", fmt.Errorf("unknown screen %q", s)
	}
	return Screen(s), nil
}

// Variant is one side of an A/B mix vote.
type Variant string

const (
	VariantA Variant = "A"
	VariantB Variant = "B"
)

// ParseVariant accepts "A" or "B".
func ParseVariant(s string) (Variant, error) {
	switch Variant(s) {
	case VariantA, VariantB:
		return Variant(s), nil
	}
	return "", fmt.Errorf("unknown variant %q", s)
}

// ValuePoint is one sample of a release's token valuation over time.
type ValuePoint struct {
	Time  int             `yaml:"time" json:"time"`
	Value decimal.Decimal `yaml:"value" json:"value"`
}

// ReleaseVersion is one of the two candidate mixes of a release.
type ReleaseVersion struct {
	ID    string `yaml:"id" json:"id"`
	Name  string `yaml:"name" json:"name"`
	URL   string `yaml:"url" json:"url"`     // Preview link
	Votes int    `yaml:"votes" json:"votes"` // Running vote counter
}

// ReleaseVersions holds the A/B pair. Releases without a vote have nil.
type ReleaseVersions struct {
	A ReleaseVersion `yaml:"a" json:"A"`
	B ReleaseVersion `yaml:"b" json:"B"`
}

// Get returns a pointer to the requested side, or nil for an unknown variant.
func (v *ReleaseVersions) Get(variant Variant) *ReleaseVersion {
	switch variant {
	case VariantA:
		return &v.A
	case VariantB:
		return &v.B
	}
	return nil
}

// Release is a single music drop that users can hold tokens in.
type Release struct {
	ID                int              `yaml:"id" json:"id"` // Unique across the whole catalog
	Title             string           `yaml:"title" json:"title"`
	CoverImage        string           `yaml:"cover_image" json:"cover_image"`
	MonthlyGoal       int              `yaml:"monthly_goal" json:"monthly_goal"`   // Play-count target for the month
	CurrentPlays      int              `yaml:"current_plays" json:"current_plays"` // Saturates at MonthlyGoal
	TokenValue        decimal.Decimal  `yaml:"token_value" json:"token_value"`
	InitialTokenValue decimal.Decimal  `yaml:"initial_token_value" json:"initial_token_value"` // Never mutated
	ValueHistory      []ValuePoint     `yaml:"value_history" json:"value_history"`
	Versions          *ReleaseVersions `yaml:"versions,omitempty" json:"versions,omitempty"`
}

// SocialLinks are static outbound profile links.
type SocialLinks struct {
	Spotify string `yaml:"spotify" json:"spotify"`
	YouTube string `yaml:"youtube" json:"youtube"`
	TikTok  string `yaml:"tiktok" json:"tiktok"`
}

// Artist owns an ordered list of releases.
type Artist struct {
	ID                   int         `yaml:"id" json:"id"`
	Name                 string      `yaml:"name" json:"name"`
	Genre                string      `yaml:"genre" json:"genre"`
	CoverImage           string      `yaml:"cover_image" json:"cover_image"`
	AudioPreviewURL      string      `yaml:"audio_preview_url" json:"audio_preview_url,omitempty"`
	EstimatedROI         float64     `yaml:"estimated_roi" json:"estimated_roi"` // Artist-level aggregate, percent
	Ranking              int         `yaml:"ranking" json:"ranking"`
	InstagramHandle      string      `yaml:"instagram_handle" json:"instagram_handle"`
	PresentationVideoURL string      `yaml:"presentation_video_url" json:"presentation_video_url"`
	SocialLinks          SocialLinks `yaml:"social_links" json:"social_links"`
	Releases             []Release   `yaml:"releases" json:"releases"`
}

// Fan is a row of the static campaign leaderboard.
type Fan struct {
	ID     int    `yaml:"id" json:"id"`
	Name   string `yaml:"name" json:"name"`
	Plays  int    `yaml:"plays" json:"plays"`
	Shares int    `yaml:"shares" json:"shares"`
	Avatar string `yaml:"avatar" json:"avatar"`
}

// User is the single local account of the session.
type User struct {
	Name         string          `yaml:"name" json:"name"`
	IsActivated  bool            `yaml:"is_activated" json:"is_activated"`
	TokenBalance int             `yaml:"token_balance" json:"token_balance"`
	Investments  map[int]int     `yaml:"investments" json:"investments"`   // Release ID -> tokens owned
	Contribution map[int]int     `yaml:"contribution" json:"contribution"` // Release ID -> simulated plays
	Votes        map[int]Variant `yaml:"votes" json:"votes"`               // Release ID -> chosen mix
}

// PresaleState is the capacity-limited early reservation counter.
type PresaleState struct {
	Sold  int `yaml:"sold" json:"sold"`
	Total int `yaml:"total" json:"total"`
}

// Navigation is the view routing state.
type Navigation struct {
	CurrentScreen    Screen `json:"current_screen"`
	SelectedArtistID *int   `json:"selected_artist_id"` // Only meaningful on the artist screen
}

// Playback is the simulated playlist state.
type Playback struct {
	IsPlaylistPlaying       bool `json:"is_playlist_playing"`
	CurrentPlayingReleaseID *int `json:"current_playing_release_id"`
	IsMuted                 bool `json:"is_muted"` // Governs audio previews only
}

// State is a detached, read-only copy of everything the store holds.
type State struct {
	User       User            `json:"user"`
	Artists    []Artist        `json:"artists"`
	Fans       []Fan           `json:"fans"`
	Presale    PresaleState    `json:"presale"`
	Navigation Navigation      `json:"navigation"`
	Playback   Playback        `json:"playback"`
	UnitPrice  decimal.Decimal `json:"unit_price"` // Price of one token in USD
}
