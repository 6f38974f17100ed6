/*
Package game
File: state.go
Description:
    Manages the runtime state of the application.
    The Store holds the user profile, the artist catalog, the presale
    counter and the navigation/playback flags, and is the only place any
    of them are mutated.

    Every operation runs under one lock so no two mutations interleave,
    whichever goroutine (HTTP handler or playback timer) issues them.
*/

package game

import (
	"sync"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// releaseLoc addresses a release inside Store.artists.
type releaseLoc struct {
	artist  int
	release int
}

// Store is the single authoritative holder of session state.
type Store struct {
	// mu protects every field below it.
	mu sync.RWMutex

	user      User
	artists   []Artist
	fans      []Fan
	presale   PresaleState
	nav       Navigation
	playback  Playback
	unitPrice decimal.Decimal

	// index maps release ID -> position in artists. Built once; the catalog
	// shape never changes after construction.
	index map[int]releaseLoc

	obsMu     sync.RWMutex
	observers []Observer

	log logrus.FieldLogger
}

// Option customises a Store at construction.
type Option func(*Store)

// WithLogger sets the logger used for mutation tracing.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Store) { s.log = l }
}

// WithObserver registers an observer at construction.
func WithObserver(o Observer) Option {
	return func(s *Store) { s.observers = append(s.observers, o) }
}

// NewStore initialises the state from a seed fixture. The fixture is
// deep-copied, so later mutations never touch it.
func NewStore(fx *Fixture, opts ...Option) (*Store, error) {
	if err := fx.Validate(); err != nil {
		return nil, err
	}

	s := &Store{
		user:      cloneUser(fx.User),
		artists:   cloneArtists(fx.Artists),
		fans:      append([]Fan(nil), fx.Fans...),
		presale:   fx.Presale,
		unitPrice: fx.UnitPrice,
		nav:       Navigation{CurrentScreen: ScreenDiscover},
		playback:  Playback{IsMuted: true}, // Muted until the user opts in
		index:     make(map[int]releaseLoc),
		log:       logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	// Nil maps would make the first write panic.
	if s.user.Investments == nil {
		s.user.Investments = make(map[int]int)
	}
	if s.user.Contribution == nil {
		s.user.Contribution = make(map[int]int)
	}
	if s.user.Votes == nil {
		s.user.Votes = make(map[int]Variant)
	}

	for ai := range s.artists {
		for ri := range s.artists[ai].Releases {
			s.index[s.artists[ai].Releases[ri].ID] = releaseLoc{artist: ai, release: ri}
		}
	}
	return s, nil
}

// Subscribe registers an observer after construction.
func (s *Store) Subscribe(o Observer) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	s.observers = append(s.observers, o)
}

func (s *Store) emit(ev Event) {
	s.obsMu.RLock()
	obs := append([]Observer(nil), s.observers...)
	s.obsMu.RUnlock()

	s.log.WithField("event", ev.Type).WithField("release_id", ev.ReleaseID).Debug("state changed")
	for _, o := range obs {
		o(ev)
	}
}

// release returns the live release for id. Caller must hold mu.
func (s *Store) release(id int) *Release {
	loc, ok := s.index[id]
	if !ok {
		return nil
	}
	return &s.artists[loc.artist].Releases[loc.release]
}

// HasRelease reports whether id names a release in the catalog.
func (s *Store) HasRelease(id int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.index[id]
	return ok
}

// HasArtist reports whether id names an artist in the catalog.
func (s *Store) HasArtist(id int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.artists {
		if a.ID == id {
			return true
		}
	}
	return false
}

// NavigateTo switches screens. The selected artist only changes when an ID is given.
func (s *Store) NavigateTo(screen Screen, artistID *int) {
	s.mu.Lock()
	s.nav.CurrentScreen = screen
	if artistID != nil {
		id := *artistID
		s.nav.SelectedArtistID = &id
	}
	s.mu.Unlock()

	s.emit(Event{Type: EventNavigated, Screen: screen})
}

// ActivateAccount marks the user as onboarded and zeroes the balance.
// Repeating it keeps the account active and zeroes the balance again.
func (s *Store) ActivateAccount() {
	s.mu.Lock()
	s.user.IsActivated = true
	s.user.TokenBalance = 0
	s.mu.Unlock()

	s.emit(Event{Type: EventAccountActivated})
}

// BuyTokens credits the balance. Non-positive amounts are ignored.
func (s *Store) BuyTokens(amount int) {
	if amount <= 0 {
		return
	}
	s.mu.Lock()
	s.user.TokenBalance += amount
	s.mu.Unlock()

	s.emit(Event{Type: EventTokensBought, Amount: amount})
}

// InvestInRelease spends one token on a release. It returns false, leaving
// the state untouched, when the balance is empty or the release is unknown.
func (s *Store) InvestInRelease(releaseID int) bool {
	s.mu.Lock()
	if s.user.TokenBalance <= 0 || s.release(releaseID) == nil {
		s.mu.Unlock()
		return false
	}

	held := s.user.Investments[releaseID]
	s.user.TokenBalance--
	s.user.Investments[releaseID] = held + 1
	if held == 0 {
		// First position: start counting plays from zero.
		s.user.Contribution[releaseID] = 0
	}
	s.mu.Unlock()

	s.emit(Event{Type: EventInvested, ReleaseID: releaseID, Amount: 1})
	return true
}

// SimulatePlay credits one play to the user's contribution and, while the
// release is below its monthly goal, to the release itself.
func (s *Store) SimulatePlay(releaseID int) {
	s.mu.Lock()
	if !s.simulatePlayLocked(releaseID) {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.emit(Event{Type: EventPlayed, ReleaseID: releaseID})
}

func (s *Store) simulatePlayLocked(releaseID int) bool {
	r := s.release(releaseID)
	if r == nil {
		return false
	}
	s.user.Contribution[releaseID]++
	if r.CurrentPlays < r.MonthlyGoal {
		r.CurrentPlays++
	}
	return true
}

// ReservePresaleToken takes one presale slot, saturating at capacity. It
// returns false when the presale is sold out.
func (s *Store) ReservePresaleToken() bool {
	s.mu.Lock()
	if s.presale.Sold >= s.presale.Total {
		s.mu.Unlock()
		return false
	}
	s.presale.Sold++
	s.mu.Unlock()

	s.emit(Event{Type: EventPresaleReserved})
	return true
}

// VoteForVersion records the user's A/B choice for a release and bumps that
// mix's counter. The first vote is final: later calls return false.
func (s *Store) VoteForVersion(releaseID int, variant Variant) bool {
	s.mu.Lock()
	r := s.release(releaseID)
	if r == nil || r.Versions == nil {
		s.mu.Unlock()
		return false
	}
	if _, voted := s.user.Votes[releaseID]; voted {
		s.mu.Unlock()
		return false
	}
	v := r.Versions.Get(variant)
	if v == nil {
		s.mu.Unlock()
		return false
	}
	v.Votes++
	s.user.Votes[releaseID] = variant
	s.mu.Unlock()

	s.emit(Event{Type: EventVoted, ReleaseID: releaseID, Variant: variant})
	return true
}

// TogglePlaylist starts or stops the simulated playlist. When starting with
// nothing highlighted, the first held release in catalog order is selected.
func (s *Store) TogglePlaylist() {
	s.mu.Lock()
	if !s.playback.IsPlaylistPlaying && s.playback.CurrentPlayingReleaseID == nil {
		if ids := s.investedIDsLocked(); len(ids) > 0 {
			first := ids[0]
			s.playback.CurrentPlayingReleaseID = &first
		}
	}
	s.playback.IsPlaylistPlaying = !s.playback.IsPlaylistPlaying
	playing := s.playback.IsPlaylistPlaying
	s.mu.Unlock()

	s.emit(Event{Type: EventPlaylistToggled, Flag: &playing})
}

// ToggleMute flips audio preview muting. It does not affect the playlist.
func (s *Store) ToggleMute() {
	s.mu.Lock()
	s.playback.IsMuted = !s.playback.IsMuted
	muted := s.playback.IsMuted
	s.mu.Unlock()

	s.emit(Event{Type: EventMuteToggled, Flag: &muted})
}

// investedIDsLocked lists held releases in catalog order. Caller must hold mu.
func (s *Store) investedIDsLocked() []int {
	var ids []int
	for _, a := range s.artists {
		for _, r := range a.Releases {
			if s.user.Investments[r.ID] > 0 {
				ids = append(ids, r.ID)
			}
		}
	}
	return ids
}

// Snapshot returns a deep copy of the whole state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := State{
		User:      cloneUser(s.user),
		Artists:   cloneArtists(s.artists),
		Fans:      append([]Fan(nil), s.fans...),
		Presale:   s.presale,
		UnitPrice: s.unitPrice,
		Navigation: Navigation{
			CurrentScreen:    s.nav.CurrentScreen,
			SelectedArtistID: cloneIntPtr(s.nav.SelectedArtistID),
		},
		Playback: Playback{
			IsPlaylistPlaying:       s.playback.IsPlaylistPlaying,
			CurrentPlayingReleaseID: cloneIntPtr(s.playback.CurrentPlayingReleaseID),
			IsMuted:                 s.playback.IsMuted,
		},
	}
	return st
}

func cloneIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneUser(u User) User {
	out := u
	out.Investments = make(map[int]int, len(u.Investments))
	for k, v := range u.Investments {
		out.Investments[k] = v
	}
	out.Contribution = make(map[int]int, len(u.Contribution))
	for k, v := range u.Contribution {
		out.Contribution[k] = v
	}
	out.Votes = make(map[int]Variant, len(u.Votes))
	for k, v := range u.Votes {
		out.Votes[k] = v
	}
	return out
}

func cloneArtists(in []Artist) []Artist {
	out := make([]Artist, len(in))
	for i, a := range in {
		out[i] = a
		out[i].Releases = make([]Release, len(a.Releases))
		for j, r := range a.Releases {
			out[i].Releases[j] = r
			out[i].Releases[j].ValueHistory = append([]ValuePoint(nil), r.ValueHistory...)
			if r.Versions != nil {
				v := *r.Versions
				out[i].Releases[j].Versions = &v
			}
		}
	}
	return out
}
