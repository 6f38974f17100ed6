package game

// EventType names a state change emitted by the Store.
type EventType string

const (
	EventNavigated        EventType = "navigated"
	EventAccountActivated EventType = "account_activated"
	EventTokensBought     EventType = "tokens_bought"
	EventInvested         EventType = "invested"
	EventPlayed           EventType = "played"
	EventPresaleReserved  EventType = "presale_reserved"
	EventVoted            EventType = "voted"
	EventPlaylistToggled  EventType = "playlist_toggled"
	EventMuteToggled      EventType = "mute_toggled"
)

// Event describes one applied mutation. Rejected operations emit nothing.
type Event struct {
	Type      EventType `json:"type"`
	ReleaseID int       `json:"release_id,omitempty"`
	Amount    int       `json:"amount,omitempty"`
	Variant   Variant   `json:"variant,omitempty"`
	Screen    Screen    `json:"screen,omitempty"`
	Flag      *bool     `json:"flag,omitempty"` // New value of a toggled flag
}

// Observer is notified after a mutation has been applied, outside the store lock.
type Observer func(Event)
