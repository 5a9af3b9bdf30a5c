package models

import (
	"encoding/json"
	"time"
)

// User represents a person who has written to the bot at least once
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username,omitempty"`
	FirstSeen    time.Time `json:"first_seen"`
	MessageCount int       `json:"message_count"`
	LastActive   time.Time `json:"last_active"`
}

// Stats represents the process-wide running counters
type Stats struct {
	TotalMessages int64            `json:"total_messages"`
	UniqueUsers   int64            `json:"unique_users"`
	GamesPlayed   int64            `json:"games_played"`
	CommandsUsed  map[string]int64 `json:"commands_used"`
}

// Clone returns a deep copy of the stats
func (s Stats) Clone() Stats {
	out := s
	out.CommandsUsed = make(map[string]int64, len(s.CommandsUsed))
	for k, v := range s.CommandsUsed {
		out.CommandsUsed[k] = v
	}
	return out
}

// Inbound represents one message or callback from the transport layer
type Inbound struct {
	UserID   int64
	Name     string
	Username string
	Text     string
}

// Snapshot is everything the bot persists between restarts.
// Games maps a session key ("<user id>_<kind>") to its encoded state.
type Snapshot struct {
	Learned map[string][]string
	Users   map[int64]User
	Stats   Stats
	Games   map[string]json.RawMessage
}

// NewSnapshot returns an empty snapshot with all maps allocated
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Learned: make(map[string][]string),
		Users:   make(map[int64]User),
		Stats:   Stats{CommandsUsed: make(map[string]int64)},
		Games:   make(map[string]json.RawMessage),
	}
}
