// Package games implements the per-user mini games.
//
// Each user may hold at most one session per game kind. Sessions are
// created by the first play call and destroyed as soon as a round is won
// or lost.
package games

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Kind identifies a game
type Kind string

const (
	Cities  Kind = "cities"
	Hangman Kind = "hangman"
	Guess   Kind = "guess"
	Riddle  Kind = "riddle"
)

// Kinds lists every game in menu order
var Kinds = []Kind{Cities, Hangman, Guess, Riddle}

var (
	// ErrUnknownKind is returned for unrecognized game names
	ErrUnknownKind = errors.New("unknown game kind")
	// ErrInvalidState is returned when decoded state breaks a session invariant
	ErrInvalidState = errors.New("invalid game state")
)

// ParseKind converts a game name into a Kind
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Key uniquely identifies a session
type Key struct {
	UserID int64
	Kind   Kind
}

// String encodes the key as "<user id>_<kind>"
func (k Key) String() string {
	return strconv.FormatInt(k.UserID, 10) + "_" + string(k.Kind)
}

// ParseKey decodes a key produced by Key.String
func ParseKey(s string) (Key, error) {
	id, kind, ok := strings.Cut(s, "_")
	if !ok {
		return Key{}, fmt.Errorf("malformed session key %q", s)
	}
	userID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return Key{}, fmt.Errorf("malformed session key %q: %w", s, err)
	}
	k, err := ParseKind(kind)
	if err != nil {
		return Key{}, err
	}
	return Key{UserID: userID, Kind: k}, nil
}

// Session is the state of one running game.
// Implementations are CitySession, HangmanSession, GuessSession and RiddleSession.
type Session interface {
	Kind() Kind
	validate() error
}

// Outcome is the result class of a play call
type Outcome int

const (
	// Started means a new session was created
	Started Outcome = iota
	// Pending means a session is running and no move was supplied
	Pending
	// Continued means the move was accepted and the session goes on
	Continued
	// Rejected means the move broke a rule; the session is unchanged
	Rejected
	// Won and Lost end the session
	Won
	Lost
)

var outcomeNames = map[Outcome]string{
	Started:   "started",
	Pending:   "pending",
	Continued: "continued",
	Rejected:  "rejected",
	Won:       "won",
	Lost:      "lost",
}

func (o Outcome) String() string {
	return outcomeNames[o]
}

// Finished reports whether the outcome destroyed the session
func (o Outcome) Finished() bool {
	return o == Won || o == Lost
}

// Reason explains a Rejected outcome
type Reason int

const (
	ReasonNone Reason = iota
	ReasonCityUsed
	ReasonWrongLetter
	ReasonNotALetter
	ReasonLetterUsed
	ReasonNotANumber
)

// Store holds the active sessions of all users.
// Store is not safe for concurrent use.
type Store struct {
	sessions map[Key]Session
	content  Content
	cities   map[rune][]string
	rng      *rand.Rand
}

// NewStore creates an empty store drawing words, cities and riddles from content
func NewStore(content Content, rng *rand.Rand) (*Store, error) {
	if err := content.validate(); err != nil {
		return nil, err
	}
	return &Store{
		sessions: make(map[Key]Session),
		content:  content,
		cities:   indexCities(content.Cities),
		rng:      rng,
	}, nil
}

// Get returns the active session for key
func (s *Store) Get(key Key) (Session, bool) {
	sess, ok := s.sessions[key]
	return sess, ok
}

// Active returns the kinds of the sessions a user has running
func (s *Store) Active(userID int64) []Kind {
	var kinds []Kind
	for _, k := range Kinds {
		if _, ok := s.sessions[Key{UserID: userID, Kind: k}]; ok {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// Len returns the number of active sessions
func (s *Store) Len() int {
	return len(s.sessions)
}

// Snapshot encodes every active session keyed by Key.String
func (s *Store) Snapshot() (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage, len(s.sessions))
	for key, sess := range s.sessions {
		raw, err := Encode(sess)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", key, err)
		}
		out[key.String()] = raw
	}
	return out, nil
}

// Restore replaces all sessions with the decoded entries.
// Entries that fail to decode are skipped and reported.
func (s *Store) Restore(entries map[string]json.RawMessage) []error {
	s.sessions = make(map[Key]Session, len(entries))

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []error
	for _, k := range keys {
		key, err := ParseKey(k)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		sess, err := Decode(entries[k])
		if err != nil {
			errs = append(errs, fmt.Errorf("session %s: %w", k, err))
			continue
		}
		if sess.Kind() != key.Kind {
			errs = append(errs, fmt.Errorf("session %s: %w: holds %s state", k, ErrInvalidState, sess.Kind()))
			continue
		}
		s.sessions[key] = sess
	}
	return errs
}

func (s *Store) pick(items []string) string {
	return items[s.rng.Intn(len(items))]
}

func firstRune(s string) rune {
	r, _ := utf8.DecodeRuneInString(s)
	return r
}

func lastRune(s string) rune {
	r, _ := utf8.DecodeLastRuneInString(s)
	return r
}
