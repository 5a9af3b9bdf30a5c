// Package engine owns all conversational state of the bot.
//
// Every exported method takes the engine lock, so handlers running on
// different goroutines see a consistent view. Nothing slow happens under
// the lock: network calls stay in the handlers and the flush hook runs
// after the lock is released.
package engine

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/isida-tgbot-go/internal/models"
	"github.com/isida-tgbot-go/internal/services/games"
	"github.com/isida-tgbot-go/internal/services/history"
	"github.com/isida-tgbot-go/internal/services/mood"
	"github.com/isida-tgbot-go/internal/services/patterns"
	"github.com/isida-tgbot-go/internal/services/phrases"
	"github.com/isida-tgbot-go/internal/services/responder"
	"github.com/isida-tgbot-go/internal/services/users"
)

// DefaultSaveEvery is how many counted messages pass between flush requests
const DefaultSaveEvery = 10

// MessageCommand is the commands_used bucket for plain text messages
const MessageCommand = "message"

// Options configures an Engine. Zero values select defaults.
type Options struct {
	HistorySize int
	SaveEvery   int
	Rand        *rand.Rand
	Now         func() time.Time
	// FlushHook is called outside the lock every SaveEvery counted messages
	FlushHook func()
	Content   *games.Content
	Rules     *patterns.RuleSet
}

// Engine is safe for concurrent use
type Engine struct {
	mu       sync.Mutex
	phrases  *phrases.Store
	history  *history.Tracker
	mood     mood.State
	games    *games.Store
	users    *users.Registry
	resolver *responder.Resolver

	now       func() time.Time
	saveEvery int64
	flushHook func()
	started   time.Time
}

// New creates an engine with empty state
func New(opts Options) (*Engine, error) {
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.SaveEvery <= 0 {
		opts.SaveEvery = DefaultSaveEvery
	}
	if opts.Rules == nil {
		opts.Rules = patterns.Default()
	}
	content := games.DefaultContent()
	if opts.Content != nil {
		content = *opts.Content
	}

	gameStore, err := games.NewStore(content, opts.Rand)
	if err != nil {
		return nil, fmt.Errorf("failed to create game store: %w", err)
	}

	store := phrases.NewStore()
	return &Engine{
		phrases:   store,
		history:   history.NewTracker(opts.HistorySize),
		games:     gameStore,
		users:     users.NewRegistry(),
		resolver:  responder.New(store, opts.Rules, opts.Rand),
		now:       opts.Now,
		saveEvery: int64(opts.SaveEvery),
		flushHook: opts.FlushHook,
		started:   opts.Now(),
	}, nil
}

// Reply is the engine's answer to a text message.
// Exactly one of Text or Teach is set for non-blank input.
type Reply struct {
	Text  string
	Stage responder.Stage
	Teach *phrases.TeachResult
}

// Empty reports whether there is nothing to send
func (r Reply) Empty() bool {
	return r.Text == "" && r.Teach == nil
}

// HandleText counts a plain text message and resolves the reply.
// Blank text is ignored without side effects.
func (e *Engine) HandleText(in models.Inbound) Reply {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return Reply{}
	}

	e.mu.Lock()
	flush := e.record(in, MessageCommand)
	e.history.Append(in.UserID, text)

	var reply Reply
	if phrases.IsDirective(text) {
		res := e.phrases.Teach(text)
		reply.Teach = &res
	} else {
		r := e.resolver.Resolve(responder.Request{
			Text:    text,
			History: e.history.Recent(in.UserID),
			Mood:    e.mood.Get(),
			Now:     e.now(),
		})
		reply.Text, reply.Stage = r.Text, r.Stage
	}
	e.mu.Unlock()

	if flush {
		e.requestFlush()
	}
	return reply
}

// HandleCommand counts a command invocation and returns the updated user
func (e *Engine) HandleCommand(in models.Inbound, command string) models.User {
	e.mu.Lock()
	flush := e.record(in, command)
	u, _ := e.users.Get(in.UserID)
	e.mu.Unlock()

	if flush {
		e.requestFlush()
	}
	return u
}

func (e *Engine) record(in models.Inbound, command string) bool {
	e.users.Touch(in, e.now())
	e.users.CountCommand(command)
	return e.users.TotalMessages()%e.saveEvery == 0
}

func (e *Engine) requestFlush() {
	if e.flushHook != nil {
		e.flushHook()
	}
}

// ClearHistory forgets the stored messages of a user
func (e *Engine) ClearHistory(userID int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history.Clear(userID)
}

// Mood returns the current mood
func (e *Engine) Mood() mood.Mood {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mood.Get()
}

// SetMood switches the mood; unknown tokens leave it unchanged
func (e *Engine) SetMood(token string) (mood.Mood, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mood.Set(token)
}

// UserIDs returns every known user id
func (e *Engine) UserIDs() []int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.users.UserIDs()
}

// UserCount returns the number of known users
func (e *Engine) UserCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.users.Len()
}

// ActiveGames returns the number of running sessions
func (e *Engine) ActiveGames() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.games.Len()
}
