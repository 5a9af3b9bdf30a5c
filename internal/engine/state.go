package engine

import (
	"fmt"
	"time"

	"github.com/isida-tgbot-go/internal/models"
	"github.com/isida-tgbot-go/internal/services/mood"
)

// StatsView is the public /stats summary
type StatsView struct {
	Stats            models.Stats
	Uptime           time.Duration
	LearnedQuestions int
	LearnedAnswers   int
	Users            int
	ActiveGames      int
	Mood             mood.Mood
}

// AdminView extends StatsView with per-user detail
type AdminView struct {
	StatsView
	ActiveToday int
	TopUsers    []models.User
	GeneratedAt time.Time
}

// Stats returns the current counters
func (e *Engine) Stats() StatsView {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.statsView()
}

// AdminStats returns the counters with the top users and today's activity
func (e *Engine) AdminStats(top int) AdminView {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	y, m, d := now.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return AdminView{
		StatsView:   e.statsView(),
		ActiveToday: e.users.ActiveSince(midnight),
		TopUsers:    e.users.TopUsers(top),
		GeneratedAt: now,
	}
}

func (e *Engine) statsView() StatsView {
	return StatsView{
		Stats:            e.users.Stats(),
		Uptime:           e.now().Sub(e.started),
		LearnedQuestions: e.phrases.Questions(),
		LearnedAnswers:   e.phrases.Answers(),
		Users:            e.users.Len(),
		ActiveGames:      e.games.Len(),
		Mood:             e.mood.Get(),
	}
}

// Snapshot returns a deep copy of everything that is persisted
func (e *Engine) Snapshot() (*models.Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sessions, err := e.games.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot games: %w", err)
	}
	userTable, stats := e.users.Snapshot()
	return &models.Snapshot{
		Learned: e.phrases.Snapshot(),
		Users:   userTable,
		Stats:   stats,
		Games:   sessions,
	}, nil
}

// Restore replaces the persisted state. Sessions that fail to decode are
// dropped and reported; everything else is always applied.
func (e *Engine) Restore(snap *models.Snapshot) []error {
	if snap == nil {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.phrases.Restore(snap.Learned)
	e.users.Restore(snap.Users, snap.Stats)
	return e.games.Restore(snap.Games)
}
