// Package users tracks everyone who has talked to the bot and the
// process-wide counters.
package users

import (
	"sort"
	"time"

	"github.com/isida-tgbot-go/internal/models"
)

// Registry records users and aggregate stats. Registry is not safe for
// concurrent use.
type Registry struct {
	users map[int64]models.User
	stats models.Stats
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		users: make(map[int64]models.User),
		stats: models.Stats{CommandsUsed: make(map[string]int64)},
	}
}

// Touch records an inbound message from in at now.
// It creates the user on first contact and reports whether it did.
func (r *Registry) Touch(in models.Inbound, now time.Time) (models.User, bool) {
	u, ok := r.users[in.UserID]
	if !ok {
		u = models.User{ID: in.UserID, FirstSeen: now}
		r.stats.UniqueUsers++
	}
	if in.Name != "" {
		u.Name = in.Name
	}
	if in.Username != "" {
		u.Username = in.Username
	}
	u.MessageCount++
	u.LastActive = now
	r.users[in.UserID] = u
	r.stats.TotalMessages++
	return u, !ok
}

// CountCommand increments the usage counter of name
func (r *Registry) CountCommand(name string) {
	r.stats.CommandsUsed[name]++
}

// CountGame increments games_played
func (r *Registry) CountGame() {
	r.stats.GamesPlayed++
}

// Get returns a user by id
func (r *Registry) Get(id int64) (models.User, bool) {
	u, ok := r.users[id]
	return u, ok
}

// Len returns the number of known users
func (r *Registry) Len() int {
	return len(r.users)
}

// TotalMessages returns the number of counted inbound messages
func (r *Registry) TotalMessages() int64 {
	return r.stats.TotalMessages
}

// Stats returns a copy of the aggregate counters
func (r *Registry) Stats() models.Stats {
	return r.stats.Clone()
}

// UserIDs returns all user ids in ascending order
func (r *Registry) UserIDs() []int64 {
	ids := make([]int64, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// TopUsers returns up to n users with the most messages
func (r *Registry) TopUsers(n int) []models.User {
	all := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].MessageCount != all[j].MessageCount {
			return all[i].MessageCount > all[j].MessageCount
		}
		return all[i].ID < all[j].ID
	})
	if n >= 0 && len(all) > n {
		all = all[:n]
	}
	return all
}

// ActiveSince counts users whose last message is not before t
func (r *Registry) ActiveSince(t time.Time) int {
	n := 0
	for _, u := range r.users {
		if !u.LastActive.Before(t) {
			n++
		}
	}
	return n
}

// Snapshot returns copies of the user table and the stats
func (r *Registry) Snapshot() (map[int64]models.User, models.Stats) {
	out := make(map[int64]models.User, len(r.users))
	for id, u := range r.users {
		out[id] = u
	}
	return out, r.stats.Clone()
}

// Restore replaces the registry contents.
// unique_users never drops below the number of restored users.
func (r *Registry) Restore(users map[int64]models.User, stats models.Stats) {
	r.users = make(map[int64]models.User, len(users))
	for id, u := range users {
		u.ID = id
		r.users[id] = u
	}
	r.stats = stats.Clone()
	if n := int64(len(r.users)); r.stats.UniqueUsers < n {
		r.stats.UniqueUsers = n
	}
}
