// Package history keeps a bounded window of recent messages per user.
package history

// DefaultSize is the number of messages kept per user
const DefaultSize = 20

// Tracker is not safe for concurrent use.
type Tracker struct {
	size  int
	users map[int64][]string
}

// NewTracker creates a tracker keeping at most size messages per user
func NewTracker(size int) *Tracker {
	if size <= 0 {
		size = DefaultSize
	}
	return &Tracker{size: size, users: make(map[int64][]string)}
}

// Append stores text as the most recent message, evicting the oldest when full
func (t *Tracker) Append(userID int64, text string) {
	msgs := t.users[userID]
	if len(msgs) >= t.size {
		copy(msgs, msgs[1:])
		msgs = msgs[:len(msgs)-1]
	}
	t.users[userID] = append(msgs, text)
}

// Recent returns the stored messages, oldest first
func (t *Tracker) Recent(userID int64) []string {
	return append([]string(nil), t.users[userID]...)
}

// Len returns the number of stored messages for a user
func (t *Tracker) Len(userID int64) int {
	return len(t.users[userID])
}

// Clear forgets the history of a user
func (t *Tracker) Clear(userID int64) {
	delete(t.users, userID)
}
