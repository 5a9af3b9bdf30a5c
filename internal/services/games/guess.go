package games

import (
	"fmt"
	"strconv"
	"strings"
)

// Range of the secret number, inclusive
const (
	MinNumber = 1
	MaxNumber = 100
)

// GuessSession is a hidden number found by higher/lower hints
type GuessSession struct {
	Secret   int `json:"number"`
	Attempts int `json:"attempts"`
}

func (*GuessSession) Kind() Kind { return Guess }

func (g *GuessSession) validate() error {
	if g.Secret < MinNumber || g.Secret > MaxNumber {
		return fmt.Errorf("%w: secret %d out of range", ErrInvalidState, g.Secret)
	}
	if g.Attempts < 0 {
		return fmt.Errorf("%w: negative attempts", ErrInvalidState)
	}
	return nil
}

// GuessResult describes one guess
type GuessResult struct {
	Outcome  Outcome
	Reason   Reason
	Guess    int
	Attempts int
	// Higher is true when the secret is greater than Guess
	Higher bool
}

// PlayGuess starts a number game or checks the guess in arg
func (s *Store) PlayGuess(userID int64, arg string) GuessResult {
	key := Key{UserID: userID, Kind: Guess}
	sess, ok := s.sessions[key].(*GuessSession)
	if !ok {
		sess = &GuessSession{Secret: MinNumber + s.rng.Intn(MaxNumber-MinNumber+1)}
		s.sessions[key] = sess
		return GuessResult{Outcome: Started}
	}

	arg = strings.TrimSpace(arg)
	if arg == "" {
		return GuessResult{Outcome: Pending, Attempts: sess.Attempts}
	}

	n, err := strconv.Atoi(arg)
	if err != nil {
		return GuessResult{Outcome: Rejected, Reason: ReasonNotANumber, Attempts: sess.Attempts}
	}

	sess.Attempts++
	res := GuessResult{Guess: n, Attempts: sess.Attempts}
	if n == sess.Secret {
		delete(s.sessions, key)
		res.Outcome = Won
		return res
	}
	res.Outcome = Continued
	res.Higher = n < sess.Secret
	return res
}
