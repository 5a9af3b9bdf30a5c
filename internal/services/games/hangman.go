package games

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxAttempts is the number of misses allowed in hangman
const MaxAttempts = 6

const hidden = "_"

// Gallows holds one drawing per miss count, from zero to MaxAttempts
var Gallows = [MaxAttempts + 1]string{
	"  +---+\n      |\n      |\n      |\n     ===",
	"  +---+\n  O   |\n      |\n      |\n     ===",
	"  +---+\n  O   |\n  |   |\n      |\n     ===",
	"  +---+\n  O   |\n /|   |\n      |\n     ===",
	"  +---+\n  O   |\n /|\\  |\n      |\n     ===",
	"  +---+\n  O   |\n /|\\  |\n /    |\n     ===",
	"  +---+\n  O   |\n /|\\  |\n / \\  |\n     ===",
}

// HangmanSession is a word guessed one letter at a time
type HangmanSession struct {
	Word     string          `json:"word"`
	Revealed []string        `json:"guessed"`
	Attempts int             `json:"attempts"`
	Used     map[string]bool `json:"used_letters"`
}

func (*HangmanSession) Kind() Kind { return Hangman }

// Pattern renders the word with unknown letters hidden
func (h *HangmanSession) Pattern() string {
	return strings.Join(h.Revealed, " ")
}

// Drawing returns the gallows for the current miss count
func (h *HangmanSession) Drawing() string {
	return Gallows[MaxAttempts-h.Attempts]
}

func (h *HangmanSession) solved() bool {
	for _, r := range h.Revealed {
		if r == hidden {
			return false
		}
	}
	return true
}

func (h *HangmanSession) validate() error {
	if h.Word == "" {
		return fmt.Errorf("%w: hangman without word", ErrInvalidState)
	}
	if len(h.Revealed) != utf8.RuneCountInString(h.Word) {
		return fmt.Errorf("%w: hangman pattern length mismatch", ErrInvalidState)
	}
	if h.Attempts < 1 || h.Attempts > MaxAttempts {
		return fmt.Errorf("%w: hangman attempts %d", ErrInvalidState, h.Attempts)
	}
	if h.solved() {
		return fmt.Errorf("%w: hangman already solved", ErrInvalidState)
	}
	if h.Used == nil {
		h.Used = make(map[string]bool)
	}
	return nil
}

func newHangman(word string) *HangmanSession {
	word = strings.ToLower(word)
	revealed := make([]string, utf8.RuneCountInString(word))
	for i := range revealed {
		revealed[i] = hidden
	}
	return &HangmanSession{Word: word, Revealed: revealed, Attempts: MaxAttempts, Used: make(map[string]bool)}
}

// HangmanResult describes one hangman move
type HangmanResult struct {
	Outcome  Outcome
	Reason   Reason
	Letter   string
	Hit      bool
	Pattern  string
	Attempts int
	Drawing  string
	// Word is set when the session finished
	Word string
}

// PlayHangman starts a hangman game or guesses the letter in arg
func (s *Store) PlayHangman(userID int64, arg string) HangmanResult {
	key := Key{UserID: userID, Kind: Hangman}
	sess, ok := s.sessions[key].(*HangmanSession)
	if !ok {
		sess = newHangman(s.pick(s.content.Words))
		s.sessions[key] = sess
		return sess.result(Started)
	}

	letter := strings.ToLower(strings.TrimSpace(arg))
	if letter == "" {
		return sess.result(Pending)
	}

	r, size := utf8.DecodeRuneInString(letter)
	if size != len(letter) || !unicode.IsLetter(r) {
		res := sess.result(Rejected)
		res.Reason, res.Letter = ReasonNotALetter, letter
		return res
	}
	if sess.Used[letter] {
		res := sess.result(Rejected)
		res.Reason, res.Letter = ReasonLetterUsed, letter
		return res
	}

	sess.Used[letter] = true
	hit := false
	for i, wr := range []rune(sess.Word) {
		if wr == r {
			sess.Revealed[i] = letter
			hit = true
		}
	}
	if !hit {
		sess.Attempts--
	}

	outcome := Continued
	switch {
	case sess.solved():
		outcome = Won
	case sess.Attempts <= 0:
		outcome = Lost
	}

	res := sess.result(outcome)
	res.Letter, res.Hit = letter, hit
	if outcome.Finished() {
		delete(s.sessions, key)
		res.Word = sess.Word
	}
	return res
}

func (h *HangmanSession) result(o Outcome) HangmanResult {
	return HangmanResult{
		Outcome:  o,
		Pattern:  h.Pattern(),
		Attempts: h.Attempts,
		Drawing:  h.Drawing(),
	}
}
