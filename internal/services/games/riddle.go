package games

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// RiddleDef is a question with its single accepted answer
type RiddleDef struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// RiddleSession is one riddle awaiting an answer
type RiddleSession struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

func (*RiddleSession) Kind() Kind { return Riddle }

func (r *RiddleSession) validate() error {
	if r.Question == "" || r.Answer == "" {
		return fmt.Errorf("%w: riddle without question or answer", ErrInvalidState)
	}
	return nil
}

// RiddleResult describes one riddle move
type RiddleResult struct {
	Outcome  Outcome
	Question string
	// Answer is set on a win, Hint on a loss
	Answer string
	Hint   string
}

// PlayRiddle asks a riddle or checks the answer in arg.
// Any answer ends the session.
func (s *Store) PlayRiddle(userID int64, arg string) RiddleResult {
	key := Key{UserID: userID, Kind: Riddle}
	sess, ok := s.sessions[key].(*RiddleSession)
	if !ok {
		def := s.content.Riddles[s.rng.Intn(len(s.content.Riddles))]
		sess = &RiddleSession{Question: def.Question, Answer: strings.ToLower(def.Answer)}
		s.sessions[key] = sess
		return RiddleResult{Outcome: Started, Question: sess.Question}
	}

	answer := strings.ToLower(strings.TrimSpace(arg))
	if answer == "" {
		return RiddleResult{Outcome: Pending, Question: sess.Question}
	}

	delete(s.sessions, key)
	if answer == strings.ToLower(sess.Answer) {
		return RiddleResult{Outcome: Won, Question: sess.Question, Answer: sess.Answer}
	}
	return RiddleResult{Outcome: Lost, Question: sess.Question, Hint: Hint(sess.Answer)}
}

// Hint keeps the first letter of answer and masks the rest
func Hint(answer string) string {
	first, size := utf8.DecodeRuneInString(answer)
	if size == 0 {
		return ""
	}
	return string(first) + strings.Repeat("*", utf8.RuneCountInString(answer[size:]))
}
