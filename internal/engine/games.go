package engine

import (
	"github.com/isida-tgbot-go/internal/services/games"
)

// PlayCities advances the cities game of a user
func (e *Engine) PlayCities(userID int64, arg string) games.CityResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	res := e.games.PlayCities(userID, arg)
	e.countStart(res.Outcome)
	return res
}

// PlayHangman advances the hangman game of a user
func (e *Engine) PlayHangman(userID int64, arg string) games.HangmanResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	res := e.games.PlayHangman(userID, arg)
	e.countStart(res.Outcome)
	return res
}

// PlayGuess advances the number game of a user
func (e *Engine) PlayGuess(userID int64, arg string) games.GuessResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	res := e.games.PlayGuess(userID, arg)
	e.countStart(res.Outcome)
	return res
}

// PlayRiddle advances the riddle game of a user
func (e *Engine) PlayRiddle(userID int64, arg string) games.RiddleResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	res := e.games.PlayRiddle(userID, arg)
	e.countStart(res.Outcome)
	return res
}

func (e *Engine) countStart(o games.Outcome) {
	if o == games.Started {
		e.users.CountGame()
	}
}
