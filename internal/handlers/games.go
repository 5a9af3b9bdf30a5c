package handlers

import (
	"html"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/isida-tgbot-go/internal/i18n"
	"github.com/isida-tgbot-go/internal/services/games"
	"github.com/sirupsen/logrus"
)

// handleGame plays one move of kind and sends the rendered result
func (h *CommandHandler) handleGame(chatID, userID int64, kind games.Kind, arg string) error {
	var (
		text    string
		outcome games.Outcome
	)

	switch kind {
	case games.Cities:
		res := h.engine.PlayCities(userID, arg)
		text, outcome = h.renderCities(res), res.Outcome
	case games.Hangman:
		res := h.engine.PlayHangman(userID, firstField(arg))
		text, outcome = h.renderHangman(res), res.Outcome
	case games.Guess:
		res := h.engine.PlayGuess(userID, firstField(arg))
		text, outcome = h.renderGuess(res), res.Outcome
	case games.Riddle:
		res := h.engine.PlayRiddle(userID, arg)
		text, outcome = h.renderRiddle(res), res.Outcome
	}

	h.metrics.RecordGameMove(string(kind), outcome.String())
	h.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"game":    kind,
		"outcome": outcome,
	}).Debug("Game move")

	return h.send(chatID, text)
}

func (h *CommandHandler) renderCities(res games.CityResult) string {
	letter := upperLetter(res.Letter)
	player := html.EscapeString(res.PlayerCity)

	switch res.Outcome {
	case games.Started:
		return h.localizer.T(i18n.MsgCitiesStarted, map[string]interface{}{
			"City": capitalize(res.BotCity), "Letter": letter,
		})
	case games.Pending:
		return h.localizer.T(i18n.MsgCitiesPending, map[string]interface{}{
			"City": capitalize(res.BotCity), "Letter": letter,
		})
	case games.Rejected:
		if res.Reason == games.ReasonCityUsed {
			return h.localizer.T(i18n.MsgCitiesUsed, nil)
		}
		return h.localizer.T(i18n.MsgCitiesWrongLetter, map[string]interface{}{"Letter": letter})
	case games.Won:
		return h.localizer.T(i18n.MsgCitiesWon, map[string]interface{}{"PlayerCity": player})
	default:
		return h.localizer.T(i18n.MsgCitiesContinued, map[string]interface{}{
			"PlayerCity": player, "BotCity": capitalize(res.BotCity), "Letter": letter,
		})
	}
}

func (h *CommandHandler) renderHangman(res games.HangmanResult) string {
	switch res.Outcome {
	case games.Started:
		return h.localizer.T(i18n.MsgHangmanStarted, map[string]interface{}{
			"Drawing": res.Drawing, "Length": utf8.RuneCountInString(strings.ReplaceAll(res.Pattern, " ", "")), "Pattern": res.Pattern,
		})
	case games.Pending:
		return h.localizer.T(i18n.MsgHangmanPending, map[string]interface{}{
			"Drawing": res.Drawing, "Pattern": res.Pattern, "Attempts": res.Attempts,
		})
	case games.Rejected:
		if res.Reason == games.ReasonLetterUsed {
			return h.localizer.T(i18n.MsgHangmanLetterUsed, map[string]interface{}{"Letter": html.EscapeString(res.Letter)})
		}
		return h.localizer.T(i18n.MsgHangmanNotLetter, nil)
	case games.Won:
		return h.localizer.T(i18n.MsgHangmanWon, map[string]interface{}{"Word": res.Word})
	case games.Lost:
		return h.localizer.T(i18n.MsgHangmanLost, map[string]interface{}{"Drawing": res.Drawing, "Word": res.Word})
	default:
		return h.localizer.T(i18n.MsgHangmanContinued, map[string]interface{}{
			"Drawing": res.Drawing, "Pattern": res.Pattern, "Attempts": res.Attempts,
		})
	}
}

func (h *CommandHandler) renderGuess(res games.GuessResult) string {
	bounds := map[string]interface{}{"Min": games.MinNumber, "Max": games.MaxNumber, "Attempts": res.Attempts}

	switch res.Outcome {
	case games.Started:
		return h.localizer.T(i18n.MsgGuessStarted, bounds)
	case games.Pending:
		return h.localizer.T(i18n.MsgGuessPending, bounds)
	case games.Rejected:
		return h.localizer.T(i18n.MsgGuessNotNumber, nil)
	case games.Won:
		return h.localizer.T(i18n.MsgGuessWon, map[string]interface{}{"Number": res.Guess, "Attempts": res.Attempts})
	default:
		id := i18n.MsgGuessLower
		if res.Higher {
			id = i18n.MsgGuessHigher
		}
		return h.localizer.T(id, map[string]interface{}{"Attempts": res.Attempts})
	}
}

func (h *CommandHandler) renderRiddle(res games.RiddleResult) string {
	switch res.Outcome {
	case games.Started:
		return h.localizer.T(i18n.MsgRiddleStarted, map[string]interface{}{"Question": res.Question})
	case games.Pending:
		return h.localizer.T(i18n.MsgRiddlePending, map[string]interface{}{"Question": res.Question})
	case games.Won:
		return h.localizer.T(i18n.MsgRiddleWon, map[string]interface{}{"Question": res.Question, "Answer": res.Answer})
	default:
		return h.localizer.T(i18n.MsgRiddleLost, map[string]interface{}{"Hint": res.Hint})
	}
}

func upperLetter(r rune) string {
	if r == 0 {
		return ""
	}
	return string(unicode.ToUpper(r))
}

// capitalize upper-cases the first letter and leaves the rest as is
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
