package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"

	"github.com/isida-tgbot-go/internal/config"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed locales/*.json
var locales embed.FS

// Localizer manages internationalization
type Localizer struct {
	bundle          *i18n.Bundle
	defaultLanguage string
	localizers      map[string]*i18n.Localizer
	printers        map[string]*message.Printer
}

// NewLocalizer loads every embedded locale file
func NewLocalizer(cfg *config.I18nConfig) (*Localizer, error) {
	bundle := i18n.NewBundle(language.Russian)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	files, err := locales.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("failed to list locale files: %w", err)
	}

	l := &Localizer{
		bundle:          bundle,
		defaultLanguage: cfg.DefaultLanguage,
		localizers:      make(map[string]*i18n.Localizer),
		printers:        make(map[string]*message.Printer),
	}

	for _, f := range files {
		name := path.Join("locales", f.Name())
		data, err := locales.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read language file %s: %w", name, err)
		}
		mf, err := bundle.ParseMessageFileBytes(data, name)
		if err != nil {
			return nil, fmt.Errorf("failed to load language file %s: %w", name, err)
		}

		lang := mf.Tag.String()
		l.localizers[lang] = i18n.NewLocalizer(bundle, lang)
		l.printers[lang] = message.NewPrinter(mf.Tag)
	}

	if _, ok := l.localizers[l.defaultLanguage]; !ok {
		return nil, fmt.Errorf("no messages for default language %q", l.defaultLanguage)
	}
	return l, nil
}

// Get returns localized message
func (l *Localizer) Get(lang, messageID string, data map[string]interface{}) string {
	localizer, exists := l.localizers[lang]
	if !exists {
		localizer = l.localizers[l.defaultLanguage]
	}

	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: data,
	})
	if err != nil {
		return messageID // Fallback to message ID
	}

	return msg
}

// T returns a message in the default language
func (l *Localizer) T(messageID string, data map[string]interface{}) string {
	return l.Get(l.defaultLanguage, messageID, data)
}

// Number formats n with the default language's digit grouping
func (l *Localizer) Number(n int64) string {
	return l.printers[l.defaultLanguage].Sprintf("%d", n)
}

// Message IDs
const (
	MsgWelcome          = "welcome"
	MsgHelp             = "help"
	MsgGames            = "games"
	MsgJoke             = "joke"
	MsgQuote            = "quote"
	MsgLearn            = "learn"
	MsgHistoryCleared   = "history_cleared"
	MsgStats            = "stats"
	MsgStatsNoCommands  = "stats_no_commands"
	MsgRateLimited      = "rate_limit_exceeded"
	MsgMessageTooLong   = "message_too_long"
	MsgError            = "error"
	MsgWeather          = "weather"
	MsgWeatherSynthetic = "weather_synthetic"
	MsgCurrency         = "currency"
	MsgCurrencySynth    = "currency_synthetic"

	MsgMood        = "mood"
	MsgMoodChanged = "mood_changed"
	MsgMoodUnknown = "mood_unknown"

	MsgTeachLearned  = "teach_learned"
	MsgTeachFormat   = "teach_format"
	MsgTeachTooShort = "teach_too_short"
	MsgTeachTooLong  = "teach_too_long"

	MsgCitiesStarted     = "cities_started"
	MsgCitiesPending     = "cities_pending"
	MsgCitiesUsed        = "cities_used"
	MsgCitiesWrongLetter = "cities_wrong_letter"
	MsgCitiesContinued   = "cities_continued"
	MsgCitiesWon         = "cities_won"

	MsgHangmanStarted    = "hangman_started"
	MsgHangmanPending    = "hangman_pending"
	MsgHangmanNotLetter  = "hangman_not_letter"
	MsgHangmanLetterUsed = "hangman_letter_used"
	MsgHangmanContinued  = "hangman_continued"
	MsgHangmanWon        = "hangman_won"
	MsgHangmanLost       = "hangman_lost"

	MsgGuessStarted   = "guess_started"
	MsgGuessPending   = "guess_pending"
	MsgGuessNotNumber = "guess_not_number"
	MsgGuessHigher    = "guess_higher"
	MsgGuessLower     = "guess_lower"
	MsgGuessWon       = "guess_won"

	MsgRiddleStarted = "riddle_started"
	MsgRiddlePending = "riddle_pending"
	MsgRiddleWon     = "riddle_won"
	MsgRiddleLost    = "riddle_lost"

	MsgAdminDenied     = "admin_denied"
	MsgAdminPanel      = "admin_panel"
	MsgAdminStats      = "admin_stats"
	MsgAdminNoUsers    = "admin_no_users"
	MsgBroadcastUsage  = "broadcast_usage"
	MsgBroadcastStart  = "broadcast_start"
	MsgBroadcast       = "broadcast"
	MsgBroadcastDone   = "broadcast_done"
	MsgSetMoodUsage    = "set_mood_usage"
	MsgSetMoodUnknown  = "set_mood_unknown"
)

// MoodDescription returns the message id describing mood m
func MoodDescription(m string) string {
	return "mood_desc_" + m
}

// MoodName returns the message id of mood m's display name
func MoodName(m string) string {
	return "mood_name_" + m
}
