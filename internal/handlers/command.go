package handlers

import (
	"context"
	"fmt"
	"html"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/isida-tgbot-go/internal/config"
	"github.com/isida-tgbot-go/internal/engine"
	"github.com/isida-tgbot-go/internal/i18n"
	"github.com/isida-tgbot-go/internal/middleware"
	"github.com/isida-tgbot-go/internal/models"
	"github.com/isida-tgbot-go/internal/services/games"
	"github.com/isida-tgbot-go/internal/services/mood"
	"github.com/isida-tgbot-go/pkg/logger"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// Callback data prefixes
const (
	callbackGame    = "game_"
	callbackSetMood = "set_mood_"
	callbackHelp    = "help"
)

// CommandHandler handles telegram commands
type CommandHandler struct {
	bot       Sender
	config    *config.Config
	engine    *engine.Engine
	lookups   Lookups
	store     DataStore
	pacer     *middleware.Pacer
	metrics   *middleware.Metrics
	localizer *i18n.Localizer
	logger    *logrus.Logger

	broadcasts sync.WaitGroup

	mu  sync.Mutex
	rng *rand.Rand
}

// NewCommandHandler creates a new command handler
func NewCommandHandler(
	bot Sender,
	cfg *config.Config,
	eng *engine.Engine,
	lookups Lookups,
	store DataStore,
	metrics *middleware.Metrics,
	localizer *i18n.Localizer,
	logger *logrus.Logger,
) *CommandHandler {
	return &CommandHandler{
		bot:       bot,
		config:    cfg,
		engine:    eng,
		lookups:   lookups,
		store:     store,
		pacer:     middleware.NewPacer(cfg.Broadcast.Delay),
		metrics:   metrics,
		localizer: localizer,
		logger:    logger,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// HandleCommand processes telegram commands.
// It reports false for commands it does not know.
func (h *CommandHandler) HandleCommand(ctx context.Context, message *tgbotapi.Message) (bool, error) {
	return h.dispatch(ctx, message, message.Command(), strings.TrimSpace(message.CommandArguments()))
}

func (h *CommandHandler) dispatch(ctx context.Context, message *tgbotapi.Message, command, args string) (bool, error) {
	chatID := message.Chat.ID
	in := inbound(message.From, message.Text)

	var handle func() error
	switch command {
	case "start":
		handle = func() error { return h.handleStart(chatID, in) }
	case "help":
		handle = func() error { return h.handleHelp(chatID) }
	case "games":
		handle = func() error { return h.handleGames(chatID) }
	case "joke":
		handle = func() error { return h.handleJoke(chatID) }
	case "quote":
		handle = func() error { return h.handleQuote(chatID) }
	case "cat":
		handle = func() error { return h.handleCat(ctx, chatID) }
	case "dog":
		handle = func() error { return h.handleDog(ctx, chatID) }
	case "weather":
		handle = func() error { return h.handleWeather(ctx, chatID, args) }
	case "currency":
		handle = func() error { return h.handleCurrency(ctx, chatID, firstField(args)) }
	case "mood":
		handle = func() error { return h.handleMood(chatID) }
	case "stats":
		handle = func() error { return h.handleStats(chatID) }
	case "learn":
		handle = func() error { return h.handleLearn(chatID) }
	case "clear":
		handle = func() error { return h.handleClear(chatID, in.UserID) }
	case "admin":
		handle = func() error { return h.handleAdmin(chatID, in.UserID) }
	case "admin_stats":
		handle = func() error { return h.handleAdminStats(chatID, in.UserID) }
	case "broadcast":
		handle = func() error { return h.handleBroadcast(ctx, chatID, in.UserID, args) }
	case "set_mood":
		handle = func() error { return h.handleSetMood(chatID, in.UserID, firstField(args)) }
	case string(games.Cities), string(games.Hangman), string(games.Guess), string(games.Riddle):
		kind := games.Kind(command)
		handle = func() error { return h.handleGame(chatID, in.UserID, kind, args) }
	default:
		return false, nil
	}

	h.engine.HandleCommand(in, command)
	h.metrics.RecordCommandExecuted(command)
	logger.WithCommand(h.logger, in.UserID, command).Debug("Handling command")
	return true, handle()
}

// HandleCallbackQuery processes inline keyboard callbacks
func (h *CommandHandler) HandleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	if callback.Message == nil {
		return h.answerCallback(callback.ID, "")
	}

	data := callback.Data
	userID := callback.From.ID
	chatID := callback.Message.Chat.ID
	messageID := callback.Message.MessageID

	var err error
	switch {
	case strings.HasPrefix(data, callbackGame):
		kind, perr := games.ParseKind(strings.TrimPrefix(data, callbackGame))
		if perr != nil {
			break
		}
		h.metrics.RecordCommandExecuted(string(kind))
		err = h.handleGame(chatID, userID, kind, "")
	case strings.HasPrefix(data, callbackSetMood):
		return h.handleMoodCallback(callback, chatID, messageID, strings.TrimPrefix(data, callbackSetMood))
	case data == callbackHelp:
		err = h.handleHelp(chatID)
	}

	if aerr := h.answerCallback(callback.ID, ""); err == nil {
		err = aerr
	}
	return err
}

func (h *CommandHandler) answerCallback(id, text string) error {
	_, err := h.bot.Request(tgbotapi.NewCallback(id, text))
	return err
}

func (h *CommandHandler) send(chatID int64, text string) error {
	_, err := h.bot.Send(htmlMessage(chatID, text))
	return err
}

// handleStart handles /start command
func (h *CommandHandler) handleStart(chatID int64, in models.Inbound) error {
	name := in.Name
	if name == "" {
		name = in.Username
	}
	msg := htmlMessage(chatID, h.localizer.T(i18n.MsgWelcome, map[string]interface{}{
		"Name": html.EscapeString(name),
	}))
	msg.ReplyMarkup = mainKeyboard()

	_, err := h.bot.Send(msg)
	return err
}

// handleHelp handles /help command
func (h *CommandHandler) handleHelp(chatID int64) error {
	return h.send(chatID, h.localizer.T(i18n.MsgHelp, nil))
}

func (h *CommandHandler) handleGames(chatID int64) error {
	msg := htmlMessage(chatID, h.localizer.T(i18n.MsgGames, nil))
	msg.ReplyMarkup = gamesKeyboard()

	_, err := h.bot.Send(msg)
	return err
}

func (h *CommandHandler) handleJoke(chatID int64) error {
	return h.send(chatID, h.localizer.T(i18n.MsgJoke, map[string]interface{}{"Joke": h.pick(jokes)}))
}

func (h *CommandHandler) handleQuote(chatID int64) error {
	return h.send(chatID, h.localizer.T(i18n.MsgQuote, map[string]interface{}{"Quote": h.pick(quotes)}))
}

func (h *CommandHandler) handleLearn(chatID int64) error {
	return h.send(chatID, h.localizer.T(i18n.MsgLearn, nil))
}

// handleClear handles /clear command
func (h *CommandHandler) handleClear(chatID, userID int64) error {
	h.engine.ClearHistory(userID)
	return h.send(chatID, h.localizer.T(i18n.MsgHistoryCleared, nil))
}

// handleStats handles /stats command
func (h *CommandHandler) handleStats(chatID int64) error {
	view := h.engine.Stats()

	uptime := view.Uptime
	days := int(uptime.Hours()) / 24
	hours := int(uptime.Hours()) % 24
	minutes := int(uptime.Minutes()) % 60

	text := h.localizer.T(i18n.MsgStats, map[string]interface{}{
		"Days":        days,
		"Hours":       hours,
		"Minutes":     minutes,
		"Messages":    h.localizer.Number(view.Stats.TotalMessages),
		"Users":       h.localizer.Number(view.Stats.UniqueUsers),
		"Games":       h.localizer.Number(view.Stats.GamesPlayed),
		"TopCommands": h.topCommands(view.Stats.CommandsUsed, 5),
		"Learned":     h.localizer.Number(int64(view.LearnedAnswers)),
	})
	return h.send(chatID, text)
}

func (h *CommandHandler) topCommands(used map[string]int64, n int) string {
	type entry struct {
		name  string
		count int64
	}
	entries := make([]entry, 0, len(used))
	for name, count := range used {
		entries = append(entries, entry{name, count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].name < entries[j].name
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	if len(entries) == 0 {
		return h.localizer.T(i18n.MsgStatsNoCommands, nil)
	}

	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = fmt.Sprintf("• /%s: %s", e.name, h.localizer.Number(e.count))
	}
	return strings.Join(lines, "\n")
}

// handleMood handles /mood command
func (h *CommandHandler) handleMood(chatID int64) error {
	current := h.engine.Mood()
	msg := htmlMessage(chatID, h.localizer.T(i18n.MsgMood, map[string]interface{}{
		"Description": h.localizer.T(i18n.MoodDescription(string(current)), nil),
	}))
	msg.ReplyMarkup = moodKeyboard()

	_, err := h.bot.Send(msg)
	return err
}

func (h *CommandHandler) handleMoodCallback(callback *tgbotapi.CallbackQuery, chatID int64, messageID int, token string) error {
	m, err := h.engine.SetMood(token)
	if err != nil {
		alert := tgbotapi.NewCallbackWithAlert(callback.ID,
			h.localizer.T(i18n.MsgMoodUnknown, map[string]interface{}{"Mood": token}))
		_, aerr := h.bot.Request(alert)
		return aerr
	}

	h.logger.WithFields(logrus.Fields{"user_id": callback.From.ID, "mood": m}).Info("Mood changed")
	edit := tgbotapi.NewEditMessageText(chatID, messageID, h.moodChanged(m))
	edit.ParseMode = tgbotapi.ModeHTML
	if _, err := h.bot.Send(edit); err != nil {
		return err
	}
	return h.answerCallback(callback.ID, "")
}

func (h *CommandHandler) moodChanged(m mood.Mood) string {
	return h.localizer.T(i18n.MsgMoodChanged, map[string]interface{}{
		"Name": h.localizer.T(i18n.MoodName(string(m)), nil),
	})
}

func (h *CommandHandler) pick(items []string) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return items[h.rng.Intn(len(items))]
}

func mainKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(LabelGames), tgbotapi.NewKeyboardButton(LabelJoke)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(LabelCat), tgbotapi.NewKeyboardButton(LabelWeather)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(LabelHelp), tgbotapi.NewKeyboardButton(LabelMood)),
	)
	kb.InputFieldPlaceholder = inputPlaceholder
	return kb
}

func gamesKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🏙️ Города", callbackGame+string(games.Cities)),
			tgbotapi.NewInlineKeyboardButtonData("🎯 Виселица", callbackGame+string(games.Hangman)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔢 Угадай число", callbackGame+string(games.Guess)),
			tgbotapi.NewInlineKeyboardButtonData("❓ Загадка", callbackGame+string(games.Riddle)),
		),
	)
}

// moodKeyboard lists every mood, three per row
func moodKeyboard() tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, m := range mood.All {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("🎭 "+string(m), callbackSetMood+string(m)))
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func inbound(from *tgbotapi.User, text string) models.Inbound {
	if from == nil {
		return models.Inbound{Text: text}
	}
	name := strings.TrimSpace(from.FirstName + " " + from.LastName)
	return models.Inbound{UserID: from.ID, Name: name, Username: from.UserName, Text: text}
}

func firstField(s string) string {
	if fields := strings.Fields(s); len(fields) > 0 {
		return fields[0]
	}
	return ""
}
