package handlers

import (
	"context"
	"html"
	"strings"
	"time"

	"github.com/isida-tgbot-go/internal/engine"
	"github.com/isida-tgbot-go/internal/i18n"
	"github.com/isida-tgbot-go/internal/middleware"
	"github.com/isida-tgbot-go/internal/services/phrases"
	"github.com/isida-tgbot-go/pkg/logger"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// MessageHandler handles regular messages
type MessageHandler struct {
	commands    *CommandHandler
	bot         Sender
	engine      *engine.Engine
	rateLimiter middleware.RateLimiter
	metrics     *middleware.Metrics
	localizer   *i18n.Localizer
	logger      *logrus.Logger
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(
	commands *CommandHandler,
	rateLimiter middleware.RateLimiter,
) *MessageHandler {
	return &MessageHandler{
		commands:    commands,
		bot:         commands.bot,
		engine:      commands.engine,
		rateLimiter: rateLimiter,
		metrics:     commands.metrics,
		localizer:   commands.localizer,
		logger:      commands.logger,
	}
}

// HandleUpdate routes one update to the command, callback or text handler
func (h *MessageHandler) HandleUpdate(ctx context.Context, update *tgbotapi.Update) error {
	start := time.Now()
	var err error

	switch {
	case update.CallbackQuery != nil:
		h.metrics.RecordMessageReceived("callback")
		if !h.rateLimiter.Allow(update.CallbackQuery.From.ID) {
			h.metrics.RecordRateLimitExceeded()
			_, err = h.bot.Request(tgbotapi.NewCallbackWithAlert(update.CallbackQuery.ID,
				h.localizer.T(i18n.MsgRateLimited, nil)))
			break
		}
		err = h.commands.HandleCallbackQuery(ctx, update.CallbackQuery)
	case update.Message != nil:
		err = h.HandleMessage(ctx, update.Message)
	default:
		return nil
	}

	status := "success"
	if err != nil {
		status = "error"
	}
	h.metrics.RecordMessageProcessed(status)
	h.metrics.SetActiveGames(h.engine.ActiveGames())
	h.metrics.SetKnownUsers(h.engine.UserCount())

	h.logger.WithFields(logrus.Fields{
		"update_id": update.UpdateID,
		"duration":  time.Since(start),
		"status":    status,
	}).Debug("Update processed")
	return err
}

// HandleMessage processes commands and plain text messages
func (h *MessageHandler) HandleMessage(ctx context.Context, message *tgbotapi.Message) error {
	if message.From == nil || message.From.IsBot || message.Text == "" {
		return nil
	}

	chatID := message.Chat.ID
	userID := message.From.ID

	if !h.rateLimiter.Allow(userID) {
		h.metrics.RecordRateLimitExceeded()
		return h.commands.send(chatID, h.localizer.T(i18n.MsgRateLimited, nil))
	}

	if err := middleware.ValidateInput(message.Text); err != nil {
		logger.WithContext(h.logger, chatID, userID).WithError(err).Warn("Input validation failed")
		return h.commands.send(chatID, h.localizer.T(i18n.MsgMessageTooLong, nil))
	}

	if message.IsCommand() {
		h.metrics.RecordMessageReceived("command")
		handled, err := h.commands.HandleCommand(ctx, message)
		if handled {
			return err
		}
		// unknown commands are answered like any other text
	} else {
		h.metrics.RecordMessageReceived("text")
		if command, ok := labelCommands[strings.TrimSpace(message.Text)]; ok {
			_, err := h.commands.dispatch(ctx, message, command, "")
			return err
		}
	}

	return h.handleText(message)
}

func (h *MessageHandler) handleText(message *tgbotapi.Message) error {
	reply := h.engine.HandleText(inbound(message.From, message.Text))
	if reply.Empty() {
		return nil
	}

	text := reply.Text
	if reply.Teach != nil {
		text = h.renderTeach(*reply.Teach)
		h.metrics.RecordReply("teach")
	} else {
		h.metrics.RecordReply(reply.Stage.String())
	}

	logger.WithContext(h.logger, message.Chat.ID, message.From.ID).
		WithField("stage", reply.Stage.String()).Debug("Replying to message")
	return h.commands.send(message.Chat.ID, text)
}

func (h *MessageHandler) renderTeach(res phrases.TeachResult) string {
	switch res.Status {
	case phrases.TeachLearned:
		return h.localizer.T(i18n.MsgTeachLearned, map[string]interface{}{
			"Ack":      h.commands.pick(teachAcks),
			"Question": html.EscapeString(res.Question),
			"Answer":   html.EscapeString(res.Answer),
		})
	case phrases.TeachTooShort:
		return h.localizer.T(i18n.MsgTeachTooShort, nil)
	case phrases.TeachTooLong:
		return h.localizer.T(i18n.MsgTeachTooLong, nil)
	default:
		return h.localizer.T(i18n.MsgTeachFormat, nil)
	}
}
