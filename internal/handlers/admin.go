package handlers

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/isida-tgbot-go/internal/i18n"
	"github.com/isida-tgbot-go/internal/services/mood"
	"github.com/isida-tgbot-go/pkg/markdown"
	"github.com/sirupsen/logrus"
)

const topUsersShown = 10

// authorize sends the denial text to non-admins
func (h *CommandHandler) authorize(chatID, userID int64) (bool, error) {
	if h.config.Admin.IsAdmin(userID) {
		return true, nil
	}
	h.logger.WithField("user_id", userID).Warn("Admin command denied")
	_, err := h.bot.Send(htmlMessage(chatID, h.localizer.T(i18n.MsgAdminDenied, nil)))
	return false, err
}

func (h *CommandHandler) handleAdmin(chatID, userID int64) error {
	if ok, err := h.authorize(chatID, userID); !ok {
		return err
	}

	view := h.engine.Stats()
	return h.send(chatID, h.localizer.T(i18n.MsgAdminPanel, map[string]interface{}{
		"Moods":   moodList(),
		"Users":   h.localizer.Number(int64(view.Users)),
		"Games":   h.localizer.Number(int64(view.ActiveGames)),
		"Learned": h.localizer.Number(int64(view.LearnedAnswers)),
		"Backend": h.store.Backend(),
	}))
}

func (h *CommandHandler) handleAdminStats(chatID, userID int64) error {
	if ok, err := h.authorize(chatID, userID); !ok {
		return err
	}

	view := h.engine.AdminStats(topUsersShown)

	lines := make([]string, len(view.TopUsers))
	for i, u := range view.TopUsers {
		name := u.Name
		if name == "" {
			name = "Unknown"
		}
		lines[i] = fmt.Sprintf("%d. %s: %d сообщ.", i+1, html.EscapeString(name), u.MessageCount)
	}
	top := strings.Join(lines, "\n")
	if top == "" {
		top = h.localizer.T(i18n.MsgAdminNoUsers, nil)
	}

	return h.send(chatID, h.localizer.T(i18n.MsgAdminStats, map[string]interface{}{
		"Users":       h.localizer.Number(int64(view.Users)),
		"ActiveToday": h.localizer.Number(int64(view.ActiveToday)),
		"Messages":    h.localizer.Number(view.Stats.TotalMessages),
		"Games":       h.localizer.Number(view.Stats.GamesPlayed),
		"TopUsers":    top,
		"Learned":     h.localizer.Number(int64(view.LearnedAnswers)),
		"ActiveGames": h.localizer.Number(int64(view.ActiveGames)),
		"DataSize":    fmt.Sprintf("%.2f", float64(h.store.DataSize())/(1024*1024)),
		"GeneratedAt": view.GeneratedAt.Format("15:04 02.01.2006"),
	}))
}

// handleBroadcast starts delivering text to every known user and returns.
// Delivery runs in its own goroutine, one message per pacer tick, and
// reports the totals to the admin when it finishes.
func (h *CommandHandler) handleBroadcast(ctx context.Context, chatID, userID int64, text string) error {
	if ok, err := h.authorize(chatID, userID); !ok {
		return err
	}
	if text == "" {
		return h.send(chatID, h.localizer.T(i18n.MsgBroadcastUsage, nil))
	}

	recipients := h.engine.UserIDs()
	if err := h.send(chatID, h.localizer.T(i18n.MsgBroadcastStart, map[string]interface{}{
		"Count": len(recipients),
	})); err != nil {
		return err
	}

	body := h.localizer.T(i18n.MsgBroadcast, map[string]interface{}{
		"Message": markdown.ToTelegramHTML(text),
	})

	h.broadcasts.Add(1)
	go func() {
		defer h.broadcasts.Done()
		h.deliverBroadcast(ctx, chatID, userID, recipients, body)
	}()
	return nil
}

func (h *CommandHandler) deliverBroadcast(ctx context.Context, chatID, adminID int64, recipients []int64, body string) {
	sent, failed := 0, 0
	for _, id := range recipients {
		if err := h.pacer.Wait(ctx); err != nil {
			h.logger.WithError(err).WithFields(logrus.Fields{
				"admin_id": adminID,
				"sent":     sent,
				"left":     len(recipients) - sent - failed,
			}).Warn("Broadcast interrupted")
			return
		}
		if err := h.send(id, body); err != nil {
			h.logger.WithError(err).WithField("user_id", id).Error("Failed to deliver broadcast")
			h.metrics.RecordBroadcast("error")
			failed++
			continue
		}
		h.metrics.RecordBroadcast("success")
		sent++
	}

	h.logger.WithFields(logrus.Fields{
		"admin_id": adminID,
		"sent":     sent,
		"failed":   failed,
	}).Info("Broadcast finished")

	if err := h.send(chatID, h.localizer.T(i18n.MsgBroadcastDone, map[string]interface{}{
		"Sent":   sent,
		"Failed": failed,
	})); err != nil {
		h.logger.WithError(err).WithField("admin_id", adminID).Error("Failed to send broadcast summary")
	}
}

// Wait blocks until every running broadcast has finished
func (h *CommandHandler) Wait() {
	h.broadcasts.Wait()
}

func (h *CommandHandler) handleSetMood(chatID, userID int64, token string) error {
	if ok, err := h.authorize(chatID, userID); !ok {
		return err
	}
	if token == "" {
		return h.send(chatID, h.localizer.T(i18n.MsgSetMoodUsage, map[string]interface{}{"Moods": moodList()}))
	}

	m, err := h.engine.SetMood(token)
	if err != nil {
		return h.send(chatID, h.localizer.T(i18n.MsgSetMoodUnknown, map[string]interface{}{
			"Mood":  html.EscapeString(token),
			"Moods": moodList(),
		}))
	}

	h.logger.WithFields(logrus.Fields{"admin_id": userID, "mood": m}).Info("Mood changed")
	return h.send(chatID, h.moodChanged(m))
}

func moodList() string {
	names := make([]string, len(mood.All))
	for i, m := range mood.All {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}
