package handlers

import (
	"context"
	"fmt"
	"html"
	"strconv"

	"github.com/isida-tgbot-go/internal/i18n"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (h *CommandHandler) handleCat(ctx context.Context, chatID int64) error {
	return h.sendPicture(ctx, chatID, h.lookups.CatImage, catPhrases)
}

func (h *CommandHandler) handleDog(ctx context.Context, chatID int64) error {
	return h.sendPicture(ctx, chatID, h.lookups.DogImage, dogPhrases)
}

// sendPicture sends a photo with a caption, or only the caption when
// the image service or the upload fails
func (h *CommandHandler) sendPicture(ctx context.Context, chatID int64, fetch func(context.Context) (string, error), phrases []string) error {
	caption := h.pick(phrases)

	url, err := fetch(ctx)
	if err == nil {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(url))
		photo.Caption = caption
		if _, err = h.bot.Send(photo); err == nil {
			return nil
		}
	}
	h.logger.WithError(err).WithField("chat_id", chatID).Warn("Failed to send picture")

	_, err = h.bot.Send(tgbotapi.NewMessage(chatID, caption))
	return err
}

func (h *CommandHandler) handleWeather(ctx context.Context, chatID int64, city string) error {
	w := h.lookups.Weather(ctx, city)

	if w.Synthetic {
		return h.send(chatID, h.localizer.T(i18n.MsgWeatherSynthetic, map[string]interface{}{
			"City":        html.EscapeString(w.City),
			"Description": w.Description,
			"Temp":        formatTemp(w.Temp),
		}))
	}
	return h.send(chatID, h.localizer.T(i18n.MsgWeather, map[string]interface{}{
		"City":        html.EscapeString(w.City),
		"Temp":        formatTemp(w.Temp),
		"Description": html.EscapeString(w.Description),
		"Humidity":    w.Humidity,
	}))
}

func (h *CommandHandler) handleCurrency(ctx context.Context, chatID int64, code string) error {
	r := h.lookups.Currency(ctx, code)

	id := i18n.MsgCurrency
	if r.Synthetic {
		id = i18n.MsgCurrencySynth
	}
	return h.send(chatID, h.localizer.T(id, map[string]interface{}{
		"Code":   html.EscapeString(r.Code),
		"InRUB":  fmt.Sprintf("%.2f", r.InRUB),
		"PerRUB": fmt.Sprintf("%.4f", r.PerRUB),
	}))
}

func formatTemp(t float64) string {
	return strconv.FormatFloat(t, 'f', -1, 64)
}
