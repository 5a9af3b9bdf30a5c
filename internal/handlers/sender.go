package handlers

import (
	"context"

	"github.com/isida-tgbot-go/internal/services/external"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender is the part of the Telegram API the handlers use.
// *tgbotapi.BotAPI implements it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Lookups are the external services behind the fun commands
type Lookups interface {
	Weather(ctx context.Context, city string) external.Weather
	Currency(ctx context.Context, code string) external.Rate
	CatImage(ctx context.Context) (string, error)
	DogImage(ctx context.Context) (string, error)
}

// DataStore reports on the persistence backend
type DataStore interface {
	Backend() string
	DataSize() int64
}

func htmlMessage(chatID int64, text string) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	return msg
}
