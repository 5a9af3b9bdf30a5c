package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/isida-tgbot-go/internal/config"
	"github.com/isida-tgbot-go/internal/engine"
	"github.com/isida-tgbot-go/internal/handlers"
	"github.com/isida-tgbot-go/internal/i18n"
	"github.com/isida-tgbot-go/internal/middleware"
	"github.com/isida-tgbot-go/internal/services/cache"
	"github.com/isida-tgbot-go/internal/services/external"
	"github.com/isida-tgbot-go/internal/services/storage"
	"github.com/isida-tgbot-go/pkg/logger"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to configuration file")
	envFile := flag.String("env", ".env", "Path to .env file")
	flag.Parse()

	// It's okay if .env doesn't exist
	if err := godotenv.Load(*envFile); err != nil {
		fmt.Printf("Warning: .env file not found: %v\n", err)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(&cfg.Logging)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log.Info("Starting Isida...")

	bot, err := tgbotapi.NewBotAPI(cfg.Bot.Token)
	if err != nil {
		log.WithError(err).Fatal("Failed to create bot")
	}
	bot.Debug = cfg.Logging.Level == "debug"
	log.WithField("username", bot.Self.UserName).Info("Bot authorized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := middleware.NewMetrics()

	storageManager, err := storage.NewManager(cfg, log, metrics)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize storage")
	}

	eng, err := engine.New(engine.Options{
		HistorySize: cfg.Engine.HistorySize,
		SaveEvery:   cfg.Engine.SaveEvery,
		FlushHook:   storageManager.RequestFlush,
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize engine")
	}

	// A failed load leaves the bot running on empty state
	if err := storageManager.Load(ctx, eng); err != nil {
		log.WithError(err).Error("Failed to load saved data")
	}
	log.WithFields(logrus.Fields{
		"backend": storageManager.Backend(),
		"users":   eng.UserCount(),
	}).Info("Data loaded")

	var background sync.WaitGroup
	background.Add(1)
	go func() {
		defer background.Done()
		storageManager.Run(ctx, eng, cfg.Storage.FlushInterval)
	}()

	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)
	go rateLimiter.Run(ctx, 10*time.Minute)

	if cfg.Monitoring.Metrics.Enabled {
		go func() {
			log.WithFields(logrus.Fields{
				"port": cfg.Monitoring.Metrics.Port,
				"path": cfg.Monitoring.Metrics.Path,
			}).Info("Starting metrics server")

			if err := middleware.StartMetricsServer(cfg.Monitoring.Metrics.Port, cfg.Monitoring.Metrics.Path); err != nil {
				log.WithError(err).Error("Metrics server failed")
			}
		}()
	}

	cacheService := cache.NewCache(cfg.External.CacheTTL, log, metrics)
	lookups := external.NewClient(cfg.External, cacheService, log, metrics)

	localizer, err := i18n.NewLocalizer(&cfg.I18n)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize i18n")
	}

	commandHandler := handlers.NewCommandHandler(bot, cfg, eng, lookups, storageManager, metrics, localizer, log)
	messageHandler := handlers.NewMessageHandler(commandHandler, rateLimiter)

	var updates tgbotapi.UpdatesChannel
	if cfg.Bot.Webhook.Enabled {
		webhookURL := fmt.Sprintf("%s/%s", cfg.Bot.Webhook.URL, bot.Token)
		webhook, err := tgbotapi.NewWebhook(webhookURL)
		if err != nil {
			log.WithError(err).Fatal("Failed to create webhook")
		}
		if _, err := bot.Request(webhook); err != nil {
			log.WithError(err).Fatal("Failed to set webhook")
		}

		updates = bot.ListenForWebhook("/" + bot.Token)
		go func() {
			if err := http.ListenAndServe(fmt.Sprintf(":%d", cfg.Bot.Webhook.Port), nil); err != nil && err != http.ErrServerClosed {
				log.WithError(err).Error("Webhook server failed")
			}
		}()
		log.WithField("port", cfg.Bot.Webhook.Port).Info("Webhook set")
	} else {
		u := tgbotapi.NewUpdate(0)
		u.Timeout = cfg.Bot.UpdateTimeout

		updates = bot.GetUpdatesChan(u)
		log.Info("Using long polling")
	}

	workers := startWorkers(ctx, cfg.Bot.Workers, messageHandler, log)
	go dispatchUpdates(ctx, updates, workers)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Info("Shutdown signal received")

	if cfg.Bot.Webhook.Enabled {
		if _, err := bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
			log.WithError(err).Error("Failed to delete webhook")
		}
	} else {
		bot.StopReceivingUpdates()
	}

	cancel()
	commandHandler.Wait()
	background.Wait()

	closeCtx, closeCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer closeCancel()
	if err := storageManager.Close(closeCtx, eng); err != nil {
		log.WithError(err).Error("Failed to save data on shutdown")
	}

	log.Info("Bot stopped")
}

// startWorkers starts n workers, each with its own queue
func startWorkers(ctx context.Context, n int, handler *handlers.MessageHandler, log *logrus.Logger) []chan tgbotapi.Update {
	if n < 1 {
		n = 1
	}
	queues := make([]chan tgbotapi.Update, n)
	for i := range queues {
		queues[i] = make(chan tgbotapi.Update, 16)
		go func(queue <-chan tgbotapi.Update) {
			for update := range queue {
				if err := handler.HandleUpdate(ctx, &update); err != nil {
					log.WithError(err).WithField("update_id", update.UpdateID).Error("Failed to handle update")
				}
			}
		}(queues[i])
	}
	return queues
}

// dispatchUpdates routes every update of one user to the same worker
// so that game moves are applied in order
func dispatchUpdates(ctx context.Context, updates tgbotapi.UpdatesChannel, queues []chan tgbotapi.Update) {
	defer func() {
		for _, q := range queues {
			close(q)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			var userID int64
			if from := update.SentFrom(); from != nil {
				userID = from.ID
			}
			idx := int(uint64(userID) % uint64(len(queues)))
			select {
			case queues[idx] <- update:
			case <-ctx.Done():
				return
			}
		}
	}
}
