package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Bot        BotConfig        `mapstructure:"bot"`
	Admin      AdminConfig      `mapstructure:"admin"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Engine     EngineConfig     `mapstructure:"engine"`
	External   ExternalConfig   `mapstructure:"external"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Broadcast  BroadcastConfig  `mapstructure:"broadcast"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	I18n       I18nConfig       `mapstructure:"i18n"`
}

type BotConfig struct {
	Token         string        `mapstructure:"token"`
	Webhook       WebhookConfig `mapstructure:"webhook"`
	UpdateTimeout int           `mapstructure:"update_timeout"`
	Workers       int           `mapstructure:"workers"`
}

type WebhookConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Port    int    `mapstructure:"port"`
}

type AdminConfig struct {
	IDs []int64 `mapstructure:"ids"`
}

// IsAdmin reports whether id is on the allow-list
func (a AdminConfig) IsAdmin(id int64) bool {
	for _, admin := range a.IDs {
		if admin == id {
			return true
		}
	}
	return false
}

type StorageConfig struct {
	Type          string         `mapstructure:"type"`
	FlushInterval time.Duration  `mapstructure:"flush_interval"`
	SQLite        SQLiteConfig   `mapstructure:"sqlite"`
	Postgres      PostgresConfig `mapstructure:"postgres"`
	JSON          JSONConfig     `mapstructure:"json"`
	Redis         RedisConfig    `mapstructure:"redis"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

type JSONConfig struct {
	Dir string `mapstructure:"dir"`
}

type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type EngineConfig struct {
	HistorySize int `mapstructure:"history_size"`
	SaveEvery   int `mapstructure:"save_every"`
}

type ExternalConfig struct {
	Timeout  time.Duration `mapstructure:"timeout"`
	Attempts int           `mapstructure:"attempts"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	Weather  WeatherConfig `mapstructure:"weather"`
	Exchange APIConfig     `mapstructure:"exchange"`
	Cat      APIConfig     `mapstructure:"cat"`
	Dog      APIConfig     `mapstructure:"dog"`
}

type WeatherConfig struct {
	APIKey      string `mapstructure:"api_key"`
	BaseURL     string `mapstructure:"base_url"`
	DefaultCity string `mapstructure:"default_city"`
}

type APIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
	Burst             int  `mapstructure:"burst"`
}

type BroadcastConfig struct {
	Delay time.Duration `mapstructure:"delay"`
}

type LoggingConfig struct {
	Level  string     `mapstructure:"level"`
	Format string     `mapstructure:"format"`
	Output string     `mapstructure:"output"`
	File   FileConfig `mapstructure:"file"`
}

type FileConfig struct {
	Path       string `mapstructure:"path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

type MonitoringConfig struct {
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Path    string `mapstructure:"path"`
}

type I18nConfig struct {
	DefaultLanguage string `mapstructure:"default_language"`
}

// Supported storage backends
const (
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
	StorageJSON     = "json"
	StorageRedis    = "redis"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("bot.update_timeout", 60)
	v.SetDefault("bot.workers", 4)
	v.SetDefault("bot.webhook.port", 8443)

	v.SetDefault("storage.flush_interval", 5*time.Minute)
	v.SetDefault("storage.sqlite.path", "data/isida.db")
	v.SetDefault("storage.json.dir", "data")
	v.SetDefault("storage.redis.addr", "localhost:6379")
	v.SetDefault("storage.redis.key_prefix", "isida")

	v.SetDefault("engine.history_size", 20)
	v.SetDefault("engine.save_every", 10)

	v.SetDefault("external.timeout", 10*time.Second)
	v.SetDefault("external.attempts", 3)
	v.SetDefault("external.cache_ttl", 10*time.Minute)
	v.SetDefault("external.weather.base_url", "https://api.openweathermap.org/data/2.5/weather")
	v.SetDefault("external.weather.default_city", "Москва")
	v.SetDefault("external.exchange.base_url", "https://v6.exchangerate-api.com/v6")
	v.SetDefault("external.cat.base_url", "https://api.thecatapi.com/v1/images/search")
	v.SetDefault("external.dog.base_url", "https://dog.ceo/api/breeds/image/random")

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_minute", 30)
	v.SetDefault("rate_limit.burst", 5)

	v.SetDefault("broadcast.delay", 50*time.Millisecond)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.output", "stdout")

	v.SetDefault("monitoring.metrics.port", 9090)
	v.SetDefault("monitoring.metrics.path", "/metrics")

	v.SetDefault("i18n.default_language", "ru")
}

// LoadConfig loads configuration from file and environment variables.
// A missing file is not an error; the defaults and environment apply.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.BindEnv("bot.token", "BOT_TOKEN")
	v.BindEnv("storage.type", "STORAGE_TYPE")
	v.BindEnv("storage.postgres.dsn", "DATABASE_URL")
	v.BindEnv("storage.sqlite.path", "SQLITE_PATH")
	v.BindEnv("storage.json.dir", "DATA_DIR")
	v.BindEnv("storage.redis.password", "REDIS_PASSWORD")
	v.BindEnv("storage.redis.db", "REDIS_DB")
	v.BindEnv("external.weather.api_key", "WEATHER_API_KEY")
	v.BindEnv("external.exchange.api_key", "EXCHANGE_API_KEY")
	v.BindEnv("logging.level", "LOG_LEVEL")

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Handle Redis address special case
	if redisHost := os.Getenv("REDIS_HOST"); redisHost != "" {
		redisPort := os.Getenv("REDIS_PORT")
		if redisPort == "" {
			redisPort = "6379"
		}
		config.Storage.Redis.Addr = fmt.Sprintf("%s:%s", redisHost, redisPort)
	}

	if raw := os.Getenv("ADMIN_IDS"); raw != "" {
		ids, err := ParseIDs(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_IDS: %w", err)
		}
		config.Admin.IDs = ids
	}

	// A database URL without an explicit type selects postgres
	if config.Storage.Type == "" {
		if config.Storage.Postgres.DSN != "" {
			config.Storage.Type = StoragePostgres
		} else {
			config.Storage.Type = StorageJSON
		}
	}
	config.Storage.Type = strings.ToLower(config.Storage.Type)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// ParseIDs parses a comma separated list of user ids
func ParseIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func validateConfig(cfg *Config) error {
	if cfg.Bot.Token == "" {
		return fmt.Errorf("bot token is required")
	}
	switch cfg.Storage.Type {
	case StorageSQLite, StorageJSON, StorageRedis:
	case StoragePostgres:
		if cfg.Storage.Postgres.DSN == "" {
			return fmt.Errorf("postgres storage requires a dsn")
		}
	default:
		return fmt.Errorf("unsupported storage type: %s", cfg.Storage.Type)
	}
	if cfg.Engine.HistorySize <= 0 || cfg.Engine.SaveEvery <= 0 {
		return fmt.Errorf("engine sizes must be positive")
	}
	if cfg.Bot.Workers <= 0 {
		return fmt.Errorf("bot needs at least one worker")
	}
	return nil
}
