package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/isida-tgbot-go/internal/config"
	"github.com/isida-tgbot-go/internal/models"
)

// RedisStore keeps each structure under its own key.
// All four keys are written in one MULTI/EXEC transaction.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to Redis and checks the connection
func NewRedisStore(cfg *config.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisStoreWithClient(client, cfg.KeyPrefix), nil
}

// NewRedisStoreWithClient wraps an existing client
func NewRedisStoreWithClient(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "isida"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) Name() string { return "redis" }

func (r *RedisStore) Close() error { return r.client.Close() }

func (r *RedisStore) key(name string) string {
	return fmt.Sprintf("%s:%s", r.prefix, name)
}

// Save writes all structures atomically
func (r *RedisStore) Save(ctx context.Context, snap *models.Snapshot) error {
	values := map[string]any{
		"learned": snap.Learned,
		"users":   snap.Users,
		"stats":   snap.Stats,
		"games":   snap.Games,
	}
	encoded := make(map[string][]byte, len(values))
	for name, v := range values {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", name, err)
		}
		encoded[name] = data
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for name, data := range encoded {
			pipe.Set(ctx, r.key(name), data, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis transaction: %w", err)
	}
	return nil
}

// Load reads all keys; missing keys yield empty structures
func (r *RedisStore) Load(ctx context.Context) (*models.Snapshot, error) {
	snap := models.NewSnapshot()
	targets := []struct {
		name string
		into any
	}{
		{"learned", &snap.Learned},
		{"users", &snap.Users},
		{"stats", &snap.Stats},
		{"games", &snap.Games},
	}

	keys := make([]string, len(targets))
	for i, t := range targets {
		keys[i] = r.key(t.name)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget: %w", err)
	}

	for i, v := range values {
		s, ok := v.(string)
		if !ok || s == "" {
			continue
		}
		if err := json.Unmarshal([]byte(s), targets[i].into); err != nil {
			return nil, fmt.Errorf("decode %s: %w", targets[i].name, err)
		}
	}
	normalize(snap)
	return snap, nil
}
