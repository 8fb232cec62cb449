package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dreschagin/page-health-analyzer/internal/application/port"
	"github.com/dreschagin/page-health-analyzer/internal/domain/valueobject"
)

// ThresholdStorage хранит набор порогов в Redis одним JSON-значением.
// Предпочтительный backend: переживает рестарты и виден всем инстансам.
type ThresholdStorage struct {
	client *redis.Client
	key    string
}

// NewThresholdStorage создает Redis-хранилище порогов
func NewThresholdStorage(host, port, password string, db int, key string) (*ThresholdStorage, error) {
	client := redis.NewClient(&redis.Options{
		Addr:       fmt.Sprintf("%s:%s", host, port),
		Password:   password,
		DB:         db,
		MaxRetries: 3,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &ThresholdStorage{
		client: client,
		key:    key,
	}, nil
}

// NewThresholdStorageWithClient создает хранилище поверх готового клиента
func NewThresholdStorageWithClient(client *redis.Client, key string) *ThresholdStorage {
	return &ThresholdStorage{
		client: client,
		key:    key,
	}
}

// Load читает персистентный набор порогов
func (s *ThresholdStorage) Load(ctx context.Context) (valueobject.ThresholdSet, error) {
	val, err := s.client.Get(ctx, s.key).Result()
	if err == redis.Nil {
		return valueobject.ThresholdSet{}, port.ErrThresholdsNotFound
	}
	if err != nil {
		return valueobject.ThresholdSet{}, fmt.Errorf("failed to load thresholds: %w", err)
	}

	var set valueobject.ThresholdSet
	if err := json.Unmarshal([]byte(val), &set); err != nil {
		return valueobject.ThresholdSet{}, fmt.Errorf("failed to unmarshal thresholds: %w", err)
	}

	return set, nil
}

// Save записывает набор порогов, заменяя предыдущий
func (s *ThresholdStorage) Save(ctx context.Context, set valueobject.ThresholdSet) error {
	data, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("failed to marshal thresholds: %w", err)
	}

	// Без TTL: пороги живут до следующего явного изменения
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save thresholds: %w", err)
	}

	return nil
}

// Close закрывает соединение с Redis
func (s *ThresholdStorage) Close() error {
	return s.client.Close()
}
