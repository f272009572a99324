package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/GoArmGo/ProtogenMap/internal/domain"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

var errStaleGeneration = errors.New("markers generation changed")

const (
	// MarkersKey ключ, под которым лежит весь список меток.
	MarkersKey = "markers:all"
	// GenerationKey счётчик изменений меток, растёт при каждой инвалидации.
	GenerationKey = "markers:gen"
)

// RedisMarkerCache реализует ports.MarkerCache.
type RedisMarkerCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisMarkerCache создаёт кэш меток с заданным временем жизни записи.
func NewRedisMarkerCache(client *redis.Client, ttl time.Duration) *RedisMarkerCache {
	return &RedisMarkerCache{client: client, ttl: ttl}
}

// GetMarkers возвращает закэшированный список; ok = false при промахе.
func (c *RedisMarkerCache) GetMarkers(ctx context.Context) ([]domain.Marker, bool, error) {
	data, err := c.client.Get(ctx, MarkersKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read markers from Redis: %w", err)
	}

	var markers []domain.Marker
	if err := json.Unmarshal(data, &markers); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached markers: %w", err)
	}
	return markers, true, nil
}

// Generation возвращает текущее поколение списка меток; отсутствующий ключ даёт 0.
func (c *RedisMarkerCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, GenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read markers generation: %w", err)
	}
	return gen, nil
}

// SetMarkers кладёт список в кэш, только если с момента чтения gen метки не менялись.
// Устаревший список молча отбрасывается.
func (c *RedisMarkerCache) SetMarkers(ctx context.Context, markers []domain.Marker, gen int64) error {
	if markers == nil {
		markers = []domain.Marker{}
	}
	data, err := json.Marshal(markers)
	if err != nil {
		return fmt.Errorf("failed to marshal markers: %w", err)
	}

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, GenerationKey).Int64()
		if errors.Is(err, redis.Nil) {
			current = 0
		} else if err != nil {
			return err
		}
		if current != gen {
			return errStaleGeneration
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, MarkersKey, data, c.ttl)
			return nil
		})
		return err
	}, GenerationKey)

	switch {
	case err == nil, errors.Is(err, errStaleGeneration), errors.Is(err, redis.TxFailedErr):
		return nil
	default:
		return fmt.Errorf("failed to write markers to Redis: %w", err)
	}
}

// Invalidate сбрасывает кэш после любого изменения меток и сдвигает поколение.
func (c *RedisMarkerCache) Invalidate(ctx context.Context) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, GenerationKey)
		pipe.Del(ctx, MarkersKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to invalidate markers cache: %w", err)
	}
	return nil
}
