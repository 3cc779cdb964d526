package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/satriahrh/gymbuddy/domain/repositories"
)

const (
	// AudioKeyPrefix namespaces archived replies
	AudioKeyPrefix    = "gymbuddy:audio:"
	defaultAudioTTL   = 10 * time.Minute
	defaultRedisAddr  = "localhost:6379"
	connectionTimeout = 5 * time.Second
)

// RedisConfig holds the connection settings for the audio archive
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// RedisAudioArchive keeps synthesized replies in Redis until they expire
type RedisAudioArchive struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

var _ repositories.AudioArchive = (*RedisAudioArchive)(nil)

// NewRedisAudioArchive creates and verifies a Redis connection
func NewRedisAudioArchive(ctx context.Context, config RedisConfig, logger *zap.Logger) (*RedisAudioArchive, error) {
	addr := config.Addr
	if addr == "" {
		addr = defaultRedisAddr
		logger.Info("Using default Redis address", zap.String("addr", addr))
	}

	ttl := config.TTL
	if ttl <= 0 {
		ttl = defaultAudioTTL
		logger.Info("Using default audio TTL", zap.Duration("ttl", ttl))
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: config.Password,
		DB:       config.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, connectionTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to ping Redis at %s: %w", addr, err)
	}

	return &RedisAudioArchive{client: rdb, ttl: ttl, logger: logger}, nil
}

// Save implements AudioArchive
func (a *RedisAudioArchive) Save(ctx context.Context, filename string, data []byte) error {
	if err := a.client.Set(ctx, AudioKey(filename), data, a.ttl).Err(); err != nil {
		return fmt.Errorf("failed to archive audio: %w", err)
	}
	a.logger.Debug("Archived audio",
		zap.String("filename", filename),
		zap.Int("bytes", len(data)),
		zap.Duration("ttl", a.ttl))
	return nil
}

// Load implements AudioArchive
func (a *RedisAudioArchive) Load(ctx context.Context, filename string) ([]byte, error) {
	data, err := a.client.Get(ctx, AudioKey(filename)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, repositories.ErrAudioNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load archived audio: %w", err)
	}
	return data, nil
}

// Ping reports whether Redis is reachable
func (a *RedisAudioArchive) Ping(ctx context.Context) error {
	return a.client.Ping(ctx).Err()
}

// Close releases the connection pool
func (a *RedisAudioArchive) Close() error {
	return a.client.Close()
}

// AudioKey is the Redis key for an archived file
func AudioKey(filename string) string {
	return AudioKeyPrefix + filename
}
