package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrLockHeld is returned when another run already owns a lock
var ErrLockHeld = errors.New("lock is held by another run")

// ErrKeyNotFound is returned by GetJSON for a missing key
var ErrKeyNotFound = errors.New("key not found")

// releaseScript deletes the lock only while it still carries our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type Redis struct {
	Client *redis.Client
	tracer trace.Tracer
}

func NewRedis(ctx context.Context, redisURL string, tracing bool) (*Redis, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	slog.Debug("Connected to Redis", "addr", opt.Addr)

	r := &Redis{Client: client}
	if tracing {
		r.tracer = otel.Tracer("redis-client")
	}
	return r, nil
}

func (r *Redis) Close() error {
	return r.Client.Close()
}

// Lock is a held run lock
type Lock struct {
	redis *Redis
	key   string
	token string
}

// AcquireLock takes an expiring exclusive lock on key. It fails with
// ErrLockHeld instead of waiting when the key is already locked.
func (r *Redis) AcquireLock(ctx context.Context, key string, ttl time.Duration) (*Lock, error) {
	ctx, span := r.startSpan(ctx, "redis.lock", key, "SETNX")
	defer span.End()

	token := uuid.NewString()
	ok, err := r.Client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, ErrLockHeld)
	}
	return &Lock{redis: r, key: key, token: token}, nil
}

// Release drops the lock if it is still owned by this holder
func (l *Lock) Release(ctx context.Context) error {
	ctx, span := l.redis.startSpan(ctx, "redis.unlock", l.key, "EVAL")
	defer span.End()

	if err := releaseScript.Run(ctx, l.redis.Client, []string{l.key}, l.token).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to release lock %s: %w", l.key, err)
	}
	return nil
}

// SetJSON stores a JSON-serializable object in Redis with expiration
func (r *Redis) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	ctx, span := r.startSpan(ctx, "redis.set_json", key, "SET")
	defer span.End()
	span.SetAttributes(attribute.Int("redis.data_size", len(jsonData)))

	if err := r.Client.Set(ctx, key, jsonData, expiration).Err(); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// GetJSON retrieves and unmarshals a JSON object from Redis
func (r *Redis) GetJSON(ctx context.Context, key string, dest interface{}) error {
	ctx, span := r.startSpan(ctx, "redis.get_json", key, "GET")
	defer span.End()

	jsonData, err := r.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return fmt.Errorf("%s: %w", key, ErrKeyNotFound)
	}
	if err != nil {
		span.RecordError(err)
		return err
	}
	if err := json.Unmarshal(jsonData, dest); err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	return nil
}

// startSpan returns a no-op span when tracing is disabled
func (r *Redis) startSpan(ctx context.Context, name, key, operation string) (context.Context, trace.Span) {
	if r.tracer == nil {
		return ctx, trace.SpanFromContext(context.Background())
	}
	return r.tracer.Start(ctx, name,
		trace.WithAttributes(
			attribute.String("redis.key", key),
			attribute.String("redis.operation", operation),
		),
	)
}
