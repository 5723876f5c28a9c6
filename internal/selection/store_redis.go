package selection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "predict:session:"
	lockKeyPrefix    = "predict:session-lock:"
	lockTTL          = 5 * time.Second
	lockAttempts     = 20
	lockBackoff      = 25 * time.Millisecond
)

// ErrSessionBusy is returned when a session stays locked by another update.
var ErrSessionBusy = errors.New("session busy")

// unlockScript deletes the lock only while it still holds the caller's token.
const unlockScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// RedisClient is the subset of the Redis client used by RedisStore.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Eval(ctx context.Context, script string, keys []string, args ...any) *redis.Cmd
}

// RedisStore keeps sessions in Redis as JSON with a sliding TTL.
type RedisStore struct {
	client RedisClient
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(client RedisClient, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Create(ctx context.Context, st State) (State, error) {
	st.ID = uuid.NewString()
	st.UpdatedAt = time.Now()
	if err := s.save(ctx, st); err != nil {
		return State{}, err
	}
	return st, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (State, error) {
	raw, err := s.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return State{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
		}
		return State{}, fmt.Errorf("get session: %w", err)
	}

	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		return State{}, fmt.Errorf("decode session %s: %w", id, err)
	}
	return st, nil
}

func (s *RedisStore) Update(ctx context.Context, id string, fn func(*State) error) (State, error) {
	unlock, err := s.lock(ctx, id)
	if err != nil {
		return State{}, err
	}
	defer unlock()

	st, err := s.Get(ctx, id)
	if err != nil {
		return State{}, err
	}
	if err := fn(&st); err != nil {
		return State{}, err
	}
	st.ID = id
	st.UpdatedAt = time.Now()
	if err := s.save(ctx, st); err != nil {
		return State{}, err
	}
	return st, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	n, err := s.client.Del(ctx, sessionKeyPrefix+id).Result()
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return nil
}

func (s *RedisStore) save(ctx context.Context, st State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKeyPrefix+st.ID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// lock takes a short-lived per-session lock so read-modify-write updates from
// concurrent requests do not interleave. The lock value is a random token and
// only the holder of that token releases it.
func (s *RedisStore) lock(ctx context.Context, id string) (func(), error) {
	key := lockKeyPrefix + id
	token := uuid.NewString()
	for attempt := 0; attempt < lockAttempts; attempt++ {
		ok, err := s.client.SetNX(ctx, key, token, lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("lock session: %w", err)
		}
		if ok {
			return func() {
				// Fresh context so a cancelled request still releases the lock.
				evalCtx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				s.client.Eval(evalCtx, unlockScript, []string{key}, token)
			}, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockBackoff):
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrSessionBusy, id)
}
