package runengine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	redisKeyPrefix    = "formulab:run:"
	redisActiveSet    = "formulab:runs:active"
	redisOperatorSet  = "formulab:runs:operator:"
	redisLockPrefix   = "formulab:lock:"
	defaultSessionTTL = 7 * 24 * time.Hour
	defaultLockTTL    = 10 * time.Second
	lockRetryMin      = 5 * time.Millisecond
	lockRetryMax      = 200 * time.Millisecond
)

// deletes the lock only while it still holds the caller's token
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

var _ SessionStore = (*RedisStore)(nil)

// RedisStore keeps run sessions in redis as JSON documents, with a set of
// running session ids and one set of session ids per operator
type RedisStore struct {
	rdb     *redis.Client
	ttl     time.Duration
	lockTTL time.Duration
	log     *zap.Logger
}

// NewRedisStore creates a redis backed session store. A zero ttl uses 7 days.
func NewRedisStore(rdb *redis.Client, ttl time.Duration, log *zap.Logger) *RedisStore {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &RedisStore{rdb: rdb, ttl: ttl, lockTTL: defaultLockTTL, log: log}
}

func sessionKey(id string) string {
	return redisKeyPrefix + id
}

func operatorKey(operatorID string) string {
	return redisOperatorSet + operatorID
}

// Save writes the session and updates the index sets
func (s *RedisStore) Save(ctx context.Context, session *Session) error {
	body, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", session.ID, err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, sessionKey(session.ID), body, s.ttl)
	if session.State == StateRunning {
		pipe.SAdd(ctx, redisActiveSet, session.ID)
	} else {
		pipe.SRem(ctx, redisActiveSet, session.ID)
	}
	pipe.SAdd(ctx, operatorKey(session.OperatorID), session.ID)
	pipe.Expire(ctx, operatorKey(session.OperatorID), s.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("saving session %s: %w", session.ID, err)
	}
	return nil
}

// Load reads a session by id
func (s *RedisStore) Load(ctx context.Context, id string) (*Session, error) {
	body, err := s.rdb.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", id, err)
	}

	var sess Session
	if err := json.Unmarshal(body, &sess); err != nil {
		return nil, fmt.Errorf("decoding session %s: %w", id, err)
	}
	if sess.Values == nil {
		sess.Values = make(map[string]float64)
	}
	return &sess, nil
}

// Delete removes a session and its index entries
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	sess, err := s.Load(ctx, id)
	if err != nil {
		return err
	}

	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, sessionKey(id))
	pipe.SRem(ctx, redisActiveSet, id)
	pipe.SRem(ctx, operatorKey(sess.OperatorID), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	return nil
}

// ListActive returns all running sessions
func (s *RedisStore) ListActive(ctx context.Context) ([]*Session, error) {
	return s.loadSet(ctx, redisActiveSet)
}

// ListByOperator returns every stored session of an operator
func (s *RedisStore) ListByOperator(ctx context.Context, operatorID string) ([]*Session, error) {
	return s.loadSet(ctx, operatorKey(operatorID))
}

// loadSet loads the sessions of an index set, pruning ids whose document expired
func (s *RedisStore) loadSet(ctx context.Context, setKey string) ([]*Session, error) {
	ids, err := s.rdb.SMembers(ctx, setKey).Result()
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", setKey, err)
	}

	out := make([]*Session, 0, len(ids))
	for _, id := range ids {
		sess, err := s.Load(ctx, id)
		if errors.Is(err, ErrRunNotFound) {
			s.rdb.SRem(ctx, setKey, id)
			continue
		}
		if err != nil {
			s.log.Warn("skipping unreadable run session", zap.String("session_id", id), zap.Error(err))
			continue
		}
		out = append(out, sess)
	}
	return out, nil
}

// Lock takes a named lock with SET NX PX and a random token. The lock
// expires after the lock ttl if its holder dies.
func (s *RedisStore) Lock(ctx context.Context, key string) (func(), error) {
	lockKey := redisLockPrefix + key
	token := uuid.NewString()

	wait := lockRetryMin
	for {
		ok, err := s.rdb.SetNX(ctx, lockKey, token, s.lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("locking %s: %w", key, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("locking %s: %w", key, ctx.Err())
		case <-time.After(wait):
		}
		wait = min(wait*2, lockRetryMax)
	}

	return func() {
		// the lock must be released even when the request was cancelled
		if err := unlockScript.Run(context.WithoutCancel(ctx), s.rdb, []string{lockKey}, token).Err(); err != nil {
			s.log.Warn("releasing run lock", zap.String("key", key), zap.Error(err))
		}
	}, nil
}
