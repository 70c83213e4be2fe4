package session

import (
    "context"
    "strconv"
    "sync"
    "time"

    "github.com/redis/go-redis/v9"
)

// Store loads and saves search histories by session key. Implementations
// are best-effort: Load returns an empty history on any failure and Save
// errors are for logging only.
type Store interface {
    Load(ctx context.Context, key string) History
    Save(ctx context.Context, key string, h History) error
}

// defaultTTL bounds how long an idle session's history survives in Redis.
const defaultTTL = 24 * time.Hour

// RedisStore keeps each session's term counters in a Redis hash. It
// follows the same graceful-degradation contract as the response cache:
// a nil client is tolerated and turns every operation into a no-op.
type RedisStore struct {
    rdb    *redis.Client
    prefix string
    ttl    time.Duration
}

// NewRedisStore returns a store backed by the given client, which may be
// nil when Redis is not configured.
func NewRedisStore(rdb *redis.Client) *RedisStore {
    return &RedisStore{rdb: rdb, prefix: "search_hist", ttl: defaultTTL}
}

func (s *RedisStore) Load(ctx context.Context, key string) History {
    h := History{}
    if s.rdb == nil || key == "" {
        return h
    }
    vals, err := s.rdb.HGetAll(ctx, s.prefix+":"+key).Result()
    if err != nil {
        return h
    }
    for term, raw := range vals {
        if n, err := strconv.Atoi(raw); err == nil && n > 0 {
            h[term] = n
        }
    }
    return h
}

func (s *RedisStore) Save(ctx context.Context, key string, h History) error {
    if s.rdb == nil || key == "" || len(h) == 0 {
        return nil
    }
    fields := make(map[string]interface{}, len(h))
    for term, n := range h {
        fields[term] = n
    }
    rkey := s.prefix + ":" + key
    pipe := s.rdb.Pipeline()
    pipe.HSet(ctx, rkey, fields)
    pipe.Expire(ctx, rkey, s.ttl)
    _, err := pipe.Exec(ctx)
    return err
}

// MemoryStore is the fallback when Redis is absent. Histories live in
// process memory for the lifetime of the server, which is acceptable for
// a hint that carries no consistency requirement.
type MemoryStore struct {
    mu       sync.Mutex
    sessions map[string]History
}

// NewMemoryStore returns an empty in-process store.
func NewMemoryStore() *MemoryStore {
    return &MemoryStore{sessions: make(map[string]History)}
}

func (s *MemoryStore) Load(_ context.Context, key string) History {
    s.mu.Lock()
    defer s.mu.Unlock()
    h := History{}
    for term, n := range s.sessions[key] {
        h[term] = n
    }
    return h
}

func (s *MemoryStore) Save(_ context.Context, key string, h History) error {
    if key == "" || len(h) == 0 {
        return nil
    }
    s.mu.Lock()
    defer s.mu.Unlock()
    cp := History{}
    for term, n := range h {
        cp[term] = n
    }
    s.sessions[key] = cp
    return nil
}
