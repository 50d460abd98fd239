package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yeremiapane/restaurant-pos/models"
)

// DefaultPushWindow is how long an identical transition for the same unit
// is suppressed after being pushed.
const DefaultPushWindow = 60 * time.Second

// PushGuard remembers the last status pushed per unit. Allow reports
// whether pushing status for key now is permitted and, if so, records it.
type PushGuard interface {
	Allow(ctx context.Context, key string, status models.UnitStatus, now time.Time) (bool, error)
}

func UnitKey(kind models.UnitKind, id int) string {
	return fmt.Sprintf("%s:%d", kind, id)
}

type pushRecord struct {
	status models.UnitStatus
	at     time.Time
}

// MemoryGuard is local to one process.
type MemoryGuard struct {
	Window time.Duration

	mu   sync.Mutex
	last map[string]pushRecord
}

func NewMemoryGuard(window time.Duration) *MemoryGuard {
	return &MemoryGuard{Window: window, last: make(map[string]pushRecord)}
}

func (g *MemoryGuard) Allow(_ context.Context, key string, status models.UnitStatus, now time.Time) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if rec, ok := g.last[key]; ok && rec.status == status && now.Sub(rec.at) < g.Window {
		return false, nil
	}
	g.last[key] = pushRecord{status: status, at: now}
	return true, nil
}

// allowScript stores the pushed status with a TTL unless the same status is
// already there. A suppressed push leaves the TTL alone.
var allowScript = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
if current == ARGV[1] then
  return 0
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
return 1
`)

// RedisGuard shares the suppression window between instances.
type RedisGuard struct {
	Client redis.Scripter
	Window time.Duration
	Prefix string
}

func NewRedisGuard(client redis.Scripter, window time.Duration) *RedisGuard {
	return &RedisGuard{Client: client, Window: window, Prefix: "pos:push:"}
}

func (g *RedisGuard) Allow(ctx context.Context, key string, status models.UnitStatus, _ time.Time) (bool, error) {
	res, err := allowScript.Run(ctx, g.Client, []string{g.Prefix + key}, string(status), g.Window.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("push guard %s: %w", key, err)
	}
	return res == 1, nil
}
