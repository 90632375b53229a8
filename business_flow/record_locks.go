package businessflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RecordLocker serializes recalculations of one price record
type RecordLocker interface {
	// Lock blocks until the record is held or ctx is done. The returned
	// function releases the lock and is safe to call once.
	Lock(ctx context.Context, recordID uint) (func(), error)
}

type keyedMutex struct {
	mu   sync.Mutex
	refs int
}

// LocalRecordLocker is an in-process keyed mutex
type LocalRecordLocker struct {
	mu    sync.Mutex
	locks map[uint]*keyedMutex
}

func NewLocalRecordLocker() *LocalRecordLocker {
	return &LocalRecordLocker{locks: make(map[uint]*keyedMutex)}
}

func (l *LocalRecordLocker) Lock(ctx context.Context, recordID uint) (func(), error) {
	l.mu.Lock()
	km, ok := l.locks[recordID]
	if !ok {
		km = &keyedMutex{}
		l.locks[recordID] = km
	}
	km.refs++
	l.mu.Unlock()

	acquired := make(chan struct{})
	go func() {
		km.mu.Lock()
		close(acquired)
	}()

	select {
	case <-acquired:
	case <-ctx.Done():
		// the goroutine still takes the mutex; hand it back once it does
		go func() {
			<-acquired
			l.release(recordID, km)
		}()
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.release(recordID, km) })
	}, nil
}

func (l *LocalRecordLocker) release(recordID uint, km *keyedMutex) {
	km.mu.Unlock()
	l.mu.Lock()
	km.refs--
	if km.refs == 0 {
		delete(l.locks, recordID)
	}
	l.mu.Unlock()
}

// held returns the number of records with a holder or waiter
func (l *LocalRecordLocker) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

// releaseScript deletes the key only if it still carries our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisRecordLocker takes the in-process lock first and then a Redis
// SET NX PX lease so that replicas sharing the database also serialize.
type RedisRecordLocker struct {
	local     *LocalRecordLocker
	rc        *redis.Client
	prefix    string
	ttl       time.Duration
	retryWait time.Duration
}

func NewRedisRecordLocker(rc *redis.Client, prefix string, ttl time.Duration) *RedisRecordLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisRecordLocker{
		local:     NewLocalRecordLocker(),
		rc:        rc,
		prefix:    prefix,
		ttl:       ttl,
		retryWait: 50 * time.Millisecond,
	}
}

func (l *RedisRecordLocker) key(recordID uint) string {
	return fmt.Sprintf("%spricing:lock:record:%d", l.prefix, recordID)
}

func (l *RedisRecordLocker) Lock(ctx context.Context, recordID uint) (func(), error) {
	unlockLocal, err := l.local.Lock(ctx, recordID)
	if err != nil {
		return nil, err
	}

	key := l.key(recordID)
	token := uuid.NewString()
	for {
		ok, err := l.rc.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			unlockLocal()
			return nil, fmt.Errorf("failed to acquire lock for price record %d: %w", recordID, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			unlockLocal()
			return nil, fmt.Errorf("%w: record %d: %w", ErrRecordLocked, recordID, ctx.Err())
		case <-time.After(l.retryWait):
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// release with a fresh context: the caller's may already be cancelled
			rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = releaseScript.Run(rctx, l.rc, []string{key}, token).Err()
			unlockLocal()
		})
	}, nil
}
