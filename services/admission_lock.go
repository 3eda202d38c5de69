package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/yeremiapane/restaurant-reservations/metrics"
	"github.com/yeremiapane/restaurant-reservations/models"
	"github.com/yeremiapane/restaurant-reservations/utils"
)

// AdmissionLocker serializes admission-guarded writes for one (date, meal period) slot.
// The returned function releases the lock.
type AdmissionLocker interface {
	Lock(ctx context.Context, date string, period models.MealPeriod) (unlock func(), err error)
}

func slotKey(date string, period models.MealPeriod) string {
	return date + ":" + string(period)
}

// KeyedMutex is an in-process AdmissionLocker.
type KeyedMutex struct {
	mu    sync.Mutex
	slots map[string]*slotLock
}

type slotLock struct {
	ch   chan struct{}
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{slots: make(map[string]*slotLock)}
}

func (k *KeyedMutex) Lock(ctx context.Context, date string, period models.MealPeriod) (func(), error) {
	key := slotKey(date, period)
	start := time.Now()

	k.mu.Lock()
	slot, ok := k.slots[key]
	if !ok {
		slot = &slotLock{ch: make(chan struct{}, 1)}
		k.slots[key] = slot
	}
	slot.refs++
	k.mu.Unlock()

	select {
	case slot.ch <- struct{}{}:
	case <-ctx.Done():
		k.release(key, slot, false)
		return nil, ErrLockTimeout
	}
	metrics.AdmissionLockWait.Observe(time.Since(start).Seconds())

	var once sync.Once
	return func() {
		once.Do(func() { k.release(key, slot, true) })
	}, nil
}

func (k *KeyedMutex) release(key string, slot *slotLock, held bool) {
	if held {
		<-slot.ch
	}
	k.mu.Lock()
	slot.refs--
	if slot.refs == 0 {
		delete(k.slots, key)
	}
	k.mu.Unlock()
}

const redisLockPrefix = "reservation:admission:"

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

var renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// ErrLockTimeout is returned when the slot lock cannot be taken before the context ends.
var ErrLockTimeout = errors.New(msgBusy)

// RedisLocker is an AdmissionLocker shared by every instance pointing at the same Redis.
// While a lock is held its TTL is renewed every ttl/3, so a slow transaction keeps the slot.
// The TTL only bounds how long a crashed holder can block the slot.
type RedisLocker struct {
	client redis.UniversalClient
	ttl    time.Duration
	retry  time.Duration
}

func NewRedisLocker(client redis.UniversalClient, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &RedisLocker{client: client, ttl: ttl, retry: 20 * time.Millisecond}
}

func (r *RedisLocker) Lock(ctx context.Context, date string, period models.MealPeriod) (func(), error) {
	key := redisLockPrefix + slotKey(date, period)
	token, err := lockToken()
	if err != nil {
		return nil, err
	}
	start := time.Now()

	for {
		ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ErrLockTimeout
			}
			return nil, fmt.Errorf("redis setnx: %w", err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ErrLockTimeout
		case <-time.After(r.retry):
		}
	}
	metrics.AdmissionLockWait.Observe(time.Since(start).Seconds())

	stop := make(chan struct{})
	renewed := make(chan struct{})
	go r.renew(key, token, stop, renewed)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-renewed
			// released with a fresh context so a cancelled request still frees the slot
			releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = releaseScript.Run(releaseCtx, r.client, []string{key}, token).Err()
		})
	}, nil
}

func (r *RedisLocker) renew(key, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(r.ttl / 3)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), r.ttl/3)
			kept, err := renewScript.Run(ctx, r.client, []string{key}, token, r.ttl.Milliseconds()).Int()
			cancel()
			if err != nil {
				utils.ErrorLogger.Printf("admission lock %s renew failed: %v", key, err)
				continue
			}
			if kept == 0 {
				utils.ErrorLogger.Printf("admission lock %s lost before release", key)
				return
			}
		}
	}
}

func lockToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
