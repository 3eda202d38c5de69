package services

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-reservations/models"
)

func TestKeyedMutexSerializesSameSlot(t *testing.T) {
	locker := NewKeyedMutex()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		inside  int32
		maxSeen int32
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(ctx, tomorrow, models.MealLunch)
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxSeen)
				if n <= m || atomic.CompareAndSwapInt32(&maxSeen, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxSeen)
	assert.Empty(t, locker.slots)
}

func TestKeyedMutexIndependentSlots(t *testing.T) {
	locker := NewKeyedMutex()
	ctx := context.Background()

	unlockLunch, err := locker.Lock(ctx, tomorrow, models.MealLunch)
	require.NoError(t, err)
	defer unlockLunch()

	done := make(chan struct{})
	go func() {
		unlock, err := locker.Lock(ctx, tomorrow, models.MealDinner)
		if err == nil {
			unlock()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dinner lock blocked behind lunch")
	}
}

func TestKeyedMutexContextTimeout(t *testing.T) {
	locker := NewKeyedMutex()
	unlock, err := locker.Lock(context.Background(), tomorrow, models.MealLunch)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, tomorrow, models.MealLunch)
	assert.ErrorIs(t, err, ErrLockTimeout)

	// unlocking twice is harmless
	unlock()
	unlock()

	again, err := locker.Lock(context.Background(), tomorrow, models.MealLunch)
	require.NoError(t, err)
	again()
}

func TestRedisLocker(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	locker := NewRedisLocker(client, 2*time.Second)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "2099-01-01", models.MealDinner)
	require.NoError(t, err)

	short, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(short, "2099-01-01", models.MealDinner)
	assert.ErrorIs(t, err, ErrLockTimeout)

	unlock()
	unlock2, err := locker.Lock(ctx, "2099-01-01", models.MealDinner)
	require.NoError(t, err)
	unlock2()
}

func TestRedisLockerRenewsWhileHeld(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	// transaksi lebih lama dari TTL tetap memegang slot
	locker := NewRedisLocker(client, 300*time.Millisecond)
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "2099-01-02", models.MealLunch)
	require.NoError(t, err)
	time.Sleep(time.Second)

	short, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(short, "2099-01-02", models.MealLunch)
	assert.ErrorIs(t, err, ErrLockTimeout)

	unlock()
	exists, err := client.Exists(ctx, redisLockPrefix+slotKey("2099-01-02", models.MealLunch)).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), exists)
}
