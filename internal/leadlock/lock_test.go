package leadlock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
)

func TestLocalSerializesSameKey(t *testing.T) {
	locker := NewLocal()
	ctx := context.Background()

	var active, maxActive int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Lock(ctx, "Jane@Example.com ")
			if err != nil {
				t.Errorf("Lock failed: %v", err)
				return
			}
			n := atomic.AddInt32(&active, 1)
			for {
				prev := atomic.LoadInt32(&maxActive)
				if n <= prev || atomic.CompareAndSwapInt32(&maxActive, prev, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&active, -1)
			release()
		}()
	}
	wg.Wait()

	if maxActive != 1 {
		t.Fatalf("expected one holder at a time, saw %d", maxActive)
	}
	if locker.size() != 0 {
		t.Fatalf("expected entries to be dropped, %d remain", locker.size())
	}
}

func TestLocalDifferentKeysDoNotBlock(t *testing.T) {
	locker := NewLocal()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	releaseA, err := locker.Lock(ctx, "a@example.com")
	if err != nil {
		t.Fatalf("Lock a failed: %v", err)
	}
	defer releaseA()
	releaseB, err := locker.Lock(ctx, "b@example.com")
	if err != nil {
		t.Fatalf("Lock b failed: %v", err)
	}
	releaseB()
}

func TestLocalHonorsContextCancellation(t *testing.T) {
	locker := NewLocal()
	release, err := locker.Lock(context.Background(), "a@example.com")
	if err != nil {
		t.Fatalf("Lock failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := locker.Lock(ctx, "A@example.com"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	release()
	release()
	if locker.size() != 0 {
		t.Fatalf("expected no entries after release, got %d", locker.size())
	}
}

func TestKeyNormalizesEmail(t *testing.T) {
	if got := Key("  Jane@Example.COM "); got != "jane@example.com" {
		t.Fatalf("Key = %q", got)
	}
}

func TestRedisLockReportsUnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 200 * time.Millisecond})
	defer client.Close()

	locker := NewRedis(client, WithWait(0), WithTTL(time.Second))
	if _, err := locker.Lock(context.Background(), "a@example.com"); err == nil || errors.Is(err, ErrLockTimeout) {
		t.Fatalf("expected connection error, got %v", err)
	}
}

func TestDialRedisRejectsBadURL(t *testing.T) {
	if _, _, err := DialRedis("://nope"); err == nil {
		t.Fatal("expected parse error")
	}
	locker, client, err := DialRedis("redis://localhost:6379/2", WithPollInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("DialRedis failed: %v", err)
	}
	defer client.Close()
	if locker.poll != 10*time.Millisecond || client.Options().DB != 2 {
		t.Fatalf("unexpected locker settings poll=%s db=%d", locker.poll, client.Options().DB)
	}
}
