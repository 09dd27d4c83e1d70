package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

type cachedDoc struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	if err := mc.Set(ctx, "s", "hello", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	var s string
	if err := mc.Get(ctx, "s", &s); err != nil || s != "hello" {
		t.Fatalf("string round trip: %v %q", err, s)
	}

	in := cachedDoc{Name: "acme", Score: 61.54}
	if err := mc.Set(ctx, "d", in, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	var out cachedDoc
	if err := mc.Get(ctx, "d", &out); err != nil {
		t.Fatalf("typed get: %v", err)
	}
	if out != in {
		t.Fatalf("typed round trip: %+v", out)
	}

	var raw interface{}
	if err := mc.Get(ctx, "d", &raw); err != nil {
		t.Fatalf("interface get: %v", err)
	}
	if _, ok := raw.(cachedDoc); !ok {
		t.Fatalf("interface dest must see the stored value, got %T", raw)
	}
}

func TestMemoryCacheMissAndExpiry(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	var s string
	if err := mc.Get(ctx, "absent", &s); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss, got %v", err)
	}

	if err := mc.Set(ctx, "short", "x", 10*time.Millisecond); err != nil {
		t.Fatalf("set: %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	if err := mc.Get(ctx, "short", &s); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected expired miss, got %v", err)
	}
}

func TestMemoryCacheEviction(t *testing.T) {
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()
	ctx := context.Background()

	mc.Set(ctx, "a", "1", time.Minute)
	time.Sleep(2 * time.Millisecond)
	mc.Set(ctx, "b", "2", time.Minute)
	time.Sleep(2 * time.Millisecond)
	mc.Set(ctx, "c", "3", time.Minute)

	var got string
	if err := mc.Get(ctx, "a", &got); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("oldest key must be evicted, got err %v", err)
	}
	if err := mc.Get(ctx, "c", &got); err != nil {
		t.Fatalf("newest key must survive: %v", err)
	}
}

func TestMemoryCacheDeleteByPattern(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	mc.Set(ctx, "summary:ACME:1d:500", "1", time.Minute)
	mc.Set(ctx, "summary:ACME:1h:100", "2", time.Minute)
	mc.Set(ctx, "summary:OTHR:1d:500", "3", time.Minute)

	if err := mc.DeleteByPattern(ctx, "summary:ACME:*"); err != nil {
		t.Fatalf("delete by pattern: %v", err)
	}
	var got string
	if err := mc.Get(ctx, "summary:ACME:1d:500", &got); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("prefix match must clear 1d key, got err %v", err)
	}
	if err := mc.Get(ctx, "summary:ACME:1h:100", &got); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("prefix match must clear 1h key, got err %v", err)
	}
	if err := mc.Get(ctx, "summary:OTHR:1d:500", &got); err != nil {
		t.Fatalf("other symbol must survive: %v", err)
	}

	if err := mc.DeleteByPattern(ctx, "summary:OTHR:1d:500"); err != nil {
		t.Fatalf("exact delete: %v", err)
	}
	if err := mc.Get(ctx, "summary:OTHR:1d:500", &got); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("exact pattern must clear the key, got err %v", err)
	}
}

func TestMemoryCacheTryLock(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	ok, err := mc.TryLock(ctx, "lock:job", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first lock: %v %v", ok, err)
	}
	if ok, _ := mc.TryLock(ctx, "lock:job", time.Minute); ok {
		t.Fatal("second lock must fail while held")
	}
	if err := mc.Unlock(ctx, "lock:job"); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if ok, _ := mc.TryLock(ctx, "lock:job", time.Minute); !ok {
		t.Fatal("lock must be free after unlock")
	}
}

func TestMemoryCacheIncrement(t *testing.T) {
	mc := NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := mc.Increment(ctx, "hits")
		if err != nil || got != want {
			t.Fatalf("increment: got %d want %d (%v)", got, want, err)
		}
	}
}
