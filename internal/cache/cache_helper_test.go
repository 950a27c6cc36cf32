package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func testHelper(t *testing.T) (*CacheHelper, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewCacheHelper(client, "test:"), mr
}

type rosterEntry struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func TestGetSetRoundtrip(t *testing.T) {
	helper, _ := testHelper(t)
	ctx := context.Background()

	want := rosterEntry{ID: 7, Name: "Ayşe Yılmaz"}
	if err := helper.Set(ctx, "student:7", want, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	var got rosterEntry
	if err := helper.Get(ctx, "student:7", &got); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestGetMiss(t *testing.T) {
	helper, _ := testHelper(t)

	var got rosterEntry
	if err := helper.Get(context.Background(), "missing", &got); err != ErrCacheNotFound {
		t.Errorf("expected ErrCacheNotFound, got %v", err)
	}
}

func TestNilClientDegradesGracefully(t *testing.T) {
	helper := NewCacheHelper(nil, "test:")
	ctx := context.Background()

	if err := helper.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Errorf("Set on nil client should be a no-op, got %v", err)
	}
	if err := helper.Get(ctx, "k", &struct{}{}); err != ErrCacheNotAvailable {
		t.Errorf("expected ErrCacheNotAvailable, got %v", err)
	}
	if err := helper.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete on nil client should be a no-op, got %v", err)
	}
}

func TestDeleteAndExists(t *testing.T) {
	helper, _ := testHelper(t)
	ctx := context.Background()

	if err := helper.SetString(ctx, "a", "1", time.Minute); err != nil {
		t.Fatalf("SetString: %v", err)
	}
	if err := helper.SetString(ctx, "b", "2", time.Minute); err != nil {
		t.Fatalf("SetString: %v", err)
	}

	ok, err := helper.Exists(ctx, "a")
	if err != nil || !ok {
		t.Fatalf("Exists(a) = %v, %v", ok, err)
	}

	if err := helper.Delete(ctx, "a", "b"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	ok, err = helper.Exists(ctx, "a")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if ok {
		t.Error("key a should be gone")
	}
}

func TestKeyPrefixing(t *testing.T) {
	helper, mr := testHelper(t)
	ctx := context.Background()

	if err := helper.SetString(ctx, "user:1", "admin", time.Minute); err != nil {
		t.Fatalf("SetString: %v", err)
	}

	if !mr.Exists("test:user:1") {
		t.Error("expected raw key test:user:1 in redis")
	}
}

func TestSetWithConfigAppliesTTL(t *testing.T) {
	helper, mr := testHelper(t)
	ctx := context.Background()

	if err := helper.SetWithConfig(ctx, "school:1", rosterEntry{ID: 1}, ScheduleCacheConfig); err != nil {
		t.Fatalf("SetWithConfig: %v", err)
	}

	var got rosterEntry
	if err := helper.GetWithConfig(ctx, "school:1", &got, ScheduleCacheConfig); err != nil {
		t.Fatalf("GetWithConfig: %v", err)
	}

	mr.FastForward(ScheduleCacheConfig.TTL + time.Second)

	if err := helper.GetWithConfig(ctx, "school:1", &got, ScheduleCacheConfig); err != ErrCacheNotFound {
		t.Errorf("expected expiry after TTL, got %v", err)
	}
}

func TestInvalidatePattern(t *testing.T) {
	helper, _ := testHelper(t)
	ctx := context.Background()

	for _, k := range []string{"list:1:page1", "list:1:page2", "list:2:page1"} {
		if err := helper.SetString(ctx, k, "x", time.Minute); err != nil {
			t.Fatalf("SetString: %v", err)
		}
	}

	if err := helper.InvalidatePattern(ctx, "list:1:*"); err != nil {
		t.Fatalf("InvalidatePattern: %v", err)
	}

	if ok, _ := helper.Exists(ctx, "list:1:page1"); ok {
		t.Error("list:1:page1 should be invalidated")
	}
	if ok, _ := helper.Exists(ctx, "list:2:page1"); !ok {
		t.Error("list:2:page1 should survive")
	}
}

func TestGetMultiple(t *testing.T) {
	helper, _ := testHelper(t)
	ctx := context.Background()

	if err := helper.SetString(ctx, "a", "1", time.Minute); err != nil {
		t.Fatalf("SetString: %v", err)
	}
	if err := helper.SetString(ctx, "c", "3", time.Minute); err != nil {
		t.Fatalf("SetString: %v", err)
	}

	got, err := helper.GetMultiple(ctx, []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("GetMultiple: %v", err)
	}
	if len(got) != 2 || got["a"] != "1" || got["c"] != "3" {
		t.Errorf("unexpected result %v", got)
	}
}

func TestCacheOrExecute(t *testing.T) {
	helper, _ := testHelper(t)
	ctx := context.Background()

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return rosterEntry{ID: 9, Name: "Mehmet"}, nil
	}

	var got rosterEntry
	if err := helper.CacheOrExecute(ctx, "entry:9", &got, time.Minute, fetch); err != nil {
		t.Fatalf("CacheOrExecute: %v", err)
	}
	if calls != 1 || got.ID != 9 {
		t.Fatalf("fetch calls = %d, got %+v", calls, got)
	}

	// The write-behind goroutine needs a moment to land.
	deadline := time.Now().Add(time.Second)
	for {
		if ok, _ := helper.Exists(ctx, "entry:9"); ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("cached value never appeared")
		}
		time.Sleep(5 * time.Millisecond)
	}

	var again rosterEntry
	if err := helper.CacheOrExecute(ctx, "entry:9", &again, time.Minute, fetch); err != nil {
		t.Fatalf("CacheOrExecute: %v", err)
	}
	if calls != 1 {
		t.Errorf("second call should hit the cache, fetch calls = %d", calls)
	}
	if again != got {
		t.Errorf("cache returned %+v, want %+v", again, got)
	}
}

func TestCacheManagerHealthCheck(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cm := NewCacheManager(client)
	if err := cm.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}

	nilCM := NewCacheManager(nil)
	if err := nilCM.HealthCheck(context.Background()); err != ErrCacheNotAvailable {
		t.Errorf("expected ErrCacheNotAvailable, got %v", err)
	}
}

func TestInvalidateStudentCaches(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cm := NewCacheManager(client)
	ctx := context.Background()

	if err := cm.Student.SetString(ctx, "id:1:7", "x", time.Minute); err != nil {
		t.Fatalf("SetString: %v", err)
	}
	if err := cm.Student.SetString(ctx, "list:1:page1", "x", time.Minute); err != nil {
		t.Fatalf("SetString: %v", err)
	}
	if err := cm.Student.SetString(ctx, "id:2:9", "x", time.Minute); err != nil {
		t.Fatalf("SetString: %v", err)
	}

	InvalidateStudentCache(ctx, cm, 1, 7)

	if ok, _ := cm.Student.Exists(ctx, "id:1:7"); ok {
		t.Error("id:1:7 should be invalidated")
	}
	if ok, _ := cm.Student.Exists(ctx, "list:1:page1"); ok {
		t.Error("list:1:page1 should be invalidated")
	}
	if ok, _ := cm.Student.Exists(ctx, "id:2:9"); !ok {
		t.Error("other tenant's entry should survive")
	}
}
