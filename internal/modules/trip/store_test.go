package trip

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, exists, _ := store.Get(ctx, "u1"); exists {
		t.Fatal("fresh store should have no session")
	}

	rec := Record{Origin: strPtr("Madrid, Spain")}
	if err := store.Put(ctx, "u1", rec); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, exists, err := store.Get(ctx, "u1")
	if err != nil || !exists {
		t.Fatalf("get: exists=%v err=%v", exists, err)
	}
	if got.Origin == nil || *got.Origin != "Madrid, Spain" {
		t.Errorf("got %+v", got)
	}

	if n, _ := store.Count(ctx); n != 1 {
		t.Errorf("count = %d, want 1", n)
	}

	if err := store.Delete(ctx, "u1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, exists, _ := store.Get(ctx, "u1"); exists {
		t.Error("session survived delete")
	}
	if n, _ := store.Count(ctx); n != 0 {
		t.Errorf("count after delete = %d, want 0", n)
	}
}

func TestMemoryStoreConcurrentIdentities(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := fmt.Sprintf("u%d", n)
			_ = store.Put(ctx, id, Record{Passengers: intPtr(n + 1)})
			if _, exists, _ := store.Get(ctx, id); !exists {
				t.Errorf("session %s lost", id)
			}
		}(i)
	}
	wg.Wait()

	if n, _ := store.Count(ctx); n != 50 {
		t.Errorf("count = %d, want 50", n)
	}
}

func TestRedisStoreRoundTrip(t *testing.T) {
	redisAddr := os.Getenv("TRIPFLOW_REDIS_ADDR")
	if redisAddr == "" {
		t.Skip("TRIPFLOW_REDIS_ADDR not set; skipping integration test")
	}

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer rdb.Close()

	store := NewRedisStore(rdb, 0)
	ctx := context.Background()
	uid := fmt.Sprintf("store_test_%d", time.Now().UnixNano())
	t.Cleanup(func() { _ = store.Delete(context.Background(), uid) })

	rec := Record{
		Passengers:      intPtr(2),
		Origin:          strPtr("Madrid, Spain"),
		BudgetPerPerson: floatPtr(800),
	}
	if err := store.Put(ctx, uid, rec); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, exists, err := store.Get(ctx, uid)
	if err != nil || !exists {
		t.Fatalf("get: exists=%v err=%v", exists, err)
	}
	if got.Passengers == nil || *got.Passengers != 2 {
		t.Errorf("passengers = %v, want 2", got.Passengers)
	}
	if got.Destination != nil {
		t.Errorf("destination = %v, want nil", *got.Destination)
	}

	if err := store.Delete(ctx, uid); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, exists, _ := store.Get(ctx, uid); exists {
		t.Error("session survived delete")
	}
}
