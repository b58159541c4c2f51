package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/dejobratic/puravida/internal/clock"
	"github.com/dejobratic/puravida/internal/idempotency/memory"
	"github.com/dejobratic/puravida/internal/orders/ports"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 5, 5, 10, 0, 0, 0, time.UTC)

	t.Run("returns nil for unknown keys", func(t *testing.T) {
		store := memory.NewStore(0, clock.NewFixed(now))
		resp, err := store.Get(ctx, "missing")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp != nil {
			t.Errorf("expected nil, got %+v", resp)
		}
	})

	t.Run("keeps the first response for a key", func(t *testing.T) {
		store := memory.NewStore(0, clock.NewFixed(now))
		_ = store.Save(ctx, "k1", ports.StoredResponse{Operation: "finalize", StatusCode: 200, Body: []byte("first"), OrderID: "ORD-1"})
		_ = store.Save(ctx, "k1", ports.StoredResponse{Operation: "finalize", StatusCode: 500, Body: []byte("second"), OrderID: "ORD-1"})

		resp, err := store.Get(ctx, "k1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.StatusCode != 200 || string(resp.Body) != "first" {
			t.Errorf("expected first response, got %d %q", resp.StatusCode, resp.Body)
		}
		if !resp.CreatedAt.Equal(now) {
			t.Errorf("expected created_at %v, got %v", now, resp.CreatedAt)
		}
	})

	t.Run("expires entries after ttl", func(t *testing.T) {
		store := memory.NewStore(time.Hour, clock.NewFixed(now))
		_ = store.Save(ctx, "old", ports.StoredResponse{StatusCode: 201, CreatedAt: now.Add(-2 * time.Hour)})

		resp, err := store.Get(ctx, "old")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp != nil {
			t.Errorf("expected expired entry to be hidden, got %+v", resp)
		}

		_ = store.Save(ctx, "old", ports.StoredResponse{StatusCode: 202})
		resp, _ = store.Get(ctx, "old")
		if resp == nil || resp.StatusCode != 202 {
			t.Errorf("expected expired entry to be replaced, got %+v", resp)
		}
	})

	t.Run("returned body is a copy", func(t *testing.T) {
		store := memory.NewStore(0, clock.NewFixed(now))
		_ = store.Save(ctx, "k", ports.StoredResponse{Body: []byte("abc")})

		resp, _ := store.Get(ctx, "k")
		resp.Body[0] = 'z'

		again, _ := store.Get(ctx, "k")
		if string(again.Body) != "abc" {
			t.Errorf("stored body mutated: %q", again.Body)
		}
	})
}
