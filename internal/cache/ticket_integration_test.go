//go:build integration

package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/udj/udjserver/internal/model"
	"github.com/udj/udjserver/internal/testutil"
)

func newCacheTestEnv(t *testing.T) (context.Context, *Cache) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	redisURL := testutil.RequireEnv(t, "REDIS_URL")

	c, err := New(ctx, redisURL)
	if err != nil {
		t.Fatalf("connect redis: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	if err := testutil.FlushRedis(ctx, c.Client()); err != nil {
		t.Fatalf("flush redis: %v", err)
	}
	return ctx, c
}

func TestIntegrationTicketCache_SetGetDelete(t *testing.T) {
	ctx, c := newCacheTestEnv(t)
	ticket := testutil.NewTestTicket(t, 42)

	if _, err := c.GetTicket(ctx, ticket.Hash); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss before set, got %v", err)
	}

	if err := c.SetTicket(ctx, ticket, time.Minute); err != nil {
		t.Fatalf("SetTicket failed: %v", err)
	}

	got, err := c.GetTicket(ctx, ticket.Hash)
	if err != nil {
		t.Fatalf("GetTicket failed: %v", err)
	}
	want := model.CachedTicket{TicketID: ticket.ID, UserID: 42}
	if *got != want {
		t.Errorf("GetTicket = %+v, want %+v", *got, want)
	}

	ttl, err := c.Client().TTL(ctx, ticketKey(ticket.Hash)).Result()
	if err != nil {
		t.Fatalf("TTL failed: %v", err)
	}
	if ttl <= 0 || ttl > time.Minute {
		t.Errorf("unexpected TTL %s", ttl)
	}

	if err := c.DeleteTickets(ctx, ticket.Hash); err != nil {
		t.Fatalf("DeleteTickets failed: %v", err)
	}
	if _, err := c.GetTicket(ctx, ticket.Hash); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("expected ErrCacheMiss after delete, got %v", err)
	}
}

func TestIntegrationTicketCache_NegativeEntry(t *testing.T) {
	ctx, c := newCacheTestEnv(t)
	ticket := testutil.NewTestTicket(t, 7)

	if err := c.SetTicketNegativeCache(ctx, ticket.Hash); err != nil {
		t.Fatalf("SetTicketNegativeCache failed: %v", err)
	}
	neg, err := c.IsTicketNegativelyCached(ctx, ticket.Hash)
	if err != nil {
		t.Fatalf("IsTicketNegativelyCached failed: %v", err)
	}
	if !neg {
		t.Fatal("expected negative entry")
	}

	// Caching the ticket clears the negative entry.
	if err := c.SetTicket(ctx, ticket, 0); err != nil {
		t.Fatalf("SetTicket failed: %v", err)
	}
	neg, err = c.IsTicketNegativelyCached(ctx, ticket.Hash)
	if err != nil {
		t.Fatalf("IsTicketNegativelyCached failed: %v", err)
	}
	if neg {
		t.Error("negative entry should be cleared by SetTicket")
	}
}

func TestIntegrationTicketCache_DeleteTicketsEmpty(t *testing.T) {
	ctx, c := newCacheTestEnv(t)

	if err := c.DeleteTickets(ctx); err != nil {
		t.Errorf("DeleteTickets with no tokens should be a no-op, got %v", err)
	}
}

func TestIntegrationRateLimit_ScopesAreIndependent(t *testing.T) {
	ctx, c := newCacheTestEnv(t)

	res, err := c.CheckIPRateLimit(ctx, "auth", "10.0.0.1", 1, 1)
	if err != nil || !res.Allowed {
		t.Fatalf("first auth request should pass: %+v %v", res, err)
	}
	res, _ = c.CheckIPRateLimit(ctx, "auth", "10.0.0.1", 1, 1)
	if res.Allowed {
		t.Error("second auth request should be limited")
	}
	res, _ = c.CheckIPRateLimit(ctx, "other", "10.0.0.1", 1, 1)
	if !res.Allowed {
		t.Error("a different scope should have its own bucket")
	}
}
