package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/udj/udjserver/internal/auth"
	"github.com/udj/udjserver/internal/model"
)

// Cache key prefixes and TTLs.
const (
	ticketKeyPrefix   = "ticket:"
	negCacheKeySuffix = ":neg"

	// DefaultTicketTTL is the TTL for cached tickets when none is configured.
	DefaultTicketTTL = 5 * time.Minute

	// NegativeCacheTTL is the TTL for unknown-ticket entries.
	NegativeCacheTTL = 30 * time.Second
)

// Common cache errors.
var (
	ErrCacheMiss = errors.New("cache miss")
)

// ticketKey derives the Redis key for a token. Raw tokens are never stored.
func ticketKey(token string) string {
	return ticketKeyPrefix + auth.QuickHash(token)
}

// GetTicket retrieves a cached ticket by token.
// Returns ErrCacheMiss if not found.
func (c *Cache) GetTicket(ctx context.Context, token string) (*model.CachedTicket, error) {
	result, err := c.client.HGetAll(ctx, ticketKey(token)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall failed: %w", err)
	}

	if len(result) == 0 {
		return nil, ErrCacheMiss
	}

	userID, err := strconv.ParseInt(result["user_id"], 10, 64)
	if err != nil {
		// Corrupted entry - treat as miss
		return nil, ErrCacheMiss
	}

	return &model.CachedTicket{
		TicketID: result["ticket_id"],
		UserID:   userID,
	}, nil
}

// SetTicket stores a ticket in cache and clears any negative entry for it.
func (c *Cache) SetTicket(ctx context.Context, ticket *model.Ticket, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTicketTTL
	}
	key := ticketKey(ticket.Hash)
	cached := ticket.ToCachedTicket()

	pipe := c.client.Pipeline()
	pipe.HSet(ctx, key, map[string]any{
		"ticket_id": cached.TicketID,
		"user_id":   strconv.FormatInt(cached.UserID, 10),
	})
	pipe.Expire(ctx, key, ttl)
	pipe.Del(ctx, key+negCacheKeySuffix)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache ticket: %w", err)
	}

	return nil
}

// DeleteTickets removes cached entries for the given tokens.
// Used when a ticket is superseded.
func (c *Cache) DeleteTickets(ctx context.Context, tokens ...string) error {
	if len(tokens) == 0 {
		return nil
	}

	keys := make([]string, 0, len(tokens)*2)
	for _, token := range tokens {
		key := ticketKey(token)
		keys = append(keys, key, key+negCacheKeySuffix)
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete tickets from cache: %w", err)
	}

	return nil
}

// IsTicketNegativelyCached checks if a token is in negative cache.
func (c *Cache) IsTicketNegativelyCached(ctx context.Context, token string) (bool, error) {
	exists, err := c.client.Exists(ctx, ticketKey(token)+negCacheKeySuffix).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check negative cache: %w", err)
	}

	return exists > 0, nil
}

// SetTicketNegativeCache marks a token as unknown.
func (c *Cache) SetTicketNegativeCache(ctx context.Context, token string) error {
	err := c.client.SetEx(ctx, ticketKey(token)+negCacheKeySuffix, "", NegativeCacheTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to set negative cache: %w", err)
	}

	return nil
}
