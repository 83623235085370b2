// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/udj/udjserver/internal/auth"
	"github.com/udj/udjserver/internal/cache"
	"github.com/udj/udjserver/internal/metrics"
	"github.com/udj/udjserver/internal/model"
	"github.com/udj/udjserver/internal/repository"
)

// Service errors.
var (
	ErrMalformedCredentials = model.ErrMalformedCredentials
	ErrUserNotFound         = errors.New("user not found")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrTicketHashExhausted  = errors.New("could not allocate a unique ticket hash")
	ErrInvalidTicket        = errors.New("invalid ticket")
)

// DefaultMaxAttempts bounds ticket hash draws when none is configured.
const DefaultMaxAttempts = 5

// UserStore looks up users by login name.
type UserStore interface {
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
}

// TicketStore persists tickets.
type TicketStore interface {
	ReplaceTicket(ctx context.Context, userID int64, next repository.TokenSource, maxAttempts int) (*repository.ReplaceResult, error)
	GetTicketByHash(ctx context.Context, hash string) (*model.Ticket, error)
}

// TicketCache caches token lookups. Failures are logged, never fatal.
type TicketCache interface {
	GetTicket(ctx context.Context, token string) (*model.CachedTicket, error)
	SetTicket(ctx context.Context, ticket *model.Ticket, ttl time.Duration) error
	DeleteTickets(ctx context.Context, tokens ...string) error
	IsTicketNegativelyCached(ctx context.Context, token string) (bool, error)
	SetTicketNegativeCache(ctx context.Context, token string) error
}

// CredentialVerifier checks a plaintext password against a stored user.
// A false result with a nil error means the password is wrong.
type CredentialVerifier interface {
	Verify(user *model.User, plaintext string) (bool, error)
}

// TicketServiceConfig tunes ticket issuance.
type TicketServiceConfig struct {
	MaxAttempts int
	CacheTTL    time.Duration
	// TokenSource overrides auth.GenerateTicketHash. Used in tests.
	TokenSource repository.TokenSource
}

// TicketService issues and validates tickets.
type TicketService struct {
	users    UserStore
	tickets  TicketStore
	cache    TicketCache
	verifier CredentialVerifier
	metrics  metrics.Recorder
	logger   *slog.Logger

	maxAttempts int
	cacheTTL    time.Duration
	nextToken   repository.TokenSource
}

// NewTicketService creates a new TicketService.
// cache may be nil, in which case every validation reads storage.
func NewTicketService(
	users UserStore,
	tickets TicketStore,
	ticketCache TicketCache,
	verifier CredentialVerifier,
	recorder metrics.Recorder,
	logger *slog.Logger,
	cfg TicketServiceConfig,
) *TicketService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = cache.DefaultTicketTTL
	}
	if cfg.TokenSource == nil {
		cfg.TokenSource = auth.GenerateTicketHash
	}
	return &TicketService{
		users:       users,
		tickets:     tickets,
		cache:       ticketCache,
		verifier:    verifier,
		metrics:     recorder,
		logger:      logger.With("component", "service.ticket"),
		maxAttempts: cfg.MaxAttempts,
		cacheTTL:    cfg.CacheTTL,
		nextToken:   cfg.TokenSource,
	}
}

// Authenticate verifies creds and replaces the user's ticket with a new one.
//
// Errors map to the caller's response:
// ErrMalformedCredentials, ErrUserNotFound, ErrInvalidCredentials, and
// anything else (including ErrTicketHashExhausted) is internal.
// On every error path the user's existing ticket is left unchanged.
func (s *TicketService) Authenticate(ctx context.Context, creds model.Credentials) (*model.Ticket, error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveAuthDuration(time.Since(start))
	}()

	if err := creds.Validate(); err != nil {
		s.metrics.IncAuthAttempt(metrics.OutcomeMalformed)
		return nil, ErrMalformedCredentials
	}

	user, err := s.users.GetUserByUsername(ctx, creds.Username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.metrics.IncAuthAttempt(metrics.OutcomeUnknownUser)
			return nil, ErrUserNotFound
		}
		s.metrics.IncAuthAttempt(metrics.OutcomeError)
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	ok, err := s.verifier.Verify(user, creds.Password)
	if err != nil {
		s.metrics.IncAuthAttempt(metrics.OutcomeError)
		return nil, fmt.Errorf("failed to verify password for user %d: %w", user.ID, err)
	}
	if !ok {
		s.metrics.IncAuthAttempt(metrics.OutcomeBadPassword)
		return nil, ErrInvalidCredentials
	}

	result, err := s.tickets.ReplaceTicket(ctx, user.ID, s.nextToken, s.maxAttempts)
	if err != nil {
		s.metrics.IncAuthAttempt(metrics.OutcomeError)
		switch {
		case errors.Is(err, repository.ErrTicketHashExhausted):
			s.metrics.IncTicketHashCollision(s.maxAttempts)
			return nil, ErrTicketHashExhausted
		case errors.Is(err, repository.ErrUserNotFound):
			// Deleted between lookup and lock.
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to replace ticket: %w", err)
	}

	s.metrics.IncTicketHashCollision(result.Collisions)
	s.metrics.IncTicketIssued()
	s.metrics.IncAuthAttempt(metrics.OutcomeSuccess)

	s.refreshCache(ctx, result)

	return result.Ticket, nil
}

// refreshCache drops superseded tokens and warms the cache with the new one.
func (s *TicketService) refreshCache(ctx context.Context, result *repository.ReplaceResult) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteTickets(ctx, result.Superseded...); err != nil {
		s.logger.Warn("failed to invalidate superseded tickets",
			"user_id", result.Ticket.UserID,
			"count", len(result.Superseded),
			"error", err,
		)
	}
	if err := s.cache.SetTicket(ctx, result.Ticket, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache ticket",
			"user_id", result.Ticket.UserID,
			"ticket", result.Ticket.ShortHash(),
			"error", err,
		)
	}
}

// Validate resolves a ticket token to its owner's user ID.
// Returns ErrInvalidTicket for malformed or unknown tokens.
func (s *TicketService) Validate(ctx context.Context, token string) (int64, error) {
	if !auth.ValidTicketHash(token) {
		return 0, ErrInvalidTicket
	}

	if s.cache != nil {
		cached, err := s.cache.GetTicket(ctx, token)
		if err == nil {
			s.metrics.IncTicketCacheHit()
			return cached.UserID, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("ticket cache lookup failed", "error", err)
		}
		s.metrics.IncTicketCacheMiss()

		neg, err := s.cache.IsTicketNegativelyCached(ctx, token)
		if err == nil && neg {
			return 0, ErrInvalidTicket
		}
	}

	ticket, err := s.tickets.GetTicketByHash(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			if s.cache != nil {
				if cerr := s.cache.SetTicketNegativeCache(ctx, token); cerr != nil {
					s.logger.Warn("failed to set negative ticket cache", "error", cerr)
				}
			}
			return 0, ErrInvalidTicket
		}
		return 0, fmt.Errorf("failed to look up ticket: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetTicket(ctx, ticket, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache ticket", "ticket", ticket.ShortHash(), "error", err)
		} else {
			return s.confirmCachedTicket(ctx, ticket)
		}
	}

	return ticket.UserID, nil
}

// confirmCachedTicket re-reads a ticket after it was written to the cache.
//
// A replacement can commit between the storage read and the cache write, and
// its eviction of the old token may already have run. Reading again after the
// write closes that window: if the ticket is gone or changed, the entry is
// dropped. Evictions that run after the write remove it themselves.
func (s *TicketService) confirmCachedTicket(ctx context.Context, ticket *model.Ticket) (int64, error) {
	current, err := s.tickets.GetTicketByHash(ctx, ticket.Hash)
	if err == nil && current.ID == ticket.ID {
		return ticket.UserID, nil
	}

	if cerr := s.cache.DeleteTickets(ctx, ticket.Hash); cerr != nil {
		s.logger.Warn("failed to evict unconfirmed ticket", "ticket", ticket.ShortHash(), "error", cerr)
	}

	switch {
	case err == nil:
		// Same token, reissued as a new ticket.
		return current.UserID, nil
	case errors.Is(err, repository.ErrTicketNotFound):
		s.logger.Info("ticket replaced during validation", "user_id", ticket.UserID, "ticket", ticket.ShortHash())
		return 0, ErrInvalidTicket
	default:
		return 0, fmt.Errorf("failed to confirm ticket: %w", err)
	}
}
