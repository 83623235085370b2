package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/udj/udjserver/internal/model"
)

// Common errors for ticket repository operations.
var (
	ErrTicketNotFound = errors.New("ticket not found")
	// ErrTicketHashExists indicates the candidate token is already in use.
	ErrTicketHashExists = errors.New("ticket hash already exists")
	// ErrTicketHashExhausted indicates every candidate token collided.
	ErrTicketHashExhausted = errors.New("no unique ticket hash after max attempts")
)

// Constraint name from migrations/00002_tickets.sql.
const constraintTicketHash = "tickets_ticket_hash_key"

// TokenSource produces candidate ticket tokens.
type TokenSource func() (string, error)

// ReplaceResult describes a committed ticket replacement.
type ReplaceResult struct {
	Ticket *model.Ticket
	// Superseded holds the tokens of the tickets that were deleted.
	Superseded []string
	// Collisions counts candidate tokens rejected as already in use.
	Collisions int
}

// ReplaceTicket deletes every ticket owned by userID and inserts a new one
// with a token drawn from next, all in one transaction.
//
// The user row is locked FOR UPDATE first, so concurrent replacements for the
// same user run one after the other and exactly one ticket survives. Each
// candidate token is checked against the whole table and then inserted under
// a savepoint; a unique violation on the token rolls back only the savepoint
// and a new candidate is drawn. After maxAttempts candidates the transaction
// is rolled back with ErrTicketHashExhausted and the previous ticket is kept.
func (r *Repository) ReplaceTicket(ctx context.Context, userID int64, next TokenSource, maxAttempts int) (*ReplaceResult, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var result *ReplaceResult
	err := pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		if err := lockUser(ctx, tx, userID); err != nil {
			return err
		}

		superseded, err := deleteTicketsByUserID(ctx, tx, userID)
		if err != nil {
			return err
		}

		res := &ReplaceResult{Superseded: superseded}
		for attempt := 0; attempt < maxAttempts; attempt++ {
			hash, err := next()
			if err != nil {
				return fmt.Errorf("failed to draw ticket hash: %w", err)
			}

			exists, err := ticketHashExists(ctx, tx, hash)
			if err != nil {
				return err
			}
			if exists {
				res.Collisions++
				continue
			}

			ticket := &model.Ticket{
				ID:        ulid.Make().String(),
				UserID:    userID,
				Hash:      hash,
				CreatedAt: time.Now().UTC(),
			}

			err = pgx.BeginFunc(ctx, tx, func(sp pgx.Tx) error {
				return insertTicket(ctx, sp, ticket)
			})
			if errors.Is(err, ErrTicketHashExists) {
				res.Collisions++
				continue
			}
			if err != nil {
				return err
			}

			res.Ticket = ticket
			result = res
			return nil
		}

		return ErrTicketHashExhausted
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// GetTicketByHash retrieves a ticket by its token.
func (r *Repository) GetTicketByHash(ctx context.Context, hash string) (*model.Ticket, error) {
	query := `
		SELECT id, user_id, ticket_hash, created_at
		FROM tickets
		WHERE ticket_hash = $1
	`

	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, hash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to get ticket by hash: %w", err)
	}

	return ticket, nil
}

// ListTicketsByUserID retrieves all tickets for a user, newest first.
func (r *Repository) ListTicketsByUserID(ctx context.Context, userID int64) ([]*model.Ticket, error) {
	query := `
		SELECT id, user_id, ticket_hash, created_at
		FROM tickets
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	defer rows.Close()

	var tickets []*model.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, ticket)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tickets: %w", err)
	}

	return tickets, nil
}

// TicketHashExists reports whether any ticket uses hash.
func (r *Repository) TicketHashExists(ctx context.Context, hash string) (bool, error) {
	return ticketHashExists(ctx, r.pool, hash)
}

// querier is the subset of pgx shared by the pool and transactions.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func lockUser(ctx context.Context, tx pgx.Tx, userID int64) error {
	var id int64
	err := tx.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to lock user: %w", err)
	}
	return nil
}

func deleteTicketsByUserID(ctx context.Context, tx pgx.Tx, userID int64) ([]string, error) {
	rows, err := tx.Query(ctx, `DELETE FROM tickets WHERE user_id = $1 RETURNING ticket_hash`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete tickets: %w", err)
	}

	hashes, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to delete tickets: %w", err)
	}

	return hashes, nil
}

func ticketHashExists(ctx context.Context, q querier, hash string) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tickets WHERE ticket_hash = $1)`, hash).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check ticket hash: %w", err)
	}
	return exists, nil
}

func insertTicket(ctx context.Context, tx pgx.Tx, ticket *model.Ticket) error {
	query := `
		INSERT INTO tickets (id, user_id, ticket_hash, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := tx.Exec(ctx, query,
		ticket.ID,
		ticket.UserID,
		ticket.Hash,
		ticket.CreatedAt,
	)
	if err != nil {
		if constraint, ok := uniqueViolation(err); ok && constraint == constraintTicketHash {
			return ErrTicketHashExists
		}
		return fmt.Errorf("failed to insert ticket: %w", err)
	}

	return nil
}

func scanTicket(row pgx.Row) (*model.Ticket, error) {
	var ticket model.Ticket
	err := row.Scan(
		&ticket.ID,
		&ticket.UserID,
		&ticket.Hash,
		&ticket.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}
