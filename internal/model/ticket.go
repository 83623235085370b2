package model

import (
	"errors"
	"time"
)

// Ticket is the single live session grant for a user.
// At most one ticket exists per user; issuing a new one replaces the old.
type Ticket struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	Hash      string    `json:"-"` // The token itself; only ever sent in a header
	CreatedAt time.Time `json:"created_at"`
}

// ShortHash returns a log-safe prefix of the ticket token.
func (t *Ticket) ShortHash() string {
	if len(t.Hash) <= 8 {
		return t.Hash
	}
	return t.Hash[:8]
}

// ErrMalformedCredentials indicates a credential pair with a missing field.
var ErrMalformedCredentials = errors.New("malformed credentials")

// Credentials is a username/password pair as submitted to the auth endpoint.
// The Has* flags record field presence, which is distinct from emptiness:
// an empty username is a well-formed request for a user that does not exist.
type Credentials struct {
	Username    string
	Password    string
	HasUsername bool
	HasPassword bool
}

// Validate checks the shape of the credentials without touching storage.
// Only a missing field is malformed; value length is left to the user
// lookup and the verifier.
func (c Credentials) Validate() error {
	if !c.HasUsername || !c.HasPassword {
		return ErrMalformedCredentials
	}
	return nil
}

// CachedTicket is the ticket data stored in Redis for request authentication.
type CachedTicket struct {
	TicketID string
	UserID   int64
}

// ToCachedTicket converts a ticket to its cache representation.
func (t *Ticket) ToCachedTicket() *CachedTicket {
	return &CachedTicket{TicketID: t.ID, UserID: t.UserID}
}
