package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
)

// TicketHashLen is the length of a ticket token: 128 random bits, hex encoded.
const TicketHashLen = 32

var ticketHashRegex = regexp.MustCompile(`^[0-9a-f]{32}$`)

// GenerateTicketHash draws 128 bits from crypto/rand and returns them as
// 32 lowercase hex characters.
func GenerateTicketHash() (string, error) {
	b := make([]byte, TicketHashLen/2)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate ticket hash: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// ValidTicketHash reports whether s has the ticket token format.
func ValidTicketHash(s string) bool {
	return ticketHashRegex.MatchString(s)
}
