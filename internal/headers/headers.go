// Package headers names the UDJ-specific HTTP headers shared by every endpoint.
//
// Each header has a wire spelling, used on requests and responses, and a
// meta-variable spelling (the CGI form, e.g. HTTP_X_UDJ_TICKET_HASH) that some
// proxies and older clients hand over instead.
package headers

import (
	"net/http"
	"strings"
)

// Name identifies one UDJ header.
type Name int

// Known UDJ headers.
const (
	TicketHash Name = iota
	UserID
	GoneResource
	MachineUUID
	APIVersion
)

// TicketResponseField is the response header that carries a freshly issued
// ticket token from the auth endpoint. Clients read this exact spelling.
const TicketResponseField = "udj_ticket_hash"

var wireNames = [...]string{
	TicketHash:   "X-Udj-Ticket-Hash",
	UserID:       "X-Udj-User-Id",
	GoneResource: "X-Udj-Gone-Resource",
	MachineUUID:  "X-UDJ-Machine-UUID",
	APIVersion:   "X-Udj-Api-Version",
}

// All returns every known header in declaration order.
func All() []Name {
	return []Name{TicketHash, UserID, GoneResource, MachineUUID, APIVersion}
}

// String returns the wire spelling of the header.
func (n Name) String() string {
	if n < 0 || int(n) >= len(wireNames) {
		return ""
	}
	return wireNames[n]
}

// MetaKey returns the meta-variable spelling: "HTTP_" followed by the
// upper-cased wire name with dashes replaced by underscores.
func (n Name) MetaKey() string {
	wire := n.String()
	if wire == "" {
		return ""
	}
	return "HTTP_" + strings.ToUpper(strings.ReplaceAll(wire, "-", "_"))
}

// Get reads the header from r, falling back to the meta-variable spelling
// for clients that send it verbatim.
func (n Name) Get(r *http.Request) string {
	if v := r.Header.Get(n.String()); v != "" {
		return v
	}
	return r.Header.Get(n.MetaKey())
}

// Lookup resolves either spelling, case-insensitively, to a Name.
func Lookup(key string) (Name, bool) {
	for _, n := range All() {
		if strings.EqualFold(key, n.String()) || strings.EqualFold(key, n.MetaKey()) {
			return n, true
		}
	}
	return 0, false
}
