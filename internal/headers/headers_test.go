package headers

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestName_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name Name
		want string
	}{
		{TicketHash, "X-Udj-Ticket-Hash"},
		{UserID, "X-Udj-User-Id"},
		{GoneResource, "X-Udj-Gone-Resource"},
		{MachineUUID, "X-UDJ-Machine-UUID"},
		{APIVersion, "X-Udj-Api-Version"},
		{Name(99), ""},
	}

	for _, tt := range tests {
		if got := tt.name.String(); got != tt.want {
			t.Errorf("Name(%d).String() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestName_MetaKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name Name
		want string
	}{
		{TicketHash, "HTTP_X_UDJ_TICKET_HASH"},
		{MachineUUID, "HTTP_X_UDJ_MACHINE_UUID"},
		{APIVersion, "HTTP_X_UDJ_API_VERSION"},
		{Name(-1), ""},
	}

	for _, tt := range tests {
		if got := tt.name.MetaKey(); got != tt.want {
			t.Errorf("Name(%d).MetaKey() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestName_Get(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("x-udj-ticket-hash", "abc")
	if got := TicketHash.Get(req); got != "abc" {
		t.Errorf("TicketHash.Get() = %q, want %q", got, "abc")
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("HTTP_X_UDJ_MACHINE_UUID", "m-1")
	if got := MachineUUID.Get(req); got != "m-1" {
		t.Errorf("MachineUUID.Get() via meta key = %q, want %q", got, "m-1")
	}

	if got := UserID.Get(req); got != "" {
		t.Errorf("UserID.Get() = %q, want empty", got)
	}
}

func TestLookup(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key    string
		want   Name
		wantOK bool
	}{
		{"X-Udj-Ticket-Hash", TicketHash, true},
		{"x-udj-user-id", UserID, true},
		{"HTTP_X_UDJ_GONE_RESOURCE", GoneResource, true},
		{"http_x_udj_api_version", APIVersion, true},
		{"X-Request-ID", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		got, ok := Lookup(tt.key)
		if ok != tt.wantOK || (ok && got != tt.want) {
			t.Errorf("Lookup(%q) = (%v, %v), want (%v, %v)", tt.key, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestAll_Unique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for _, n := range All() {
		if seen[n.String()] {
			t.Errorf("duplicate wire name %q", n.String())
		}
		seen[n.String()] = true
	}
	if len(seen) != 5 {
		t.Errorf("expected 5 headers, got %d", len(seen))
	}
}
