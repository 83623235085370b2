package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/udj/udjserver/internal/headers"
	"github.com/udj/udjserver/internal/middleware"
	"github.com/udj/udjserver/internal/model"
	"github.com/udj/udjserver/internal/service"
)

// Form fields read by the auth endpoint.
const (
	FormUsername = "username"
	FormPassword = "password"
)

// Authenticator issues tickets for credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, creds model.Credentials) (*model.Ticket, error)
}

// AuthHandler serves the ticket issuance endpoint.
type AuthHandler struct {
	svc    Authenticator
	logger *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc Authenticator, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		svc:    svc,
		logger: logger.With("component", "handler.auth"),
	}
}

// Authenticate exchanges a username and password for a ticket.
//
// POST /auth with form fields username and password.
// 200 with the token in the udj_ticket_hash header, 400 for a non-POST or
// a missing field, 404 for an unknown user, 403 for a wrong password and
// 500 for anything else. Response bodies are empty.
func (h *AuthHandler) Authenticate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	if r.Method != http.MethodPost {
		h.logger.Debug("auth rejected", "reason", "method", "method", r.Method, "request_id", requestID)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if err := parseForm(r); err != nil {
		h.logger.Debug("auth rejected", "reason", "malformed", "request_id", requestID, "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	creds := credentialsFromForm(r)

	ticket, err := h.svc.Authenticate(r.Context(), creds)
	if err != nil {
		h.writeAuthError(w, creds.Username, requestID, err)
		return
	}

	// Direct map assignment keeps the lowercase, underscored field name
	// that Header.Set would canonicalize.
	w.Header()[headers.TicketResponseField] = []string{ticket.Hash}
	w.Header().Set(headers.UserID.String(), strconv.FormatInt(ticket.UserID, 10))
	w.WriteHeader(http.StatusOK)

	h.logger.Info("ticket issued",
		"user_id", ticket.UserID,
		"ticket_id", ticket.ID,
		"ticket", ticket.ShortHash(),
		"request_id", requestID,
	)
}

func (h *AuthHandler) writeAuthError(w http.ResponseWriter, username, requestID string, err error) {
	switch {
	case errors.Is(err, service.ErrMalformedCredentials):
		h.logger.Info("auth rejected", "reason", "malformed", "request_id", requestID)
		w.WriteHeader(http.StatusBadRequest)
	case errors.Is(err, service.ErrUserNotFound):
		h.logger.Info("auth rejected", "reason", "unknown_user", "username", username, "request_id", requestID)
		w.WriteHeader(http.StatusNotFound)
	case errors.Is(err, service.ErrInvalidCredentials):
		h.logger.Info("auth rejected", "reason", "bad_password", "username", username, "request_id", requestID)
		w.WriteHeader(http.StatusForbidden)
	default:
		h.logger.Error("auth failed", "username", username, "request_id", requestID, "error", err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// multipartMaxMemory bounds the in-memory part of a multipart body.
const multipartMaxMemory = 32 << 10

// parseForm accepts urlencoded and multipart bodies.
func parseForm(r *http.Request) error {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return r.ParseMultipartForm(multipartMaxMemory)
	}
	return r.ParseForm()
}

// credentialsFromForm reads the credential fields from the parsed body.
// Presence is tracked separately from value so an empty username still
// reaches the user lookup.
func credentialsFromForm(r *http.Request) model.Credentials {
	var creds model.Credentials
	if vals, ok := r.PostForm[FormUsername]; ok && len(vals) > 0 {
		creds.Username = vals[0]
		creds.HasUsername = true
	}
	if vals, ok := r.PostForm[FormPassword]; ok && len(vals) > 0 {
		creds.Password = vals[0]
		creds.HasPassword = true
	}
	return creds
}
