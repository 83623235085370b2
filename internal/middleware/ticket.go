package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/udj/udjserver/internal/auth"
	"github.com/udj/udjserver/internal/headers"
	"github.com/udj/udjserver/internal/service"
)

// TicketValidator resolves a ticket token to its owner.
// Unknown tokens must yield service.ErrInvalidTicket.
type TicketValidator interface {
	Validate(ctx context.Context, token string) (int64, error)
}

// TicketAuthConfig holds configuration for ticket authentication.
type TicketAuthConfig struct {
	Validator TicketValidator
	Logger    *slog.Logger
	// UserParam names the chi URL parameter that must match the ticket
	// owner. Routes without the parameter only require a valid ticket.
	UserParam string
}

// RequireTicket authenticates requests by the X-Udj-Ticket-Hash header.
//
// A missing or unknown ticket answers 401. On user-scoped routes a ticket
// owned by a different user answers 403. The owner's ID is stored in the
// request context for downstream handlers.
func RequireTicket(cfg TicketAuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())

			token := headers.TicketHash.Get(r)
			if token == "" {
				writeErrorJSON(w, http.StatusUnauthorized, "TICKET_REQUIRED", "Missing ticket")
				return
			}

			userID, err := cfg.Validator.Validate(r.Context(), token)
			if err != nil {
				if errors.Is(err, service.ErrInvalidTicket) {
					cfg.Logger.Info("ticket rejected",
						slog.String("reason", "invalid"),
						slog.String("request_id", requestID),
					)
					writeErrorJSON(w, http.StatusUnauthorized, "INVALID_TICKET", "Invalid ticket")
					return
				}
				cfg.Logger.Error("ticket validation failed",
					slog.String("error", err.Error()),
					slog.String("request_id", requestID),
				)
				writeErrorJSON(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
				return
			}

			if cfg.UserParam != "" {
				if raw := chi.URLParam(r, cfg.UserParam); raw != "" {
					pathUserID, err := strconv.ParseInt(raw, 10, 64)
					if err != nil || pathUserID != userID {
						cfg.Logger.Info("ticket rejected",
							slog.String("reason", "user_mismatch"),
							slog.Int64("user_id", userID),
							slog.String("path_user_id", raw),
							slog.String("request_id", requestID),
						)
						writeErrorJSON(w, http.StatusForbidden, "FORBIDDEN", "Ticket does not belong to this user")
						return
					}
				}
			}

			ctx := auth.ContextWithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
