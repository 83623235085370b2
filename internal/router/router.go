// Package router assembles the HTTP routing table.
package router

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/udj/udjserver/internal/handler"
	"github.com/udj/udjserver/internal/middleware"
)

// Route patterns. Coordinates must carry a decimal point.
const (
	AuthPath          = "/auth"
	LibrarySongsPath  = "/users/{user_id:[0-9]+}/library/songs"
	LibrarySongPath   = "/users/{user_id:[0-9]+}/library/{lib_id:[0-9]+}"
	LibraryPath       = "/users/{user_id:[0-9]+}/library"
	NearbyEventsPath  = "/event/{latitude:-?[0-9]+\\.[0-9]+}/{longitude:-?[0-9]+\\.[0-9]+}"
	userParam         = "user_id"
	authRateLimitName = "auth"
)

// Deps bundles everything the router mounts.
type Deps struct {
	Logger *slog.Logger

	Root    *handler.Handler
	Health  *handler.HealthHandler
	Metrics *handler.MetricsHandler
	Auth    *handler.AuthHandler

	// Library and Events default to handler.Unavailable when nil.
	Library handler.LibraryHandler
	Events  handler.EventHandler

	Tickets     middleware.TicketValidator
	RateLimiter middleware.IPRateLimiter

	Security       middleware.SecurityConfig
	CORS           middleware.CORSConfig
	APIVersion     string
	RequestTimeout time.Duration

	AuthRateLimitEnabled bool
	AuthRateLimitRPS     int
	AuthRateLimitBurst   int
}

// New builds the chi router with the global middleware chain and all routes.
func New(d Deps) *chi.Mux {
	if d.Library == nil {
		d.Library = handler.Unavailable{}
	}
	if d.Events == nil {
		d.Events = handler.Unavailable{}
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.Recoverer(d.Logger))
	r.Use(middleware.Security(d.Security))
	r.Use(middleware.CORS(d.CORS))
	r.Use(middleware.APIVersion(d.APIVersion))
	if d.Security.MaxRequestBodySize > 0 {
		r.Use(middleware.MaxBodySize(d.Security.MaxRequestBodySize))
	}
	if d.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(d.RequestTimeout))
	}

	// Operational endpoints
	r.Get("/", d.Root.Root)
	r.Get("/healthz", d.Health.Healthz)
	r.Get("/readyz", d.Health.Readyz)
	if d.Metrics != nil {
		r.Get("/metrics", d.Metrics.Metrics)
	}

	// Ticket issuance. Every method reaches the handler, which answers
	// non-POST requests with 400 rather than 405.
	r.Group(func(r chi.Router) {
		if d.RateLimiter != nil {
			r.Use(middleware.RateLimitIP(middleware.RateLimitConfig{
				Logger:  d.Logger,
				Limiter: d.RateLimiter,
				Enabled: d.AuthRateLimitEnabled,
				Scope:   authRateLimitName,
				RPS:     d.AuthRateLimitRPS,
				Burst:   d.AuthRateLimitBurst,
			}))
		}
		r.HandleFunc(AuthPath, d.Auth.Authenticate)
		r.HandleFunc(AuthPath+"/", d.Auth.Authenticate)
	})

	// Ticket-protected collaborator endpoints
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireTicket(middleware.TicketAuthConfig{
			Validator: d.Tickets,
			Logger:    d.Logger,
			UserParam: userParam,
		}))

		r.Post(LibrarySongsPath, d.Library.AddSongs)
		r.Delete(LibrarySongPath, d.Library.DeleteSong)
		r.Delete(LibraryPath, d.Library.DeleteLibrary)
		r.Get(NearbyEventsPath, d.Events.NearbyEvents)
	})

	// 404 and 405 handlers
	r.NotFound(d.Root.NotFound)
	r.MethodNotAllowed(d.Root.MethodNotAllowed)

	return r
}
