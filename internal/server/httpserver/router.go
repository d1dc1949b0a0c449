package httpserver

import (
	"net/http"

	"github.com/yndnr/lwm2m-seccfg/internal/core/service"
	"github.com/yndnr/lwm2m-seccfg/internal/server/httpserver/handler"
	"github.com/yndnr/lwm2m-seccfg/internal/telemetry/logger"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Handler serves the API routes.
	Handler *handler.Handler

	// AuthService checks API keys. Nil or no keys opens every route below admin.
	AuthService *service.AuthService

	// Logger for request logging.
	Logger logger.Logger

	// Metrics records per-route request counts and latency (optional).
	Metrics RequestObserver

	// CORSAllowedOrigins is the list of allowed CORS origins (empty = allow all).
	CORSAllowedOrigins []string

	// GlobalRateLimit is the rate limit per client IP in requests/second (0 = off).
	GlobalRateLimit int

	// EnableAudit enables audit logging for all requests.
	EnableAudit bool
}

// DefaultRouterConfig returns default router configuration.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		GlobalRateLimit: 100,
		EnableAudit:     true,
	}
}

// NewRouter builds the HTTP handler. Every request passes
// Recover -> RequestID -> CORS -> RateLimit; each route then adds
// Instrument -> PathIDs -> Auth (routes with a role) -> Audit.
func NewRouter(cfg *RouterConfig) http.Handler {
	l := cfg.Logger
	if l == nil {
		l = logger.Default()
	}

	mux := http.NewServeMux()
	for _, rt := range cfg.Handler.Routes() {
		mws := []Middleware{Instrument(rt.Pattern, cfg.Metrics), PathIDs(rt.Pattern)}
		if rt.Role != "" {
			mws = append(mws, Auth(cfg.AuthService, rt.Role))
		}
		if cfg.EnableAudit {
			mws = append(mws, Audit(rt.Pattern))
		}
		mux.Handle(rt.Pattern, Chain(rt.Handler, mws...))
	}

	return Chain(mux,
		Recover(l),
		RequestID(l),
		CORS(cfg.CORSAllowedOrigins),
		RateLimit(cfg.GlobalRateLimit),
	)
}
