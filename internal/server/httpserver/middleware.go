package httpserver

import (
	"context"
	"crypto/rand"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"github.com/yndnr/lwm2m-seccfg/internal/core/domain"
	"github.com/yndnr/lwm2m-seccfg/internal/core/service"
	"github.com/yndnr/lwm2m-seccfg/internal/server/httpserver/handler"
	"github.com/yndnr/lwm2m-seccfg/internal/telemetry/logger"
	"github.com/yndnr/lwm2m-seccfg/pkg/cmap"
)

// Context keys for request-scoped values.
type contextKey string

// ContextKeyAPIKey is the context key for the authenticated API key.
const ContextKeyAPIKey contextKey = "api_key"

const (
	// HeaderRequestID carries the request id in both directions.
	HeaderRequestID = "X-Request-ID"

	// maxRequestIDLen bounds client supplied request ids.
	maxRequestIDLen = 64

	// maxLimiters triggers eviction of idle per-IP limiters.
	maxLimiters = 10000
)

// Middleware wraps an http.Handler with additional functionality.
type Middleware func(http.Handler) http.Handler

// Chain chains multiple middlewares together. The first runs outermost.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// RequestObserver records one finished request.
type RequestObserver interface {
	ObserveRequest(route string, status int, elapsed time.Duration)
}

// RequestID tags each request with an id, taken from X-Request-ID when the
// client sends a usable one. The id and a logger carrying it are stored in
// the request context.
func RequestID(base logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(HeaderRequestID)
			if !validRequestID(requestID) {
				requestID = newRequestID()
			}
			w.Header().Set(HeaderRequestID, requestID)

			ctx := logger.WithRequestID(r.Context(), requestID)
			ctx = logger.WithLogger(ctx, base)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newRequestID() string {
	id, err := ulid.New(ulid.Now(), rand.Reader)
	if err != nil {
		return fmt.Sprintf("req-%d", time.Now().UnixNano())
	}
	return "req-" + strings.ToLower(id.String())
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for _, c := range id {
		if c < '!' || c > '~' {
			return false
		}
	}
	return true
}

// Recover turns panics into LW-SYS-5000 responses.
func Recover(l logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					l.Error("panic recovered",
						"request_id", logger.RequestIDFromContext(r.Context()),
						"error", rec,
						"path", r.URL.Path,
					)
					handler.WriteError(w, r, domain.ErrInternalServer)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// CORS adds Cross-Origin Resource Sharing headers. An empty list allows
// every origin.
func CORS(allowedOrigins []string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			allowed := len(allowedOrigins) == 0
			for _, o := range allowedOrigins {
				if o == "*" || o == origin {
					allowed = true
					break
				}
			}

			if allowed && origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key-ID, X-API-Key, X-Request-ID, Authorization")
				w.Header().Set("Access-Control-Expose-Headers", "X-Request-ID, X-Error-Code, X-Backup-Checksum")
				w.Header().Set("Access-Control-Max-Age", "86400")
				w.Header().Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit applies a token bucket per client IP. requestsPerSecond <= 0
// disables limiting.
func RateLimit(requestsPerSecond int) Middleware {
	if requestsPerSecond <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	limiters := cmap.New[*rate.Limiter]()
	limit, burst := rate.Limit(requestsPerSecond), requestsPerSecond

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := getClientIP(r)
			lim, ok := limiters.Get(ip)
			if !ok {
				if limiters.Count() >= maxLimiters {
					// Full buckets belong to clients that have been idle.
					limiters.DeleteIf(func(_ string, l *rate.Limiter) bool {
						return l.Tokens() >= float64(burst)
					})
				}
				lim = limiters.Update(ip, func(existing *rate.Limiter, exists bool) *rate.Limiter {
					if exists {
						return existing
					}
					return rate.NewLimiter(limit, burst)
				})
			}

			if !lim.Allow() {
				w.Header().Set("Retry-After", "1")
				handler.WriteError(w, r, domain.ErrRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Auth authenticates the caller and requires at least role. Without API keys
// only routes below admin are served; admin routes always need a key.
func Auth(authSvc *service.AuthService, role domain.Role) Middleware {
	return func(next http.Handler) http.Handler {
		if authSvc == nil || !authSvc.Enabled() {
			if domain.IsRoleAtLeast(role, domain.RoleAdmin) {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					handler.WriteError(w, r, domain.ErrPermissionDenied.WithDetails("admin routes require api keys to be configured"))
				})
			}
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			keyID, keySecret := extractAPIKeyCredentials(r)
			key, err := authSvc.Authenticate(keyID, keySecret)
			if err != nil {
				handler.WriteError(w, r, err)
				return
			}
			if err := authSvc.Authorize(key, role); err != nil {
				handler.WriteError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyAPIKey, key)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PathIDs stores the edit session or profile named by the {id} wildcard of
// route in the request context, so request logs carry it.
func PathIDs(route string) Middleware {
	var tag func(context.Context, string) context.Context
	switch {
	case strings.Contains(route, "/editor/sessions/{id}"):
		tag = logger.WithSessionID
	case strings.Contains(route, "/profiles/{id}"):
		tag = logger.WithProfileID
	default:
		return func(next http.Handler) http.Handler { return next }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id := r.PathValue("id"); id != "" {
				r = r.WithContext(tag(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Audit logs every finished request.
func Audit(route string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := wrapResponseWriter(w)
			start := time.Now()

			next.ServeHTTP(wrapped, r)

			attrs := []any{
				"method", r.Method,
				"route", route,
				"path", r.URL.Path,
				"status", wrapped.statusCode,
				"duration_ms", time.Since(start).Milliseconds(),
				"client_ip", getClientIP(r),
			}
			if key := GetAPIKeyFromContext(r.Context()); key != nil {
				attrs = append(attrs, "api_key_id", key.ID, "role", string(key.Role))
			}

			l := logger.FromContext(r.Context())
			switch {
			case wrapped.statusCode >= 500:
				l.Error("request completed with error", attrs...)
			case wrapped.statusCode >= 400:
				l.Warn("request completed with client error", attrs...)
			default:
				l.Info("request completed", attrs...)
			}
		})
	}
}

// Instrument reports status and latency of route to obs.
func Instrument(route string, obs RequestObserver) Middleware {
	return func(next http.Handler) http.Handler {
		if obs == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := wrapResponseWriter(w)
			start := time.Now()
			next.ServeHTTP(wrapped, r)
			obs.ObserveRequest(route, wrapped.statusCode, time.Since(start))
		})
	}
}

// extractAPIKeyCredentials reads credentials from, in order:
//  1. Authorization: Bearer <key_id>:<key_secret>
//  2. X-API-Key: <key_id>:<key_secret>
//  3. X-API-Key-ID and X-API-Key
func extractAPIKeyCredentials(r *http.Request) (keyID, keySecret string) {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		if id, secret, ok := strings.Cut(strings.TrimPrefix(auth, "Bearer "), ":"); ok {
			return id, secret
		}
	}

	apiKey := r.Header.Get("X-API-Key")
	if id := r.Header.Get("X-API-Key-ID"); id != "" {
		return id, apiKey
	}
	if id, secret, ok := strings.Cut(apiKey, ":"); ok {
		return id, secret
	}
	return "", ""
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func wrapResponseWriter(w http.ResponseWriter) *responseWriter {
	if rw, ok := w.(*responseWriter); ok {
		return rw
	}
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (w *responseWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.statusCode = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// GetAPIKeyFromContext retrieves the authenticated API key from context.
func GetAPIKeyFromContext(ctx context.Context) *domain.APIKey {
	if key, ok := ctx.Value(ContextKeyAPIKey).(*domain.APIKey); ok {
		return key
	}
	return nil
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	// SplitHostPort handles IPv6 addresses like [::1]:8080.
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
