package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"perdiem/internal/core"
	"perdiem/internal/log"
	"perdiem/internal/signing"
)

// LedgerAPI is the service surface the HTTP handlers depend on.
type LedgerAPI interface {
	TodaySummary(ctx context.Context, userID string) (core.User, core.LedgerRow, error)
	History(ctx context.Context, userID string, days int) (core.User, []core.LedgerRow, error)
	AddTransaction(ctx context.Context, userID, email string, amountCents int64, name, currencyCode string, postedAt time.Time) (int64, error)
	UpsertBudget(ctx context.Context, userID, email string, cfg core.BudgetConfig) (core.BudgetConfig, error)
	Profile(ctx context.Context, userID string) (core.User, error)
	UpdateProfile(ctx context.Context, userID, email, currencyCode, timezone string) (core.User, error)
}

// Options carries the server knobs that are not collaborators.
type Options struct {
	HistoryDefaultDays int
	HistoryMaxDays     int

	// Ready reports backing-store readiness for /readyz. May be nil.
	Ready func(context.Context) error

	Logger *log.Logger
}

type Server struct {
	http.Server
	ledger   LedgerAPI
	verifier *signing.Verifier // nil disables /api/echo
	opts     Options
	logger   *log.Logger

	rateLimiter  *rateLimiter
	metrics      *securityMetrics
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, ledger LedgerAPI, verifier *signing.Verifier, opts Options) *Server {
	if opts.HistoryDefaultDays <= 0 {
		opts.HistoryDefaultDays = 30
	}
	if opts.HistoryMaxDays <= 0 {
		opts.HistoryMaxDays = 366
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		ledger:      ledger,
		verifier:    verifier,
		opts:        opts,
		logger:      logger.WithComponent(log.ComponentHTTP),
		rateLimiter: newRateLimiter(),
		metrics:     &securityMetrics{},
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/api/summary/today", s.withSecurityHeaders(s.handleTodaySummary))
	mux.HandleFunc("/api/history", s.withSecurityHeaders(s.handleHistory))
	mux.HandleFunc("/api/budget", s.withSecurityHeaders(s.handleUpsertBudget))
	mux.HandleFunc("/api/transactions", s.withSecurityHeaders(s.handleAddTransaction))
	mux.HandleFunc("/api/user/me", s.withSecurityHeaders(s.handleProfile))
	mux.HandleFunc("/api/user", s.withSecurityHeaders(s.handleUpdateProfile))
	mux.HandleFunc("/api/echo", s.withSecurityHeaders(s.handleEcho))

	return s
}

// Shutdown stops the HTTP server and background cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

type ctxKey string

const requestIDKey ctxKey = "request_id"

// withSecurityHeaders adds security headers, rate limiting, and request
// logging around a handler.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		s.logger.DebugContext(ctx, "Request started",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldClientIP, clientIP)

		if detectSuspiciousRequest(r, s.metrics) {
			s.logger.WarnContext(ctx, "Suspicious request",
				log.FieldRequestID, requestID,
				log.FieldClientIP, clientIP,
				log.FieldPath, r.URL.Path)
		}

		// Writes are rate limited per client IP.
		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP, s.metrics) {
			s.logger.WarnContext(ctx, "Rate limit exceeded",
				log.FieldClientIP, clientIP,
				log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "Rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cache-Control", "no-store")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.logger.InfoContext(ctx, "Request completed",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rw.statusCode,
			log.FieldDuration, time.Since(start).Milliseconds(),
			log.FieldClientIP, clientIP)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.opts.Ready != nil {
		if err := s.opts.Ready(r.Context()); err != nil {
			s.logger.ErrorContext(r.Context(), "Readiness check failed", log.FieldError, err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
