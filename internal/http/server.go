// Package http exposes the JSON API for templates, recurrence previews,
// savings plans and their monthly breakdowns.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/akinalpfdn/ExpenseTracker-sub000/internal/cache"
	"github.com/akinalpfdn/ExpenseTracker-sub000/internal/core"
	"github.com/akinalpfdn/ExpenseTracker-sub000/internal/dates"
	"github.com/akinalpfdn/ExpenseTracker-sub000/internal/log"
	"github.com/akinalpfdn/ExpenseTracker-sub000/internal/services"
)

// TemplateStore is the slice of the repository the API needs for
// template and instance endpoints.
type TemplateStore interface {
	CreateTemplate(ctx context.Context, t core.ExpenseTemplate) error
	GetTemplate(ctx context.Context, id string) (core.ExpenseTemplate, error)
	ListTemplates(ctx context.Context) ([]core.ExpenseTemplate, error)
	SetTemplateActive(ctx context.Context, id string, active bool) error
	ListInstancesByOrigin(ctx context.Context, originID string) ([]core.ExpenseInstance, error)
}

type Server struct {
	http.Server
	templates          TemplateStore
	plans              *services.PlanService
	cal                dates.Calendar
	previewHorizonDays int
	rateLimiter        *rateLimiter

	// Plan metrics are pure functions of stored data, so a short TTL
	// cache absorbs dashboard polling.
	metricsCache *cache.LRUCache[services.PlanMetrics]
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and returns a ready-to-run server.
func NewServer(addr string, templates TemplateStore, plans *services.PlanService, cal dates.Calendar, previewHorizonDays int) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		templates:          templates,
		plans:              plans,
		cal:                cal,
		previewHorizonDays: previewHorizonDays,
		rateLimiter:        newRateLimiter(),
		metricsCache:       cache.NewLRUCache[services.PlanMetrics](100, 5*time.Minute),
		cacheManager:       cache.NewManager(),
	}

	s.cacheManager.Register(s.metricsCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/recurrence/preview", s.withMiddleware(s.handleRecurrencePreview))

	mux.HandleFunc("POST /api/templates", s.withMiddleware(s.handleCreateTemplate))
	mux.HandleFunc("GET /api/templates", s.withMiddleware(s.handleListTemplates))
	mux.HandleFunc("GET /api/templates/{id}", s.withMiddleware(s.handleGetTemplate))
	mux.HandleFunc("PATCH /api/templates/{id}/active", s.withMiddleware(s.handleSetTemplateActive))
	mux.HandleFunc("GET /api/templates/{id}/instances", s.withMiddleware(s.handleListInstances))

	mux.HandleFunc("POST /api/plans", s.withMiddleware(s.handleSavePlan))
	mux.HandleFunc("GET /api/plans", s.withMiddleware(s.handleListPlans))
	mux.HandleFunc("GET /api/plans/{id}", s.withMiddleware(s.handleGetPlan))
	mux.HandleFunc("GET /api/plans/{id}/metrics", s.withMiddleware(s.handlePlanMetrics))
	mux.HandleFunc("GET /api/plans/{id}/breakdowns", s.withMiddleware(s.handleListBreakdowns))
	mux.HandleFunc("PUT /api/plans/{id}/breakdowns/{year}/{month}/actuals", s.withMiddleware(s.handleRecordActuals))

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withMiddleware adds security headers, rate limiting and request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldClientIP, clientIP,
			log.FieldComponent, log.ComponentHTTP)

		// Mutating requests go through the rate limiter.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rw.statusCode,
			log.FieldDuration, time.Since(start).Milliseconds(),
			log.FieldClientIP, clientIP,
			log.FieldComponent, log.ComponentHTTP)
	}
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
