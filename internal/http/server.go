// Package http serves the JSON API: dashboard aggregates, rule
// administration, workbook upload, and AI-assisted categorization.
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

	"worklens/internal/ai"
	"worklens/internal/cache"
	"worklens/internal/core"
	applog "worklens/internal/log"
	"worklens/internal/rules"
	"worklens/internal/services"
)

// UploadStore is the slice of storage the upload handlers need.
type UploadStore interface {
	ReplaceAllRecords(ctx context.Context, records []core.WorkRecord) (int, error)
	CountRecords(ctx context.Context) (int64, error)
}

// Options carries the tunables NewServer does not hardcode.
type Options struct {
	MaxUploadBytes     int64
	RateLimitPerMinute int
	CacheSize          int
	CacheTTL           time.Duration
}

func (o *Options) withDefaults() {
	if o.MaxUploadBytes == 0 {
		o.MaxUploadBytes = 16 << 20
	}
	if o.RateLimitPerMinute == 0 {
		o.RateLimitPerMinute = 120
	}
	if o.CacheSize == 0 {
		o.CacheSize = 256
	}
	if o.CacheTTL == 0 {
		o.CacheTTL = 5 * time.Minute
	}
}

type Server struct {
	http.Server
	analytics   *services.AnalyticsService
	admin       *services.AdminService
	uploads     UploadStore
	seeder      rules.Seeder
	store       *rules.Store
	categorizer *ai.FallbackCategorizer
	rateLimiter *rateLimiter

	// Cached dashboard responses, keyed by path and query. Flushed whole
	// on every import and every rule mutation.
	responseCache *cache.LRUCache[[]byte]
	cacheManager  *cache.Manager

	maxUploadBytes int64
	shutdownOnce   sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, analytics *services.AnalyticsService, admin *services.AdminService,
	uploads UploadStore, seeder rules.Seeder, store *rules.Store,
	categorizer *ai.FallbackCategorizer, opts Options) *Server {

	opts.withDefaults()
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		analytics:      analytics,
		admin:          admin,
		uploads:        uploads,
		seeder:         seeder,
		store:          store,
		categorizer:    categorizer,
		rateLimiter:    newRateLimiter(opts.RateLimitPerMinute),
		responseCache:  cache.NewLRUCache[[]byte](opts.CacheSize, opts.CacheTTL),
		cacheManager:   cache.NewManager(),
		maxUploadBytes: opts.MaxUploadBytes,
	}
	s.cacheManager.Register(s.responseCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	// Dashboard
	mux.HandleFunc("GET /api/summary", s.withMiddleware(s.cached(s.handleSummary)))
	mux.HandleFunc("GET /api/categories", s.withMiddleware(s.cached(s.handleCategoryBreakdown)))
	mux.HandleFunc("GET /api/daily", s.withMiddleware(s.cached(s.handleDailyBreakdown)))
	mux.HandleFunc("GET /api/ranking", s.withMiddleware(s.cached(s.handleRanking)))
	mux.HandleFunc("GET /api/ranking/grouped", s.withMiddleware(s.cached(s.handleGroupedRanking)))
	mux.HandleFunc("GET /api/filters", s.withMiddleware(s.cached(s.handleFilterOptions)))

	// Rule administration
	mux.HandleFunc("GET /api/admin/categories", s.withMiddleware(s.handleListCategories))
	mux.HandleFunc("POST /api/admin/categories", s.withMiddleware(s.handleCreateCategory))
	mux.HandleFunc("GET /api/admin/categories/{id}", s.withMiddleware(s.handleGetCategory))
	mux.HandleFunc("PUT /api/admin/categories/{id}", s.withMiddleware(s.handleUpdateCategory))
	mux.HandleFunc("DELETE /api/admin/categories/{id}", s.withMiddleware(s.handleDeleteCategory))

	mux.HandleFunc("GET /api/admin/keywords", s.withMiddleware(s.handleListKeywordRules))
	mux.HandleFunc("POST /api/admin/keywords", s.withMiddleware(s.handleCreateKeywordRule))
	mux.HandleFunc("PUT /api/admin/keywords/{id}", s.withMiddleware(s.handleUpdateKeywordRule))
	mux.HandleFunc("DELETE /api/admin/keywords/{id}", s.withMiddleware(s.handleDeleteKeywordRule))

	mux.HandleFunc("GET /api/admin/unit-rules", s.withMiddleware(s.handleListUnitRules))
	mux.HandleFunc("POST /api/admin/unit-rules", s.withMiddleware(s.handleCreateUnitRule))
	mux.HandleFunc("PUT /api/admin/unit-rules/{id}", s.withMiddleware(s.handleUpdateUnitRule))
	mux.HandleFunc("DELETE /api/admin/unit-rules/{id}", s.withMiddleware(s.handleDeleteUnitRule))

	mux.HandleFunc("GET /api/admin/sub-category-rules", s.withMiddleware(s.handleListSubCategoryRules))
	mux.HandleFunc("POST /api/admin/sub-category-rules", s.withMiddleware(s.handleCreateSubCategoryRule))
	mux.HandleFunc("PUT /api/admin/sub-category-rules/{id}", s.withMiddleware(s.handleUpdateSubCategoryRule))
	mux.HandleFunc("DELETE /api/admin/sub-category-rules/{id}", s.withMiddleware(s.handleDeleteSubCategoryRule))

	mux.HandleFunc("GET /api/admin/reduction-targets", s.withMiddleware(s.handleListReductionTargets))
	mux.HandleFunc("POST /api/admin/reduction-targets", s.withMiddleware(s.handleSetReductionTarget))
	mux.HandleFunc("POST /api/admin/reduction-targets/bulk", s.withMiddleware(s.handleBulkReductionTargets))
	mux.HandleFunc("DELETE /api/admin/reduction-targets", s.withMiddleware(s.handleDeleteReductionTarget))

	mux.HandleFunc("GET /api/admin/settings", s.withMiddleware(s.handleListSettings))
	mux.HandleFunc("PUT /api/admin/settings", s.withMiddleware(s.handleSetSetting))

	mux.HandleFunc("POST /api/admin/seed", s.withMiddleware(s.handleSeedDefaults))
	mux.HandleFunc("POST /api/admin/classify/test", s.withMiddleware(s.handleTestClassification))
	mux.HandleFunc("GET /api/admin/suggestions", s.withMiddleware(s.handleSuggestions))
	mux.HandleFunc("POST /api/admin/suggestions/apply", s.withMiddleware(s.handleApplySuggestions))

	// Data import
	mux.HandleFunc("POST /api/upload", s.withMiddleware(s.handleUpload))
	mux.HandleFunc("POST /api/upload/clear", s.withMiddleware(s.handleUploadClear))
	mux.HandleFunc("GET /api/upload/status", s.withMiddleware(s.handleUploadStatus))

	// AI categorization
	mux.HandleFunc("POST /api/ai/categorize", s.withMiddleware(s.handleAICategorize))
	mux.HandleFunc("POST /api/ai/group-tasks", s.withMiddleware(s.handleAIGroupTasks))
	mux.HandleFunc("GET /api/ai/status", s.withMiddleware(s.handleAIStatus))

	return s
}

// withMiddleware adds security headers, rate limiting, request IDs, and
// request logging.
func (s *Server) withMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Extract client IP (considering proxies)
		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		slog.DebugContext(ctx, "Request started", applog.NewFields().
			WithComponent(applog.ComponentHTTP).
			WithRequestID(requestID).
			WithClientIP(clientIP).
			WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent")).
			ToSlice()...)

		// Mutations are rate limited; reads are not.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded",
				applog.FieldComponent, applog.ComponentRateLimit,
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed", applog.NewFields().
			WithComponent(applog.ComponentHTTP).
			WithRequestID(requestID).
			WithClientIP(clientIP).
			WithHTTPRequest(r.Method, r.URL.Path, "", "").
			WithHTTPResponse(rw.statusCode, duration.Milliseconds(), rw.statusCode < 400).
			ToSlice()...)
	}
}

type contextKey string

const requestIDKey contextKey = "request_id"

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// flushDashboardCache drops every cached dashboard response. Called after
// imports and rule mutations, which invalidate everything at once.
func (s *Server) flushDashboardCache() {
	s.responseCache.Clear()
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

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.uploads.CountRecords(r.Context()); err != nil {
		slog.ErrorContext(r.Context(), "Readiness check failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "database not ready")
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
