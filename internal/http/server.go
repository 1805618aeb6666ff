// Package http exposes the JSON API: auth, transaction, budget and goal
// CRUD, derived reports, and CSV export. Handlers stay thin; domain rules
// live in internal/core and persistence behind internal/store.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/events"
	applog "fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/session"
	"fintrack/internal/store"
)

// EventPublisher pushes transaction mutation events to the bus. Nil means
// the bus is not configured and mutations are not mirrored.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, event *events.TransactionEvent) error
}

// Options carries the optional collaborators of a Server.
type Options struct {
	Logger            *applog.Logger
	Bus               EventPublisher
	RequestsPerMinute int
}

// Server wraps http.Server with the API's dependencies and response caches.
type Server struct {
	http.Server

	store    store.Store
	sessions *session.Manager
	bus      EventPublisher
	logger   *applog.Logger
	audit    *applog.StructuredLogger

	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware
	detector *security.Detector

	// Derived views are cached per user and invalidated on every
	// successful mutation, so reads after a write always see fresh data.
	caches         *cache.Manager
	dashboardCache *cache.LRUCache[dashboardResponse]
	spendingCache  *cache.LRUCache[spendingReport]
	trendCache     *cache.LRUCache[[]core.MonthFlow]

	shutdownOnce sync.Once
}

// NewServer builds the API server. The returned server is ready for
// ListenAndServe; call Shutdown to stop its background goroutines.
func NewServer(addr string, st store.Store, sessions *session.Manager, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentHTTP)
	}

	detector := security.NewDetector()

	s := &Server{
		store:    st,
		sessions: sessions,
		bus:      opts.Bus,
		logger:   logger,
		audit:    applog.NewStructuredLogger(logger),
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RequestsPerMinute,
			CleanupInterval:   5 * time.Minute,
		}),
		tracer:         trace.NewMiddleware(detector.ExtractClientIP),
		detector:       detector,
		caches:         cache.NewManager(),
		dashboardCache: cache.NewLRUCache[dashboardResponse](512, 30*time.Second),
		spendingCache:  cache.NewLRUCache[spendingReport](1024, time.Minute),
		trendCache:     cache.NewLRUCache[[]core.MonthFlow](1024, time.Minute),
	}
	s.caches.Register(s.dashboardCache)
	s.caches.Register(s.spendingCache)
	s.caches.Register(s.trendCache)
	s.caches.StartCleanup(time.Minute)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	handler := headers.Middleware(s.tracer.Middleware(s.guard(s.routes())))

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("POST /api/register", s.handleRegister)
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("POST /api/logout", s.handleLogout)
	mux.HandleFunc("GET /api/me", s.withAuth(s.handleMe))
	mux.HandleFunc("GET /api/profile", s.withAuth(s.handleGetProfile))
	mux.HandleFunc("PUT /api/profile", s.withAuth(s.handleUpdateProfile))

	mux.HandleFunc("GET /api/transactions", s.withAuth(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.withAuth(s.handleCreateTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.withAuth(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.withAuth(s.handleDeleteTransaction))
	mux.HandleFunc("GET /api/transactions/export", s.withAuth(s.handleExportTransactions))
	mux.HandleFunc("GET /api/categories", s.withAuth(s.handleListCategories))

	mux.HandleFunc("GET /api/budgets", s.withAuth(s.handleListBudgets))
	mux.HandleFunc("POST /api/budgets", s.withAuth(s.handleCreateBudget))
	mux.HandleFunc("GET /api/budgets/progress", s.withAuth(s.handleBudgetProgress))
	mux.HandleFunc("GET /api/budgets/{id}", s.withAuth(s.handleGetBudget))
	mux.HandleFunc("PUT /api/budgets/{id}", s.withAuth(s.handleUpdateBudget))
	mux.HandleFunc("DELETE /api/budgets/{id}", s.withAuth(s.handleDeleteBudget))

	mux.HandleFunc("GET /api/goals", s.withAuth(s.handleListGoals))
	mux.HandleFunc("POST /api/goals", s.withAuth(s.handleCreateGoal))
	mux.HandleFunc("GET /api/goals/progress", s.withAuth(s.handleGoalProgress))
	mux.HandleFunc("GET /api/goals/{id}", s.withAuth(s.handleGetGoal))
	mux.HandleFunc("PUT /api/goals/{id}", s.withAuth(s.handleUpdateGoal))
	mux.HandleFunc("DELETE /api/goals/{id}", s.withAuth(s.handleDeleteGoal))
	mux.HandleFunc("PATCH /api/goals/{id}/progress", s.withAuth(s.handleSetGoalProgress))

	mux.HandleFunc("GET /api/dashboard", s.withAuth(s.handleDashboard))
	mux.HandleFunc("GET /api/reports/spending", s.withAuth(s.handleSpendingReport))
	mux.HandleFunc("GET /api/reports/trend", s.withAuth(s.handleTrendReport))

	return mux
}

// guard throttles mutating requests per client IP and flags requests that
// match known probe patterns.
func (s *Server) guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			s.logger.WarnContext(r.Context(), "Suspicious request detected",
				applog.FieldClientIP, s.detector.ExtractClientIP(r),
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
		}

		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			clientIP := s.detector.ExtractClientIP(r)
			if !s.limiter.Allow(clientIP) {
				s.logger.WarnContext(r.Context(), "Rate limit exceeded",
					applog.FieldClientIP, clientIP,
					applog.FieldPath, r.URL.Path)
				respondError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// invalidateViews drops every cached derived view belonging to a user.
func (s *Server) invalidateViews(userID string) {
	prefix := userID + "|"
	s.dashboardCache.InvalidatePrefix(prefix)
	s.spendingCache.InvalidatePrefix(prefix)
	s.trendCache.InvalidatePrefix(prefix)
}

// Shutdown stops background goroutines before draining in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.limiter.Stop()
	})
	return s.Server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		s.logger.ErrorContext(ctx, "Readiness check failed", applog.FieldError, err)
		respondError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	traceMetrics := s.tracer.GetMetrics()
	limiterMetrics := s.limiter.GetMetrics()
	detectionMetrics := s.detector.GetMetrics()

	respondJSON(w, http.StatusOK, map[string]any{
		"requests_total":           traceMetrics.TotalRequests,
		"avg_response_time_us":     traceMetrics.AverageResponseTime,
		"rate_limited_client_ips":  limiterMetrics.ClientCount,
		"rate_limit_hits":          limiterMetrics.TotalHits,
		"suspicious_requests":      detectionMetrics.SuspiciousRequests,
		"cached_dashboard_entries": s.dashboardCache.Size(),
		"cached_report_entries":    s.spendingCache.Size() + s.trendCache.Size(),
	})
}
