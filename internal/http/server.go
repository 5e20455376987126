package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"denaro/internal/cache"
	"denaro/internal/log"
	"denaro/internal/middleware/ratelimit"
	"denaro/internal/middleware/security"
	"denaro/internal/middleware/trace"
	"denaro/internal/report"
	"denaro/internal/services"
)

// Options tunes the server. Zero values select defaults.
type Options struct {
	RateLimitPerMinute int
	TrendWindow        int
	CacheSweep         time.Duration
	Logger             *log.Logger
	// Ready reports backend health for /readyz. Nil means always ready.
	Ready func(context.Context) error
}

// Server exposes the ledger service as a JSON API.
type Server struct {
	http.Server
	svc         *services.LedgerService
	logger      *log.Logger
	trendWindow int
	started     time.Time
	ready       func(context.Context) error

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	cacheManager     *cache.Manager

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, svc *services.LedgerService, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Discard()
	}
	if opts.TrendWindow <= 0 {
		opts.TrendWindow = report.DefaultWindow
	}
	if opts.CacheSweep <= 0 {
		opts.CacheSweep = 10 * time.Minute
	}
	logger := opts.Logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		svc:              svc,
		logger:           logger,
		trendWindow:      opts.TrendWindow,
		ready:            opts.Ready,
		started:          time.Now(),
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute, ExemptReads: true}),
		securityDetector: security.NewDetector(),
		cacheManager:     cache.NewManager(opts.Logger),
	}
	s.traceMiddleware = trace.NewMiddleware(s.securityDetector.ExtractClientIP, opts.Logger)

	svc.RegisterCaches(s.cacheManager)
	s.cacheManager.StartCleanup(opts.CacheSweep)

	mux := http.NewServeMux()
	s.routes(mux)

	headers := security.NewHeadersMiddleware(security.APIHeadersConfig())
	var handler http.Handler = mux
	handler = s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, s.onRateLimited)(handler)
	handler = s.withSuspiciousRequestLogging(handler)
	handler = headers.Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/periods", s.handleListPeriods)
	mux.HandleFunc("GET /api/periods/{period}", s.handleGetPeriod)
	mux.HandleFunc("DELETE /api/periods/{period}", s.handleClearPeriod)
	mux.HandleFunc("POST /api/periods/{period}/restore", s.handleRestorePeriod)
	mux.HandleFunc("PUT /api/periods/{period}/budget", s.handleSetBudget)
	mux.HandleFunc("GET /api/periods/{period}/summary", s.handleSummary)
	mux.HandleFunc("GET /api/periods/{period}/breakdown", s.handleBreakdown)
	mux.HandleFunc("GET /api/periods/{period}/trend", s.handleTrend)

	mux.HandleFunc("POST /api/periods/{period}/expenses", s.handleAddExpense)
	mux.HandleFunc("PUT /api/periods/{period}/expenses/{ref}", s.handleEditExpense)
	mux.HandleFunc("DELETE /api/periods/{period}/expenses/{ref}", s.handleDeleteExpense)
	mux.HandleFunc("POST /api/periods/{period}/income", s.handleAddIncome)
	mux.HandleFunc("PUT /api/periods/{period}/income/{ref}", s.handleEditIncome)
	mux.HandleFunc("DELETE /api/periods/{period}/income/{ref}", s.handleDeleteIncome)

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.handleAddCategory)
	mux.HandleFunc("PUT /api/categories/{name}", s.handleRenameCategory)
	mux.HandleFunc("DELETE /api/categories/{name}", s.handleDeleteCategory)

	mux.HandleFunc("GET /api/goals", s.handleListGoals)
	mux.HandleFunc("POST /api/goals", s.handleAddGoal)
	mux.HandleFunc("GET /api/goals/{id}", s.handleGetGoal)
	mux.HandleFunc("PUT /api/goals/{id}", s.handleEditGoal)
	mux.HandleFunc("DELETE /api/goals/{id}", s.handleDeleteGoal)

	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.HandleFunc("PUT /api/settings", s.handleUpdateSettings)

	mux.HandleFunc("GET /api/backup", s.handleBackup)
	mux.HandleFunc("POST /api/restore", s.handleRestore)
	mux.HandleFunc("POST /api/reload", s.handleReload)
	mux.HandleFunc("POST /api/reconcile", s.handleReconcile)
}

// withSuspiciousRequestLogging records requests matching known scanner
// patterns. They are still served.
func (s *Server) withSuspiciousRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.securityDetector.DetectSuspiciousRequest(r) {
			s.logger.WithComponent(log.ComponentSecurity).WarnContext(r.Context(), "Suspicious request",
				log.FieldRequestID, trace.GetRequestID(r.Context()),
				log.FieldClientIP, s.securityDetector.ExtractClientIP(r),
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldRequestID, trace.GetRequestID(r.Context()),
		log.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, CodeRateLimited, "rate limit exceeded, try again later").
		Header("Retry-After", "60").
		Write(w)
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
