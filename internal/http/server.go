package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	applog "breakeven/internal/log"
	"breakeven/internal/middleware/ratelimit"
	"breakeven/internal/middleware/security"
	"breakeven/internal/middleware/trace"
	"breakeven/internal/services"
	appweb "breakeven/web"
)

// Options tunes the protective middleware. Zero values use defaults.
type Options struct {
	Logger             *applog.Logger
	RateLimitPerMinute int
	TrustedProxies     []string
}

type Server struct {
	http.Server
	svc        *services.CalculationService
	templates  *template.Template
	logger     *applog.Logger
	structured *applog.StructuredLogger

	securityDetector *security.Detector
	rateLimiter      *ratelimit.Limiter
	traceMiddleware  *trace.Middleware

	appMetrics   appMetrics
	shutdownOnce sync.Once
}

type appMetrics struct {
	uptime       time.Time
	calculations atomic.Int64
	pdfs         atomic.Int64
	emails       atomic.Int64
	saved        atomic.Int64
}

// NewServer configures routes, templates and middleware, returning a
// ready-to-run http.Server.
func NewServer(addr string, svc *services.CalculationService, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	rlConfig := ratelimit.DefaultConfig()
	if opts.RateLimitPerMinute > 0 {
		rlConfig.RequestsPerMinute = opts.RateLimitPerMinute
	}

	detector := security.NewDetector()
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring invalid trusted proxy", "cidr", cidr, "error", err)
		}
	}

	mux := http.NewServeMux()
	s := &Server{
		svc:              svc,
		logger:           logger,
		structured:       applog.NewStructuredLogger(logger),
		securityDetector: detector,
		rateLimiter:      ratelimit.NewLimiter(rlConfig),
		traceMiddleware:  trace.NewMiddleware(detector.ExtractClientIP),
	}
	s.appMetrics.uptime = time.Now()

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", "error", err)
	}

	limited := s.rateLimiter.Middleware(detector.ExtractClientIP, writeRateLimited)

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	// UI partials
	mux.Handle("POST /ui/calculate", limited(http.HandlerFunc(s.handleUICalculate)))

	// JSON API
	mux.Handle("POST /api/calculate", limited(http.HandlerFunc(s.handleCalculate)))
	mux.Handle("POST /api/download-pdf", limited(security.NoStoreMiddleware(http.HandlerFunc(s.handleDownloadPDF))))
	mux.Handle("POST /api/email-results", limited(http.HandlerFunc(s.handleEmailResults)))
	mux.Handle("POST /api/calculations", limited(http.HandlerFunc(s.handleSaveCalculation)))
	mux.Handle("GET /api/calculations/{id}", limited(http.HandlerFunc(s.handleGetCalculation)))

	// Outermost first: headers, detection, logger, tracing.
	var handler http.Handler = mux
	handler = s.traceMiddleware.Middleware(handler)
	handler = applog.Middleware(logger)(handler)
	handler = detector.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// writeRateLimited answers in the format the caller expects: an HTML
// fragment for UI partials, JSON for the API.
func writeRateLimited(w http.ResponseWriter, r *http.Request) {
	const msg = "Rate limit exceeded. Please try again later."
	slog.WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldComponent, applog.ComponentRateLimit,
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	if strings.HasPrefix(r.URL.Path, "/ui/") {
		ErrorResponse(http.StatusTooManyRequests, msg).Write(w)
		return
	}
	JSONMessage(http.StatusTooManyRequests, msg).Write(w)
}
