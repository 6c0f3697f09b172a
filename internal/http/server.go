package http

import (
	"bytes"
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"expensetracker/internal/core"
	"expensetracker/internal/log"
	"expensetracker/internal/middleware/ratelimit"
	"expensetracker/internal/middleware/security"
	"expensetracker/internal/middleware/trace"
	appweb "expensetracker/web"
)

// pageTemplates are rendered inside layout.html.
var pageTemplates = []string{"dashboard.html", "expense_new.html", "expenses.html", "settings.html"}

// Expenses is what the handlers need from the service layer.
type Expenses interface {
	AddExpense(ctx context.Context, e core.NewExpense) (int64, error)
	FetchAll(ctx context.Context) ([]core.Expense, error)
	AddDemoBatch(ctx context.Context, count int) (int, error)
}

// Readiness is probed by /readyz.
type Readiness interface {
	Ping(ctx context.Context) error
	Count(ctx context.Context) (int64, error)
}

type Server struct {
	http.Server
	templates map[string]*template.Template
	expenses  Expenses
	readiness Readiness
	logger    *log.Logger
	limiter   *ratelimit.Limiter

	today         func() core.Date
	demoBatchSize int
	dbPath        string
	mirrorEnabled bool
	rateLimit     ratelimit.Config

	started      time.Time
	shutdownOnce sync.Once
}

// ServerOption customises a Server.
type ServerOption func(*Server)

func WithLogger(l *log.Logger) ServerOption {
	return func(s *Server) { s.logger = l }
}

// WithClock sets the function used for the default date of the Add Expense form.
func WithClock(today func() core.Date) ServerOption {
	return func(s *Server) { s.today = today }
}

func WithDemoBatchSize(n int) ServerOption {
	return func(s *Server) { s.demoBatchSize = n }
}

// WithRateLimit configures throttling of the write endpoints.
func WithRateLimit(cfg ratelimit.Config) ServerOption {
	return func(s *Server) { s.rateLimit = cfg }
}

// WithSettingsInfo sets the operational details shown on the settings page.
func WithSettingsInfo(dbPath string, mirrorEnabled bool) ServerOption {
	return func(s *Server) {
		s.dbPath = dbPath
		s.mirrorEnabled = mirrorEnabled
	}
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, expenses Expenses, readiness Readiness, opts ...ServerOption) *Server {
	s := &Server{
		expenses:      expenses,
		readiness:     readiness,
		logger:        log.FromContext(context.Background()),
		today:         core.Today,
		demoBatchSize: 60,
		rateLimit:     ratelimit.DefaultConfig(),
		started:       time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent(log.ComponentHTTP)
	s.limiter = ratelimit.NewLimiter(s.rateLimit)

	templates, err := parseTemplates()
	if err != nil {
		s.logger.Error("Failed parsing templates", log.FieldError, err, log.FieldOperation, log.OpStartup)
	}
	s.templates = templates

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func parseTemplates() (map[string]*template.Template, error) {
	out := make(map[string]*template.Template, len(pageTemplates))
	for _, name := range pageTemplates {
		t, err := template.New("layout.html").
			Funcs(templateFuncs).
			ParseFS(appweb.TemplatesFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, err
		}
		out[name] = t
	}
	return out, nil
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("Page not found").Write(w)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		NewHTMXResponse().Status(http.StatusMethodNotAllowed).Write(w)
	})

	r.Use(
		log.Middleware(s.logger),
		trace.NewMiddleware(s.logger, security.ClientIP).Middleware,
		security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware,
	)

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.PathPrefix("/static/").Handler(security.StaticAssetMiddleware(3600)(static)).Methods(http.MethodGet)
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	limited := s.limiter.Middleware(security.ClientIP, s.handleRateLimited)

	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)

	r.HandleFunc("/dashboard", s.handleDashboard).Methods(http.MethodGet)
	r.HandleFunc("/api/dashboard", s.handleDashboardJSON).Methods(http.MethodGet)

	r.HandleFunc("/expenses/new", s.handleNewExpense).Methods(http.MethodGet)
	r.HandleFunc("/expenses/export.csv", s.handleExportCSV).Methods(http.MethodGet)
	r.HandleFunc("/expenses", s.handleListExpenses).Methods(http.MethodGet)
	r.Handle("/expenses", limited(http.HandlerFunc(s.handleCreateExpense))).Methods(http.MethodPost)

	r.HandleFunc("/settings", s.handleSettings).Methods(http.MethodGet)
	r.Handle("/settings/demo", limited(http.HandlerFunc(s.handleSeedDemo))).Methods(http.MethodPost)

	return r
}

// Shutdown stops the rate limiter and gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// render executes page inside the layout, or only the named block when block is set.
func (s *Server) render(w http.ResponseWriter, r *http.Request, page, block string, data any) {
	t, ok := s.templates[page]
	if !ok {
		log.FromContext(r.Context()).WithComponent(log.ComponentTemplate).ErrorContext(r.Context(), "Templates not loaded",
			"template", page)
		InternalServerError("Templates not loaded").Write(w)
		return
	}
	if block == "" {
		block = "layout.html"
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, block, data); err != nil {
		log.LogError(r.Context(), log.FromContext(r.Context()), "Template execution failed", err, log.ErrorTypeInternal, log.OpRender)
		InternalServerError("Error rendering page").Write(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentSecurity).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, security.ClientIP(r),
		log.FieldPath, r.URL.Path)
	TooManyRequestsError("Too many requests. Please try again later.").Write(w)
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
