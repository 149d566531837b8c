package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"leadpilot/internal/infra/logging"
	"leadpilot/internal/infra/metrics"
	"leadpilot/internal/usecase"
)

// Server is the HTTP surface the client screens call. Gated actions run
// through the upsell decider; a blocked action answers with the opened
// presenter instead of the real result.
type Server struct {
	authUC    usecase.AuthUseCase
	feedUC    usecase.FeedUseCase
	creditUC  usecase.CreditUseCase
	cnaeUC    usecase.CNAEUseCase
	catalog   usecase.PlanCatalog
	decider   usecase.UpsellDecider
	presenter usecase.UpsellPresenter
	clock     usecase.DiscountClock
	sessions  *SessionParser
	log       *zerolog.Logger
}

func NewServer(
	authUC usecase.AuthUseCase,
	feedUC usecase.FeedUseCase,
	creditUC usecase.CreditUseCase,
	cnaeUC usecase.CNAEUseCase,
	catalog usecase.PlanCatalog,
	decider usecase.UpsellDecider,
	presenter usecase.UpsellPresenter,
	clock usecase.DiscountClock,
	sessions *SessionParser,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "WebServer").Logger()
	return &Server{
		authUC:    authUC,
		feedUC:    feedUC,
		creditUC:  creditUC,
		cnaeUC:    cnaeUC,
		catalog:   catalog,
		decider:   decider,
		presenter: presenter,
		clock:     clock,
		sessions:  sessions,
		log:       &l,
	}
}

// Router assembles the chi router with the shared middleware chain.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(s.traceMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(s.logMiddleware)
	r.Use(s.sessions.Middleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleLogin)
			r.Post("/logout", s.handleLogout)
		})

		r.Get("/feed", s.handleFeed)
		r.Post("/feed/filter", s.handleFeedFilter)

		r.Route("/leads", func(r chi.Router) {
			r.Post("/{id}/unlock", s.handleUnlock)
			r.Post("/{id}/favorite", s.handleFavorite)
			r.Post("/bulk/favorite", s.handleBulkFavorite)
			r.Post("/bulk/message", s.handleBulkMessage)
		})

		r.Get("/cnae", s.handleCNAESearch)
		r.Get("/plans", s.handlePlans)
		r.Get("/credits", s.handleCredits)

		r.Route("/upsell", func(r chi.Router) {
			r.Post("/", s.handleUpsellRequest)
			r.Get("/{id}", s.handlePresenterGet)
			r.Post("/{id}/upgrade", s.handlePresenterUpgrade)
			r.Post("/{id}/payment-method", s.handlePresenterPaymentMethod)
			r.Post("/{id}/switch-plus", s.handlePresenterSwitchPlus)
			r.Post("/{id}/card", s.handlePresenterCard)
			r.Post("/{id}/pix/copy", s.handlePresenterPixCopy)
			r.Post("/{id}/back", s.handlePresenterBack)
			r.Post("/{id}/close", s.handlePresenterClose)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

func (s *Server) traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get("X-Request-Id")
		if traceID == "" {
			traceID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", traceID)
		next.ServeHTTP(w, r.WithContext(logging.WithTraceID(r.Context(), traceID)))
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Error().Interface("panic", rec).Str("path", r.URL.Path).Msg("handler panicked")
				http.Error(w, "Internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		elapsed := time.Since(start)

		metrics.ObserveHTTPRequest(routePattern(r), r.Method, sw.status, float64(elapsed.Milliseconds()))
		logging.With(r.Context(), s.log).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", sw.status).
			Dur("duration", elapsed).
			Msg("request")
	})
}

// routePattern reports the chi template ("/api/v1/upsell/{id}") rather than
// the raw path, keeping metric cardinality bounded.
func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
