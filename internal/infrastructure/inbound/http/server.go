package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"

	"github.com/sophialabs/testlabadvisor/internal/domain/advisory"
	"github.com/sophialabs/testlabadvisor/internal/domain/component"
	"github.com/sophialabs/testlabadvisor/internal/domain/match"
	"github.com/sophialabs/testlabadvisor/internal/domain/testlog"
	"github.com/sophialabs/testlabadvisor/internal/domain/trace"
	"github.com/sophialabs/testlabadvisor/internal/infrastructure/ports"
	"github.com/sophialabs/testlabadvisor/internal/infrastructure/services"
	"github.com/sophialabs/testlabadvisor/internal/infrastructure/usecases"
)

const maxBodySize = 1 << 20 // 1 MB

const (
	defaultTraceLast   = 50
	defaultRecentLimit = 20
)

// Deps are the collaborators the server dispatches to. Metrics may be nil.
type Deps struct {
	Handle      *services.DatasetHandle
	Lookup      *usecases.LookupUseCase
	LogOp       *usecases.LogOperationUseCase
	Advise      *usecases.AdviseUseCase
	Sessions    *usecases.SessionUseCase
	Check       *usecases.CheckDataUseCase
	Metrics     http.Handler
	Logger      ports.Logger
	PageConfig  services.PageConfig
	RecentLimit int
	CORSOrigins []string
}

// Server is the JSON API of the advisor.
type Server struct {
	router *chi.Mux
	deps   Deps
	logger ports.Logger
}

// NewServer creates a new Server and builds its router.
func NewServer(deps Deps) *Server {
	if deps.PageConfig.DefaultSize <= 0 {
		deps.PageConfig = services.DefaultPageConfig
	}
	if deps.RecentLimit <= 0 {
		deps.RecentLimit = defaultRecentLimit
	}
	if len(deps.CORSOrigins) == 0 {
		deps.CORSOrigins = []string{"*"}
	}
	s := &Server{deps: deps, logger: deps.Logger}
	s.router = s.buildRouter()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) buildRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.deps.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/components", s.handleSearch)
		r.Post("/components/search", s.handleSearchBody)
		r.Get("/components/resolve", s.handleResolve)
		r.Get("/selectors", s.handleSelectors)
		r.Get("/summary", s.handleSummary)
		r.Get("/groups/{field}", s.handleGroups)
		r.Get("/recent-components", s.handleRecentComponents)
		r.Get("/operations", s.handleOperations)
		r.Get("/hints", s.handleHints)
		r.Post("/log", s.handleAppendLog)
		r.Get("/log", s.handleRecentLog)
		r.Post("/advisory", s.handleAdvise)
		r.Get("/check", s.handleCheck)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)
			r.Get("/{sessionID}", s.handleGetSession)
			r.Put("/{sessionID}/query", s.handleSetSessionQuery)
			r.Put("/{sessionID}/selection", s.handleSetSessionSelection)
			r.Delete("/{sessionID}", s.handleDeleteSession)
		})
	})

	r.Route("/__admin", func(r chi.Router) {
		r.Post("/reload", s.handleReload)
		r.Get("/trace", s.handleGetTrace)
	})

	if s.deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.deps.Metrics)
	}

	r.NotFound(s.notFoundHandler)
	return r
}

// searchResponse is a paginated search result.
type searchResponse struct {
	Query  string       `json:"query"`
	Status match.Status `json:"status"`
	services.Page[component.Record]
}

type queryRequest struct {
	Query any `json:"query"`
}

func (s *Server) notFoundHandler(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("request received (no route)", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)
	writeError(w, r, http.StatusNotFound, "not_found", "No route registered for this path")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.deps.Handle.Current()
	render.JSON(w, r, map[string]any{
		"status":   "ok",
		"records":  snap.Dataset.Len(),
		"version":  snap.Version,
		"warnings": len(snap.Warnings),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	s.logger.Info("request received", "method", r.Method, "path", r.URL.Path, "query", q, "remote", r.RemoteAddr)
	s.writeSearch(w, r, s.deps.Lookup.Search(sessionOf(r), q))
}

func (s *Server) handleSearchBody(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.logger.Info("request received", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)
	s.writeSearch(w, r, s.deps.Lookup.SearchAny(sessionOf(r), req.Query))
}

func (s *Server) writeSearch(w http.ResponseWriter, r *http.Request, res match.SearchResult) {
	page := services.Paginate(res.Records, s.deps.PageConfig, extractQueryParams(r))
	s.logger.Info("request matched", "path", r.URL.Path, "status", res.Status, "results", page.TotalItems)
	render.JSON(w, r, searchResponse{Query: res.Query, Status: res.Status, Page: page})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	qp := r.URL.Query()
	sel := match.Selector{Refcode: qp.Get("refcode"), FRUName: qp.Get("fru")}
	s.logger.Info("request received", "method", r.Method, "path", r.URL.Path, "refcode", sel.Refcode, "fru", sel.FRUName)
	render.JSON(w, r, s.deps.Lookup.Resolve(sessionOf(r), qp.Get("q"), sel))
}

func (s *Server) handleSelectors(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, s.deps.Lookup.Selectors(r.URL.Query().Get("q")))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, s.deps.Lookup.Summary())
}

func (s *Server) handleGroups(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "field")
	field, ok := component.ParseField(name)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "unknown_field", "Unknown field: "+name)
		return
	}
	render.JSON(w, r, map[string]any{
		"field":  field,
		"groups": s.deps.Lookup.Groups(field),
	})
}

func (s *Server) handleRecentComponents(w http.ResponseWriter, r *http.Request) {
	n, ok := intParam(w, r, "n", usecases.RecentPreview)
	if !ok {
		return
	}
	render.JSON(w, r, s.deps.Lookup.Recent(n))
}

func (s *Server) handleOperations(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, s.deps.Handle.Current().Catalog.All())
}

func (s *Server) handleHints(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, component.SearchHints())
}

func (s *Server) handleAppendLog(w http.ResponseWriter, r *http.Request) {
	var entry testlog.Entry
	if !decodeBody(w, r, &entry) {
		return
	}
	s.logger.Info("request received", "method", r.Method, "path", r.URL.Path, "card_id", entry.CardID, "remote", r.RemoteAddr)

	saved, err := s.deps.LogOp.Execute(r.Context(), entry)
	if err != nil {
		var verr *testlog.ValidationError
		switch {
		case errors.As(err, &verr):
			writeError(w, r, http.StatusUnprocessableEntity, "validation_failed", verr.Error())
		case errors.Is(err, usecases.ErrRateLimited):
			w.Header().Set("Retry-After", "1")
			writeError(w, r, http.StatusTooManyRequests, "rate_limited", "Too many submissions")
		case errors.Is(err, testlog.ErrSink):
			writeError(w, r, http.StatusInternalServerError, "sink_failure", err.Error())
		default:
			writeError(w, r, http.StatusInternalServerError, "internal", err.Error())
		}
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, saved)
}

func (s *Server) handleRecentLog(w http.ResponseWriter, r *http.Request) {
	n, ok := intParam(w, r, "n", s.deps.RecentLimit)
	if !ok {
		return
	}
	entries, err := s.deps.LogOp.Recent(r.Context(), n)
	if err != nil {
		s.logger.Error("failed to read log", "error", err)
		writeError(w, r, http.StatusInternalServerError, "read_failed", err.Error())
		return
	}
	render.JSON(w, r, entries)
}

func (s *Server) handleAdvise(w http.ResponseWriter, r *http.Request) {
	var req advisory.Request
	if !decodeBody(w, r, &req) {
		return
	}
	s.logger.Info("request received", "method", r.Method, "path", r.URL.Path, "refcode", req.Refcode, "component", req.Component)

	advice, err := s.deps.Advise.Execute(r.Context(), sessionOf(r), req)
	if err != nil {
		if errors.Is(err, usecases.ErrAdvisorUnavailable) {
			writeError(w, r, http.StatusServiceUnavailable, "not_ready", err.Error())
			return
		}
		writeError(w, r, http.StatusInternalServerError, "advisory_failed", err.Error())
		return
	}
	render.JSON(w, r, advice)
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	report := s.deps.Check.Execute()
	render.JSON(w, r, map[string]any{
		"ok":     report.OK(),
		"report": report,
	})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	snap, err := s.deps.Handle.Reload(r.Context())
	if err != nil {
		s.logger.Error("reload failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, "reload_failed", err.Error())
		return
	}
	warnings := snap.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	render.JSON(w, r, map[string]any{
		"status":   "reloaded",
		"version":  snap.Version,
		"records":  snap.Dataset.Len(),
		"warnings": warnings,
	})
}

func (s *Server) handleGetTrace(w http.ResponseWriter, r *http.Request) {
	last, ok := intParam(w, r, "last", defaultTraceLast)
	if !ok {
		return
	}
	entries := s.deps.Lookup.Trace(trace.Kind(r.URL.Query().Get("kind")), last)
	render.JSON(w, r, entries)
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	render.Status(r, status)
	render.JSON(w, r, errorResponse{Error: code, Message: message})
}

// decodeBody reads a JSON body into v, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	defer func() { _ = r.Body.Close() }()
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := render.DecodeJSON(r.Body, v); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_body", "Request body is not valid JSON: "+err.Error())
		return false
	}
	return true
}

// intParam parses an optional non-negative integer query parameter.
func intParam(w http.ResponseWriter, r *http.Request, name string, def int) (int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeError(w, r, http.StatusBadRequest, "invalid_parameter", name+" must be a non-negative integer")
		return 0, false
	}
	return n, true
}

// sessionOf returns the optional session the request belongs to.
func sessionOf(r *http.Request) string {
	return r.URL.Query().Get("session")
}

func extractQueryParams(r *http.Request) map[string]string {
	params := make(map[string]string)
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}
	return params
}
