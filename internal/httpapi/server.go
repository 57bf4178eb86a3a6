// Package httpapi exposes the assessment engine, outline builder and
// disclosure template selector as a JSON API.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dshills/esgcheck/internal/assessment"
	"github.com/dshills/esgcheck/internal/disclosure"
	"github.com/dshills/esgcheck/internal/requirements"
	"github.com/dshills/esgcheck/internal/schema"
	"github.com/dshills/esgcheck/internal/store"
	"github.com/dshills/esgcheck/internal/validate"
)

const maxBodyBytes = 4 << 20

// Server handles API requests. repo may be nil, in which case results are
// not persisted and the read routes answer 501.
type Server struct {
	engine   *assessment.Engine
	registry *requirements.Registry
	repo     store.Repository
	logger   *slog.Logger
}

// New returns a Server. A nil logger discards output.
func New(engine *assessment.Engine, registry *requirements.Registry, repo store.Repository, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{engine: engine, registry: registry, repo: repo, logger: logger}
}

// Routes returns the router with every endpoint mounted.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.healthz)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/assessments", s.createAssessment)
		r.Get("/assessments/{id}", s.getAssessment)
		r.Get("/companies/{companyID}/assessments", s.listAssessments)
		r.Post("/outline", s.outline)
		r.Get("/disclosure-templates/{jurisdiction}/{listing}", s.disclosureTemplate)
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// ── Request and response bodies ──────────────────────────────────────────────

type assessRequest struct {
	Profile  schema.CompanyProfile        `json:"profile"`
	Template schema.QuestionnaireTemplate `json:"template"`
	Response schema.QuestionnaireResponse `json:"response"`
}

type outlineRequest struct {
	Profile    schema.CompanyProfile `json:"profile"`
	Frameworks []string              `json:"frameworks"`
}

type outlineResponse struct {
	Sections []schema.OutlineSection `json:"sections"`
}

type errorResponse struct {
	Error  string                     `json:"error"`
	Fields []validate.ValidationError `json:"fields,omitempty"`
}

// ── Handlers ─────────────────────────────────────────────────────────────────

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) createAssessment(w http.ResponseWriter, r *http.Request) {
	var req assessRequest
	if !s.decode(w, r, &req) {
		return
	}
	res, err := s.engine.Assess(req.Profile, req.Template, req.Response)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if s.repo != nil {
		if err := s.repo.Save(r.Context(), res); err != nil {
			s.writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) getAssessment(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	res, err := s.repo.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) listAssessments(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	list, err := s.repo.ListByCompany(r.Context(), chi.URLParam(r, "companyID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) outline(w http.ResponseWriter, r *http.Request) {
	var req outlineRequest
	if !s.decode(w, r, &req) {
		return
	}
	errs := validate.Profile(req.Profile)
	for i, f := range req.Frameworks {
		if !requirements.IsFramework(f) {
			errs = append(errs, validate.ValidationError{
				Field:   "frameworks[" + strconv.Itoa(i) + "]",
				Message: "unknown framework " + f,
			})
		}
	}
	if err := errs.Err(); err != nil {
		s.writeError(w, err)
		return
	}
	sections := s.registry.BuildOutline(req.Profile.Jurisdiction, req.Profile.IsListed(), req.Frameworks)
	if sections == nil {
		sections = []schema.OutlineSection{}
	}
	writeJSON(w, http.StatusOK, outlineResponse{Sections: sections})
}

func (s *Server) disclosureTemplate(w http.ResponseWriter, r *http.Request) {
	p := schema.CompanyProfile{
		Jurisdiction:  schema.Jurisdiction(strings.ToUpper(chi.URLParam(r, "jurisdiction"))),
		ListingStatus: schema.ListingStatus(strings.ToLower(chi.URLParam(r, "listing"))),
	}
	if p.ListingStatus != schema.ListingListed && p.ListingStatus != schema.ListingNonListed {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "listing must be listed or non_listed"})
		return
	}
	t, err := disclosure.Select(p)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// ── Helpers ──────────────────────────────────────────────────────────────────

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body: " + err.Error()})
		return false
	}
	return true
}

func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.repo == nil {
		writeJSON(w, http.StatusNotImplemented, errorResponse{Error: "no result store configured"})
		return false
	}
	return true
}

// writeError maps domain errors to status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var ve validate.Errors
	var nf *disclosure.TemplateNotFoundError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "validation failed", Fields: ve})
	case errors.As(err, &nf):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "assessment not found"})
	default:
		s.logger.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
