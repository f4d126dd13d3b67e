// Package server exposes the assessment pipeline over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/clauselens/clauselens/internal/assessment"
	"github.com/clauselens/clauselens/internal/classify"
	"github.com/clauselens/clauselens/internal/model"
)

const maxRequestBody = 1 << 20 // 1 MiB of request JSON is plenty

// Server serves the assessment API.
type Server struct {
	builder *assessment.Builder
	now     func() time.Time
}

// New creates a server around the given builder.
func New(builder *assessment.Builder) *Server {
	return &Server{builder: builder, now: time.Now}
}

// Routes returns the chi router with all endpoints mounted.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	r.Get("/healthz", s.handleHealthz)
	r.Get("/.well-known/jwks.json", s.handleJWKS)
	r.Route("/api", func(r chi.Router) {
		r.Post("/assess", s.handleAssess)
		r.Post("/verify", s.handleVerify)
	})
	return r
}

// AssessRequest is the wire shape for POST /api/assess.
type AssessRequest struct {
	URL       string `json:"url,omitempty"`
	Text      string `json:"text,omitempty"`
	Hint      string `json:"hint,omitempty"`
	SkipCache bool   `json:"skip_cache,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleJWKS(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.builder.Signer().PublicJWKS())
}

func (s *Server) handleAssess(w http.ResponseWriter, r *http.Request) {
	var req AssessRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	resp, err := s.builder.Build(r.Context(), assessment.Request{
		URL:       req.URL,
		Text:      req.Text,
		Hint:      req.Hint,
		SkipCache: req.SkipCache,
	})
	switch {
	case errors.Is(err, assessment.ErrNoInput):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, classify.ErrNoClauses):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
	case err != nil:
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var resp model.AssessmentResponse
	if err := decodeJSON(r, &resp); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	result := assessment.Verify(s.builder.Signer().PublicKey(), &resp, s.now())
	writeJSON(w, http.StatusOK, result)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.New("invalid request body: " + err.Error())
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
