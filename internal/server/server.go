// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/jeranaias/taxassist-tui/internal/apperr"
	"github.com/jeranaias/taxassist-tui/internal/config"
	"github.com/jeranaias/taxassist-tui/internal/features"
	"github.com/jeranaias/taxassist-tui/internal/logging"
	"github.com/jeranaias/taxassist-tui/internal/markup"
	"github.com/jeranaias/taxassist-tui/internal/model"
	"github.com/jeranaias/taxassist-tui/internal/upstream"
)

const (
	// DefaultAddr is used when the config leaves the address empty.
	DefaultAddr = "127.0.0.1:8080"

	// maxBodyBytes bounds JSON request bodies.
	maxBodyBytes = 1 << 20
)

// Options configures a Server.
type Options struct {
	Config  *config.Config
	Service upstream.Service // nil when no API key is configured
	Logger  *slog.Logger
	Version string
	Now     func() time.Time
}

// Server serves the assistant over HTTP.
type Server struct {
	cfg     *config.Config
	svc     upstream.Service
	logger  *slog.Logger
	version string
	now     func() time.Time

	router  *http.ServeMux
	handler http.Handler
	limiter *RateLimiter

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// New builds a server with its routes and middleware installed.
func New(opts Options) *Server {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	s := &Server{
		cfg:     cfg,
		svc:     opts.Service,
		logger:  logger.With("component", "server"),
		version: lo.Ternary(opts.Version == "", "dev", opts.Version),
		now:     now,
		router:  http.NewServeMux(),
		limiter: NewRateLimiter(cfg.Server.RateLimit, cfg.Server.Burst),
	}
	s.setupRoutes()
	s.handler = Chain(
		RecoveryMiddleware(s.logger),
		SecurityHeadersMiddleware(),
		CORSMiddleware(cfg.Server.AllowedOrigins),
		LoggingMiddleware(s.logger),
		RateLimitMiddleware(s.limiter, s.logger),
	)(s.router)
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /api/features", s.handleFeatures)
	s.router.HandleFunc("POST /api/render", s.handleRender)
	s.router.HandleFunc("POST /api/ask", s.handleAsk)
	s.router.HandleFunc("GET /api/chat", s.handleChat)
	s.router.HandleFunc("GET /api/checklist", s.handleChecklist)
	s.router.HandleFunc("GET /api/deadlines", s.handleDeadlines)
	s.router.HandleFunc("POST /api/documents/analyze", s.handleAnalyze)
}

// Handler returns the fully wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens on the configured address and serves until Shutdown.
// It returns http.ErrServerClosed after a clean shutdown.
func (s *Server) Start() error {
	addr := lo.Ternary(s.cfg.Server.Addr == "", DefaultAddr, s.cfg.Server.Addr)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Streams can outlast a one-shot request.
		WriteTimeout: time.Duration(s.cfg.Gemini.TimeoutSecs)*time.Second + 60*time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	srv := s.server
	s.mu.Unlock()

	s.logger.Info("server listening", "addr", ln.Addr().String(), "api_key", s.svc != nil)
	return srv.Serve(ln)
}

// Addr returns the bound address once Start is listening.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// =============================================================================
// HANDLERS
// =============================================================================

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Model   string `json:"model"`
	APIKey  bool   `json:"api_key"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Version: s.version,
		Model:   s.cfg.Gemini.Model,
		APIKey:  s.svc != nil,
	})
}

type featureInfo struct {
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Group       string `json:"group"`
	UsesModel   bool   `json:"uses_model"`
	Available   bool   `json:"available"`
}

func (s *Server) handleFeatures(w http.ResponseWriter, r *http.Request) {
	list := lo.Map(features.All(), func(f features.Feature, _ int) featureInfo {
		return featureInfo{
			Slug:        f.String(),
			Title:       f.Title(),
			Description: f.Description(),
			Group:       f.Group(),
			UsesModel:   f.UsesModel(),
			Available:   !f.UsesModel() || s.svc != nil,
		}
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"app":      features.AppName,
		"company":  features.CompanyName,
		"features": list,
	})
}

type renderRequest struct {
	Text string `json:"text"`
}

type renderResponse struct {
	HTML string `json:"html"`
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, renderResponse{HTML: renderText(req.Text)})
}

type askRequest struct {
	Prompt      string `json:"prompt"`
	Feature     string `json:"feature,omitempty"`
	Audience    string `json:"audience,omitempty"`
	Search      bool   `json:"search,omitempty"`
	Instruction string `json:"instruction,omitempty"`
}

type askResponse struct {
	Text       string            `json:"text"`
	HTML       string            `json:"html"`
	References []model.Reference `json:"references,omitempty"`
}

// handleAsk runs a one-shot request. The feature decides the system
// instruction and, for the generators, how the prompt is built.
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	feature := features.TaxResearch
	if req.Feature != "" {
		f, err := features.ParseFeature(req.Feature)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		feature = f
	}
	if !feature.UsesModel() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("feature %q does not use the model", feature))
		return
	}

	var audience features.Audience
	if req.Audience != "" {
		a, err := features.ParseAudience(req.Audience)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		audience = a
	}
	prompt, err := features.Prompt(feature, req.Prompt, audience)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if s.svc == nil {
		writeAppError(w, apperr.Configuration("server.ask", ""))
		return
	}

	opts := features.RequestOptions(feature, req.Search)
	if req.Instruction != "" {
		opts.CustomInstruction = req.Instruction
		opts.UseDefaultInstruction = false
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout())
	defer cancel()
	resp, err := s.svc.Request(ctx, prompt, opts)
	if err != nil {
		err = apperr.Classify("server.ask", err)
		s.logger.Warn("ask failed", "feature", feature.String(), "error", err)
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, askResponse{
		Text:       resp.Text,
		HTML:       renderText(resp.Text),
		References: resp.References,
	})
}

func (s *Server) requestTimeout() time.Duration {
	return time.Duration(max(s.cfg.Gemini.TimeoutSecs, 1)) * time.Second
}

func (s *Server) handleChecklist(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	entity, err := features.ParseEntityType(lo.CoalesceOrEmpty(q.Get("entity"), string(features.ChecklistEntityTypes()[0])))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	jurisdiction, err := features.ParseJurisdiction(lo.CoalesceOrEmpty(q.Get("jurisdiction"), string(features.ChecklistJurisdictions()[0])))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, features.GenerateChecklist(entity, jurisdiction))
}

func (s *Server) handleDeadlines(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	jurisdiction := features.AllJurisdictions
	if v := q.Get("jurisdiction"); v != "" {
		j, err := features.ParseJurisdiction(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		jurisdiction = j
	}
	entity := features.AllEntities
	if v := q.Get("entity"); v != "" {
		e, err := features.ParseEntityType(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		entity = e
	}

	list := features.FilterDeadlines(features.Deadlines(s.now().Year()), jurisdiction, entity)
	writeJSON(w, http.StatusOK, map[string]any{"deadlines": list})
}

type analyzeRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	issues, err := features.AnalyzeDocument(r.Context(), req.Text)
	switch {
	case errors.Is(err, features.ErrEmptyDocument):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, features.ErrAnalysisFailed):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"issues": issues})
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

type errorResponse struct {
	Error  string `json:"error"`
	Status string `json:"status"`
	Kind   string `json:"kind,omitempty"`
}

// renderText escapes model or client text before rendering it, since the
// markup renderer passes non-code text through.
func renderText(text string) string {
	return markup.RenderHTML(html.EscapeString(text))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message, Status: statusText(status)})
}

// writeAppError maps the error kind to a status: configuration problems are
// the server's (503), upstream failures are a bad gateway (502).
func writeAppError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	case kind == apperr.KindConfiguration:
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, errorResponse{
		Error:  apperr.UserMessage(err),
		Status: statusText(status),
		Kind:   kind.String(),
	})
}
