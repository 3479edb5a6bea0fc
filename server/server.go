// Package server exposes the generation message endpoint, extraction and the
// options surface over HTTP.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"ai_comment_assistant/extractor"
	"ai_comment_assistant/generator"
	"ai_comment_assistant/logging"
	"ai_comment_assistant/metrics"
	"ai_comment_assistant/settings"
)

//go:embed web/options.html
var embeddedStatic embed.FS

// MessageGenerateComment is the only supported message type.
const MessageGenerateComment = "generateComment"

const maxBodyBytes = 4 << 20

type Server struct {
	client    *generator.Client
	store     settings.Store
	extractor *extractor.Extractor
	recorder  *metrics.Recorder
	logger    *zap.Logger
	timeout   time.Duration
}

type Option func(*Server)

func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = logging.OrNop(l) }
}

// WithRecorder enables /metrics and extraction counters.
func WithRecorder(r *metrics.Recorder) Option {
	return func(s *Server) { s.recorder = r }
}

// WithTimeout bounds one generation request. Without it only the
// transport's own limits apply.
func WithTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func New(client *generator.Client, store settings.Store, opts ...Option) (*Server, error) {
	if client == nil {
		return nil, errors.New("generation client required")
	}
	if store == nil {
		return nil, errors.New("settings store required")
	}
	s := &Server{
		client: client,
		store:  store,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.extractor = extractor.New(s.logger.Named("extractor"))
	return s, nil
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logMiddleware)

	r.Get("/", s.handleOptionsPage)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.recorder != nil {
		r.Method(http.MethodGet, "/metrics", s.recorder.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/messages", s.handleMessage)
		r.Post("/extract", s.handleExtract)
		r.Get("/settings", s.handleSettingsGet)
		r.Put("/settings", s.handleSettingsPut)
	})
	return r
}

func (s *Server) handleOptionsPage(w http.ResponseWriter, _ *http.Request) {
	page, err := embeddedStatic.ReadFile("web/options.html")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

// --- Handlers ---

type messageReq struct {
	Type     string `json:"type"`
	Style    string `json:"style"`
	PostText string `json:"postText"`
	Tone     string `json:"tone"`
}

// messageResp carries exactly one of Text / Error.
type messageResp struct {
	OK    bool   `json:"ok"`
	Text  string `json:"text,omitempty"`
	Error string `json:"error,omitempty"`
}

// handleMessage always answers 200 with {ok,text} or {ok:false,error}.
func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req messageReq
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusOK, messageResp{Error: "Invalid message: " + err.Error()})
		return
	}
	if req.Type != MessageGenerateComment {
		writeJSON(w, http.StatusOK, messageResp{Error: "Unsupported message type: " + req.Type})
		return
	}

	current, err := settings.Load(r.Context(), s.store)
	if err != nil {
		s.logger.Error("settings read failed", zap.Error(err))
		writeJSON(w, http.StatusOK, messageResp{Error: "Failed to read settings: " + err.Error()})
		return
	}

	ctx := r.Context()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	res := s.client.Generate(ctx, generator.Request{
		SourceText: req.PostText,
		Style:      generator.ParseStyle(req.Style),
		Tone:       generator.ParseTone(req.Tone),
	}, current.Credentials())
	if !res.OK() {
		writeJSON(w, http.StatusOK, messageResp{Error: res.Message()})
		return
	}
	writeJSON(w, http.StatusOK, messageResp{OK: true, Text: res.Text})
}

type extractReq struct {
	HTML    string `json:"html"`
	Trigger string `json:"trigger"`
	Focused string `json:"focused,omitempty"`
}

type extractResp struct {
	PostText    string `json:"postText"`
	EditorFound bool   `json:"editorFound"`
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req extractReq
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Trigger) == "" {
		req.Trigger = extractor.TriggerSelector
	}
	page, err := s.extractor.Analyze(strings.NewReader(req.HTML), req.Trigger, req.Focused)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if s.recorder != nil {
		s.recorder.ObserveExtraction(page.PostText != "")
	}
	writeJSON(w, http.StatusOK, extractResp{PostText: page.PostText, EditorFound: page.Editor != nil})
}

type settingsResp struct {
	Provider generator.Provider `json:"provider"`
	APIKey   string             `json:"apiKey"`
	Model    string             `json:"model"`
}

func maskedView(cur settings.Settings) settingsResp {
	return settingsResp{Provider: cur.Provider, APIKey: cur.MaskedKey(), Model: cur.Model}
}

func (s *Server) handleSettingsGet(w http.ResponseWriter, r *http.Request) {
	cur, err := settings.Load(r.Context(), s.store)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, maskedView(cur))
}

func (s *Server) handleSettingsPut(w http.ResponseWriter, r *http.Request) {
	var req settings.Settings
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	err := settings.Save(r.Context(), s.store, req)
	switch {
	case errors.Is(err, settings.ErrAPIKeyRequired), errors.Is(err, settings.ErrModelRequired):
		writeError(w, http.StatusBadRequest, err)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	cur, err := settings.Load(r.Context(), s.store)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.logger.Info("settings saved", zap.String("provider", string(cur.Provider)), zap.String("model", cur.Model))
	writeJSON(w, http.StatusOK, maskedView(cur))
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)))
	})
}
