// Package server exposes the generation pipeline over HTTP for the web UI.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/versolabs/versobot/internal/db"
	"github.com/versolabs/versobot/internal/generator"
	"github.com/versolabs/versobot/internal/prompt"
	"github.com/versolabs/versobot/internal/style"
	"github.com/versolabs/versobot/internal/textgen"
)

// PoemGenerator is the pipeline the server delegates to.
type PoemGenerator interface {
	Generate(ctx context.Context, styleID, theme string) (*generator.Poem, error)
}

// Config holds server configuration.
type Config struct {
	Addr      string
	Generator PoemGenerator
	History   *db.Store // nil disables the history endpoint
}

// Server is the HTTP surface.
type Server struct {
	addr      string
	generator PoemGenerator
	history   *db.Store
}

// New creates a Server.
func New(cfg Config) *Server {
	return &Server{
		addr:      cfg.Addr,
		generator: cfg.Generator,
		history:   cfg.History,
	}
}

// Router builds the chi router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/styles", s.handleStyles)
		r.Post("/generate", s.handleGenerate)
		r.Get("/history", s.handleHistory)
	})

	return r
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type styleResponse struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	VerseCount      int      `json:"verse_count,omitempty"`
	SyllablePattern []int    `json:"syllable_pattern,omitempty"`
	RhymeScheme     []string `json:"rhyme_scheme,omitempty"`
	Tone            string   `json:"tone"`
}

func (s *Server) handleStyles(w http.ResponseWriter, r *http.Request) {
	styles := style.All()
	out := make([]styleResponse, len(styles))
	for i, st := range styles {
		out[i] = styleResponse{
			ID:              st.ID,
			Name:            st.Name,
			VerseCount:      st.VerseCount,
			SyllablePattern: st.SyllablePattern,
			RhymeScheme:     st.RhymeScheme,
			Tone:            st.Tone,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

type generateRequest struct {
	Style string `json:"style"`
	Theme string `json:"theme"`
}

type generateResponse struct {
	Style        string   `json:"style"`
	StyleName    string   `json:"style_name"`
	Theme        string   `json:"theme"`
	Verses       []string `json:"verses"`
	Text         string   `json:"text"`
	Model        string   `json:"model"`
	UsedFallback bool     `json:"used_fallback,omitempty"`
	DurationMs   int64    `json:"duration_ms"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "cuerpo JSON inválido", false)
		return
	}
	if req.Theme == "" || req.Style == "" {
		writeError(w, http.StatusBadRequest, "se requieren los campos style y theme", false)
		return
	}

	poem, err := s.generator.Generate(r.Context(), req.Style, req.Theme)
	if err != nil {
		status, msg, retryable := mapError(err)
		slog.Warn("generation failed", "style", req.Style, "error", err)
		writeError(w, status, msg, retryable)
		return
	}

	writeJSON(w, http.StatusOK, generateResponse{
		Style:        poem.StyleID,
		StyleName:    poem.StyleName,
		Theme:        poem.Theme,
		Verses:       poem.Verses,
		Text:         poem.Text(),
		Model:        poem.Model,
		UsedFallback: poem.UsedFallback,
		DurationMs:   poem.Duration.Milliseconds(),
	})
}

type historyEntry struct {
	ID         int64  `json:"id"`
	Style      string `json:"style"`
	Theme      string `json:"theme"`
	Model      string `json:"model"`
	VerseCount int    `json:"verse_count"`
	PoemText   string `json:"poem_text,omitempty"`
	Error      string `json:"error,omitempty"`
	CreatedAt  string `json:"created_at"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotFound, "historial no disponible", false)
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	records, err := s.history.ListGenerations(r.Context(), limit)
	if err != nil {
		slog.Error("list history failed", "error", err)
		writeError(w, http.StatusInternalServerError, "no se pudo leer el historial", true)
		return
	}

	out := make([]historyEntry, len(records))
	for i, g := range records {
		out[i] = historyEntry{
			ID:         g.ID,
			Style:      g.Style,
			Theme:      g.Theme,
			Model:      g.Model,
			VerseCount: g.VerseCount,
			PoemText:   g.PoemText,
			Error:      g.Error,
			CreatedAt:  g.CreatedAt.Format(time.RFC3339),
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// mapError converts pipeline failures into a status code, a user-facing
// message and a retryability hint. Every error kind has a distinct outcome;
// nothing crashes the process.
func mapError(err error) (int, string, bool) {
	switch {
	case errors.Is(err, style.ErrUnknownStyle):
		return http.StatusBadRequest, "estilo de poema desconocido", false
	case errors.Is(err, prompt.ErrPromptTooLarge):
		return http.StatusBadRequest, "el tema es demasiado largo, acorta tu petición", false
	case errors.Is(err, textgen.ErrAuthentication):
		return http.StatusBadGateway, "credencial de generación inválida, revisa la configuración", false
	case errors.Is(err, textgen.ErrRateLimited):
		return http.StatusServiceUnavailable, "servicio saturado, inténtalo de nuevo en unos segundos", true
	case errors.Is(err, textgen.ErrTimeout):
		return http.StatusServiceUnavailable, "el modelo tardó demasiado, inténtalo de nuevo", true
	case errors.Is(err, generator.ErrNoPoem), errors.Is(err, textgen.ErrEmptyResponse):
		return http.StatusBadGateway, "el modelo no produjo ningún poema, inténtalo de nuevo", true
	case errors.Is(err, textgen.ErrService):
		return http.StatusBadGateway, "fallo del servicio de generación, inténtalo más tarde", true
	default:
		return http.StatusInternalServerError, "error interno", false
	}
}

type errorResponse struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string, retryable bool) {
	writeJSON(w, status, errorResponse{Error: msg, Retryable: retryable})
}
