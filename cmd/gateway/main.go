package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"doc-assistant/internal/app"
	"doc-assistant/internal/assistant"
	"doc-assistant/internal/httputil"
	"doc-assistant/internal/jobs"
	"doc-assistant/internal/prompts"
	"doc-assistant/internal/provider"
	"doc-assistant/internal/queue"
	"doc-assistant/internal/webtext"
)

const requestTimeout = 5 * time.Minute

type generateRequest struct {
	Prompt string `json:"prompt" validate:"required"`
}

type messageRequest struct {
	Input string `json:"input" validate:"required"`
}

type summaryRequest struct {
	URL    string `json:"url" validate:"omitempty,url"`
	Text   string `json:"text" validate:"required_without=URL"`
	Length string `json:"length" validate:"omitempty,oneof=short medium long"`
	Style  string `json:"style" validate:"omitempty,oneof=executive_summary bullet_points narrative"`
}

type answerRequest struct {
	URL      string `json:"url" validate:"omitempty,url"`
	Text     string `json:"text" validate:"required_without=URL"`
	Question string `json:"question" validate:"required"`
}

type jobRequest struct {
	URL    string `json:"url" validate:"required,url"`
	Length string `json:"length" validate:"omitempty,oneof=short medium long"`
	Style  string `json:"style" validate:"omitempty,oneof=executive_summary bullet_points narrative"`
}

// textResponse carries generated text; ErrorKind is set when Text is a fallback.
type textResponse struct {
	Text      string `json:"text"`
	ErrorKind string `json:"error_kind,omitempty"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := app.Build(ctx, os.Stdout)
	if err != nil {
		var cfgErr *provider.ConfigurationError
		if errors.As(err, &cfgErr) {
			slog.Default().Error("invalid configuration", "field", cfgErr.Field, "err", cfgErr.Err)
		} else {
			slog.Default().Error("failed to build dependencies", "err", err)
		}
		os.Exit(1)
	}
	defer deps.Close()

	// Without NATS, summary jobs run on the in-process queue.
	if deps.Config.QueueURL == "" {
		runner := jobs.NewRunner(deps.Source, deps.Summarizer, deps.Cache, time.Duration(deps.Config.CacheTTL)*time.Second, deps.Log)
		go func() {
			if err := deps.Queue.Worker(ctx, queue.TaskTypeSummarize, runner.Handle); err != nil {
				deps.Log.Error("in-process worker stopped", "err", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", deps.Config.Port),
		Handler:           newRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	deps.Log.Info("gateway listening", "addr", srv.Addr, "backend", deps.Assistant.Backend())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		deps.Log.Error("server failed", "err", err)
	}
}

func newRouter(deps app.Deps) http.Handler {
	r := httputil.NewRouter(deps.Log, requestTimeout)

	r.Post("/api/generate", generateHandler(deps))
	r.Post("/api/sessions/{id}/messages", messageHandler(deps))
	r.Get("/api/sessions/{id}/messages", historyHandler(deps))
	r.Delete("/api/sessions/{id}", resetHandler(deps))
	r.Post("/api/summaries", summaryHandler(deps))
	r.Post("/api/answers", answerHandler(deps))
	r.Post("/api/summaries/jobs", submitJobHandler(deps))
	r.Get("/api/summaries/jobs/{id}", jobHandler(deps))
	r.Delete("/api/summaries/jobs/{id}", discardJobHandler(deps))
	r.Get("/healthz", httputil.HealthHandler(deps))
	return r
}

func generateHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}
		writeResult(w, deps.Assistant.GenerateResult(r.Context(), req.Prompt))
	}
}

func messageHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "id")
		var req messageRequest
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}
		res := deps.Assistant.ConverseResult(r.Context(), req.Input, sessionID)
		body := map[string]any{"reply": res.Text}
		if res.Failed() {
			body["error_kind"] = res.Err.Kind.String()
		}
		httputil.WriteJSON(w, http.StatusOK, body)
	}
}

func historyHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		turns, err := deps.Assistant.History(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to load history", err, http.StatusInternalServerError)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"turns": turns})
	}
}

func resetHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Assistant.Reset(r.Context(), chi.URLParam(r, "id")); err != nil {
			httputil.Fail(deps.Log, w, "failed to reset session", err, http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func summaryHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req summaryRequest
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}
		text, ok := documentText(deps, w, r, req.URL, req.Text)
		if !ok {
			return
		}
		length, style := summaryOptions(req.Length, req.Style)
		writeResult(w, deps.Summarizer.Summarize(r.Context(), text, length, style))
	}
}

func answerHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req answerRequest
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}
		text, ok := documentText(deps, w, r, req.URL, req.Text)
		if !ok {
			return
		}
		writeResult(w, deps.Summarizer.Answer(r.Context(), text, req.Question))
	}
}

func submitJobHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if deps.Queue == nil {
			httputil.Fail(deps.Log, w, "summary jobs are unavailable", nil, http.StatusServiceUnavailable)
			return
		}
		var req jobRequest
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}
		length, style := summaryOptions(req.Length, req.Style)
		id, err := jobs.Submit(r.Context(), deps.Queue, jobs.Request{URL: req.URL, Length: length, Style: style})
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to enqueue summary job; please retry", err, http.StatusInternalServerError)
			return
		}
		deps.Log.Info("summary job submitted", "job_id", id, "url", req.URL)
		httputil.WriteJSON(w, http.StatusAccepted, map[string]any{"job_id": id.String()})
	}
}

func jobHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			httputil.Fail(deps.Log, w, "invalid job id", err, http.StatusBadRequest)
			return
		}
		entry, err := jobs.Lookup(r.Context(), deps.Cache, id)
		if err != nil {
			httputil.Fail(deps.Log, w, "failed to read job result", err, http.StatusInternalServerError)
			return
		}
		if entry == nil {
			httputil.WriteJSON(w, http.StatusNotFound, map[string]any{"job_id": id.String(), "status": "pending"})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"job_id":     id.String(),
			"status":     "done",
			"text":       entry.Text,
			"error_kind": entry.ErrorKind,
			"created_at": entry.CreatedAt,
		})
	}
}

func discardJobHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			httputil.Fail(deps.Log, w, "invalid job id", err, http.StatusBadRequest)
			return
		}
		if err := jobs.Discard(r.Context(), deps.Cache, id); err != nil {
			httputil.Fail(deps.Log, w, "failed to discard job result", err, http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// documentText returns the inline text, or fetches rawURL. It writes the
// error response itself and reports false on failure.
func documentText(deps app.Deps, w http.ResponseWriter, r *http.Request, rawURL, inline string) (string, bool) {
	if inline != "" {
		return inline, true
	}
	text, err := deps.Source.Fetch(r.Context(), rawURL)
	if err != nil {
		var statusErr *webtext.StatusError
		switch {
		case errors.Is(err, webtext.ErrInvalidURL):
			httputil.Fail(deps.Log, w, "invalid url", err, http.StatusBadRequest)
		case errors.Is(err, webtext.ErrNoContent), errors.As(err, &statusErr):
			httputil.Fail(deps.Log, w, "could not retrieve content from URL", err, http.StatusUnprocessableEntity)
		default:
			httputil.Fail(deps.Log, w, "failed to fetch url", err, http.StatusBadGateway)
		}
		return "", false
	}
	return text, true
}

func summaryOptions(length, style string) (prompts.Length, prompts.Style) {
	l, ok := prompts.ParseLength(length)
	if !ok {
		l = prompts.Medium
	}
	s, ok := prompts.ParseStyle(style)
	if !ok {
		s = prompts.Narrative
	}
	return l, s
}

// writeResult always answers 200; failures are reported via error_kind.
func writeResult(w http.ResponseWriter, res assistant.Result) {
	body := textResponse{Text: res.Text}
	if res.Failed() {
		body.ErrorKind = res.Err.Kind.String()
	}
	httputil.WriteJSON(w, http.StatusOK, body)
}
