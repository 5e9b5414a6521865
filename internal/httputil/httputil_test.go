package httputil

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"doc-assistant/internal/app"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type sample struct {
	Name string `json:"name" validate:"required,min=3"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"name":"alice"}`, false},
		{"malformed", `{name}`, true},
		{"unknown field", `{"name":"alice","x":1}`, true},
		{"fails validation", `{"name":"al"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var s sample
			err := DecodeJSON(req, &s)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, "alice", s.Name)
			}
		})
	}
}

func TestValidationErrorListsFields(t *testing.T) {
	err := Validator.Struct(&sample{})
	require.Error(t, err)

	w := httptest.NewRecorder()
	ValidationError(discard, w, err)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Name failed on required")
}

func TestRecovererReturns500(t *testing.T) {
	h := Recoverer(discard)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRouterServesRoutes(t *testing.T) {
	r := NewRouter(discard, 0)
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"pong": "yes"})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"pong":"yes"}`, w.Body.String())
}

func TestServeHealthStopsWithContext(t *testing.T) {
	deps := app.Deps{Log: discard}
	g, gctx := errgroup.WithContext(context.Background())
	ctx, cancel := context.WithCancel(gctx)

	g.Go(func() error {
		<-ctx.Done()
		return nil
	})
	g.Go(func() error {
		return serveHealth(ctx, deps, "test", "127.0.0.1:0")
	})

	time.Sleep(50 * time.Millisecond)
	cancel()

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("health server did not stop after cancel")
	}
}

func TestServeHealthReportsListenError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	err = serveHealth(context.Background(), app.Deps{Log: discard}, "test", ln.Addr().String())
	require.Error(t, err)
	assert.False(t, errors.Is(err, http.ErrServerClosed))
}
