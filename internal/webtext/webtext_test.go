package webtext

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestExtractHTMLContentTags(t *testing.T) {
	page := `<html><head><title>T</title><style>body{}</style><script>var x = 1;</script></head>
	<body>
		<header><h1>Site banner</h1></header>
		<nav><ul><li>Home</li></ul></nav>
		<h1>Article   title</h1>
		<p>First <b>bold</b> paragraph.</p>
		<div>loose div text</div>
		<ul><li>item one</li><li>item two</li></ul>
		<aside><p>related</p></aside>
		<footer><p>copyright</p></footer>
	</body></html>`

	text, err := ExtractHTML(strings.NewReader(page))
	require.NoError(t, err)
	assert.Equal(t, "Article   title\nFirst bold paragraph.\nitem one\nitem two", text)
}

func TestExtractHTMLFallsBackToAllText(t *testing.T) {
	page := `<html><body><div>alpha</div>

	<div>beta</div><script>ignored()</script><noscript>nope</noscript></body></html>`

	text, err := ExtractHTML(strings.NewReader(page))
	require.NoError(t, err)
	assert.Equal(t, "alpha\nbeta", text)
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		url   string
		valid bool
	}{
		{"https://example.com/a", true},
		{"http://example.com", true},
		{"  https://example.com  ", true},
		{"ftp://example.com", false},
		{"example.com", false},
		{"https://", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidURL)
			}
		})
	}
}

func TestFetcherFetch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/article", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, `<html><body><p>Hello world</p></body></html>`)
	})
	mux.HandleFunc("/plain", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, "line one\n\n\nline two\n")
	})
	mux.HandleFunc("/empty", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, `<html><body><script>x()</script></body></html>`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := NewFetcher(discard, 0)
	ctx := context.Background()

	text, err := f.Fetch(ctx, srv.URL+"/article")
	require.NoError(t, err)
	assert.Equal(t, "Hello world", text)

	text, err = f.Fetch(ctx, srv.URL+"/plain")
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", text)

	_, err = f.Fetch(ctx, srv.URL+"/empty")
	assert.ErrorIs(t, err, ErrNoContent)

	_, err = f.Fetch(ctx, srv.URL+"/missing")
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)

	_, err = f.Fetch(ctx, "not-a-url")
	assert.ErrorIs(t, err, ErrInvalidURL)
}

func TestExtractPDFRejectsGarbage(t *testing.T) {
	_, err := ExtractPDF([]byte("definitely not a pdf"))
	assert.Error(t, err)
}
