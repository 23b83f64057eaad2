package pii

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/piichat/internal/core"
	"github.com/sandevgo/piichat/pkg/retry"
)

func nerServer(t *testing.T, status int, entities string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/generate":
			var req nerRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "json", req.Format)
			assert.False(t, req.Stream)

			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(nerResponse{Response: entities})
		case "/api/tags":
			_, _ = w.Write([]byte(`{"models":[{"name":"qwen2.5:3b"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
}

func allKinds() map[core.EntityKind]bool {
	wanted := make(map[core.EntityKind]bool)
	for _, k := range core.AllEntityKinds() {
		wanted[k] = true
	}
	return wanted
}

func TestOllamaRecognizer_Analyze(t *testing.T) {
	srv := nerServer(t, http.StatusOK, `{"entities":[
		{"text":"Alice Moreau","type":"PERSON","score":0.9},
		{"text":"Lyon","type":"location"},
		{"text":"Bob","type":"PERSON"},
		{"text":"policy 42","type":"POLICY"}
	]}`)
	defer srv.Close()

	text := "Alice Moreau from Lyon called. Lyon office confirmed."
	rec := NewOllamaRecognizer(srv.URL, "qwen2.5:3b", time.Second)

	spans, err := rec.Analyze(context.Background(), text, allKinds())
	require.NoError(t, err)
	require.Len(t, spans, 3)

	assert.Equal(t, "Alice Moreau", text[spans[0].Start:spans[0].End])
	assert.Equal(t, core.EntityPerson, spans[0].Kind)
	assert.InDelta(t, 0.9, spans[0].Score, 1e-9)

	for _, s := range spans[1:] {
		assert.Equal(t, "Lyon", text[s.Start:s.End])
		assert.Equal(t, core.EntityLocation, s.Kind)
		assert.InDelta(t, defaultNERScore, s.Score, 1e-9)
	}
}

func TestOllamaRecognizer_Failures(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		entities string
	}{
		{"server error", http.StatusInternalServerError, `{"entities":[]}`},
		{"malformed model output", http.StatusOK, `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := nerServer(t, tt.status, tt.entities)
			defer srv.Close()

			rec := NewOllamaRecognizer(srv.URL, "qwen2.5:3b", time.Second)
			_, err := rec.Analyze(context.Background(), "Alice", allKinds())
			assert.Error(t, err)
		})
	}
}

func TestOllamaRecognizer_SkipsUnwantedKinds(t *testing.T) {
	rec := NewOllamaRecognizer("http://127.0.0.1:1", "m", time.Second)

	spans, err := rec.Analyze(context.Background(), "Alice", map[core.EntityKind]bool{core.EntityUSSSN: true})
	require.NoError(t, err)
	assert.Empty(t, spans)
}

func TestOllamaRecognizer_WaitReady(t *testing.T) {
	srv := nerServer(t, http.StatusOK, "")
	defer srv.Close()

	retrier := retry.NewRetrier(&retry.Config{MaxRetries: 1, BackoffFactor: 1, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond})

	ok := NewOllamaRecognizer(srv.URL, "qwen2.5:3b", time.Second)
	assert.NoError(t, ok.WaitReady(context.Background(), retrier))

	missing := NewOllamaRecognizer(srv.URL, "llama3", time.Second)
	assert.Error(t, missing.WaitReady(context.Background(), retrier))
}

func TestOllamaRecognizer_Pull(t *testing.T) {
	tests := []struct {
		name    string
		stream  string
		wantErr bool
	}{
		{
			name: "success",
			stream: `{"status":"pulling manifest"}
{"status":"downloading","total":100,"completed":40}
{"status":"downloading","total":100,"completed":100}
{"status":"success"}
`,
		},
		{name: "error line", stream: `{"error":"model not found"}` + "\n", wantErr: true},
		{name: "truncated", stream: `{"status":"downloading","total":100,"completed":10}` + "\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var req pullRequest
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "qwen2.5:3b", req.Model)
				_, _ = w.Write([]byte(tt.stream))
			}))
			defer srv.Close()

			var seen []float64
			rec := NewOllamaRecognizer(srv.URL, "qwen2.5:3b", time.Second)
			err := rec.Pull(context.Background(), func(done float64) { seen = append(seen, done) })
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []float64{0.4, 1}, seen)
		})
	}
}
