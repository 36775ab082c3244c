package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/study-planner/internal/common"
	"github.com/joseph-ayodele/study-planner/internal/llm"
	"github.com/joseph-ayodele/study-planner/internal/orchestrator"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{APIKey: "test-key", BaseURL: srv.URL, Model: "gemini-2.0-flash"}, nil), srv
}

func answer(text string) map[string]any {
	return map[string]any{
		"candidates": []any{
			map[string]any{"content": map[string]any{
				"role":  "model",
				"parts": []any{map[string]any{"text": text}},
			}},
		},
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func flashcardRequest() llm.Request {
	return llm.Request{Purpose: "flashcards", Prompt: "make cards", Schema: llm.BuildFlashcardSchema()}
}

func TestClient_Generate(t *testing.T) {
	ctx := context.Background()

	t.Run("Given a valid answer When Generate Then posts the documented body and returns the answer JSON", func(t *testing.T) {
		var gotPath, gotKey string
		var gotBody map[string]any
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotKey = r.URL.Query().Get("key")
			b, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(b, &gotBody)
			writeJSON(w, http.StatusOK, answer(`[{"question":"What is ATP?","answer":"Cell energy currency"}]`))
		})

		out, err := c.Generate(ctx, flashcardRequest())

		require.NoError(t, err)
		assert.JSONEq(t, `[{"question":"What is ATP?","answer":"Cell energy currency"}]`, string(out))
		assert.Equal(t, "/models/gemini-2.0-flash:generateContent", gotPath)
		assert.Equal(t, "test-key", gotKey)

		contents := gotBody["contents"].([]any)
		first := contents[0].(map[string]any)
		assert.Equal(t, "user", first["role"])
		assert.Equal(t, "make cards", first["parts"].([]any)[0].(map[string]any)["text"])
		gen := gotBody["generationConfig"].(map[string]any)
		assert.Equal(t, "application/json", gen["responseMimeType"])
		schema := gen["responseSchema"].(map[string]any)
		assert.Equal(t, "ARRAY", schema["type"])
		assert.NotContains(t, schema["items"].(map[string]any), "additionalProperties")
	})

	t.Run("Given a per-call model When Generate Then that model is addressed", func(t *testing.T) {
		var gotPath string
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			writeJSON(w, http.StatusOK, answer(`[]`))
		})
		req := flashcardRequest()
		req.Model = "gemini-1.5-flash"

		_, err := c.Generate(ctx, req)

		require.NoError(t, err)
		assert.Equal(t, "/models/gemini-1.5-flash:generateContent", gotPath)
	})

	t.Run("Given HTTP 429 with an error envelope When Generate Then returns APIError with status and message", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusTooManyRequests, map[string]any{
				"error": map[string]any{"code": 429, "message": "Resource has been exhausted", "status": "RESOURCE_EXHAUSTED"},
			})
		})

		_, err := c.Generate(ctx, flashcardRequest())

		var apiErr *llm.APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, 429, apiErr.Status)
		assert.Equal(t, "Resource has been exhausted", apiErr.Message)
		assert.True(t, errors.Is(err, common.ErrAPI))
	})

	t.Run("Given a non-JSON error body When Generate Then falls back to the status text", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("<html>upstream down</html>"))
		})

		_, err := c.Generate(ctx, flashcardRequest())

		var apiErr *llm.APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, 503, apiErr.Status)
		assert.Equal(t, "Service Unavailable", apiErr.Message)
	})

	t.Run("Given a JSON error body without message When Generate Then the raw body is the message", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"detail":"bad schema"}`))
		})

		_, err := c.Generate(ctx, flashcardRequest())

		var apiErr *llm.APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, `{"detail":"bad schema"}`, apiErr.Message)
	})

	t.Run("Given no candidates When Generate Then returns MalformedResponse", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"candidates": []any{}})
		})

		_, err := c.Generate(ctx, flashcardRequest())

		assert.True(t, errors.Is(err, common.ErrMalformedResponse))
	})

	t.Run("Given answer text that is not JSON When Generate Then returns MalformedResponse", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, answer(`here are your cards: Q1...`))
		})

		_, err := c.Generate(ctx, flashcardRequest())

		assert.True(t, errors.Is(err, common.ErrMalformedResponse))
	})

	t.Run("Given answer JSON violating the schema When Generate Then returns MalformedResponse", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, answer(`[{"question":"only a question"}]`))
		})

		_, err := c.Generate(ctx, flashcardRequest())

		assert.True(t, errors.Is(err, common.ErrMalformedResponse))
	})

	t.Run("Given an unreachable endpoint When Generate Then returns an API error without the key", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close()
		c := NewClient(Config{APIKey: "SUPERSECRETKEY", BaseURL: srv.URL, Model: "gemini-2.0-flash"}, nil)

		_, err := c.Generate(ctx, flashcardRequest())

		require.Error(t, err)
		assert.True(t, errors.Is(err, common.ErrAPI))
		assert.NotContains(t, err.Error(), "SUPERSECRETKEY")
		assert.Contains(t, err.Error(), "REDACTED")
		msg, _ := orchestrator.Describe(err)
		assert.NotContains(t, msg, "SUPERSECRETKEY")
	})
}

func TestAPIErrorFrom(t *testing.T) {
	assert.Equal(t, "Not Found", apiErrorFrom(404, nil).Message)
	assert.Equal(t, "unknown error", apiErrorFrom(599, nil).Message)
	assert.Equal(t, "quota", apiErrorFrom(429, []byte(`{"error":{"message":"quota"}}`)).Message)
}
