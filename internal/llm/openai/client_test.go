package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/study-planner/internal/common"
	"github.com/joseph-ayodele/study-planner/internal/llm"
)

func completion(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   "gpt-4o-mini",
		"choices": []any{
			map[string]any{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			},
		},
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{APIKey: "sk-test", BaseURL: srv.URL, Model: "gpt-4o-mini"}, nil)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_Generate(t *testing.T) {
	ctx := context.Background()

	t.Run("Given an array schema When Generate Then the request wraps it and the answer is unwrapped", func(t *testing.T) {
		var gotPath string
		var gotBody map[string]any
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			b, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(b, &gotBody)
			writeJSON(w, http.StatusOK, completion(`{"items":[{"question":"Q","answer":"A"}]}`))
		})

		out, err := c.Generate(ctx, llm.Request{Purpose: "flashcard generation", Prompt: "p", Schema: llm.BuildFlashcardSchema()})

		require.NoError(t, err)
		assert.JSONEq(t, `[{"question":"Q","answer":"A"}]`, string(out))
		assert.True(t, strings.HasSuffix(gotPath, "/chat/completions"))
		assert.Equal(t, "gpt-4o-mini", gotBody["model"])
		rf := gotBody["response_format"].(map[string]any)
		assert.Equal(t, "json_schema", rf["type"])
		js := rf["json_schema"].(map[string]any)
		assert.Equal(t, "flashcard_generation", js["name"])
		assert.Equal(t, "object", js["schema"].(map[string]any)["type"])
	})

	t.Run("Given an object schema When Generate Then the answer passes through", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, completion(`{"schedule":[],"ical":"BEGIN:VCALENDAR\nEND:VCALENDAR"}`))
		})

		out, err := c.Generate(ctx, llm.Request{Purpose: "schedule", Prompt: "p", Schema: llm.BuildScheduleSchema()})

		require.NoError(t, err)
		assert.Contains(t, string(out), `"schedule":[]`)
	})

	t.Run("Given HTTP 429 When Generate Then returns APIError with the status", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusTooManyRequests, map[string]any{
				"error": map[string]any{"message": "Rate limit reached", "type": "requests", "code": "rate_limit_exceeded"},
			})
		})

		_, err := c.Generate(ctx, llm.Request{Purpose: "x", Prompt: "p", Schema: llm.BuildFlashcardSchema()})

		var apiErr *llm.APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, 429, apiErr.Status)
		assert.NotEmpty(t, apiErr.Message)
		assert.True(t, errors.Is(err, common.ErrAPI))
	})

	t.Run("Given no choices When Generate Then returns MalformedResponse", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			resp := completion("")
			resp["choices"] = []any{}
			writeJSON(w, http.StatusOK, resp)
		})

		_, err := c.Generate(ctx, llm.Request{Purpose: "x", Prompt: "p", Schema: llm.BuildFlashcardSchema()})

		assert.True(t, errors.Is(err, common.ErrMalformedResponse))
	})

	t.Run("Given a wrapped answer without items When Generate Then returns MalformedResponse", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, completion(`{"cards":[]}`))
		})

		_, err := c.Generate(ctx, llm.Request{Purpose: "x", Prompt: "p", Schema: llm.BuildFlashcardSchema()})

		assert.True(t, errors.Is(err, common.ErrMalformedResponse))
	})
}

func TestSchemaName(t *testing.T) {
	assert.Equal(t, "event_extraction", schemaName("Event Extraction"))
	assert.Equal(t, "answer", schemaName("!!!"))
	assert.Len(t, schemaName(strings.Repeat("a", 100)), 64)
}
