package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/joseph-ayodele/study-planner/internal/common"
	"github.com/joseph-ayodele/study-planner/internal/llm"
)

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	ResponseMimeType string         `json:"responseMimeType"`
	ResponseSchema   map[string]any `json:"responseSchema"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

type errorEnvelope struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Generate implements llm.Generator against models/{model}:generateContent.
func (c *Client) Generate(ctx context.Context, req llm.Request) (json.RawMessage, error) {
	ctx, rid := common.EnsureRequestID(ctx)
	start := time.Now()

	model := req.Model
	if model == "" {
		model = c.cfg.Model
	}

	c.logger.Info("llm.gemini.start",
		"req_id", rid,
		"purpose", req.Purpose,
		"model", model,
		"prompt_len", len(req.Prompt),
	)

	body := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: req.Prompt}}}},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   llm.ToGeminiSchema(req.Schema),
		},
	}

	raw, status, err := llm.SendJSON(ctx, c.http, c.endpoint(model), body, nil, c.logger)
	if err != nil {
		if status == 0 {
			c.logger.Error("llm.gemini.transport_error",
				"req_id", rid, "purpose", req.Purpose, "error", err,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return nil, llm.TransportError(err)
		}
		if status/100 == 2 {
			return nil, llm.Malformed("read response body", err)
		}
		apiErr := apiErrorFrom(status, raw)
		c.logger.Error("llm.gemini.api_error",
			"req_id", rid, "purpose", req.Purpose, "status", status, "message", apiErr.Message,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, apiErr
	}

	var resp generateResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		c.logger.Error("llm.gemini.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, llm.Malformed("decode response envelope", err)
	}
	text, ok := answerText(resp)
	if !ok {
		c.logger.Error("llm.gemini.no_answer",
			"req_id", rid, "purpose", req.Purpose, "raw", truncate(string(raw), 2<<10),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, llm.Malformed("response has no candidates[0].content.parts[0].text", nil)
	}

	out, err := llm.DecodeAnswer(text, req.Schema)
	if err != nil {
		c.logger.Error("llm.gemini.schema_validation_failed",
			"req_id", rid, "purpose", req.Purpose, "error", err, "content", truncate(text, 2<<10),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	c.logger.Info("llm.gemini.ok",
		"req_id", rid,
		"purpose", req.Purpose,
		"answer_bytes", len(out),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

func (c *Client) endpoint(model string) string {
	return strings.TrimRight(c.cfg.BaseURL, "/") + "/models/" + url.PathEscape(model) +
		":generateContent?key=" + url.QueryEscape(c.cfg.APIKey)
}

func answerText(resp generateResponse) (string, bool) {
	if len(resp.Candidates) == 0 {
		return "", false
	}
	parts := resp.Candidates[0].Content.Parts
	if len(parts) == 0 || parts[0].Text == "" {
		return "", false
	}
	return parts[0].Text, true
}

// apiErrorFrom prefers the server's error.message, then the raw JSON body,
// then the HTTP status text.
func apiErrorFrom(status int, raw []byte) *llm.APIError {
	msg := http.StatusText(status)
	trimmed := bytes.TrimSpace(raw)
	var env errorEnvelope
	if len(trimmed) > 0 && json.Unmarshal(trimmed, &env) == nil {
		if env.Error != nil && env.Error.Message != "" {
			msg = env.Error.Message
		} else {
			msg = string(trimmed)
		}
	}
	if msg == "" {
		msg = "unknown error"
	}
	return &llm.APIError{Status: status, Message: msg}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "...(truncated)"
}
