package openai

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	oa "github.com/openai/openai-go"

	"github.com/joseph-ayodele/study-planner/internal/common"
	"github.com/joseph-ayodele/study-planner/internal/llm"
)

// Generate implements llm.Generator with a strict json_schema response format.
// Array schemas are wrapped in an {"items": [...]} object because the API
// requires an object root; the wrapper is removed before validation.
func (c *Client) Generate(ctx context.Context, req llm.Request) (json.RawMessage, error) {
	ctx, rid := common.EnsureRequestID(ctx)
	start := time.Now()

	model := c.cfg.Model
	if req.Model != "" {
		model = req.Model
	}

	c.logger.Info("llm.openai.start",
		"req_id", rid,
		"purpose", req.Purpose,
		"model", model,
		"prompt_len", len(req.Prompt),
	)

	schema, wrapped := llm.WrapArraySchema(req.Schema)
	params := oa.ChatCompletionNewParams{
		Model: oa.ChatModel(model),
		Messages: []oa.ChatCompletionMessageParamUnion{
			oa.UserMessage(req.Prompt),
		},
		ResponseFormat: oa.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &oa.ResponseFormatJSONSchemaParam{
				JSONSchema: oa.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   schemaName(req.Purpose),
					Schema: schema,
					Strict: oa.Bool(true),
				},
			},
		},
	}

	resp, err := c.api.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *oa.Error
		if errors.As(err, &apiErr) {
			msg := apiErr.Message
			if msg == "" {
				msg = err.Error()
			}
			c.logger.Error("llm.openai.api_error",
				"req_id", rid, "purpose", req.Purpose, "status", apiErr.StatusCode, "message", msg,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return nil, &llm.APIError{Status: apiErr.StatusCode, Message: msg}
		}
		c.logger.Error("llm.openai.transport_error",
			"req_id", rid, "purpose", req.Purpose, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, llm.TransportError(err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		c.logger.Error("llm.openai.no_answer",
			"req_id", rid, "purpose", req.Purpose,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, llm.Malformed("response has no choices[0].message.content", nil)
	}

	text := resp.Choices[0].Message.Content
	if wrapped {
		text, err = unwrapItems(text)
		if err != nil {
			c.logger.Error("llm.openai.unwrap_failed", "req_id", rid, "error", err)
			return nil, llm.Malformed("answer is missing the items wrapper", err)
		}
	}

	out, err := llm.DecodeAnswer(text, req.Schema)
	if err != nil {
		c.logger.Error("llm.openai.schema_validation_failed",
			"req_id", rid, "purpose", req.Purpose, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	c.logger.Info("llm.openai.ok",
		"req_id", rid,
		"purpose", req.Purpose,
		"answer_bytes", len(out),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

func unwrapItems(text string) (string, error) {
	var env struct {
		Items json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal([]byte(llm.StripCodeFence(text)), &env); err != nil {
		return "", err
	}
	if len(env.Items) == 0 {
		return "", errors.New("no items key")
	}
	return string(env.Items), nil
}

// schemaName derives the response_format name ([a-zA-Z0-9_-], max 64).
func schemaName(purpose string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(purpose) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
		if b.Len() >= 64 {
			break
		}
	}
	if b.Len() == 0 {
		return "answer"
	}
	return b.String()
}
