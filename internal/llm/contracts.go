package llm

import (
	"context"
	"encoding/json"
)

// Request is one schema-constrained generation call.
type Request struct {
	Purpose string         // log label and error context, e.g. "event extraction"
	Prompt  string         // user prompt text
	Schema  map[string]any // JSON Schema the answer must satisfy
	Model   string         // optional per-call model override
}

// Generator is the interface the pipeline stages depend on. Implementations
// send exactly one request per call and return the answer as JSON that
// already validated against req.Schema.
type Generator interface {
	Generate(ctx context.Context, req Request) (json.RawMessage, error)
}
