// Package llmtest provides a scripted llm.Generator for tests.
package llmtest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/joseph-ayodele/study-planner/internal/llm"
)

// Reply is one scripted answer: either JSON or an error.
type Reply struct {
	JSON string
	Err  error
}

// Generator replays replies in order and records every request.
type Generator struct {
	mu       sync.Mutex
	replies  []Reply
	requests []llm.Request
}

// New returns a Generator that answers with replies in order.
func New(replies ...Reply) *Generator {
	return &Generator{replies: replies}
}

// JSON is shorthand for a successful reply.
func JSON(s string) Reply { return Reply{JSON: s} }

// Fail is shorthand for a failing reply.
func Fail(err error) Reply { return Reply{Err: err} }

func (g *Generator) Generate(ctx context.Context, req llm.Request) (json.RawMessage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(g.replies) == 0 {
		return nil, fmt.Errorf("llmtest: unexpected call %d (%s)", len(g.requests), req.Purpose)
	}
	r := g.replies[0]
	g.replies = g.replies[1:]
	if r.Err != nil {
		return nil, r.Err
	}
	return json.RawMessage(r.JSON), nil
}

// Requests returns a copy of the recorded requests.
func (g *Generator) Requests() []llm.Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]llm.Request(nil), g.requests...)
}

// Calls returns the number of Generate calls so far.
func (g *Generator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}
