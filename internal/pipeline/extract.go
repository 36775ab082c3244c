package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/study-planner/internal/common"
	"github.com/joseph-ayodele/study-planner/internal/entity"
	"github.com/joseph-ayodele/study-planner/internal/llm"
)

// ExtractStage turns one syllabus text into dated events.
type ExtractStage struct {
	gen    llm.Generator
	logger *slog.Logger
}

func NewExtractStage(logger *slog.Logger, gen llm.Generator) *ExtractStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractStage{gen: gen, logger: logger}
}

// Extract makes one generation call. Zero events is a valid result.
func (s *ExtractStage) Extract(ctx context.Context, text string, year int) ([]entity.ExtractedEvent, error) {
	ctx, rid := common.EnsureRequestID(ctx)
	start := time.Now()

	raw, err := s.gen.Generate(ctx, llm.Request{
		Purpose: StageExtraction,
		Prompt:  llm.BuildExtractionPrompt(text, year),
		Schema:  llm.BuildExtractionSchema(),
	})
	if err != nil {
		s.logger.Error("pipeline.extract.failed", "req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, stageErr(StageExtraction, err)
	}

	var events []entity.ExtractedEvent
	if err := json.Unmarshal(raw, &events); err != nil {
		return nil, stageErr(StageExtraction, llm.Malformed("decode extracted events", err))
	}
	if events == nil {
		events = []entity.ExtractedEvent{}
	}

	s.logger.Info("pipeline.extract.ok",
		"req_id", rid,
		"events", len(events),
		"text_len", len(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return events, nil
}
