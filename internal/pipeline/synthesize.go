package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/study-planner/constants"
	"github.com/joseph-ayodele/study-planner/internal/calendar"
	"github.com/joseph-ayodele/study-planner/internal/common"
	"github.com/joseph-ayodele/study-planner/internal/entity"
	"github.com/joseph-ayodele/study-planner/internal/llm"
)

// ScheduleStage synthesizes the study schedule and its calendar export
// from the aggregated events.
type ScheduleStage struct {
	gen    llm.Generator
	logger *slog.Logger
	model  string
}

// NewScheduleStage builds the stage. model may be empty to use the
// generator's default.
func NewScheduleStage(logger *slog.Logger, gen llm.Generator, model string) *ScheduleStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScheduleStage{gen: gen, logger: logger, model: model}
}

// Synthesize makes one generation call with the full event list and
// normalizes the returned calendar.
func (s *ScheduleStage) Synthesize(ctx context.Context, profile entity.UserProfile, events []entity.ExtractedEvent, now time.Time) (entity.Schedule, error) {
	ctx, rid := common.EnsureRequestID(ctx)
	start := time.Now()

	prompt, err := llm.BuildSchedulePrompt(profile, events, now)
	if err != nil {
		return entity.Schedule{}, stageErr(StageSchedule, err)
	}

	raw, err := s.gen.Generate(ctx, llm.Request{
		Purpose: StageSchedule,
		Prompt:  prompt,
		Schema:  llm.BuildScheduleSchema(),
		Model:   s.model,
	})
	if err != nil {
		s.logger.Error("pipeline.schedule.failed", "req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return entity.Schedule{}, stageErr(StageSchedule, err)
	}

	var out entity.Schedule
	if err := json.Unmarshal(raw, &out); err != nil {
		return entity.Schedule{}, stageErr(StageSchedule, llm.Malformed("decode schedule", err))
	}
	if out.Schedule == nil {
		out.Schedule = []entity.ScheduleEvent{}
	}

	norm, err := calendar.Normalize(out.ICal, out.Schedule, now)
	if err != nil {
		// the schedule is still usable; the calendar export is kept as returned
		norm = calendar.Normalized{
			ICal:     out.ICal,
			Warnings: []string{fmt.Sprintf("calendar export could not be repaired: %v", err)},
		}
	}
	out.ICal = norm.ICal
	out.Warnings = append(out.Warnings, norm.Warnings...)
	for _, w := range norm.Warnings {
		s.logger.Warn("pipeline.schedule.calendar", "req_id", rid, "warning", w)
	}

	s.logger.Info("pipeline.schedule.ok",
		"req_id", rid,
		"input_events", len(events),
		"schedule_events", len(out.Schedule),
		"calendar_rebuilt", norm.Rebuilt,
		"uids_assigned", norm.UIDsAssigned,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

// FlashcardStage synthesizes flashcards from one transcript.
type FlashcardStage struct {
	gen    llm.Generator
	logger *slog.Logger
	model  string
}

func NewFlashcardStage(logger *slog.Logger, gen llm.Generator, model string) *FlashcardStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &FlashcardStage{gen: gen, logger: logger, model: model}
}

// Synthesize makes one generation call. No cards is an EmptyResult.
func (s *FlashcardStage) Synthesize(ctx context.Context, text string) ([]entity.Flashcard, error) {
	ctx, rid := common.EnsureRequestID(ctx)
	start := time.Now()

	raw, err := s.gen.Generate(ctx, llm.Request{
		Purpose: StageFlashcards,
		Prompt:  llm.BuildFlashcardPrompt(text),
		Schema:  llm.BuildFlashcardSchema(),
		Model:   s.model,
	})
	if err != nil {
		s.logger.Error("pipeline.flashcards.failed", "req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, stageErr(StageFlashcards, err)
	}

	var cards []entity.Flashcard
	if err := json.Unmarshal(raw, &cards); err != nil {
		return nil, stageErr(StageFlashcards, llm.Malformed("decode flashcards", err))
	}
	if len(cards) == 0 {
		s.logger.Warn("pipeline.flashcards.empty", "req_id", rid, "text_len", len(text))
		return nil, stageErr(StageFlashcards,
			common.NewKindError(common.CodeEmptyResult, common.ErrEmptyResult, constants.MsgEmptyFlashcards, nil))
	}

	s.logger.Info("pipeline.flashcards.ok",
		"req_id", rid,
		"cards", len(cards),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return cards, nil
}
