package server

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/study-planner/constants"
	"github.com/joseph-ayodele/study-planner/internal/async"
	"github.com/joseph-ayodele/study-planner/internal/common"
	"github.com/joseph-ayodele/study-planner/internal/entity"
	"github.com/joseph-ayodele/study-planner/internal/export"
	"github.com/joseph-ayodele/study-planner/internal/orchestrator"
)

// Export formats
const (
	FormatICS  = "ics"
	FormatTXT  = "txt"
	FormatXLSX = "xlsx"
	FormatHTML = "html"
)

// PlannerService serves study sessions over gRPC. Every request and
// response is a google.protobuf.Struct.
type PlannerService struct {
	store  *SessionStore
	queue  async.Queue
	export *export.Service
	logger *slog.Logger
}

func NewPlannerService(store *SessionStore, queue async.Queue, exp *export.Service, logger *slog.Logger) *PlannerService {
	if logger == nil {
		logger = slog.Default()
	}
	if exp == nil {
		exp = export.NewService(logger)
	}
	return &PlannerService{store: store, queue: queue, export: exp, logger: logger}
}

// StartSession {variant} -> {session_id, snapshot}
func (s *PlannerService) StartSession(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	raw := strings.TrimSpace(stringField(in, "variant"))
	variant, ok := constants.ParseVariant(raw)
	if !ok {
		return nil, common.InvalidArgumentErrorf("variant must be %q or %q, got %q", constants.VariantSchedule, constants.VariantFlashcards, raw)
	}
	id, o := s.store.Create(variant)
	return response(map[string]any{"session_id": id, "snapshot": snapshotMap(o.Snapshot())})
}

// SubmitProfile {session_id, name, free_time} -> {snapshot}
func (s *PlannerService) SubmitProfile(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	o, err := s.session(in)
	if err != nil {
		return nil, err
	}
	err = o.SubmitProfile(entity.UserProfile{Name: stringField(in, "name"), FreeTime: stringField(in, "free_time")})
	if err != nil {
		return nil, statusFrom(err)
	}
	return snapshotResponse(o)
}

// Generate {session_id, documents:[{name, data}]} -> {snapshot}
// Selects the documents, moves the session to loading and queues the run.
func (s *PlannerService) Generate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	o, err := s.session(in)
	if err != nil {
		return nil, err
	}
	docs, err := documentsField(in)
	if err != nil {
		return nil, err
	}
	if err := o.Select(docs...); err != nil {
		return nil, statusFrom(err)
	}
	runID, err := o.Begin(ctx)
	if err != nil {
		return nil, statusFrom(err)
	}

	sid := stringField(in, "session_id")
	job := async.Job{SessionID: sid, RunID: runID, Target: o, SubmittedAt: time.Now()}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		s.logger.Error("server.generate.enqueue_failed", "session_id", sid, "run_id", runID, "error", err)
		o.Abort(err)
	}
	return snapshotResponse(o)
}

// GetSnapshot {session_id} -> {snapshot}
func (s *PlannerService) GetSnapshot(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	o, err := s.session(in)
	if err != nil {
		return nil, err
	}
	return snapshotResponse(o)
}

// Reset {session_id} -> {snapshot}
func (s *PlannerService) Reset(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	o, err := s.session(in)
	if err != nil {
		return nil, err
	}
	if err := o.Reset(); err != nil {
		return nil, statusFrom(err)
	}
	return snapshotResponse(o)
}

// Export {session_id, format} -> {file_name, content_type, data(base64)}
func (s *PlannerService) Export(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	o, err := s.session(in)
	if err != nil {
		return nil, err
	}
	snap := o.Snapshot()
	if snap.State != constants.StateResult {
		return nil, common.FailedPreconditionError(fmt.Sprintf("nothing to export in state %s", snap.State))
	}

	format := strings.ToLower(strings.TrimSpace(stringField(in, "format")))
	var (
		name, contentType string
		data              []byte
	)
	switch {
	case snap.Schedule != nil && (format == FormatICS || format == ""):
		name, data = export.ICS(*snap.Schedule)
		contentType = "text/calendar"
	case snap.Schedule != nil && format == FormatXLSX:
		data, err = s.export.ScheduleXLSX(*snap.Schedule)
		name, contentType = constants.ScheduleXLSXFileName, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case snap.Flashcards != nil && (format == FormatTXT || format == ""):
		name, data = export.FlashcardsFileName(firstDoc(snap)), []byte(export.FlashcardsText(snap.Flashcards))
		contentType = "text/plain"
	case snap.Flashcards != nil && format == FormatHTML:
		title := constants.BaseName(firstDoc(snap))
		data, err = s.export.FlashcardsHTML(title, snap.Flashcards)
		name, contentType = export.FlashcardsHTMLFileName(firstDoc(snap)), "text/html"
	default:
		return nil, common.InvalidArgumentErrorf("format %q is not available for a %s session", format, snap.Variant)
	}
	if err != nil {
		s.logger.Error("server.export.failed", "format", format, "error", err)
		return nil, common.InternalError("export failed")
	}

	return response(map[string]any{
		"file_name":    name,
		"content_type": contentType,
		"data":         base64.StdEncoding.EncodeToString(data),
	})
}

func (s *PlannerService) session(in *structpb.Struct) (*orchestrator.Orchestrator, error) {
	id := strings.TrimSpace(stringField(in, "session_id"))
	if err := common.ValidateAndReturnError(common.NewValidator().Field("session_id", id, common.Required, common.UUID)); err != nil {
		return nil, err
	}
	o, err := s.store.Get(id)
	if err != nil {
		return nil, statusFrom(err)
	}
	return o, nil
}

func firstDoc(s orchestrator.Snapshot) string {
	if len(s.Documents) == 0 {
		return "transcript"
	}
	return s.Documents[0]
}

// statusFrom maps orchestrator and application errors onto gRPC codes.
func statusFrom(err error) error {
	if errors.Is(err, orchestrator.ErrBusy) || errors.Is(err, orchestrator.ErrInvalidTransition) {
		return common.FailedPreconditionError(err.Error())
	}
	return common.GRPCStatus(err)
}

func stringField(in *structpb.Struct, key string) string {
	return in.GetFields()[key].GetStringValue()
}

func documentsField(in *structpb.Struct) ([]entity.Document, error) {
	values := in.GetFields()["documents"].GetListValue().GetValues()
	docs := make([]entity.Document, 0, len(values))
	for i, v := range values {
		d := v.GetStructValue()
		if d == nil {
			return nil, common.InvalidArgumentErrorf("documents[%d] must be an object", i)
		}
		name := strings.TrimSpace(stringField(d, "name"))
		if name == "" {
			return nil, common.InvalidArgumentErrorf("documents[%d].name is required", i)
		}
		data, err := base64.StdEncoding.DecodeString(stringField(d, "data"))
		if err != nil {
			return nil, common.InvalidArgumentErrorf("documents[%d].data must be base64: %v", i, err)
		}
		docs = append(docs, entity.Document{Name: name, Data: data})
	}
	return docs, nil
}

func snapshotResponse(o *orchestrator.Orchestrator) (*structpb.Struct, error) {
	return response(map[string]any{"snapshot": snapshotMap(o.Snapshot())})
}

func response(m map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, common.InternalError(fmt.Sprintf("encode response: %v", err))
	}
	return out, nil
}

// snapshotMap flattens a snapshot into values structpb accepts.
func snapshotMap(s orchestrator.Snapshot) map[string]any {
	m := map[string]any{
		"variant":         string(s.Variant),
		"state":           string(s.State),
		"loading_message": s.LoadingMessage,
		"error_message":   s.ErrorMessage,
		"error_kind":      s.ErrorKind,
		"documents":       strings2list(s.Documents),
		"warnings":        strings2list(s.Warnings),
	}
	if s.Profile != nil {
		m["profile"] = map[string]any{"name": s.Profile.Name, "free_time": s.Profile.FreeTime}
	}
	if len(s.Events) > 0 {
		events := make([]any, 0, len(s.Events))
		for _, e := range s.Events {
			events = append(events, map[string]any{"course_name": e.CourseName, "event_name": e.EventName, "date": e.Date})
		}
		m["events"] = events
	}
	if s.Schedule != nil {
		items := make([]any, 0, len(s.Schedule.Schedule))
		for _, e := range s.Schedule.Schedule {
			items = append(items, map[string]any{"title": e.Title, "start": e.Start, "end": e.End})
		}
		m["schedule"] = map[string]any{"events": items, "ical": s.Schedule.ICal}
	}
	if s.Flashcards != nil {
		cards := make([]any, 0, len(s.Flashcards))
		for _, c := range s.Flashcards {
			cards = append(cards, map[string]any{"question": c.Question, "answer": c.Answer})
		}
		m["flashcards"] = cards
	}
	return m
}

func strings2list(ss []string) []any {
	out := make([]any, 0, len(ss))
	for _, s := range ss {
		out = append(out, s)
	}
	return out
}
