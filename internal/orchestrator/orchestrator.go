package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/joseph-ayodele/study-planner/constants"
	"github.com/joseph-ayodele/study-planner/internal/calendar"
	"github.com/joseph-ayodele/study-planner/internal/common"
	"github.com/joseph-ayodele/study-planner/internal/entity"
)

var (
	// ErrBusy is returned by transitions attempted while a run is in flight.
	ErrBusy = errors.New("a generation run is already in progress")
	// ErrInvalidTransition is returned when a transition is not allowed
	// from the current state.
	ErrInvalidTransition = errors.New("invalid state transition")
)

// DocumentReader turns a document into text.
type DocumentReader interface {
	Read(ctx context.Context, doc entity.Document) (string, error)
}

// Extractor finds dated events in one syllabus text.
type Extractor interface {
	Extract(ctx context.Context, text string, year int) ([]entity.ExtractedEvent, error)
}

// ScheduleSynthesizer builds the schedule from the aggregated events.
type ScheduleSynthesizer interface {
	Synthesize(ctx context.Context, profile entity.UserProfile, events []entity.ExtractedEvent, now time.Time) (entity.Schedule, error)
}

// FlashcardSynthesizer builds flashcards from one transcript.
type FlashcardSynthesizer interface {
	Synthesize(ctx context.Context, text string) ([]entity.Flashcard, error)
}

// Deps are the stages a run drives. Schedule runs need Extract and
// Schedule; flashcard runs need Flashcards.
type Deps struct {
	Reader     DocumentReader
	Extract    Extractor
	Schedule   ScheduleSynthesizer
	Flashcards FlashcardSynthesizer
	Now        func() time.Time // defaults to time.Now
}

// Snapshot is a read-only copy of the orchestrator state for presenters.
type Snapshot struct {
	Variant        constants.Variant
	State          constants.State
	LoadingMessage string
	ErrorMessage   string
	ErrorKind      string
	Profile        *entity.UserProfile
	Documents      []string
	Events         []entity.ExtractedEvent
	Schedule       *entity.Schedule
	Flashcards     []entity.Flashcard
	Warnings       []string
}

// Orchestrator is the wizard state machine for one session. All state is
// mutated through its transition methods; at most one run is in flight.
type Orchestrator struct {
	logger  *slog.Logger
	variant constants.Variant
	deps    Deps

	mu       sync.Mutex
	state    constants.State
	loading  string
	errMsg   string
	errKind  string
	runID    string
	profile  *entity.UserProfile
	docs     []entity.Document
	events   []entity.ExtractedEvent
	schedule *entity.Schedule
	cards    []entity.Flashcard
	warnings []string
}

// New returns an orchestrator in its initial state: welcome for the
// schedule variant, upload for flashcards.
func New(logger *slog.Logger, variant constants.Variant, deps Deps) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	o := &Orchestrator{
		logger:  logger.With("variant", string(variant)),
		variant: variant,
		deps:    deps,
	}
	o.state = o.initialState()
	return o
}

func (o *Orchestrator) initialState() constants.State {
	if o.variant == constants.VariantSchedule {
		return constants.StateWelcome
	}
	return constants.StateUpload
}

// Variant reports which pipeline this orchestrator drives.
func (o *Orchestrator) Variant() constants.Variant {
	return o.variant
}

// SubmitProfile moves a schedule session from welcome to upload.
func (o *Orchestrator) SubmitProfile(p entity.UserProfile) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.variant != constants.VariantSchedule {
		return fmt.Errorf("%w: profiles are only used by the schedule variant", ErrInvalidTransition)
	}
	if o.state == constants.StateLoading {
		return ErrBusy
	}
	if o.state != constants.StateWelcome {
		return fmt.Errorf("%w: submit profile from %s", ErrInvalidTransition, o.state)
	}

	p.Name = strings.TrimSpace(p.Name)
	p.FreeTime = strings.TrimSpace(p.FreeTime)
	if err := common.NewValidator().
		Field("name", p.Name, common.Required, common.MaxLength(200)).
		Field("freeTime", p.FreeTime, common.Required, common.MaxLength(2000)).
		Err(); err != nil {
		return err
	}

	o.profile = &p
	o.state = constants.StateUpload
	o.logger.Info("orchestrator.profile.ok", "state", o.state)
	return nil
}

// Select replaces the selected documents. Flashcards take exactly one.
func (o *Orchestrator) Select(docs ...entity.Document) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state == constants.StateLoading {
		return ErrBusy
	}
	if o.state != constants.StateUpload {
		return fmt.Errorf("%w: select documents from %s", ErrInvalidTransition, o.state)
	}
	if len(docs) == 0 {
		return common.NewAppError(common.CodeInvalidInput, "select at least one document", common.ErrInvalidInput)
	}
	if o.variant == constants.VariantFlashcards && len(docs) != 1 {
		return common.NewAppError(common.CodeInvalidInput, "flashcards are generated from exactly one transcript", common.ErrInvalidInput)
	}
	for _, d := range docs {
		if strings.TrimSpace(d.Name) == "" {
			return common.NewAppError(common.CodeInvalidInput, "document name is required", common.ErrInvalidInput)
		}
	}

	o.docs = append([]entity.Document(nil), docs...)
	return nil
}

// Begin moves upload to loading and returns the run id. The caller must
// then call Run, possibly on another goroutine.
func (o *Orchestrator) Begin(ctx context.Context) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state == constants.StateLoading {
		return "", ErrBusy
	}
	if o.state != constants.StateUpload {
		return "", fmt.Errorf("%w: generate from %s", ErrInvalidTransition, o.state)
	}
	if len(o.docs) == 0 {
		return "", common.NewAppError(common.CodeInvalidInput, "no documents selected", common.ErrInvalidInput)
	}

	_, o.runID = common.EnsureRequestID(ctx)
	o.state = constants.StateLoading
	o.errMsg, o.errKind = "", ""
	o.events, o.schedule, o.cards, o.warnings = nil, nil, nil, nil
	if o.variant == constants.VariantSchedule {
		o.loading = constants.LoadingReadingSyllabi
	} else {
		o.loading = constants.LoadingReadingTranscript
	}
	o.logger.Info("orchestrator.run.begin", "run_id", o.runID, "documents", len(o.docs))
	return o.runID, nil
}

// Run executes the run started by Begin and leaves the orchestrator in
// result or error. It returns the run's failure, if any.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.mu.Lock()
	if o.state != constants.StateLoading {
		o.mu.Unlock()
		return fmt.Errorf("%w: run from %s", ErrInvalidTransition, o.state)
	}
	runID := o.runID
	docs := append([]entity.Document(nil), o.docs...)
	var profile entity.UserProfile
	if o.profile != nil {
		profile = *o.profile
	}
	o.mu.Unlock()

	ctx = common.WithRequestID(ctx, runID)
	start := time.Now()

	var err error
	if o.variant == constants.VariantSchedule {
		err = o.runSchedule(ctx, profile, docs)
	} else {
		err = o.runFlashcards(ctx, docs[0])
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.runID != runID {
		return err
	}
	o.loading = ""
	if err != nil {
		o.events, o.schedule, o.cards, o.warnings = nil, nil, nil, nil
		o.errMsg, o.errKind = Describe(err)
		o.state = constants.StateError
		o.logger.Error("orchestrator.run.failed",
			"run_id", runID,
			"kind", o.errKind,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return err
	}
	o.state = constants.StateResult
	o.logger.Info("orchestrator.run.ok",
		"run_id", runID,
		"warnings", len(o.warnings),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// Abort ends a run that was begun but could not be started, moving
// loading to error.
func (o *Orchestrator) Abort(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != constants.StateLoading {
		return
	}
	o.loading = ""
	o.errMsg, o.errKind = Describe(err)
	o.state = constants.StateError
	o.logger.Error("orchestrator.run.aborted", "run_id", o.runID, "error", err)
}

// Generate is Begin followed by Run on the calling goroutine.
func (o *Orchestrator) Generate(ctx context.Context) error {
	if _, err := o.Begin(ctx); err != nil {
		return err
	}
	return o.Run(ctx)
}

func (o *Orchestrator) runSchedule(ctx context.Context, profile entity.UserProfile, docs []entity.Document) error {
	now := o.deps.Now()

	var all []entity.ExtractedEvent
	for i, doc := range docs {
		text, err := o.deps.Reader.Read(ctx, doc)
		if err != nil {
			return err
		}
		events, err := o.deps.Extract.Extract(ctx, text, now.Year())
		if err != nil {
			return err
		}
		o.logger.Info("orchestrator.extract.document",
			"run_id", common.RequestIDFromContext(ctx),
			"index", i,
			"name", doc.Name,
			"events", len(events),
		)
		all = append(all, events...)
	}
	if len(all) == 0 {
		return common.NewKindError(common.CodeNoEventsFound, common.ErrNoEventsFound, constants.MsgNoEventsFound, nil)
	}

	o.setLoading(constants.LoadingBuildingSchedule)
	sched, err := o.deps.Schedule.Synthesize(ctx, profile, all, now)
	if err != nil {
		return err
	}

	warnings := eventWarnings(all)
	warnings = append(warnings, scheduleWarnings(sched)...)

	o.mu.Lock()
	o.events = all
	o.schedule = &sched
	o.warnings = warnings
	o.mu.Unlock()
	return nil
}

func (o *Orchestrator) runFlashcards(ctx context.Context, doc entity.Document) error {
	text, err := o.deps.Reader.Read(ctx, doc)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return common.NewKindError(common.CodeEmptyDocument, common.ErrEmptyDocument, constants.MsgEmptyDocument, nil)
	}

	o.setLoading(constants.LoadingCreatingFlashcards)
	cards, err := o.deps.Flashcards.Synthesize(ctx, text)
	if err != nil {
		return err
	}

	o.mu.Lock()
	o.cards = cards
	o.mu.Unlock()
	return nil
}

func (o *Orchestrator) setLoading(msg string) {
	o.mu.Lock()
	o.loading = msg
	o.mu.Unlock()
}

// Reset discards every stored entity and returns to the initial state.
// It is inert while a run is in flight.
func (o *Orchestrator) Reset() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state == constants.StateLoading {
		return ErrBusy
	}
	o.state = o.initialState()
	o.loading, o.errMsg, o.errKind, o.runID = "", "", "", ""
	o.profile = nil
	o.docs = nil
	o.events, o.schedule, o.cards, o.warnings = nil, nil, nil, nil
	o.logger.Info("orchestrator.reset", "state", o.state)
	return nil
}

// Snapshot returns a copy of the current state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	s := Snapshot{
		Variant:        o.variant,
		State:          o.state,
		LoadingMessage: o.loading,
		ErrorMessage:   o.errMsg,
		ErrorKind:      o.errKind,
		Events:         append([]entity.ExtractedEvent(nil), o.events...),
		Flashcards:     append([]entity.Flashcard(nil), o.cards...),
		Warnings:       append([]string(nil), o.warnings...),
	}
	if o.profile != nil {
		p := *o.profile
		s.Profile = &p
	}
	for _, d := range o.docs {
		s.Documents = append(s.Documents, d.Name)
	}
	if o.schedule != nil {
		sc := entity.Schedule{
			Schedule: append([]entity.ScheduleEvent(nil), o.schedule.Schedule...),
			ICal:     o.schedule.ICal,
			Warnings: append([]string(nil), o.schedule.Warnings...),
		}
		s.Schedule = &sc
	}
	return s
}

// eventWarnings flags extracted dates that are not YYYY-MM-DD.
func eventWarnings(events []entity.ExtractedEvent) []string {
	var out []string
	for i, e := range events {
		v := common.NewValidator().Field("date", e.Date, common.ISODate)
		if v.HasErrors() {
			out = append(out, fmt.Sprintf("event %d (%s) has date %q, expected YYYY-MM-DD", i, e.EventName, e.Date))
		}
	}
	return out
}

// scheduleWarnings surfaces ordering and calendar consistency problems.
// Nothing is corrected.
func scheduleWarnings(s entity.Schedule) []string {
	out := append([]string(nil), s.Warnings...)
	for _, i := range calendar.OrderViolations(s.Schedule) {
		e := s.Schedule[i]
		out = append(out, fmt.Sprintf("%q starts (%s) after it ends (%s)", e.Title, e.Start, e.End))
	}
	rep := calendar.Inspect(s.ICal)
	if rep.Events != len(s.Schedule) {
		out = append(out, fmt.Sprintf("calendar has %d events but the schedule has %d", rep.Events, len(s.Schedule)))
	}
	return out
}
