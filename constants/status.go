package constants

// State is the orchestrator's wizard state.
type State string

// Stable values (exposed to presenters as-is).
const (
	StateWelcome State = "welcome" // collecting the user profile (schedule only)
	StateUpload  State = "upload"  // selecting documents
	StateLoading State = "loading" // a generation run is in flight
	StateResult  State = "result"  // run finished, results available
	StateError   State = "error"   // run failed, message available
)

// Variant selects which pipeline an orchestrator drives.
type Variant string

const (
	VariantSchedule   Variant = "schedule"
	VariantFlashcards Variant = "flashcards"
)

// ParseVariant returns the variant for s, or false if s names none.
func ParseVariant(s string) (Variant, bool) {
	switch Variant(s) {
	case VariantSchedule, VariantFlashcards:
		return Variant(s), true
	}
	return "", false
}
