package constants

// User-facing loading messages, one per run phase.
const (
	LoadingReadingSyllabi     = "Reading your syllabi (PDFs may take longer)..."
	LoadingBuildingSchedule   = "Building your personalized schedule..."
	LoadingReadingTranscript  = "Reading and analyzing your transcript..."
	LoadingCreatingFlashcards = "Creating flashcards with Gemini AI..."
)

// User-facing failure messages.
const (
	MsgPDFNotLoaded       = "PDF parsing library is not loaded."
	MsgExtractMalformed   = "Failed to extract events from one of the syllabi. They might be in an unsupported format or empty."
	MsgMalformed          = "The AI returned an unexpected response. Please try again."
	MsgNoEventsFound      = "No key dates could be found in the provided syllabi. Please check the files and try again."
	MsgEmptyDocument      = "The uploaded file appears to be empty. Please provide a transcript with content."
	MsgEmptyFlashcards    = "The AI could not generate flashcards from this transcript. It might be too short or lack clear concepts. Please try a different file."
	MsgUnknown            = "An unknown error occurred."
	UnsupportedFileFormat = "Unsupported file type: .%s. Please upload a .pdf, .txt, or .md file."
)
