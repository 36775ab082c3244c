package export

import (
	"strings"

	"github.com/joseph-ayodele/study-planner/constants"
	"github.com/joseph-ayodele/study-planner/internal/entity"
)

// ICS returns the schedule's calendar export as a download.
func ICS(s entity.Schedule) (string, []byte) {
	return constants.ScheduleICSFileName, []byte(s.ICal)
}

// FlashcardsText renders cards as "Q: ..\nA: .." blocks separated by a
// "---" line.
func FlashcardsText(cards []entity.Flashcard) string {
	blocks := make([]string, 0, len(cards))
	for _, c := range cards {
		blocks = append(blocks, "Q: "+c.Question+"\nA: "+c.Answer)
	}
	return strings.Join(blocks, "\n\n---\n\n")
}

// FlashcardsFileName names the text download after the transcript,
// e.g. "lecture.v2.txt" -> "lecture-flashcards.txt".
func FlashcardsFileName(docName string) string {
	return constants.BaseName(docName) + constants.FlashcardsTxtSuffix
}

// FlashcardsHTMLFileName names the HTML study sheet after the transcript.
func FlashcardsHTMLFileName(docName string) string {
	return constants.BaseName(docName) + constants.FlashcardsHTMLSuffix
}
