package llm

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/joseph-ayodele/study-planner/internal/entity"
)

// BuildExtractionPrompt asks for every dated event in one syllabus, with
// partial dates resolved against year.
func BuildExtractionPrompt(syllabus string, year int) string {
	parts := []string{
		"You are an academic assistant. Your task is to analyze the following course syllabus and extract all important dates.",
		"For each date, provide the event title, the course name, and the date.",
		fmt.Sprintf("It is now the year %d. Assume all dates mentioned are for the current academic year.", year),
		fmt.Sprintf("Be precise with dates. If a date is \"Oct 5\", represent it as \"%d-10-05\".", year),
	}

	var b strings.Builder
	b.WriteString(strings.Join(parts, "\n"))
	b.WriteString("\n\nSyllabus content:\n")
	b.WriteString(syllabus)
	b.WriteString("\n")
	return b.String()
}

// BuildSchedulePrompt asks for the study schedule and its iCalendar
// rendering in one answer. The event list is embedded as indented JSON so
// nothing is lost in serialization.
func BuildSchedulePrompt(profile entity.UserProfile, events []entity.ExtractedEvent, now time.Time) (string, error) {
	eventsJSON, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode events: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert academic planner. A student named %s needs a study schedule.\n", profile.Name)
	fmt.Fprintf(&b, "The student is generally free during these times: %s.\n", profile.FreeTime)
	fmt.Fprintf(&b, "It is currently %s.\n\n", now.Format("Mon Jan 02 2006"))
	b.WriteString("Here are their key deadlines and events:\n")
	b.Write(eventsJSON)
	b.WriteString("\n\n")

	rules := []string{
		"Create a comprehensive study schedule that includes both the original events and preparatory study sessions.",
		"Schedule study sessions in the days leading up to each deadline or exam. For a major exam, schedule multiple sessions. For a small assignment, one or two might be enough.",
		"All events in your final output should have a specific start time. For deadlines, assume they are due at 5:00 PM (17:00) on the given date. For study sessions, schedule them during the student's free time.",
	}
	b.WriteString(strings.Join(rules, "\n"))
	b.WriteString("\n\n")

	b.WriteString("Your final output must be a single JSON object with two keys: \"schedule\" and \"ical\".\n")
	b.WriteString("1. \"schedule\": An array of events. Each event object should have \"title\", \"start\" (full ISO 8601 format: YYYY-MM-DDTHH:MM:SS), and \"end\" (full ISO 8601 format).\n")
	b.WriteString("2. \"ical\": A string containing the full, valid iCalendar (.ics) data for ALL events (deadlines and study sessions).\n")
	b.WriteString("   - It must start with 'BEGIN:VCALENDAR' and end with 'END:VCALENDAR'.\n")
	b.WriteString("   - Each event must be a VEVENT with DTSTART, DTEND, SUMMARY, and a unique UID (e.g., using UUID format or timestamp).\n")
	return b.String(), nil
}

// BuildFlashcardPrompt asks for question/answer pairs over one transcript.
func BuildFlashcardPrompt(transcript string) string {
	parts := []string{
		"You are an expert academic assistant specializing in learning and retention.",
		"Your task is to analyze the following lecture transcript and generate a set of high-quality flashcards to help a student study.",
		"Each flashcard should consist of a single, clear question and a concise, accurate answer.",
		"Focus on key definitions, important concepts, key figures or dates, and cause-and-effect relationships mentioned in the text.",
		"Avoid creating questions that are too broad or trivial. The goal is to create effective study material.",
	}

	var b strings.Builder
	b.WriteString(strings.Join(parts, "\n"))
	b.WriteString("\n\nHere is the lecture transcript:\n---\n")
	b.WriteString(transcript)
	b.WriteString("\n---\n")
	return b.String()
}
