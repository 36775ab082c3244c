package constants

import (
	"path/filepath"
	"strings"
)

// FileFormat is the reader path a document takes.
type FileFormat string

const (
	PDF      FileFormat = "PDF"
	TEXT     FileFormat = "TEXT"
	MARKDOWN FileFormat = "MARKDOWN"
	UNKNOWN  FileFormat = ""
)

// AllowedExtensions holds the extensions accepted for syllabi and transcripts.
var AllowedExtensions = map[string]FileFormat{
	"pdf": PDF,
	"txt": TEXT,
	"md":  MARKDOWN,
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// ExtOf returns the normalized extension of a file name.
func ExtOf(name string) string {
	return NormalizeExt(filepath.Ext(name))
}

// MapExtToFormat maps a normalized extension to its reader path.
func MapExtToFormat(ext string) FileFormat {
	if f, ok := AllowedExtensions[NormalizeExt(ext)]; ok {
		return f
	}
	return UNKNOWN
}

// BaseName returns the file name up to its first dot, used to name downloads.
func BaseName(name string) string {
	base := filepath.Base(name)
	if i := strings.Index(base, "."); i >= 0 {
		base = base[:i]
	}
	return base
}

const (
	ScheduleICSFileName  = "study-schedule.ics"
	ScheduleXLSXFileName = "study-schedule.xlsx"
	FlashcardsTxtSuffix  = "-flashcards.txt"
	FlashcardsHTMLSuffix = "-flashcards.html"
)
