package export

import (
	"bytes"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"github.com/yuin/goldmark"

	"github.com/joseph-ayodele/study-planner/internal/calendar"
	"github.com/joseph-ayodele/study-planner/internal/entity"
)

// Service renders results into binary download formats.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// ScheduleXLSX returns an XLSX workbook (as bytes) listing the schedule in
// start order, plus a sheet per month of the overview.
func (s *Service) ScheduleXLSX(sched entity.Schedule) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Schedule"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	headers := []string{"Title", "Start", "End", "Duration (min)"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, e := range calendar.SortByStart(sched.Schedule) {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, e.Title)
		write(2, e.Start)
		write(3, e.End)
		if mins, ok := durationMinutes(e); ok {
			write(4, mins)
		} else {
			write(4, "")
		}
		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 48) // title
	_ = f.SetColWidth(sheet, "B", "C", 22) // start, end
	_ = f.SetColWidth(sheet, "D", "D", 16) // duration

	months := calendar.Overview(sched.Schedule)
	for _, m := range months {
		if err := writeMonthSheet(f, m); err != nil {
			return nil, fmt.Errorf("month sheet %s: %w", m.Title(), err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(sched.Schedule),
		"months", len(months),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// writeMonthSheet lays a month out as a Sunday-first grid; each cell holds
// the day number followed by its event titles.
func writeMonthSheet(f *excelize.File, m calendar.Month) error {
	name := m.Title()
	if _, err := f.NewSheet(name); err != nil {
		return err
	}
	for i, wd := range []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"} {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(name, cell, wd)
	}
	for i, d := range m.Days {
		slot := m.Lead + i
		cell, _ := excelize.CoordinatesToCellName(slot%7+1, slot/7+2)
		lines := []string{fmt.Sprint(d.Date.Day())}
		for _, e := range d.Events {
			lines = append(lines, e.Title)
		}
		_ = f.SetCellValue(name, cell, strings.Join(lines, "\n"))
	}
	return f.SetColWidth(name, "A", "G", 24)
}

func durationMinutes(e entity.ScheduleEvent) (int, bool) {
	start, err := calendar.ParseTime(e.Start)
	if err != nil {
		return 0, false
	}
	end, err := calendar.ParseTime(e.End)
	if err != nil {
		return 0, false
	}
	return int(end.Sub(start).Minutes()), true
}

// FlashcardsHTML renders cards as a standalone HTML study sheet. Card text
// is treated as markdown; raw HTML in it is not passed through.
func (s *Service) FlashcardsHTML(title string, cards []entity.Flashcard) ([]byte, error) {
	var md strings.Builder
	fmt.Fprintf(&md, "# %s\n\n", title)
	for i, c := range cards {
		fmt.Fprintf(&md, "## %d. %s\n\n%s\n\n", i+1, oneLine(c.Question), c.Answer)
		if i < len(cards)-1 {
			md.WriteString("---\n\n")
		}
	}

	var body bytes.Buffer
	if err := goldmark.Convert([]byte(md.String()), &body); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}

	var out bytes.Buffer
	out.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&out, "<title>%s</title>\n", html.EscapeString(title))
	out.WriteString("</head>\n<body>\n")
	out.Write(body.Bytes())
	out.WriteString("</body>\n</html>\n")

	s.logger.Info("export.html.ok", "cards", len(cards), "bytes", out.Len())
	return out.Bytes(), nil
}

// headings end at the first newline
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
