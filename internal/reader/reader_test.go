package reader

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/study-planner/internal/common"
	"github.com/joseph-ayodele/study-planner/internal/entity"
)

type stubRunner struct {
	stdout []byte
	stderr []byte
	err    error

	calls [][]string
}

func (s *stubRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	s.calls = append(s.calls, append([]string{name}, args...))
	return s.stdout, s.stderr, s.err
}

type stubPDF struct {
	pages [][]string
	err   error
	calls int
}

func (s *stubPDF) Pages(context.Context, []byte) ([][]string, error) {
	s.calls++
	return s.pages, s.err
}

func TestReader_Read(t *testing.T) {
	ctx := context.Background()

	t.Run("Given a txt document When Read Then returns the decoded text", func(t *testing.T) {
		r := New(nil, nil)

		text, err := r.Read(ctx, entity.Document{Name: "syllabus.txt", Data: []byte("Midterm Oct 5")})

		require.NoError(t, err)
		assert.Equal(t, "Midterm Oct 5", text)
	})

	t.Run("Given an upper-case MD extension When Read Then dispatches to the text path", func(t *testing.T) {
		r := New(nil, nil)

		text, err := r.Read(ctx, entity.Document{Name: "Notes.MD", Data: []byte("\xEF\xBB\xBF# Week 1")})

		require.NoError(t, err)
		assert.Equal(t, "# Week 1", text)
	})

	t.Run("Given invalid UTF-8 When Read Then invalid bytes are replaced", func(t *testing.T) {
		r := New(nil, nil)

		text, err := r.Read(ctx, entity.Document{Name: "a.txt", Data: []byte{'o', 'k', 0xff}})

		require.NoError(t, err)
		assert.Equal(t, "ok�", text)
	})

	t.Run("Given an unknown extension When Read Then fails with UnsupportedFormat naming it", func(t *testing.T) {
		pdf := &stubPDF{}
		r := New(pdf, nil)

		_, err := r.Read(ctx, entity.Document{Name: "syllabus.docx", Data: []byte("x")})

		require.Error(t, err)
		assert.True(t, errors.Is(err, common.ErrUnsupportedFormat))
		var appErr *common.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Contains(t, appErr.Message, ".docx")
		assert.Zero(t, pdf.calls)
	})

	t.Run("Given a name without extension When Read Then fails with UnsupportedFormat", func(t *testing.T) {
		r := New(nil, nil)

		_, err := r.Read(ctx, entity.Document{Name: "README", Data: []byte("x")})

		assert.True(t, errors.Is(err, common.ErrUnsupportedFormat))
	})

	t.Run("Given no PDF capability When reading a pdf Then fails with DecodeError naming the library", func(t *testing.T) {
		r := New(nil, nil)

		_, err := r.Read(ctx, entity.Document{Name: "syllabus.pdf", Data: []byte("%PDF-1.4")})

		require.Error(t, err)
		assert.True(t, errors.Is(err, common.ErrDecode))
		var appErr *common.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, "PDF parsing library is not loaded.", appErr.Message)
		assert.False(t, r.HasPDF())
	})

	t.Run("Given a PDF capability When reading a pdf Then tokens join with spaces and pages with blank lines", func(t *testing.T) {
		pdf := &stubPDF{pages: [][]string{{"CS", "101"}, {}, {"Final", "Dec", "12"}}}
		r := New(pdf, nil)

		text, err := r.Read(ctx, entity.Document{Name: "s.PDF", Data: []byte("%PDF")})

		require.NoError(t, err)
		assert.Equal(t, "CS 101\n\n\n\nFinal Dec 12", text)
	})

	t.Run("Given the PDF parser fails When reading a pdf Then fails with DecodeError", func(t *testing.T) {
		r := New(&stubPDF{err: errors.New("broken xref")}, nil)

		_, err := r.Read(ctx, entity.Document{Name: "s.pdf"})

		assert.True(t, errors.Is(err, common.ErrDecode))
		assert.ErrorContains(t, err, "broken xref")
	})
}

func TestPdftotext_Pages(t *testing.T) {
	t.Run("Given pdftotext output with form feeds When Pages Then splits per page", func(t *testing.T) {
		runner := &stubRunner{stdout: []byte("Intro to  Biology\nWeek 1\f Exam\tNov 3\n\f")}
		p := &Pdftotext{bin: "/usr/bin/pdftotext", runner: runner, logger: slog.Default()}

		pages, err := p.Pages(context.Background(), []byte("%PDF"))

		require.NoError(t, err)
		assert.Equal(t, [][]string{{"Intro", "to", "Biology", "Week", "1"}, {"Exam", "Nov", "3"}}, pages)
		require.Len(t, runner.calls, 1)
		assert.Equal(t, "/usr/bin/pdftotext", runner.calls[0][0])
		assert.Equal(t, "-", runner.calls[0][len(runner.calls[0])-1])
	})

	t.Run("Given pdftotext fails When Pages Then stderr is part of the error", func(t *testing.T) {
		runner := &stubRunner{stderr: []byte("Syntax Error: Couldn't find trailer"), err: errors.New("exit status 1")}
		p := &Pdftotext{bin: "pdftotext", runner: runner, logger: slog.Default()}

		_, err := p.Pages(context.Background(), []byte("junk"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "Couldn't find trailer")
	})
}

func TestLoadPDFCapability(t *testing.T) {
	orig := lookPath
	t.Cleanup(func() { lookPath = orig })

	t.Run("Given the binary is missing When loading Then returns an error", func(t *testing.T) {
		lookPath = func(string) (string, error) { return "", errors.New("not found") }

		p, err := LoadPDFCapability("pdftotext", nil, nil)

		require.Error(t, err)
		assert.Nil(t, p)
	})

	t.Run("Given the binary resolves When loading Then the capability uses the resolved path", func(t *testing.T) {
		lookPath = func(bin string) (string, error) { return "/opt/poppler/bin/" + bin, nil }
		runner := &stubRunner{stdout: []byte("hello\f")}

		p, err := LoadPDFCapability("", runner, nil)
		require.NoError(t, err)
		_, err = p.Pages(context.Background(), nil)

		require.NoError(t, err)
		assert.Equal(t, "/opt/poppler/bin/pdftotext", runner.calls[0][0])
	})
}

func TestOpen(t *testing.T) {
	t.Run("Given a file on disk When Open Then returns its name and payload", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "history.md")
		require.NoError(t, os.WriteFile(path, []byte("# Essay due Oct 5"), 0o600))

		doc, err := Open(path)

		require.NoError(t, err)
		assert.Equal(t, "history.md", doc.Name)
		assert.Equal(t, "# Essay due Oct 5", string(doc.Data))
	})

	t.Run("Given a missing file When Open Then fails with DecodeError", func(t *testing.T) {
		_, err := Open(filepath.Join(t.TempDir(), "nope.txt"))

		assert.True(t, errors.Is(err, common.ErrDecode))
	})

	t.Run("Given a failing reader When Load Then fails with DecodeError", func(t *testing.T) {
		_, err := Load("x.txt", failingReader{})

		assert.True(t, errors.Is(err, common.ErrDecode))
		assert.True(t, strings.Contains(err.Error(), "x.txt"))
	})
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk gone") }
