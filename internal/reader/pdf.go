package reader

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
)

// PDFCapability parses a PDF into the text tokens of each page, in page order.
type PDFCapability interface {
	Pages(ctx context.Context, data []byte) ([][]string, error)
}

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// Pdftotext implements PDFCapability on top of poppler's pdftotext.
// Calls are serialized: the binary is treated as one process-wide resource.
type Pdftotext struct {
	bin    string
	runner Runner
	logger *slog.Logger
	mu     sync.Mutex
}

// LoadPDFCapability resolves the pdftotext binary once. On failure the
// caller should run without a PDF capability; the reader then rejects PDFs.
func LoadPDFCapability(bin string, runner Runner, logger *slog.Logger) (*Pdftotext, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if bin == "" {
		bin = "pdftotext"
	}
	path, err := lookPath(bin)
	if err != nil {
		logger.Warn("reader.pdf.capability_unavailable", "bin", bin, "error", err)
		return nil, fmt.Errorf("resolve %s: %w", bin, err)
	}
	if runner == nil {
		runner = NewExecRunner(logger)
	}
	logger.Info("reader.pdf.capability_loaded", "path", path)
	return &Pdftotext{bin: path, runner: runner, logger: logger}, nil
}

func (p *Pdftotext) Pages(ctx context.Context, data []byte) ([][]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tmp, err := os.CreateTemp("", "sp-pdf-*.pdf")
	if err != nil {
		return nil, err
	}
	defer func(name string) {
		if err := os.Remove(name); err != nil {
			p.logger.Warn("reader.pdf.temp_cleanup_failed", "path", name, "error", err)
		}
	}(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		return nil, err
	}

	// pdftotext -raw -enc UTF-8 -eol unix <path> -
	// -raw keeps content-stream order instead of reconstructing the layout.
	out, errb, err := p.runner.Run(ctx, p.bin, "-raw", "-enc", "UTF-8", "-eol", "unix", tmp.Name(), "-")
	if err != nil {
		if msg := strings.TrimSpace(string(errb)); msg != "" {
			return nil, fmt.Errorf("pdftotext: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	return splitPages(string(out)), nil
}

// splitPages splits pdftotext output on form feeds. Each page is
// terminated by \f, so a trailing empty chunk is not a page.
func splitPages(out string) [][]string {
	chunks := strings.Split(out, "\f")
	if len(chunks) > 1 && strings.TrimSpace(chunks[len(chunks)-1]) == "" {
		chunks = chunks[:len(chunks)-1]
	}
	pages := make([][]string, 0, len(chunks))
	for _, c := range chunks {
		pages = append(pages, strings.Fields(c))
	}
	return pages
}
