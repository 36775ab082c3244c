package reader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/study-planner/constants"
	"github.com/joseph-ayodele/study-planner/internal/common"
	"github.com/joseph-ayodele/study-planner/internal/entity"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Reader turns uploaded documents into raw text.
type Reader struct {
	pdf    PDFCapability
	logger *slog.Logger
}

// New builds a Reader. pdf may be nil, in which case PDF documents fail
// with a decode error.
func New(pdf PDFCapability, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{pdf: pdf, logger: logger}
}

// HasPDF reports whether a PDF capability was resolved.
func (r *Reader) HasPDF() bool {
	return r.pdf != nil
}

// Read picks a strategy based on the document's extension.
func (r *Reader) Read(ctx context.Context, doc entity.Document) (string, error) {
	start := time.Now()
	ext := doc.Ext()
	r.logger.Debug("reader.read.start", "name", doc.Name, "ext", ext, "bytes", len(doc.Data))

	var (
		text string
		err  error
	)
	switch constants.MapExtToFormat(ext) {
	case constants.PDF:
		text, err = r.readPDF(ctx, doc)
	case constants.TEXT, constants.MARKDOWN:
		text = decodeText(doc.Data)
	default:
		r.logger.Warn("reader.read.unsupported", "name", doc.Name, "ext", ext)
		return "", common.NewKindError(common.CodeUnsupportedFormat, common.ErrUnsupportedFormat,
			fmt.Sprintf(constants.UnsupportedFileFormat, ext), nil)
	}
	if err != nil {
		r.logger.Error("reader.read.failed", "name", doc.Name, "ext", ext, "error", err)
		return "", err
	}

	r.logger.Info("reader.read.ok",
		"name", doc.Name,
		"ext", ext,
		"chars", len(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return text, nil
}

func (r *Reader) readPDF(ctx context.Context, doc entity.Document) (string, error) {
	if r.pdf == nil {
		return "", common.NewKindError(common.CodeDecode, common.ErrDecode, constants.MsgPDFNotLoaded, nil)
	}
	pages, err := r.pdf.Pages(ctx, doc.Data)
	if err != nil {
		return "", common.NewKindError(common.CodeDecode, common.ErrDecode,
			fmt.Sprintf("could not parse %s", doc.Name), err)
	}
	texts := make([]string, 0, len(pages))
	for _, tokens := range pages {
		texts = append(texts, strings.Join(tokens, " "))
	}
	r.logger.Debug("reader.pdf.ok", "name", doc.Name, "pages", len(pages))
	return strings.Join(texts, "\n\n"), nil
}

func decodeText(data []byte) string {
	data = bytes.TrimPrefix(data, utf8BOM)
	return strings.ToValidUTF8(string(data), "�")
}

// Load reads a document payload from src. A failed read is a decode error.
func Load(name string, src io.Reader) (entity.Document, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return entity.Document{}, common.NewKindError(common.CodeDecode, common.ErrDecode,
			fmt.Sprintf("could not read %s", name), err)
	}
	return entity.Document{Name: name, Data: data}, nil
}

// Open loads the document stored at path.
func Open(path string) (entity.Document, error) {
	name := filepath.Base(path)
	f, err := os.Open(path)
	if err != nil {
		return entity.Document{}, common.NewKindError(common.CodeDecode, common.ErrDecode,
			fmt.Sprintf("could not read %s", name), err)
	}
	defer f.Close()
	return Load(name, f)
}
