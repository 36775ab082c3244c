// Package app wires configuration into the reader, generator and
// pipeline stages shared by the binaries.
package app

import (
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/study-planner/constants"
	"github.com/joseph-ayodele/study-planner/internal/common"
	"github.com/joseph-ayodele/study-planner/internal/llm"
	"github.com/joseph-ayodele/study-planner/internal/llm/gemini"
	"github.com/joseph-ayodele/study-planner/internal/llm/openai"
	"github.com/joseph-ayodele/study-planner/internal/orchestrator"
	"github.com/joseph-ayodele/study-planner/internal/pipeline"
	"github.com/joseph-ayodele/study-planner/internal/reader"
)

// App holds the process-wide components.
type App struct {
	Reader    *reader.Reader
	Generator llm.Generator
	cfg       *common.Config
	logger    *slog.Logger
}

// New resolves the PDF capability once and builds the generator for the
// configured provider. A missing pdftotext is not fatal: PDF documents
// then fail with a decode error.
func New(cfg *common.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	gen, err := NewGenerator(cfg.LLM, logger)
	if err != nil {
		return nil, err
	}

	// keep the interface nil rather than holding a nil *Pdftotext
	var pdf reader.PDFCapability
	if capability, err := reader.LoadPDFCapability(cfg.Reader.Pdftotext, reader.NewExecRunner(logger), logger); err == nil {
		pdf = capability
	}

	return &App{
		Reader:    reader.New(pdf, logger),
		Generator: gen,
		cfg:       cfg,
		logger:    logger,
	}, nil
}

// NewGenerator builds the llm.Generator for the configured provider.
func NewGenerator(cfg common.LLMConfig, logger *slog.Logger) (llm.Generator, error) {
	switch cfg.Provider {
	case common.ProviderGemini, "":
		return gemini.NewClient(gemini.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		}, logger), nil
	case common.ProviderOpenAI:
		return openai.NewClient(openai.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		}, logger), nil
	}
	return nil, common.NewAppError(common.CodeConfig, fmt.Sprintf("unknown llm provider %q", cfg.Provider), common.ErrInvalidInput)
}

// Orchestrator builds a fresh orchestrator for one session.
func (a *App) Orchestrator(variant constants.Variant) *orchestrator.Orchestrator {
	return orchestrator.New(a.logger, variant, orchestrator.Deps{
		Reader:     a.Reader,
		Extract:    pipeline.NewExtractStage(a.logger, a.Generator),
		Schedule:   pipeline.NewScheduleStage(a.logger, a.Generator, ""),
		Flashcards: pipeline.NewFlashcardStage(a.logger, a.Generator, a.cfg.LLM.FlashcardModel),
	})
}
