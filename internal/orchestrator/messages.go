package orchestrator

import (
	"errors"
	"fmt"

	"github.com/joseph-ayodele/study-planner/constants"
	"github.com/joseph-ayodele/study-planner/internal/common"
	"github.com/joseph-ayodele/study-planner/internal/llm"
	"github.com/joseph-ayodele/study-planner/internal/pipeline"
)

// Describe maps a run failure to the message shown to the user and its
// kind code.
func Describe(err error) (string, string) {
	kind := common.KindCode(err)

	stage := "generation"
	var se *pipeline.StageError
	if errors.As(err, &se) {
		stage = se.Stage
	}

	var apiErr *llm.APIError
	switch {
	case errors.As(err, &apiErr):
		return fmt.Sprintf("API Error during %s: %s", stage, apiErr.Error()), common.CodeAPI
	case errors.Is(err, common.ErrAPI):
		return fmt.Sprintf("API Error during %s: %s", stage, causeText(err)), common.CodeAPI
	case errors.Is(err, common.ErrMalformedResponse):
		if stage == pipeline.StageExtraction {
			return constants.MsgExtractMalformed, common.CodeMalformedResponse
		}
		return constants.MsgMalformed, common.CodeMalformedResponse
	case errors.Is(err, common.ErrNoEventsFound):
		return constants.MsgNoEventsFound, common.CodeNoEventsFound
	case errors.Is(err, common.ErrEmptyDocument):
		return constants.MsgEmptyDocument, common.CodeEmptyDocument
	case errors.Is(err, common.ErrEmptyResult):
		return constants.MsgEmptyFlashcards, common.CodeEmptyResult
	case errors.Is(err, common.ErrUnsupportedFormat), errors.Is(err, common.ErrDecode):
		return appMessage(err), kind
	}
	return constants.MsgUnknown + " " + err.Error(), common.CodeUnknown
}

// appMessage returns the AppError's message, with its cause when the cause
// adds something beyond the failure kind.
func appMessage(err error) string {
	var appErr *common.AppError
	if !errors.As(err, &appErr) {
		return err.Error()
	}
	if c := causeText(err); c != "" {
		return appErr.Message + ": " + c
	}
	return appErr.Message
}

// causeText is the underlying error text behind an AppError's kind
// sentinel, or "" if there is none.
func causeText(err error) string {
	var appErr *common.AppError
	if !errors.As(err, &appErr) || appErr.Cause == nil {
		return err.Error()
	}
	// NewKindError joins kind and cause as "%w: %w"
	if inner, ok := appErr.Cause.(interface{ Unwrap() []error }); ok {
		errs := inner.Unwrap()
		if len(errs) == 2 {
			return errs[1].Error()
		}
	}
	if isKind(appErr.Cause) {
		return ""
	}
	return appErr.Cause.Error()
}

func isKind(err error) bool {
	for _, k := range []error{
		common.ErrUnsupportedFormat, common.ErrDecode, common.ErrAPI, common.ErrMalformedResponse,
		common.ErrNoEventsFound, common.ErrEmptyResult, common.ErrEmptyDocument, common.ErrInvalidInput,
	} {
		if err == k {
			return true
		}
	}
	return false
}
