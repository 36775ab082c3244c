package llm

import (
	"fmt"

	"github.com/joseph-ayodele/study-planner/internal/common"
)

// APIError is a non-success response from the generative API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Status: %d. %s", e.Status, e.Message)
}

// Is makes errors.Is(err, common.ErrAPI) match.
func (e *APIError) Is(target error) bool {
	return target == common.ErrAPI
}

// Malformed wraps a missing or unparseable answer payload.
func Malformed(message string, cause error) error {
	return common.NewKindError(common.CodeMalformedResponse, common.ErrMalformedResponse, message, cause)
}

// TransportError wraps a request that never produced an HTTP response.
func TransportError(cause error) error {
	return common.NewKindError(common.CodeAPI, common.ErrAPI, "request failed", cause)
}
