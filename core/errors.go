package core

import "errors"

// Error kinds shared by every stage of the pipeline. Stages wrap the underlying
// cause, so callers classify failures with errors.Is.
var (
	ErrUnsupportedDialect = errors.New("unsupported dialect")
	ErrConnection         = errors.New("connection error")
	ErrQueryExecution     = errors.New("query execution error")
	ErrInvalidSQL         = errors.New("invalid sql")
	ErrGenerationService  = errors.New("generation service error")
)
