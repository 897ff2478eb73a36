package domain

import "fmt"

// EngineError is the unified error type for the game backend.
// Each error has a numeric code and human-readable message.
type EngineError struct {
	Code    int
	Message string
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	return fmt.Sprintf("engine error %d: %s", e.Code, e.Message)
}

// Is matches any EngineError carrying the same code, so wrapped variants
// built with NewEngineError still satisfy errors.Is against the sentinels.
func (e *EngineError) Is(target error) bool {
	t, ok := target.(*EngineError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewEngineError creates a new EngineError.
func NewEngineError(code int, msg string) *EngineError {
	return &EngineError{Code: code, Message: msg}
}

// WrapEngineError creates an EngineError that includes a cause.
func WrapEngineError(code int, msg string, cause error) *EngineError {
	return &EngineError{Code: code, Message: fmt.Sprintf("%s: %v", msg, cause)}
}

// ---- Crisis errors (-32010 to -32039) ----

var (
	ErrInvalidTransition = &EngineError{Code: -32010, Message: "invalid session transition"}
	ErrNoActiveCrisis    = &EngineError{Code: -32011, Message: "no crisis is active"}
	ErrCrisisResolving   = &EngineError{Code: -32012, Message: "crisis is already being resolved"}
	ErrUnknownResponse   = &EngineError{Code: -32013, Message: "response is not an option of the active crisis"}
	ErrCrisisActive      = &EngineError{Code: -32014, Message: "a crisis is in progress"}
	ErrCatalogInvalid    = &EngineError{Code: -32015, Message: "invalid crisis catalog"}
	ErrEngineClosed      = &EngineError{Code: -32016, Message: "crisis engine is closed"}
)

// ---- Park errors (-32040 to -32069) ----

var (
	ErrInvalidAmount   = &EngineError{Code: -32040, Message: "amount must be positive"}
	ErrInvalidSecurity = &EngineError{Code: -32041, Message: "unknown security level"}
)

// ---- Campaign errors (-32070 to -32099) ----

var (
	ErrSaveNotFound       = &EngineError{Code: -32070, Message: "save not found"}
	ErrSaveVersion        = &EngineError{Code: -32071, Message: "save was written by a newer version"}
	ErrSaveCorrupt        = &EngineError{Code: -32072, Message: "save payload is corrupt"}
	ErrCheckpointNotFound = &EngineError{Code: -32073, Message: "checkpoint not found"}
	ErrInvalidSlot        = &EngineError{Code: -32074, Message: "invalid save slot"}
)

// ---- Store / Config errors (-32130 to -32159) ----

var (
	ErrStoreInit     = &EngineError{Code: -32130, Message: "failed to initialize store"}
	ErrStoreQuery    = &EngineError{Code: -32131, Message: "store query failed"}
	ErrStoreWrite    = &EngineError{Code: -32132, Message: "store write failed"}
	ErrConfigInvalid = &EngineError{Code: -32136, Message: "invalid configuration"}
)
