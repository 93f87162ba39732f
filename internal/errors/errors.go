package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// SourceUnavailable indicates the files of a branch could not be listed or read
	SourceUnavailable ErrorCode = "SOURCE_UNAVAILABLE"
	// TrackerUnavailable indicates an issue tracker could not be set up
	TrackerUnavailable ErrorCode = "TRACKER_UNAVAILABLE"
	// ConfigInvalid indicates the configuration failed validation
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// ReportWriteFailed indicates a report could not be written or uploaded
	ReportWriteFailed ErrorCode = "REPORT_WRITE_FAILED"
	// StorageFailed indicates the run history database failed
	StorageFailed ErrorCode = "STORAGE_FAILED"
	// Timeout indicates an operation ran out of time
	Timeout ErrorCode = "TIMEOUT"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// SetEnv suggests setting an environment variable
	SetEnv FixActionType = "set-env"
	// OpenDocs suggests opening documentation
	OpenDocs FixActionType = "open-docs"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Safe        bool          `json:"safe,omitempty"`
	Description string        `json:"description,omitempty"`
	URL         string        `json:"url,omitempty"`
}

// InspectorError is an error with a stable code and suggested fixes
type InspectorError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error
}

// New creates an InspectorError. When fixes is nil the defaults for code are used.
func New(code ErrorCode, message string, cause error, fixes []FixAction) *InspectorError {
	if fixes == nil {
		fixes = GetSuggestedFixes(code)
	}
	return &InspectorError{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: fixes,
	}
}

// Error implements the error interface
func (e *InspectorError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *InspectorError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *InspectorError) WithDetails(details interface{}) *InspectorError {
	e.Details = details
	return e
}

// CodeOf returns the code of the first InspectorError in err's chain,
// or InternalError.
func CodeOf(err error) ErrorCode {
	var ie *InspectorError
	if errors.As(err, &ie) {
		return ie.Code
	}
	return InternalError
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	SourceUnavailable: {
		{
			Type:        SetEnv,
			Command:     "export GITHUB_TOKEN=<token>",
			Description: "Authenticate to avoid GitHub rate limits and reach private repositories",
		},
		{
			Type:        RunCommand,
			Command:     "git fetch --all",
			Safe:        true,
			Description: "Make sure the branch exists in the local clone",
		},
	},
	ConfigInvalid: {
		{
			Type:        RunCommand,
			Command:     "disabled-tests-inspector analyze --help",
			Safe:        true,
			Description: "Check the accepted flags and config keys",
		},
	},
	ReportWriteFailed: {
		{
			Type:        RunCommand,
			Command:     "ls -ld .",
			Safe:        true,
			Description: "Check that the output directory is writable",
		},
	},
	StorageFailed: {
		{
			Type:        RunCommand,
			Command:     "disabled-tests-inspector analyze --no-history",
			Safe:        true,
			Description: "Run without recording history",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
