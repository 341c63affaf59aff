package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// NoDivergence indicates the two trees are structurally equal
	NoDivergence ErrorCode = "NO_DIVERGENCE"
	// EmptyPattern indicates no condition could be derived from the divergence
	EmptyPattern ErrorCode = "EMPTY_PATTERN"
	// UnsupportedTargetKind indicates the target node kind has no rule class
	UnsupportedTargetKind ErrorCode = "UNSUPPORTED_TARGET_KIND"
	// NoTranslatableConditions indicates no condition produced a where clause
	NoTranslatableConditions ErrorCode = "NO_TRANSLATABLE_CONDITIONS"
	// ParseFailure indicates a source fragment could not be parsed
	ParseFailure ErrorCode = "PARSE_FAILURE"
	// InvalidInput indicates a malformed corpus, config value or flag
	InvalidInput ErrorCode = "INVALID_INPUT"
	// StorageFailure indicates the run history database could not be used
	StorageFailure ErrorCode = "STORAGE_FAILURE"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// EditConfig suggests changing a configuration key
	EditConfig FixActionType = "edit-config"
	// InstallTool suggests installing a tool
	InstallTool FixActionType = "install-tool"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Key         string        `json:"key,omitempty"`
	Description string        `json:"description,omitempty"`
	Tool        string        `json:"tool,omitempty"`
}

// MbError is an error carrying a stable code and a human message.
type MbError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	cause   error
}

// New creates an MbError without an underlying cause.
func New(code ErrorCode, message string) *MbError {
	return &MbError{Code: code, Message: message}
}

// Newf creates an MbError with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *MbError {
	return &MbError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an MbError around an underlying error.
func Wrap(code ErrorCode, message string, cause error) *MbError {
	return &MbError{Code: code, Message: message, cause: cause}
}

// Error implements the error interface
func (e *MbError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *MbError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *MbError) WithDetails(details interface{}) *MbError {
	e.Details = details
	return e
}

// CodeOf returns the code of the first MbError in err's chain, or "" if none.
func CodeOf(err error) ErrorCode {
	var mb *MbError
	if stderrors.As(err, &mb) {
		return mb.Code
	}
	return ""
}

// HasCode reports whether err's chain contains an MbError with the given code.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		var mb *MbError
		if !stderrors.As(err, &mb) {
			return false
		}
		if mb.Code == code {
			return true
		}
		err = mb.cause
	}
	return false
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	ParseFailure: {
		{
			Type:        EditConfig,
			Key:         "parser.backend",
			Description: "Switch between the treesitter and external parser backends",
		},
		{
			Type:        InstallTool,
			Tool:        "node",
			Description: "The external backend runs parser.command with node and esprima",
		},
	},
	UnsupportedTargetKind: {
		{
			Type:        RunCommand,
			Command:     "mbsearch diff <slow> <fast>",
			Description: "Inspect the divergence node kind",
		},
	},
	StorageFailure: {
		{
			Type:        EditConfig,
			Key:         "storage.path",
			Description: "Point storage at a writable location or disable it",
		},
	},
	InvalidInput: {
		{
			Type:        RunCommand,
			Command:     "mbsearch init",
			Description: "Write a default configuration file",
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
