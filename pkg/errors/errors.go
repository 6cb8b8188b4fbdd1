package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeElementNotFound represents a locator list that matched nothing in time
	ErrorTypeElementNotFound ErrorType = "element_not_found"
	// ErrorTypeNavigationTimeout represents a navigation that did not settle in time
	ErrorTypeNavigationTimeout ErrorType = "navigation_timeout"
	// ErrorTypeFeedParse represents a feed response that could not be parsed
	ErrorTypeFeedParse ErrorType = "feed_parse"
	// ErrorTypeMissingIdentity represents a feed record without a usable id
	ErrorTypeMissingIdentity ErrorType = "missing_identity"
	// ErrorTypeSession represents browser/session failures
	ErrorTypeSession ErrorType = "session"
	// ErrorTypeValidation represents validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// Failure reasons reported by the login sequence.
const (
	ReasonEmailInputMissing    = "email-input-missing"
	ReasonEmailNextMissing     = "email-next-missing"
	ReasonPasswordInputMissing = "password-input-missing"
	ReasonLoginButtonMissing   = "login-button-missing"
)

// ScrapeError represents an extraction-specific error
type ScrapeError struct {
	Type    ErrorType
	Stage   string
	Reason  string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *ScrapeError) Error() string {
	msg := e.Message
	if e.Reason != "" {
		msg = e.Reason
		if e.Message != "" {
			msg += " (" + e.Message + ")"
		}
	}
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Stage, msg, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Stage, msg)
}

// Unwrap returns the underlying error
func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether the error must abort the extraction run.
func (e *ScrapeError) IsFatal() bool {
	switch e.Type {
	case ErrorTypeNavigationTimeout, ErrorTypeFeedParse, ErrorTypeMissingIdentity:
		return false
	default:
		return true
	}
}

// New creates a new ScrapeError
func New(errType ErrorType, stage, message string, err error) *ScrapeError {
	return &ScrapeError{
		Type:    errType,
		Stage:   stage,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewElementNotFound creates an error for an exhausted locator list. The reason is the
// short machine-readable failure name surfaced to callers.
func NewElementNotFound(stage, reason string, err error) *ScrapeError {
	e := New(ErrorTypeElementNotFound, stage, "", err)
	e.Reason = reason
	return e
}

// NewNavigationTimeout creates a navigation timeout error
func NewNavigationTimeout(stage, message string, err error) *ScrapeError {
	return New(ErrorTypeNavigationTimeout, stage, message, err)
}

// NewFeedParse creates a feed parse error
func NewFeedParse(stage, message string, err error) *ScrapeError {
	return New(ErrorTypeFeedParse, stage, message, err)
}

// NewSession creates a session error
func NewSession(stage, message string, err error) *ScrapeError {
	return New(ErrorTypeSession, stage, message, err)
}

// NewValidation creates a new validation error
func NewValidation(stage, message string) *ScrapeError {
	return New(ErrorTypeValidation, stage, message, nil)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *ScrapeError {
	return New(ErrorTypeConfiguration, "config", message, err)
}

// ReasonOf returns the user-facing failure text for err: the login failure reason when
// one is attached, otherwise the error message.
func ReasonOf(err error) string {
	if err == nil {
		return ""
	}
	var se *ScrapeError
	if stderrors.As(err, &se) {
		if se.Reason != "" {
			return se.Reason
		}
		if se.Message != "" {
			return se.Message
		}
	}
	return err.Error()
}

// IsType reports whether err carries a ScrapeError of the given type.
func IsType(err error, errType ErrorType) bool {
	var se *ScrapeError
	return stderrors.As(err, &se) && se.Type == errType
}
