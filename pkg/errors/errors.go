package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// ErrorCode represents a unique error code for categorizing errors
type ErrorCode string

const (
	// Connection errors (1xxx)
	ErrCodeConnectionFailed     ErrorCode = "DWH1001"
	ErrCodeConnectionTimeout    ErrorCode = "DWH1002"
	ErrCodeAuthenticationFailed ErrorCode = "DWH1003"

	// Configuration errors (2xxx)
	ErrCodeConfigNotFound   ErrorCode = "DWH2001"
	ErrCodeConfigInvalid    ErrorCode = "DWH2002"
	ErrCodeConfigMissing    ErrorCode = "DWH2003"
	ErrCodeConfigPermission ErrorCode = "DWH2004"
	ErrCodeConfigWrite      ErrorCode = "DWH2005"

	// Source data errors (3xxx)
	ErrCodeSourceNotFound ErrorCode = "DWH3001"
	ErrCodeSourceAccess   ErrorCode = "DWH3002"

	// SQL execution errors (4xxx)
	ErrCodeSQLSyntax         ErrorCode = "DWH4001"
	ErrCodeSQLPermission     ErrorCode = "DWH4002"
	ErrCodeSQLTimeout        ErrorCode = "DWH4003"
	ErrCodeSQLObjectNotFound ErrorCode = "DWH4005"
	ErrCodeSQLExecution      ErrorCode = "DWH4006"
	ErrCodeLoadFailed        ErrorCode = "DWH4007"
	ErrCodeTransformFailed   ErrorCode = "DWH4008"

	// Cloud API errors (5xxx)
	ErrCodeCloudAPI          ErrorCode = "DWH5001"
	ErrCodeRoleFailed        ErrorCode = "DWH5002"
	ErrCodeClusterFailed     ErrorCode = "DWH5003"
	ErrCodeWaitTimeout       ErrorCode = "DWH5004"
	ErrCodeUnexpectedStatus  ErrorCode = "DWH5005"
	ErrCodeIngressFailed     ErrorCode = "DWH5006"
	ErrCodeResourceNotFound  ErrorCode = "DWH5007"

	// Validation errors (6xxx)
	ErrCodeValidationFailed ErrorCode = "DWH6001"
	ErrCodeInvalidInput     ErrorCode = "DWH6002"
	ErrCodeRequiredField    ErrorCode = "DWH6003"
	ErrCodeUserInput        ErrorCode = "DWH6004"

	// Security errors (7xxx)
	ErrCodeEncryptionFailed ErrorCode = "DWH7002"
	ErrCodeCredentialLookup ErrorCode = "DWH7003"

	// System errors (9xxx)
	ErrCodeInternal           ErrorCode = "DWH9001"
	ErrCodeTimeout            ErrorCode = "DWH9002"
	ErrCodeMaxRetriesExceeded ErrorCode = "DWH9007"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

const (
	SeverityCritical ErrorSeverity = "CRITICAL" // run cannot continue and state may be partial
	SeverityError    ErrorSeverity = "ERROR"
	SeverityWarning  ErrorSeverity = "WARNING"
	SeverityInfo     ErrorSeverity = "INFO"
)

// AppError represents a structured application error with context
type AppError struct {
	Code        ErrorCode
	Message     string
	Severity    ErrorSeverity
	Context     map[string]interface{}
	Cause       error
	Stack       string
	Timestamp   time.Time
	Recoverable bool
	Suggestions []string
}

// Error implements the error interface
func (e *AppError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s] %s: %s", e.Code, e.Severity, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\nCaused by: %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\nSuggestions:")
		for i, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  %d. %s", i+1, suggestion))
		}
	}

	return b.String()
}

// Unwrap returns the cause of the error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches on error code so sentinel AppErrors work with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Severity:  SeverityError,
		Context:   make(map[string]interface{}),
		Stack:     captureStack(),
		Timestamp: time.Now(),
	}
}

// Wrap wraps an existing error with AppError
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}

	appErr := New(code, message)
	appErr.Cause = err

	var ae *AppError
	if errors.As(err, &ae) {
		for k, v := range ae.Context {
			appErr.Context[k] = v
		}
	}

	return appErr
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithSeverity sets the error severity
func (e *AppError) WithSeverity(severity ErrorSeverity) *AppError {
	e.Severity = severity
	return e
}

// WithSuggestions adds recovery suggestions
func (e *AppError) WithSuggestions(suggestions ...string) *AppError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// AsRecoverable marks the error as recoverable
func (e *AppError) AsRecoverable() *AppError {
	e.Recoverable = true
	return e
}

func captureStack() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])

	var b strings.Builder
	frames := runtime.CallersFrames(pcs[:n])

	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			b.WriteString(fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function))
		}
		if !more {
			break
		}
	}

	return b.String()
}

// Common error constructors

// ConnectionError creates a warehouse connection error
func ConnectionError(message string, cause error) *AppError {
	return Wrap(cause, ErrCodeConnectionFailed, message).
		WithSuggestions(
			"Check that the cluster is available with 'dwhctl cluster status'",
			"Verify [CLUSTER] HOST and DB_PORT in the configuration file",
			"Make sure ingress is open for your address on the cluster port",
		)
}

// ConfigError creates a configuration error naming the offending key
func ConfigError(message string, field string) *AppError {
	return New(ErrCodeConfigInvalid, message).
		WithContext("field", field).
		WithSuggestions(
			fmt.Sprintf("Check the '%s' configuration value", field),
			"Run 'dwhctl setup' to regenerate the configuration file",
		)
}

// MissingConfigError reports a required key that is absent or empty
func MissingConfigError(section, key string) *AppError {
	field := section + "." + key
	return New(ErrCodeConfigMissing, fmt.Sprintf("missing required configuration value %s", field)).
		WithContext("section", section).
		WithContext("key", key).
		WithSuggestions(fmt.Sprintf("Set %s in the [%s] section", key, section))
}

// SQLError creates a statement execution error. The message is inspected to
// refine the code.
func SQLError(message string, query string, cause error) *AppError {
	err := Wrap(cause, ErrCodeSQLExecution, message).
		WithContext("query", truncateString(query, 200))
	if err == nil {
		err = New(ErrCodeSQLExecution, message).WithContext("query", truncateString(query, 200))
	}

	detail := strings.ToLower(message)
	if cause != nil {
		detail += " " + strings.ToLower(cause.Error())
	}

	switch {
	case strings.Contains(detail, "permission") || strings.Contains(detail, "access denied") || strings.Contains(detail, "not authorized"):
		err.Code = ErrCodeSQLPermission
		_ = err.WithSuggestions(
			"Check that the IAM role attached to the cluster can read the S3 sources",
			"Verify the database user privileges",
		)
	case strings.Contains(detail, "does not exist"):
		err.Code = ErrCodeSQLObjectNotFound
		_ = err.WithSuggestions("Run 'dwhctl create-tables' before loading data")
	case strings.Contains(detail, "syntax error"):
		err.Code = ErrCodeSQLSyntax
	case strings.Contains(detail, "timeout") || strings.Contains(detail, "deadline exceeded"):
		err.Code = ErrCodeSQLTimeout
		_ = err.WithSuggestions("Increase --statement-timeout or leave it at 0 to wait for the warehouse")
	}

	return err
}

// CloudError wraps a failed cloud control-plane call
func CloudError(code ErrorCode, operation string, cause error) *AppError {
	return Wrap(cause, code, fmt.Sprintf("%s failed", operation)).
		WithContext("operation", operation)
}

// ValidationError creates a validation error
func ValidationError(field string, value interface{}, reason string) *AppError {
	return New(ErrCodeValidationFailed, fmt.Sprintf("Validation failed for %s: %s", field, reason)).
		WithContext("field", field).
		WithContext("value", value).
		WithSeverity(SeverityWarning).
		AsRecoverable()
}

// IsRecoverable checks if an error is recoverable
func IsRecoverable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Recoverable
	}
	return false
}

// GetErrorCode extracts the error code from an error
func GetErrorCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// IsCode reports whether any AppError in the chain carries code.
func IsCode(err error, code ErrorCode) bool {
	for err != nil {
		var appErr *AppError
		if !errors.As(err, &appErr) {
			return false
		}
		if appErr.Code == code {
			return true
		}
		err = appErr.Cause
	}
	return false
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
