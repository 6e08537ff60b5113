// Package errors provides structured error types for the Readium backend.
// It implements error classification, wrapping, and sensitive-data redaction.
package errors

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Kind represents the category of an error.
type Kind uint8

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown Kind = iota
	// KindConfig indicates a configuration error.
	KindConfig
	// KindValidation indicates a validation error.
	KindValidation
	// KindIO indicates a file I/O error.
	KindIO
	// KindSecret indicates a credential storage error.
	KindSecret
	// KindAI indicates an AI provider error.
	KindAI
	// KindNotFound indicates a referenced entity was not found.
	KindNotFound
	// KindAlreadyConnected indicates a connect attempt for a session id already in use.
	KindAlreadyConnected
	// KindSpawn indicates a helper subprocess could not be started.
	KindSpawn
	// KindHandshake indicates the protocol initialization handshake did not complete.
	KindHandshake
	// KindRemoteCall indicates a remote call against a connected peer failed.
	KindRemoteCall
	// KindUnsupportedTransport indicates a server configuration requests a
	// transport this backend cannot drive natively.
	KindUnsupportedTransport
	// KindTimeout indicates a timeout.
	KindTimeout
	// KindCanceled indicates the operation was canceled.
	KindCanceled
	// KindInternal indicates an internal error.
	KindInternal
)

// String returns a human-readable string for the error kind.
func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "configuration"
	case KindValidation:
		return "validation"
	case KindIO:
		return "io"
	case KindSecret:
		return "secret"
	case KindAI:
		return "ai"
	case KindNotFound:
		return "not_found"
	case KindAlreadyConnected:
		return "already_connected"
	case KindSpawn:
		return "spawn"
	case KindHandshake:
		return "handshake"
	case KindRemoteCall:
		return "remote_call"
	case KindUnsupportedTransport:
		return "unsupported_transport"
	case KindTimeout:
		return "timeout"
	case KindCanceled:
		return "canceled"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error is the standard error type for the backend.
type Error struct {
	// Kind is the category of the error.
	Kind Kind
	// Op is the operation being performed when the error occurred.
	Op string
	// Message is a human-readable error message.
	Message string
	// Err is the underlying error.
	Err error
	// Details contains additional context about the error.
	Details map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Op != "" {
		if e.Err != nil {
			return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
		}
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches this error.
// For *Error targets without an Op, matching is by Kind only, which enables the
// sentinel pattern: errors.Is(err, &Error{Kind: KindNotFound}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Op == "" {
		return e.Kind == t.Kind
	}
	return e.Kind == t.Kind && e.Op == t.Op
}

// WithDetail adds a single detail to the error and returns the modified error.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new Error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
	}
}

// Newf creates a new Error with the given kind and formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with additional context.
func Wrap(err error, kind Kind, op string, message string) *Error {
	return &Error{
		Kind:    kind,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// Wrapf wraps an existing error with a formatted message.
func Wrapf(err error, kind Kind, op string, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// GetKind returns the Kind of an error.
// If the error is not an *Error, it returns KindUnknown.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind checks if an error is of a specific kind.
func IsKind(err error, kind Kind) bool {
	return GetKind(err) == kind
}

// Common error constructors for frequently used error types.

// Config creates a configuration error.
func Config(op, message string) *Error {
	return &Error{Kind: KindConfig, Op: op, Message: message}
}

// ConfigWrap wraps an error as a configuration error.
func ConfigWrap(err error, op, message string) *Error {
	return Wrap(err, KindConfig, op, message)
}

// Validation creates a validation error.
func Validation(op, message string) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: message}
}

// IO creates an I/O error.
func IO(op, message string) *Error {
	return &Error{Kind: KindIO, Op: op, Message: message}
}

// IOWrap wraps an error as an I/O error.
func IOWrap(err error, op, message string) *Error {
	return Wrap(err, KindIO, op, message)
}

// Secret creates a credential storage error.
func Secret(op, message string) *Error {
	return &Error{Kind: KindSecret, Op: op, Message: message}
}

// SecretWrap wraps an error as a credential storage error.
func SecretWrap(err error, op, message string) *Error {
	return Wrap(err, KindSecret, op, message)
}

// AI creates an AI provider error.
func AI(op, message string) *Error {
	return &Error{Kind: KindAI, Op: op, Message: message}
}

// AIWrap wraps an error as an AI provider error.
func AIWrap(err error, op, message string) *Error {
	return Wrap(err, KindAI, op, message)
}

// NotFound creates a not found error.
func NotFound(op, message string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Message: message}
}

// NotFoundf creates a not found error with a formatted message.
func NotFoundf(op, format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Op: op, Message: fmt.Sprintf(format, args...)}
}

// AlreadyConnected creates an already-connected error.
func AlreadyConnected(op, message string) *Error {
	return &Error{Kind: KindAlreadyConnected, Op: op, Message: message}
}

// Spawn creates a subprocess spawn error.
func Spawn(op, message string) *Error {
	return &Error{Kind: KindSpawn, Op: op, Message: message}
}

// SpawnWrap wraps an error as a subprocess spawn error.
func SpawnWrap(err error, op, message string) *Error {
	return Wrap(err, KindSpawn, op, message)
}

// Handshake creates a handshake error.
func Handshake(op, message string) *Error {
	return &Error{Kind: KindHandshake, Op: op, Message: message}
}

// HandshakeWrap wraps an error as a handshake error.
func HandshakeWrap(err error, op, message string) *Error {
	return Wrap(err, KindHandshake, op, message)
}

// RemoteCall creates a remote call error.
func RemoteCall(op, message string) *Error {
	return &Error{Kind: KindRemoteCall, Op: op, Message: message}
}

// RemoteCallWrap wraps an error as a remote call error.
func RemoteCallWrap(err error, op, message string) *Error {
	return Wrap(err, KindRemoteCall, op, message)
}

// UnsupportedTransport creates an unsupported transport error.
func UnsupportedTransport(op, message string) *Error {
	return &Error{Kind: KindUnsupportedTransport, Op: op, Message: message}
}

// Internal creates an internal error.
func Internal(op, message string) *Error {
	return &Error{Kind: KindInternal, Op: op, Message: message}
}

// InternalWrap wraps an error as an internal error.
func InternalWrap(err error, op, message string) *Error {
	return Wrap(err, KindInternal, op, message)
}

// Sensitive data redaction patterns.
// These patterns match API keys and tokens that must never appear in error
// messages or logs. Word boundaries ensure complete tokens are matched.
var sensitivePatterns = []*regexp.Regexp{
	// Anthropic API keys: sk-ant-...
	regexp.MustCompile(`\bsk-ant-[a-zA-Z0-9_-]{20,}\b`),
	// OpenAI-style API keys: sk-..., sk-proj-..., sk-or-... (OpenRouter)
	regexp.MustCompile(`\bsk-(?:proj-|or-)?[a-zA-Z0-9_-]{20,}\b`),
	// Google Gemini API keys: AIza...
	regexp.MustCompile(`\bAIza[a-zA-Z0-9_-]{35,}\b`),
	// GitHub tokens handed to MCP servers via env: ghp_..., gho_..., ghs_..., ghr_...
	regexp.MustCompile(`\bgh[posh]_[a-zA-Z0-9]{36,}\b`),
	// Generic bearer tokens
	regexp.MustCompile(`\bBearer\s+[a-zA-Z0-9_-]{20,}\b`),
	// Basic auth with password in URL
	regexp.MustCompile(`://[^:/]+:[^@]+@`),
}

// RedactSensitive removes sensitive information from a string.
func RedactSensitive(s string) string {
	result := s
	for _, pattern := range sensitivePatterns {
		result = pattern.ReplaceAllString(result, "[REDACTED]")
	}
	return result
}

// RedactError creates a new error with sensitive data redacted from its message.
// If the error is nil, returns nil.
func RedactError(err error) error {
	if err == nil {
		return nil
	}
	redacted := RedactSensitive(err.Error())
	if redacted == err.Error() {
		return err
	}
	return fmt.Errorf("%s", redacted)
}

// WrapSafe wraps an error with sensitive data redacted from the underlying message.
// Use this when the wrapped error might contain API keys or tokens.
func WrapSafe(err error, kind Kind, op, message string) *Error {
	if err == nil {
		return &Error{Kind: kind, Op: op, Message: message}
	}
	return Wrap(RedactError(err), kind, op, message)
}

// IsSensitive checks if a string contains sensitive patterns.
func IsSensitive(s string) bool {
	for _, pattern := range sensitivePatterns {
		if pattern.MatchString(s) {
			return true
		}
	}
	lower := strings.ToLower(s)
	return strings.Contains(lower, "api_key") ||
		strings.Contains(lower, "apikey") ||
		strings.Contains(lower, "secret") ||
		strings.Contains(lower, "password") ||
		strings.Contains(lower, "token")
}
