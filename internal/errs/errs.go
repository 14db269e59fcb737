// Package errs defines the error kind hierarchy used across obsclip's stages.
//
// Each kind carries a message, an error code, and an optional context map, and
// wraps an underlying cause so callers can still use errors.As/errors.Is on it.
package errs

import (
	"errors"
	"fmt"
)

// Kind names the error hierarchy used across the pipeline.
type Kind string

// Error kinds.
const (
	KindConfiguration Kind = "configuration"
	KindValidation    Kind = "validation"
	KindFileSystem    Kind = "filesystem"
	KindYAML          Kind = "yaml"
	KindBibTeX        Kind = "bibtex"
	KindAPI           Kind = "api"
	KindProcessing    Kind = "processing"
)

// APISubKind distinguishes the transport-level cause of an APIError.
type APISubKind string

// API error sub-kinds.
const (
	APIRateLimit    APISubKind = "rate_limit"
	APIConnection   APISubKind = "connection"
	APITimeout      APISubKind = "timeout"
	APIHTTPStatus   APISubKind = "http_status"
	APIInvalidJSON  APISubKind = "invalid_json"
)

// Error is the common shape for every obsclip error kind.
type Error struct {
	Cause     error
	Context   map[string]any
	Message   string
	ErrorCode string
	Kind      Kind
	APIKind   APISubKind
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause to errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext returns a copy of e with an additional context key set.
func (e *Error) WithContext(key string, value any) *Error {
	cp := *e
	cp.Context = make(map[string]any, len(e.Context)+1)

	for k, v := range e.Context {
		cp.Context[k] = v
	}

	cp.Context[key] = value

	return &cp
}

func newError(kind Kind, code, msg string, cause error) *Error {
	return &Error{Kind: kind, ErrorCode: code, Message: msg, Cause: cause}
}

// Configuration wraps a malformed or missing configuration error.
func Configuration(msg string, cause error) *Error {
	return newError(KindConfiguration, "CONFIG_ERROR", msg, cause)
}

// Validation wraps a structural validation failure (front-matter, parser config).
func Validation(msg string, cause error) *Error {
	return newError(KindValidation, "VALIDATION_ERROR", msg, cause)
}

// FileSystemErr wraps an IO failure on corpus files, backups, or sidecars.
func FileSystemErr(msg string, cause error) *Error {
	return newError(KindFileSystem, "FS_ERROR", msg, cause)
}

// YAML wraps a front-matter header parse/serialize failure.
func YAML(msg string, cause error) *Error {
	return newError(KindYAML, "YAML_ERROR", msg, cause)
}

// BibTeX wraps a bibliography syntax failure.
func BibTeX(msg string, cause error) *Error {
	return newError(KindBibTeX, "BIBTEX_ERROR", msg, cause)
}

// API wraps a provider HTTP/transport/decoding failure.
func API(sub APISubKind, msg string, cause error) *Error {
	e := newError(KindAPI, "API_ERROR", msg, cause)
	e.APIKind = sub

	return e
}

// Processing wraps any other failure raised inside a stage.
func Processing(msg string, cause error) *Error {
	return newError(KindProcessing, "PROCESSING_ERROR", msg, cause)
}

// IsAPIRateLimit reports whether err is an API error caused by a rate limit response.
func IsAPIRateLimit(err error) bool {
	var e *Error

	return errors.As(err, &e) && e.Kind == KindAPI && e.APIKind == APIRateLimit
}

// IsKind reports whether err (or something it wraps) is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error

	return errors.As(err, &e) && e.Kind == kind
}
