package parser

import (
	"errors"
	"fmt"
)

// FailureKind classifies why a document could not be extracted.
type FailureKind int

const (
	FailureUnknown FailureKind = iota
	FailureEncrypted
	FailureMalformed
	FailureUnsupportedPlatform
	FailureDecoderUnavailable
)

func (k FailureKind) String() string {
	switch k {
	case FailureEncrypted:
		return "encrypted"
	case FailureMalformed:
		return "malformed"
	case FailureUnsupportedPlatform:
		return "unsupported-platform"
	case FailureDecoderUnavailable:
		return "decoder-unavailable"
	default:
		return "unknown"
	}
}

// ExtractError is a recoverable, per-document extraction failure.
type ExtractError struct {
	Kind FailureKind
	Path string
	Err  error
}

func newExtractError(kind FailureKind, path string, err error) *ExtractError {
	return &ExtractError{Kind: kind, Path: path, Err: err}
}

func (e *ExtractError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("extract %s: %s", e.Path, e.Kind)
	}
	return fmt.Sprintf("extract %s: %s: %v", e.Path, e.Kind, e.Err)
}

func (e *ExtractError) Unwrap() error { return e.Err }

// KindOf returns the failure kind carried by err, or FailureUnknown.
func KindOf(err error) FailureKind {
	var extractErr *ExtractError
	if errors.As(err, &extractErr) {
		return extractErr.Kind
	}
	return FailureUnknown
}

// asExtractError keeps an existing *ExtractError and wraps anything else as unknown.
func asExtractError(path string, err error) *ExtractError {
	var extractErr *ExtractError
	if errors.As(err, &extractErr) {
		return extractErr
	}
	return newExtractError(FailureUnknown, path, err)
}
