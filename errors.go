// Copyright 2026 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glslpost

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrorKind categorizes post-processing failures.
type ErrorKind uint8

const (
	// KindParse indicates the front-end rejected the source.
	KindParse ErrorKind = iota

	// KindLink indicates the single-stage program failed to link.
	KindLink

	// KindLower indicates SPIR-V generation failed.
	KindLower

	// KindPreprocess indicates preprocessing failed.
	KindPreprocess

	// KindOptimize indicates a SPIR-V optimizer pass failed.
	KindOptimize

	// KindRemap indicates dead object elimination failed.
	KindRemap

	// KindCrossCompile indicates GLSL or MSL generation from SPIR-V failed.
	KindCrossCompile

	// KindUsage indicates an invalid combination of configuration and outputs.
	KindUsage
)

// String returns a human-readable kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindParse:
		return "parse"
	case KindLink:
		return "link"
	case KindLower:
		return "lower"
	case KindPreprocess:
		return "preprocess"
	case KindOptimize:
		return "optimize"
	case KindRemap:
		return "remap"
	case KindCrossCompile:
		return "cross-compile"
	case KindUsage:
		return "usage"
	default:
		return "unknown"
	}
}

// Error is returned by PostProcessor.Process.
type Error struct {
	Kind ErrorKind

	// Log holds the diagnostics reported by the failing tool, if any.
	Log string

	// Err is the underlying cause.
	Err error
}

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrParse        = &Error{Kind: KindParse}
	ErrLink         = &Error{Kind: KindLink}
	ErrLower        = &Error{Kind: KindLower}
	ErrPreprocess   = &Error{Kind: KindPreprocess}
	ErrOptimize     = &Error{Kind: KindOptimize}
	ErrRemap        = &Error{Kind: KindRemap}
	ErrCrossCompile = &Error{Kind: KindCrossCompile}
	ErrUsage        = &Error{Kind: KindUsage}
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("glslpost %s: %v", e.Kind, e.Err)
	}
	if first, _, _ := strings.Cut(e.Log, "\n"); first != "" {
		return fmt.Sprintf("glslpost %s: %s", e.Kind, first)
	}
	return fmt.Sprintf("glslpost %s failed", e.Kind)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// newError wraps err as kind, lifting any diagnostics attached with
// errors.WithDetail into Log.
func newError(kind ErrorKind, err error) *Error {
	return &Error{
		Kind: kind,
		Log:  strings.Join(errors.GetAllDetails(err), "\n"),
		Err:  err,
	}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
