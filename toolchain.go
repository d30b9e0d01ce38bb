// Copyright 2026 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glslpost

import (
	"github.com/gogpu/glslpost/profile"
	"github.com/gogpu/glslpost/spv"
	"github.com/gogpu/glslpost/target"
	"github.com/gogpu/glslpost/xcompile"
)

// Rules selects the front-end validation semantics.
type Rules uint8

const (
	// RulesOpenGL validates with OpenGL semantics.
	RulesOpenGL Rules = iota

	// RulesVulkan validates with Vulkan semantics.
	RulesVulkan
)

func (r Rules) String() string {
	if r == RulesVulkan {
		return "vulkan"
	}
	return "opengl"
}

// ParseOptions are passed to the front-end for every parse.
type ParseOptions struct {
	Stage   target.Stage
	Version int
	Rules   Rules
}

// Compiler is a shading-language front-end. Each call must build its own
// session so concurrent calls do not share state.
type Compiler interface {
	// Parse validates source and returns the unlinked module.
	Parse(source string, opts ParseOptions) (Module, error)

	// Preprocess expands macros and conditionals without validating.
	// #include is rejected. On failure the text produced so far is returned
	// along with the error.
	Preprocess(source string, opts ParseOptions) (string, error)
}

// Module is a parsed translation unit.
type Module interface {
	// Link finalizes the single-stage program.
	Link() error

	// Lower emits SPIR-V, keeping debug instructions if requested.
	Lower(debugInfo bool) (spv.Blob, error)
}

// Optimizer transforms SPIR-V.
type Optimizer interface {
	// Optimize runs passes over blob in the given order.
	Optimize(blob spv.Blob, passes []profile.Pass) (spv.Blob, error)

	// StripDeadObjects removes unreferenced functions, types and variables.
	StripDeadObjects(blob spv.Blob) (spv.Blob, error)
}

// CrossCompiler turns SPIR-V into shading-language source.
type CrossCompiler interface {
	CompileGLSL(blob spv.Blob, opts xcompile.GLSLOptions) (string, error)
	CompileMSL(blob spv.Blob, opts xcompile.MSLOptions) (string, error)
}

// Toolchain bundles the collaborators of a PostProcessor. Optimizer and
// CrossCompiler may be nil when no configured path needs them.
type Toolchain struct {
	Compiler      Compiler
	Optimizer     Optimizer
	CrossCompiler CrossCompiler
}
