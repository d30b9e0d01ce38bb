// Copyright 2026 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package glslpost post-processes generated shaders.
//
// A PostProcessor takes shading-language source and, depending on the
// configured optimization level and the outputs requested, produces any of:
//   - optimized GLSL, decompiled from optimized SPIR-V and minified
//   - a SPIR-V blob, optionally run through the optimizer profiles
//   - MSL cross-compiled from that SPIR-V for the Metal backend
//
// The shader compiler, SPIR-V optimizer and cross-compiler are collaborators
// supplied through a Toolchain. Package toolchain adapts the Khronos command
// line tools and package nagafront adapts the naga WGSL front-end.
//
// Example usage:
//
//	tc, err := toolchain.Khronos(toolchain.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	pp, err := glslpost.New(glslpost.DefaultConfig(), tc)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	var glsl string
//	var blob spv.Blob
//	err = pp.Process(source, glslpost.Request{
//	    Stage:       target.StageFragment,
//	    ShaderModel: target.ShaderModelGLES30,
//	}, glslpost.Outputs{GLSL: &glsl, SPIRV: &blob})
package glslpost

import (
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/gogpu/glslpost/minify"
	"github.com/gogpu/glslpost/spv"
	"github.com/gogpu/glslpost/target"
)

// Optimization selects how much work the post-processor does.
type Optimization uint8

const (
	// OptimizationNone passes GLSL through untouched. SPIR-V, when requested,
	// is lowered without running the optimizer.
	OptimizationNone Optimization = iota

	// OptimizationPreprocessor only runs the preprocessor over the source.
	OptimizationPreprocessor

	// OptimizationSize runs the size profile.
	OptimizationSize

	// OptimizationPerformance runs the performance profile.
	OptimizationPerformance
)

// String returns the configuration name of the level.
func (o Optimization) String() string {
	switch o {
	case OptimizationNone:
		return "none"
	case OptimizationPreprocessor:
		return "preprocessor"
	case OptimizationSize:
		return "size"
	case OptimizationPerformance:
		return "performance"
	default:
		return "unknown"
	}
}

// ParseOptimization parses an optimization level name.
func ParseOptimization(s string) (Optimization, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "0":
		return OptimizationNone, nil
	case "preprocessor", "preprocess":
		return OptimizationPreprocessor, nil
	case "size", "favor-size":
		return OptimizationSize, nil
	case "performance", "speed", "favor-speed":
		return OptimizationPerformance, nil
	}
	return OptimizationNone, errors.Newf("unknown optimization level %q", s)
}

// Config is captured by value when a PostProcessor is created and never
// changes afterwards.
type Config struct {
	Optimization Optimization

	// GenerateDebugInfo keeps debug instructions in emitted SPIR-V.
	GenerateDebugInfo bool

	// PrintShaders echoes the final GLSL to the info log.
	PrintShaders bool

	// KeepStructs lists uniform block types that are never minified.
	// Nil means minify.DefaultKeep.
	KeepStructs []string
}

// DefaultConfig returns the configuration used for release builds.
func DefaultConfig() Config {
	return Config{
		Optimization: OptimizationPerformance,
	}
}

// Request describes one shader to process.
type Request struct {
	Stage       target.Stage
	ShaderModel target.ShaderModel
	TargetAPI   target.API

	// SubpassInputToColorLocation remaps subpass inputs to framebuffer
	// fetch of the given color output. Only used for ES fragment shaders.
	SubpassInputToColorLocation map[uint32]uint32
}

// Outputs selects the artifacts to produce. A nil field is not produced and
// is never written.
type Outputs struct {
	GLSL  *string
	SPIRV *spv.Blob
	MSL   *string
}

// Option configures a PostProcessor.
type Option func(*PostProcessor)

// WithLogger sets the logger diagnostics are reported to.
func WithLogger(l *zap.Logger) Option {
	return func(p *PostProcessor) {
		if l != nil {
			p.log = l
		}
	}
}

// PostProcessor runs the post-processing pipeline. It holds no mutable state
// and may be used from several goroutines if its Toolchain allows it.
type PostProcessor struct {
	cfg    Config
	tc     Toolchain
	log    *zap.Logger
	minify minify.Options
}

// New creates a PostProcessor. The toolchain must provide at least a Compiler.
func New(cfg Config, tc Toolchain, opts ...Option) (*PostProcessor, error) {
	if tc.Compiler == nil {
		return nil, errors.New("glslpost: toolchain has no compiler")
	}
	if cfg.KeepStructs != nil {
		cfg.KeepStructs = append([]string(nil), cfg.KeepStructs...)
	}
	p := &PostProcessor{
		cfg:    cfg,
		tc:     tc,
		log:    zap.NewNop(),
		minify: minify.Options{Keep: cfg.KeepStructs},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Config returns a copy of the configuration.
func (p *PostProcessor) Config() Config {
	cfg := p.cfg
	if cfg.KeepStructs != nil {
		cfg.KeepStructs = append([]string(nil), cfg.KeepStructs...)
	}
	return cfg
}
