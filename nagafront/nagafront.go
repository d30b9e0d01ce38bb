// Copyright 2026 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package nagafront is a WGSL front-end for glslpost built on naga.
//
// WGSL has no preprocessor, so Preprocess returns the source unchanged. The
// generated SPIR-V feeds the same optimizer and cross-compilers as GLSL does.
package nagafront

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/naga/spirv"
	"go.uber.org/zap"

	"github.com/gogpu/glslpost"
	"github.com/gogpu/glslpost/spv"
	"github.com/gogpu/glslpost/target"
)

// Compiler compiles WGSL with naga.
type Compiler struct {
	// SPIRVVersion is the SPIR-V version emitted by Lower.
	SPIRVVersion spirv.Version

	// Strict turns IR validation issues into link errors. Otherwise they are
	// logged as warnings.
	Strict bool

	Log *zap.Logger
}

// New returns a compiler emitting SPIR-V 1.0, the version the optimizer
// profiles target.
func New() *Compiler {
	return &Compiler{
		SPIRVVersion: spirv.Version1_0,
		Log:          zap.NewNop(),
	}
}

// Parse parses and lowers source, and checks that it has an entry point for
// the requested stage. The language version in opts does not apply to WGSL.
func (c *Compiler) Parse(source string, opts glslpost.ParseOptions) (glslpost.Module, error) {
	ast, err := naga.Parse(source)
	if err != nil {
		return nil, errors.Wrap(err, "wgsl")
	}
	mod, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return nil, errors.WithDetail(errors.Wrap(err, "wgsl lowering"), err.Error())
	}
	if !hasStage(mod, opts.Stage) {
		return nil, errors.Newf("wgsl: no @%s entry point", stageAttr(opts.Stage))
	}
	return &module{c: c, ir: mod}, nil
}

// Preprocess returns source unchanged.
func (c *Compiler) Preprocess(source string, _ glslpost.ParseOptions) (string, error) {
	return source, nil
}

func hasStage(mod *ir.Module, stage target.Stage) bool {
	want := ir.StageVertex
	if stage == target.StageFragment {
		want = ir.StageFragment
	}
	for _, ep := range mod.EntryPoints {
		if ep.Stage == want {
			return true
		}
	}
	return false
}

func stageAttr(stage target.Stage) string {
	if stage == target.StageFragment {
		return "fragment"
	}
	return "vertex"
}

type module struct {
	c  *Compiler
	ir *ir.Module
}

// Link validates the IR.
func (m *module) Link() error {
	issues, err := naga.Validate(m.ir)
	if err != nil {
		return errors.Wrap(err, "wgsl validation")
	}
	if len(issues) == 0 {
		return nil
	}
	msgs := make([]string, len(issues))
	for i, issue := range issues {
		msgs[i] = issue.Error()
	}
	if m.c.Strict {
		return errors.WithDetail(errors.Newf("wgsl validation: %d issues", len(issues)), strings.Join(msgs, "\n"))
	}
	log := m.c.Log
	if log == nil {
		log = zap.NewNop()
	}
	for _, msg := range msgs {
		log.Warn("wgsl validation issue", zap.String("issue", msg))
	}
	return nil
}

// Lower generates SPIR-V.
func (m *module) Lower(debugInfo bool) (spv.Blob, error) {
	data, err := naga.GenerateSPIRV(m.ir, spirv.Options{
		Version: m.c.SPIRVVersion,
		Debug:   debugInfo,
	})
	if err != nil {
		return nil, err
	}
	return spv.FromBytes(data)
}
