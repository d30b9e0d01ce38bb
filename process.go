// Copyright 2026 The GoGPU Authors
// SPDX-License-Identifier: MIT

package glslpost

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/gogpu/glslpost/minify"
	"github.com/gogpu/glslpost/profile"
	"github.com/gogpu/glslpost/spv"
	"github.com/gogpu/glslpost/target"
	"github.com/gogpu/glslpost/textutil"
	"github.com/gogpu/glslpost/xcompile"
)

// Process runs source through the pipeline and fills the requested outputs.
//
// Parse, link and usage errors leave every output untouched. Failures after
// SPIR-V was produced may leave earlier outputs written: SPIR-V is written
// before MSL, and MSL before GLSL.
func (p *PostProcessor) Process(source string, req Request, out Outputs) error {
	log := p.log.With(
		zap.Stringer("stage", req.Stage),
		zap.Stringer("model", req.ShaderModel),
		zap.Stringer("optimization", p.cfg.Optimization),
	)

	if p.cfg.Optimization == OptimizationNone && out.SPIRV == nil {
		if out.MSL != nil || req.TargetAPI == target.APIVulkan {
			return p.fail(log, &Error{
				Kind: KindUsage,
				Err:  errors.Newf("optimization level none needs a SPIR-V output when targeting %s or MSL", req.TargetAPI),
			})
		}
		if out.GLSL != nil {
			*out.GLSL = source
			p.echo(log, source)
		}
		return nil
	}

	opts := parseOptions(req, out)
	mod, err := p.compile(source, opts)
	if err != nil {
		return p.fail(log, err)
	}

	var glsl string
	switch p.cfg.Optimization {
	case OptimizationNone:
		glsl = source
		err = p.lowerUnoptimized(mod, req, out)
	case OptimizationPreprocessor:
		glsl, err = p.preprocess(log, source, opts, req, out)
	case OptimizationSize, OptimizationPerformance:
		glsl, err = p.optimize(mod, req, out)
	default:
		err = &Error{Kind: KindUsage, Err: errors.Newf("unknown optimization level %d", p.cfg.Optimization)}
	}
	if err != nil {
		return p.fail(log, err)
	}

	if out.GLSL != nil {
		glsl = minify.StructFields(textutil.Shrink(glsl), p.minify)
		*out.GLSL = glsl
		p.echo(log, glsl)
	}
	return nil
}

// parseOptions picks the language version from the shader model. Vulkan
// rules apply whenever SPIR-V is a deliverable.
func parseOptions(req Request, out Outputs) ParseOptions {
	opts := ParseOptions{
		Stage:   req.Stage,
		Version: req.ShaderModel.GLSLVersion(),
		Rules:   RulesOpenGL,
	}
	if req.TargetAPI == target.APIVulkan || out.SPIRV != nil {
		opts.Rules = RulesVulkan
	}
	return opts
}

func (p *PostProcessor) compile(source string, opts ParseOptions) (Module, error) {
	mod, err := p.tc.Compiler.Parse(source, opts)
	if err != nil {
		return nil, newError(KindParse, err)
	}
	if err := mod.Link(); err != nil {
		return nil, newError(KindLink, err)
	}
	return mod, nil
}

func (p *PostProcessor) lower(mod Module) (spv.Blob, error) {
	blob, err := mod.Lower(p.cfg.GenerateDebugInfo)
	if err != nil {
		return nil, newError(KindLower, err)
	}
	return blob, nil
}

func (p *PostProcessor) lowerUnoptimized(mod Module, req Request, out Outputs) error {
	blob, err := p.lower(mod)
	if err != nil {
		return err
	}
	*out.SPIRV = blob
	return p.emitMSL(blob, req, out)
}

func (p *PostProcessor) preprocess(log *zap.Logger, source string, opts ParseOptions, req Request, out Outputs) (string, error) {
	text, err := p.tc.Compiler.Preprocess(source, opts)
	if err != nil {
		// Not fatal: a broken expansion fails the re-parse below if it matters.
		e := newError(KindPreprocess, err)
		log.Error("preprocessing failed", zap.Error(e.Err), zap.String("log", e.Log))
	}

	if out.SPIRV != nil || out.MSL != nil {
		mod, err := p.compile(text, opts)
		if err != nil {
			return "", err
		}
		blob, err := p.lower(mod)
		if err != nil {
			return "", err
		}
		if out.SPIRV != nil {
			*out.SPIRV = blob
		}
		if err := p.emitMSL(blob, req, out); err != nil {
			return "", err
		}
	}
	return text, nil
}

func (p *PostProcessor) optimize(mod Module, req Request, out Outputs) (string, error) {
	if p.tc.Optimizer == nil {
		return "", &Error{Kind: KindUsage, Err: errors.New("toolchain has no SPIR-V optimizer")}
	}
	blob, err := p.lower(mod)
	if err != nil {
		return "", err
	}

	passes := profile.Performance(req.ShaderModel)
	if p.cfg.Optimization == OptimizationSize {
		passes = profile.Size(req.ShaderModel)
	}
	blob, err = p.tc.Optimizer.Optimize(blob, passes)
	if err != nil {
		return "", newError(KindOptimize, errors.Wrap(err, "SPIR-V optimizer pass failed"))
	}
	blob, err = p.tc.Optimizer.StripDeadObjects(blob)
	if err != nil {
		return "", newError(KindRemap, err)
	}

	if out.SPIRV != nil {
		*out.SPIRV = blob
	}
	if err := p.emitMSL(blob, req, out); err != nil {
		return "", err
	}
	if out.GLSL == nil {
		return "", nil
	}
	cc, err := p.crossCompiler()
	if err != nil {
		return "", err
	}
	glsl, err := cc.CompileGLSL(blob, xcompile.GLSLOptionsFor(req.ShaderModel, req.Stage, req.SubpassInputToColorLocation))
	if err != nil {
		return "", newError(KindCrossCompile, errors.Wrap(err, "decompile to GLSL"))
	}
	return glsl, nil
}

func (p *PostProcessor) emitMSL(blob spv.Blob, req Request, out Outputs) error {
	if out.MSL == nil {
		return nil
	}
	cc, err := p.crossCompiler()
	if err != nil {
		return err
	}
	msl, err := xcompile.ToMSL(cc, blob, req.ShaderModel)
	if err != nil {
		return newError(KindCrossCompile, errors.Wrap(err, "cross-compile to MSL"))
	}
	*out.MSL = msl
	return nil
}

func (p *PostProcessor) crossCompiler() (CrossCompiler, error) {
	if p.tc.CrossCompiler == nil {
		return nil, &Error{Kind: KindUsage, Err: errors.New("toolchain has no cross-compiler")}
	}
	return p.tc.CrossCompiler, nil
}

func (p *PostProcessor) fail(log *zap.Logger, err error) error {
	var e *Error
	if !errors.As(err, &e) {
		e = newError(KindUsage, err)
	}
	fields := []zap.Field{zap.Stringer("kind", e.Kind), zap.Error(e.Err)}
	if e.Log != "" {
		fields = append(fields, zap.String("log", e.Log))
	}
	log.Error("shader post-processing failed", fields...)
	return e
}

func (p *PostProcessor) echo(log *zap.Logger, glsl string) {
	if p.cfg.PrintShaders {
		log.Info("processed shader", zap.String("glsl", glsl))
	}
}
