// Copyright 2026 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package xcompile derives cross-compiler options from the shader model and
// the resources reflected from a SPIR-V module.
package xcompile

import (
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/gogpu/glslpost/spv"
	"github.com/gogpu/glslpost/target"
	"github.com/gogpu/glslpost/textutil"
)

// Precision is a GLSL default precision qualifier.
type Precision uint8

const (
	PrecisionDontCare Precision = iota
	PrecisionLow
	PrecisionMedium
	PrecisionHigh
)

// String returns the GLSL qualifier.
func (p Precision) String() string {
	switch p {
	case PrecisionLow:
		return "lowp"
	case PrecisionMedium:
		return "mediump"
	case PrecisionHigh:
		return "highp"
	default:
		return ""
	}
}

// FramebufferFetch maps a subpass input attachment to the color output it
// reads back through framebuffer fetch.
type FramebufferFetch struct {
	InputAttachment uint32
	ColorLocation   uint32
}

// GLSLOptions controls decompiling SPIR-V back to GLSL.
type GLSLOptions struct {
	ES                    bool
	Version               int
	Enable420Pack         bool
	DefaultFloatPrecision Precision
	DefaultIntPrecision   Precision

	// FramebufferFetch is ordered by input attachment index.
	FramebufferFetch []FramebufferFetch
}

// GLSLOptionsFor returns the decompile options for a shader model. The
// subpass remap only applies to fragment shaders on ES.
func GLSLOptionsFor(model target.ShaderModel, stage target.Stage, subpassToColor map[uint32]uint32) GLSLOptions {
	opts := GLSLOptions{
		ES:      model.IsES(),
		Version: model.GLSLVersion(),
	}
	opts.Enable420Pack = opts.Version >= 420
	if opts.ES {
		opts.DefaultFloatPrecision = PrecisionMedium
		opts.DefaultIntPrecision = PrecisionMedium
	} else {
		opts.DefaultFloatPrecision = PrecisionHigh
		opts.DefaultIntPrecision = PrecisionHigh
	}
	if opts.ES && stage == target.StageFragment {
		for in, loc := range subpassToColor {
			opts.FramebufferFetch = append(opts.FramebufferFetch, FramebufferFetch{
				InputAttachment: in,
				ColorLocation:   loc,
			})
		}
		sort.Slice(opts.FramebufferFetch, func(i, j int) bool {
			return opts.FramebufferFetch[i].InputAttachment < opts.FramebufferFetch[j].InputAttachment
		})
	}
	return opts
}

// Platform is the Metal platform dialect.
type Platform uint8

const (
	PlatformMacOS Platform = iota
	PlatformIOS
)

func (p Platform) String() string {
	if p == PlatformIOS {
		return "ios"
	}
	return "macos"
}

// MSLVersion encodes a Metal Shading Language version as major*10000 +
// minor*100 + patch.
type MSLVersion uint32

// MakeMSLVersion builds an MSLVersion.
func MakeMSLVersion(major, minor, patch uint32) MSLVersion {
	return MSLVersion(major*10000 + minor*100 + patch)
}

// DefaultMSLVersion is Metal 1.1.
var DefaultMSLVersion = MakeMSLVersion(1, 1, 0)

// ResourceBinding assigns Metal argument slots to one (set, binding) pair.
type ResourceBinding struct {
	Stage         spv.ExecutionModel
	DescriptorSet uint32
	Binding       uint32
	Texture       uint32
	Sampler       uint32
	Buffer        uint32
}

// MSLOptions controls cross-compiling SPIR-V to MSL.
type MSLOptions struct {
	Platform                  Platform
	Version                   MSLVersion
	FramebufferFetchSubpasses bool
	Bindings                  []ResourceBinding
}

// MSLOptionsFor returns the MSL options for a shader model and the resources
// of the module being compiled. Every sampled image and uniform buffer gets
// the same number in the texture, sampler and buffer namespaces.
func MSLOptionsFor(model target.ShaderModel, res *spv.Resources) MSLOptions {
	opts := MSLOptions{
		Platform: PlatformMacOS,
		Version:  DefaultMSLVersion,
	}
	if model == target.ShaderModelGLES30 {
		opts.Platform = PlatformIOS
		opts.FramebufferFetchSubpasses = true
	}
	if res == nil {
		return opts
	}
	bind := func(r spv.Resource) {
		opts.Bindings = append(opts.Bindings, ResourceBinding{
			Stage:         res.ExecutionModel,
			DescriptorSet: r.DescriptorSet,
			Binding:       r.Binding,
			Texture:       r.Binding,
			Sampler:       r.Binding,
			Buffer:        r.Binding,
		})
	}
	for _, r := range res.SampledImages {
		bind(r)
	}
	for _, r := range res.UniformBuffers {
		bind(r)
	}
	return opts
}

// MSLCompiler is the part of a cross-compiler that emits MSL.
type MSLCompiler interface {
	CompileMSL(blob spv.Blob, opts MSLOptions) (string, error)
}

// ToMSL reflects blob, compiles it to MSL for model and compacts the result.
func ToMSL(c MSLCompiler, blob spv.Blob, model target.ShaderModel) (string, error) {
	res, err := spv.Reflect(blob)
	if err != nil {
		return "", errors.Wrap(err, "reflect resources")
	}
	msl, err := c.CompileMSL(blob, MSLOptionsFor(model, res))
	if err != nil {
		return "", err
	}
	return textutil.Shrink(msl), nil
}
