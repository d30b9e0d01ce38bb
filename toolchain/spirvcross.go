// Copyright 2026 The GoGPU Authors
// SPDX-License-Identifier: MIT

package toolchain

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/gogpu/glslpost/spv"
	"github.com/gogpu/glslpost/xcompile"
)

// SpirvCross is the cross-compiler backed by spirv-cross.
//
// The command line cannot set default precisions, so CompileGLSL rewrites
// the default precision statements spirv-cross emits for ES shaders.
type SpirvCross struct {
	Tool Tool
}

// NewSpirvCross returns a cross-compiler that runs spirv-cross from PATH.
func NewSpirvCross() *SpirvCross {
	return &SpirvCross{Tool: Tool{Name: "spirv-cross", Command: []string{"spirv-cross"}}}
}

func glslArgs(in string, opts xcompile.GLSLOptions) []string {
	args := []string{in, "--version", strconv.Itoa(opts.Version)}
	if opts.ES {
		args = append(args, "--es")
	} else {
		args = append(args, "--no-es")
	}
	if !opts.Enable420Pack {
		args = append(args, "--no-420pack-extension")
	}
	for _, f := range opts.FramebufferFetch {
		args = append(args, "--glsl-remap-ext-framebuffer-fetch",
			strconv.FormatUint(uint64(f.InputAttachment), 10),
			strconv.FormatUint(uint64(f.ColorLocation), 10))
	}
	return args
}

// mslArgs returns the spirv-cross arguments for opts. Resource bindings are
// expressed with --msl-decoration-binding, which only supports giving every
// resource its own binding number in all three Metal namespaces.
func mslArgs(in string, opts xcompile.MSLOptions) ([]string, error) {
	for _, b := range opts.Bindings {
		if b.Texture != b.Binding || b.Sampler != b.Binding || b.Buffer != b.Binding {
			return nil, errors.Newf("spirv-cross: binding %d.%d maps to texture %d, sampler %d, buffer %d; only identity bindings are supported",
				b.DescriptorSet, b.Binding, b.Texture, b.Sampler, b.Buffer)
		}
	}
	args := []string{in, "--msl", "--msl-version", strconv.FormatUint(uint64(opts.Version), 10)}
	if opts.Platform == xcompile.PlatformIOS {
		args = append(args, "--msl-ios")
	}
	if opts.FramebufferFetchSubpasses {
		args = append(args, "--msl-framebuffer-fetch")
	}
	if len(opts.Bindings) > 0 {
		args = append(args, "--msl-decoration-binding")
	}
	return args, nil
}

// CompileGLSL decompiles blob to GLSL.
func (c *SpirvCross) CompileGLSL(blob spv.Blob, opts xcompile.GLSLOptions) (string, error) {
	glsl, err := c.compile(blob, func(in string) ([]string, error) {
		return glslArgs(in, opts), nil
	})
	if err != nil {
		return "", err
	}
	return setDefaultPrecision(glsl, opts), nil
}

// setDefaultPrecision replaces the qualifier of "precision <q> float;" and
// "precision <q> int;" statements with the defaults in opts. Desktop GLSL
// and PrecisionDontCare leave the text unchanged.
func setDefaultPrecision(glsl string, opts xcompile.GLSLOptions) string {
	if !opts.ES {
		return glsl
	}
	lines := strings.Split(glsl, "\n")
	for i, line := range lines {
		f := strings.Fields(line)
		if len(f) != 3 || f[0] != "precision" {
			continue
		}
		var p xcompile.Precision
		switch f[2] {
		case "float;":
			p = opts.DefaultFloatPrecision
		case "int;":
			p = opts.DefaultIntPrecision
		default:
			continue
		}
		if p != xcompile.PrecisionDontCare {
			lines[i] = "precision " + p.String() + " " + f[2]
		}
	}
	return strings.Join(lines, "\n")
}

// CompileMSL cross-compiles blob to MSL.
func (c *SpirvCross) CompileMSL(blob spv.Blob, opts xcompile.MSLOptions) (string, error) {
	return c.compile(blob, func(in string) ([]string, error) {
		return mslArgs(in, opts)
	})
}

func (c *SpirvCross) compile(blob spv.Blob, args func(in string) ([]string, error)) (string, error) {
	wd, err := newWorkDir()
	if err != nil {
		return "", err
	}
	defer wd.Remove()

	in, err := wd.WriteFile("shader.spv", blob.Bytes())
	if err != nil {
		return "", err
	}
	argv, err := args(in)
	if err != nil {
		return "", err
	}
	stdout, _, err := c.Tool.run(nil, argv...)
	if err != nil {
		return "", err
	}
	// Strip Windows \r in line endings.
	return strings.ReplaceAll(string(stdout), "\r\n", "\n"), nil
}
