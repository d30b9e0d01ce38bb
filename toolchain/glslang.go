// Copyright 2026 The GoGPU Authors
// SPDX-License-Identifier: MIT

package toolchain

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/gogpu/glslpost"
	"github.com/gogpu/glslpost/spv"
)

// Glslang is the GLSL front-end backed by glslangValidator.
type Glslang struct {
	Tool Tool
}

// NewGlslang returns a front-end that runs glslangValidator from PATH.
func NewGlslang() *Glslang {
	return &Glslang{Tool: Tool{Name: "glslangValidator", Command: []string{"glslangValidator"}}}
}

// glslangArgs returns the arguments that compile stdin to SPIR-V at out.
func glslangArgs(opts glslpost.ParseOptions, out string, debugInfo bool) []string {
	args := []string{"--stdin", "-S", opts.Stage.String()}
	if opts.Rules == glslpost.RulesVulkan {
		args = append(args, "-V")
	} else {
		args = append(args, "-G")
	}
	if debugInfo {
		args = append(args, "-g")
	}
	return append(args, "-o", out)
}

// preprocessArgs returns the arguments that preprocess stdin to stdout. No
// include directories are passed, so #include directives fail.
func preprocessArgs(opts glslpost.ParseOptions) []string {
	return []string{"--stdin", "-S", opts.Stage.String(), "-E"}
}

// withVersion prepends a #version directive derived from version when the
// source does not declare one.
func withVersion(source string, version int) string {
	sc := bufio.NewScanner(strings.NewReader(source))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		if strings.HasPrefix(line, "#version") {
			return source
		}
		break
	}
	profile := "core"
	if version == 300 || version == 310 || version == 320 {
		profile = "es"
	}
	return fmt.Sprintf("#version %d %s\n%s", version, profile, source)
}

// Parse compiles source to SPIR-V. glslangValidator links single-stage
// programs as part of compilation.
func (g *Glslang) Parse(source string, opts glslpost.ParseOptions) (glslpost.Module, error) {
	source = withVersion(source, opts.Version)
	blob, err := g.compile(source, opts, false)
	if err != nil {
		return nil, err
	}
	return &glslangModule{g: g, source: source, opts: opts, blob: blob}, nil
}

// Preprocess runs only the preprocessor.
func (g *Glslang) Preprocess(source string, opts glslpost.ParseOptions) (string, error) {
	stdout, _, err := g.Tool.run([]byte(withVersion(source, opts.Version)), preprocessArgs(opts)...)
	return string(stdout), err
}

func (g *Glslang) compile(source string, opts glslpost.ParseOptions, debugInfo bool) (spv.Blob, error) {
	wd, err := newWorkDir()
	if err != nil {
		return nil, err
	}
	defer wd.Remove()

	out := wd.Path("shader", opts.Stage.String(), "spv")
	if _, _, err := g.Tool.run([]byte(source), glslangArgs(opts, out, debugInfo)...); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(out)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read output %q", out)
	}
	return spv.FromBytes(data)
}

type glslangModule struct {
	g      *Glslang
	source string
	opts   glslpost.ParseOptions
	blob   spv.Blob
}

func (m *glslangModule) Link() error { return nil }

// Lower returns the SPIR-V produced by Parse, recompiling with -g when debug
// instructions are wanted.
func (m *glslangModule) Lower(debugInfo bool) (spv.Blob, error) {
	if !debugInfo {
		return m.blob, nil
	}
	return m.g.compile(m.source, m.opts, true)
}
