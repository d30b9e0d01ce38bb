// Copyright 2026 The GoGPU Authors
// SPDX-License-Identifier: MIT

package toolchain

import (
	"regexp"

	"github.com/Masterminds/semver/v3"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/gogpu/glslpost"
)

// Tool names, as used for MinVersions keys.
const (
	NameGlslang    = "glslangValidator"
	NameSpirvOpt   = "spirv-opt"
	NameSpirvRemap = "spirv-remap"
	NameSpirvCross = "spirv-cross"
)

// Config selects the Khronos tools. Command lines are split with shell
// quoting rules; an empty command line means the tool's name on PATH.
type Config struct {
	Glslang    string
	SpirvOpt   string
	SpirvRemap string
	SpirvCross string

	// MinVersions maps tool names to semver constraints checked by Probe,
	// e.g. {"spirv-opt": ">= 2022.1"}.
	MinVersions map[string]string

	// Verbose logs optimizer warnings as well as errors.
	Verbose bool

	Logger *zap.Logger
}

// DefaultConfig runs every tool from PATH.
func DefaultConfig() Config {
	return Config{}
}

func (c Config) tools() ([]Tool, error) {
	specs := []struct{ name, cmdline string }{
		{NameGlslang, c.Glslang},
		{NameSpirvOpt, c.SpirvOpt},
		{NameSpirvRemap, c.SpirvRemap},
		{NameSpirvCross, c.SpirvCross},
	}
	tools := make([]Tool, len(specs))
	for i, s := range specs {
		t, err := ParseTool(s.name, s.cmdline)
		if err != nil {
			return nil, err
		}
		tools[i] = t
	}
	return tools, nil
}

// Khronos assembles a toolchain from glslangValidator, spirv-opt,
// spirv-remap and spirv-cross.
func Khronos(cfg Config) (glslpost.Toolchain, error) {
	tools, err := cfg.tools()
	if err != nil {
		return glslpost.Toolchain{}, err
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return glslpost.Toolchain{
		Compiler: &Glslang{Tool: tools[0]},
		Optimizer: &SpirvOpt{
			Opt:     tools[1],
			Remap:   tools[2],
			Verbose: cfg.Verbose,
			Log:     log.Named("spirv-opt"),
		},
		CrossCompiler: &SpirvCross{Tool: tools[3]},
	}, nil
}

// Status is the result of probing one tool.
type Status struct {
	Tool       Tool
	Path       string
	Version    *semver.Version
	Constraint string
	Err        error
}

// OK reports whether the tool was found and satisfies its constraint.
func (s Status) OK() bool { return s.Err == nil }

// Probe locates every tool, reads its version and checks it against
// cfg.MinVersions.
func Probe(cfg Config) ([]Status, error) {
	tools, err := cfg.tools()
	if err != nil {
		return nil, err
	}
	statuses := make([]Status, len(tools))
	for i, t := range tools {
		statuses[i] = probe(t, cfg.MinVersions[t.Name])
	}
	return statuses, nil
}

func probe(t Tool, constraint string) Status {
	st := Status{Tool: t, Constraint: constraint}
	path, err := t.Path()
	if err != nil {
		st.Err = errors.Wrapf(err, "%s not found", t.Name)
		return st
	}
	st.Path = path

	stdout, stderr, err := t.run(nil, versionFlag(t.Name))
	version, verr := ExtractVersion(string(stdout) + string(stderr))
	if verr != nil {
		if constraint != "" {
			st.Err = errors.CombineErrors(verr, err)
		}
		return st
	}
	st.Version = version
	st.Err = CheckVersion(t.Name, version, constraint)
	return st
}

func versionFlag(name string) string {
	if name == NameSpirvCross {
		return "--revision"
	}
	return "--version"
}

var versionPattern = regexp.MustCompile(`\d+\.\d+(\.\d+)?`)

// ExtractVersion finds the first dotted version number in tool output.
func ExtractVersion(output string) (*semver.Version, error) {
	m := versionPattern.FindString(output)
	if m == "" {
		return nil, errors.New("no version number in tool output")
	}
	return semver.NewVersion(m)
}

// CheckVersion verifies version against a semver constraint. An empty
// constraint accepts any version.
func CheckVersion(name string, version *semver.Version, constraint string) error {
	if constraint == "" {
		return nil
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return errors.Wrapf(err, "invalid version constraint %s for %s", constraint, name)
	}
	if !c.Check(version) {
		return errors.Newf("%s %s does not satisfy %s", name, version, constraint)
	}
	return nil
}
