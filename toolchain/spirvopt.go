// Copyright 2026 The GoGPU Authors
// SPDX-License-Identifier: MIT

package toolchain

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/gogpu/glslpost/profile"
	"github.com/gogpu/glslpost/spv"
)

// SpirvOpt is the SPIR-V optimizer backed by spirv-opt, with dead object
// elimination done by spirv-remap.
type SpirvOpt struct {
	Opt   Tool
	Remap Tool

	// Verbose keeps optimizer warnings and info messages; otherwise only
	// errors are logged.
	Verbose bool

	Log *zap.Logger
}

// NewSpirvOpt returns an optimizer that runs spirv-opt and spirv-remap from PATH.
func NewSpirvOpt() *SpirvOpt {
	return &SpirvOpt{
		Opt:   Tool{Name: "spirv-opt", Command: []string{"spirv-opt"}},
		Remap: Tool{Name: "spirv-remap", Command: []string{"spirv-remap"}},
		Log:   zap.NewNop(),
	}
}

// optArgs returns the spirv-opt arguments for passes. Passes are applied in
// command line order.
func optArgs(passes []profile.Pass, in, out string) []string {
	args := []string{"--target-env=spv1.0"}
	args = append(args, profile.Flags(passes)...)
	return append(args, in, "-o", out)
}

// remapArgs returns the spirv-remap arguments that strip dead functions,
// types and variables from in into outDir.
func remapArgs(in, outDir string) []string {
	return []string{"--dce", "all", "-i", in, "-o", outDir}
}

// Optimize runs passes over blob.
func (o *SpirvOpt) Optimize(blob spv.Blob, passes []profile.Pass) (spv.Blob, error) {
	wd, err := newWorkDir()
	if err != nil {
		return nil, err
	}
	defer wd.Remove()

	in, err := wd.WriteFile("in.spv", blob.Bytes())
	if err != nil {
		return nil, err
	}
	out := wd.Path("out.spv")
	stdout, stderr, runErr := o.Opt.run(nil, optArgs(passes, in, out)...)
	o.report(string(stdout) + string(stderr))
	if runErr != nil {
		return nil, runErr
	}
	return readBlob(out)
}

// StripDeadObjects runs spirv-remap --dce all.
func (o *SpirvOpt) StripDeadObjects(blob spv.Blob) (spv.Blob, error) {
	wd, err := newWorkDir()
	if err != nil {
		return nil, err
	}
	defer wd.Remove()

	in, err := wd.WriteFile("module.spv", blob.Bytes())
	if err != nil {
		return nil, err
	}
	outDir := wd.Path("remapped")
	if err := os.Mkdir(outDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create %q", outDir)
	}
	_, stderr, err := o.Remap.run(nil, remapArgs(in, outDir)...)
	if err != nil {
		return nil, err
	}
	for _, line := range splitLines(string(stderr)) {
		o.logger().Error(line)
	}
	return readBlob(filepath.Join(outDir, filepath.Base(in)))
}

func (o *SpirvOpt) report(output string) {
	log := o.logger()
	for _, m := range ParseOptimizerOutput(output) {
		if m.Keep(o.Verbose) {
			log.Error(m.String())
		}
	}
}

func (o *SpirvOpt) logger() *zap.Logger {
	if o.Log == nil {
		return zap.NewNop()
	}
	return o.Log
}

func readBlob(path string) (spv.Blob, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read output %q", path)
	}
	return spv.FromBytes(data)
}
