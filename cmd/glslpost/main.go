// Copyright 2026 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Command glslpost post-processes shaders: it optimizes GLSL through SPIR-V,
// emits SPIR-V blobs and cross-compiles to MSL.
//
// Usage:
//
//	glslpost process [flags] <input>
//	glslpost batch <manifest.yaml>
//	glslpost watch <manifest.yaml>
//	glslpost passes <size|performance>
//	glslpost minify [input]
//	glslpost reflect <module.spv>
//	glslpost tools
//
// Examples:
//
//	glslpost process lit.frag                       # Optimized GLSL to stdout
//	glslpost process --spirv lit.spv --msl lit.metal lit.frag
//	glslpost process -O none --spirv sky.spv sky.vert.wgsl
//	glslpost batch shaders.yaml                     # Process a manifest
//	glslpost passes size --model glcore41 --flags   # spirv-opt flags
//
// Settings come from glslpost.yaml (in the working directory or the user
// config directory), GLSLPOST_* environment variables and flags, in
// increasing order of precedence.
package main

import (
	"os"

	"github.com/gogpu/glslpost/internal/logger"
)

func main() {
	err := newRootCmd().Execute()
	logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}
