// Copyright 2026 The GoGPU Authors
// SPDX-License-Identifier: MIT

package nagafront

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/glslpost"
	"github.com/gogpu/glslpost/spv"
	"github.com/gogpu/glslpost/target"
)

const vertexSource = `
@vertex
fn main(@location(0) pos: vec3<f32>) -> @builtin(position) vec4<f32> {
    return vec4<f32>(pos.x, pos.y, pos.z, 1.0);
}
`

const fragmentSource = `
@fragment
fn main(@location(0) color: vec4<f32>) -> @location(0) vec4<f32> {
    return color;
}
`

func TestCompileVertex(t *testing.T) {
	c := New()
	mod, err := c.Parse(vertexSource, glslpost.ParseOptions{Stage: target.StageVertex})
	require.NoError(t, err)
	require.NoError(t, mod.Link())

	blob, err := mod.Lower(false)
	require.NoError(t, err)
	require.NoError(t, blob.Validate())
	major, minor := blob.Version()
	assert.Equal(t, uint8(1), major)
	assert.Equal(t, uint8(0), minor)

	res, err := spv.Reflect(blob)
	require.NoError(t, err)
	assert.Equal(t, spv.ExecutionModelVertex, res.ExecutionModel)
}

func TestCompileFragment(t *testing.T) {
	mod, err := New().Parse(fragmentSource, glslpost.ParseOptions{Stage: target.StageFragment})
	require.NoError(t, err)
	blob, err := mod.Lower(true)
	require.NoError(t, err)

	res, err := spv.Reflect(blob)
	require.NoError(t, err)
	assert.Equal(t, spv.ExecutionModelFragment, res.ExecutionModel)
}

func TestStageMismatch(t *testing.T) {
	_, err := New().Parse(vertexSource, glslpost.ParseOptions{Stage: target.StageFragment})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "@fragment")
}

func TestParseError(t *testing.T) {
	_, err := New().Parse("@vertex fn main( {", glslpost.ParseOptions{Stage: target.StageVertex})
	assert.Error(t, err)
}

func TestPreprocessIsIdentity(t *testing.T) {
	out, err := New().Preprocess(vertexSource, glslpost.ParseOptions{})
	require.NoError(t, err)
	assert.Equal(t, vertexSource, out)
}

func TestPostProcessorWithNaga(t *testing.T) {
	pp, err := glslpost.New(glslpost.Config{Optimization: glslpost.OptimizationNone}, glslpost.Toolchain{Compiler: New()})
	require.NoError(t, err)

	var blob spv.Blob
	req := glslpost.Request{Stage: target.StageFragment, TargetAPI: target.APIVulkan}
	require.NoError(t, pp.Process(fragmentSource, req, glslpost.Outputs{SPIRV: &blob}))
	assert.NoError(t, blob.Validate())
}
