// Copyright 2026 The GoGPU Authors
// SPDX-License-Identifier: MIT

package toolchain

import (
	"os/exec"
	"strings"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/glslpost"
	"github.com/gogpu/glslpost/profile"
	"github.com/gogpu/glslpost/spv"
	"github.com/gogpu/glslpost/target"
	"github.com/gogpu/glslpost/xcompile"
)

func TestParseTool(t *testing.T) {
	tool, err := ParseTool("spirv-cross", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"spirv-cross"}, tool.Command)

	tool, err = ParseTool("spirv-opt", `"/opt/Vulkan SDK/bin/spirv-opt" --preserve-numeric-ids`)
	require.NoError(t, err)
	assert.Equal(t, []string{"/opt/Vulkan SDK/bin/spirv-opt", "--preserve-numeric-ids"}, tool.Command)
	assert.Equal(t, []string{"/opt/Vulkan SDK/bin/spirv-opt", "--preserve-numeric-ids", "-o", "x"}, tool.Args("-o", "x"))
	assert.Equal(t, `'/opt/Vulkan SDK/bin/spirv-opt' --preserve-numeric-ids`, tool.String())

	_, err = ParseTool("glslangValidator", `"unterminated`)
	assert.Error(t, err)
}

func TestGlslangArgs(t *testing.T) {
	vk := glslpost.ParseOptions{Stage: target.StageFragment, Version: 300, Rules: glslpost.RulesVulkan}
	assert.Equal(t, []string{"--stdin", "-S", "frag", "-V", "-o", "out.spv"}, glslangArgs(vk, "out.spv", false))

	gl := glslpost.ParseOptions{Stage: target.StageVertex, Version: 410, Rules: glslpost.RulesOpenGL}
	assert.Equal(t, []string{"--stdin", "-S", "vert", "-G", "-g", "-o", "out.spv"}, glslangArgs(gl, "out.spv", true))

	assert.Equal(t, []string{"--stdin", "-S", "vert", "-E"}, preprocessArgs(gl))
}

func TestWithVersion(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		version int
		want    string
	}{
		{"es", "void main() {}\n", 300, "#version 300 es\nvoid main() {}\n"},
		{"core", "void main() {}\n", 410, "#version 410 core\nvoid main() {}\n"},
		{"declared", "#version 310 es\nvoid main() {}\n", 300, "#version 310 es\nvoid main() {}\n"},
		{"declared after comment", "// generated\n\n#version 410 core\n", 300, "// generated\n\n#version 410 core\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, withVersion(tt.source, tt.version))
		})
	}
}

func TestOptArgs(t *testing.T) {
	passes := []profile.Pass{profile.WrapOpKill, profile.ScalarReplacementUnlimited}
	assert.Equal(t,
		[]string{"--target-env=spv1.0", "--wrap-opkill", "--scalar-replacement=0", "in.spv", "-o", "out.spv"},
		optArgs(passes, "in.spv", "out.spv"))
	assert.Equal(t, []string{"--dce", "all", "-i", "in.spv", "-o", "dir"}, remapArgs("in.spv", "dir"))
}

func TestGLSLArgs(t *testing.T) {
	opts := xcompile.GLSLOptionsFor(target.ShaderModelGLES30, target.StageFragment, map[uint32]uint32{1: 0})
	assert.Equal(t,
		[]string{"s.spv", "--version", "300", "--es", "--no-420pack-extension", "--glsl-remap-ext-framebuffer-fetch", "1", "0"},
		glslArgs("s.spv", opts))

	opts = xcompile.GLSLOptions{Version: 450, Enable420Pack: true}
	assert.Equal(t, []string{"s.spv", "--version", "450", "--no-es"}, glslArgs("s.spv", opts))
}

func TestSetDefaultPrecision(t *testing.T) {
	emitted := "#version 300 es\nprecision mediump float;\nprecision highp int;\n\nlayout(location = 0) out highp vec4 o;\n"

	opts := xcompile.GLSLOptionsFor(target.ShaderModelGLES30, target.StageFragment, nil)
	assert.Equal(t,
		"#version 300 es\nprecision mediump float;\nprecision mediump int;\n\nlayout(location = 0) out highp vec4 o;\n",
		setDefaultPrecision(emitted, opts))

	opts.DefaultFloatPrecision = xcompile.PrecisionHigh
	opts.DefaultIntPrecision = xcompile.PrecisionDontCare
	assert.Equal(t,
		"#version 300 es\nprecision highp float;\nprecision highp int;\n\nlayout(location = 0) out highp vec4 o;\n",
		setDefaultPrecision(emitted, opts))

	desktop := xcompile.GLSLOptionsFor(target.ShaderModelGLCore41, target.StageFragment, nil)
	assert.Equal(t, emitted, setDefaultPrecision(emitted, desktop))
}

func TestMSLArgs(t *testing.T) {
	res := &spv.Resources{
		ExecutionModel: spv.ExecutionModelFragment,
		SampledImages:  []spv.Resource{{Binding: 3}},
	}
	args, err := mslArgs("s.spv", xcompile.MSLOptionsFor(target.ShaderModelGLES30, res))
	require.NoError(t, err)
	assert.Equal(t, []string{"s.spv", "--msl", "--msl-version", "10100", "--msl-ios", "--msl-framebuffer-fetch", "--msl-decoration-binding"}, args)

	args, err = mslArgs("s.spv", xcompile.MSLOptionsFor(target.ShaderModelGLCore41, nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"s.spv", "--msl", "--msl-version", "10100"}, args)

	_, err = mslArgs("s.spv", xcompile.MSLOptions{Bindings: []xcompile.ResourceBinding{{Binding: 1, Texture: 2, Sampler: 1, Buffer: 1}}})
	assert.Error(t, err)
}

func TestParseOptimizerOutput(t *testing.T) {
	out := "error: line 12: ID 5 has not been defined\n  %5 = OpLoad %float %4\nwarning: pass skipped\n"
	msgs := ParseOptimizerOutput(out)
	require.Len(t, msgs, 2)

	assert.Equal(t, LevelError, msgs[0].Level)
	assert.Equal(t, 12, msgs[0].Index)
	assert.Equal(t, "ID 5 has not been defined\n  %5 = OpLoad %float %4", msgs[0].Text)
	assert.True(t, msgs[0].Keep(false))

	assert.Equal(t, LevelWarning, msgs[1].Level)
	assert.False(t, msgs[1].Keep(false))
	assert.True(t, msgs[1].Keep(true))
}

func TestMessageString(t *testing.T) {
	m := Message{Level: LevelError, Source: "input", Line: 3, Column: 7, Index: 42, Text: "bad"}
	assert.Equal(t, "ERROR: input:3:7:42: bad", m.String())

	m = Message{Level: LevelInternalError, Index: 9, Text: "oops"}
	assert.Equal(t, "INTERNAL ERROR: 0:0:9: oops", m.String())
	assert.True(t, m.Keep(false))
	assert.True(t, Message{Level: LevelFatal}.Keep(false))
	assert.False(t, Message{Level: LevelDebug}.Keep(false))
}

func TestExtractVersion(t *testing.T) {
	tests := []struct {
		output string
		want   string
	}{
		{"Glslang Version: 11:14.0.0\nESSL Version: OpenGL ES GLSL 3.20", "14.0.0"},
		{"SPIRV-Tools v2023.2 unknown hash, 2023-06-20", "2023.2.0"},
		{"spirv-remap 1.3", "1.3.0"},
	}
	for _, tt := range tests {
		v, err := ExtractVersion(tt.output)
		require.NoError(t, err, tt.output)
		assert.Equal(t, tt.want, v.String())
	}
	_, err := ExtractVersion("usage: spirv-cross [options]")
	assert.Error(t, err)
}

func TestCheckVersion(t *testing.T) {
	v := semver.MustParse("2023.2.0")
	assert.NoError(t, CheckVersion("spirv-opt", v, ""))
	assert.NoError(t, CheckVersion("spirv-opt", v, ">= 2022.1"))
	assert.Error(t, CheckVersion("spirv-opt", v, ">= 2024.1"))
	assert.Error(t, CheckVersion("spirv-opt", v, "not a constraint"))
}

func TestKhronos(t *testing.T) {
	tc, err := Khronos(Config{SpirvCross: "xcrun spirv-cross", Verbose: true})
	require.NoError(t, err)

	g, ok := tc.Compiler.(*Glslang)
	require.True(t, ok)
	assert.Equal(t, []string{NameGlslang}, g.Tool.Command)

	o, ok := tc.Optimizer.(*SpirvOpt)
	require.True(t, ok)
	assert.Equal(t, []string{NameSpirvRemap}, o.Remap.Command)
	assert.True(t, o.Verbose)

	x, ok := tc.CrossCompiler.(*SpirvCross)
	require.True(t, ok)
	assert.Equal(t, []string{"xcrun", "spirv-cross"}, x.Tool.Command)

	_, err = Khronos(Config{Glslang: `'broken`})
	assert.Error(t, err)
}

func TestProbeMissingTool(t *testing.T) {
	statuses, err := Probe(Config{Glslang: "glslpost-no-such-tool"})
	require.NoError(t, err)
	require.Len(t, statuses, 4)
	assert.False(t, statuses[0].OK())
	assert.Contains(t, statuses[0].Err.Error(), "not found")
}

func TestRunFailureCarriesOutput(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	tool := Tool{Name: "sh", Command: []string{"sh", "-c", "echo 'ERROR: 0:1: syntax error'; exit 2"}}
	_, _, err := tool.run(nil)
	require.Error(t, err)
	assert.Equal(t, []string{"ERROR: 0:1: syntax error"}, errors.GetAllDetails(err))
}

const fragmentShader = `#version 310 es
precision mediump float;
layout(std140, binding = 1) uniform FrameUniforms
{
    vec4 tint;
    float exposure;
} frameUniforms;
layout(binding = 0) uniform sampler2D albedo;
layout(location = 0) in vec2 uv;
layout(location = 0) out vec4 fragColor;
void main() {
    fragColor = texture(albedo, uv) * frameUniforms.tint * frameUniforms.exposure;
}
`

func requireTools(t *testing.T, names ...string) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Khronos tool test in short mode")
	}
	for _, n := range names {
		if _, err := exec.LookPath(n); err != nil {
			t.Skipf("%s not installed", n)
		}
	}
}

func TestGlslangCompile(t *testing.T) {
	requireTools(t, NameGlslang)

	g := NewGlslang()
	mod, err := g.Parse(fragmentShader, glslpost.ParseOptions{Stage: target.StageFragment, Version: 300, Rules: glslpost.RulesOpenGL})
	require.NoError(t, err)
	require.NoError(t, mod.Link())
	blob, err := mod.Lower(false)
	require.NoError(t, err)
	require.NoError(t, blob.Validate())

	res, err := spv.Reflect(blob)
	require.NoError(t, err)
	assert.Equal(t, spv.ExecutionModelFragment, res.ExecutionModel)

	_, err = g.Parse("void main() { undefined(); }", glslpost.ParseOptions{Stage: target.StageFragment, Version: 300})
	require.Error(t, err)
	assert.NotEmpty(t, errors.GetAllDetails(err))
}

func TestGlslangPreprocessRejectsInclude(t *testing.T) {
	requireTools(t, NameGlslang)

	_, err := NewGlslang().Preprocess("#extension GL_GOOGLE_include_directive : require\n#include \"common.glsl\"\nvoid main() {}\n",
		glslpost.ParseOptions{Stage: target.StageFragment, Version: 300})
	assert.Error(t, err)
}

func TestKhronosPipeline(t *testing.T) {
	requireTools(t, NameGlslang, NameSpirvOpt, NameSpirvRemap, NameSpirvCross)

	tc, err := Khronos(DefaultConfig())
	require.NoError(t, err)
	pp, err := glslpost.New(glslpost.Config{Optimization: glslpost.OptimizationSize}, tc)
	require.NoError(t, err)

	var (
		glsl, msl string
		blob      spv.Blob
	)
	req := glslpost.Request{Stage: target.StageFragment, ShaderModel: target.ShaderModelGLES30}
	require.NoError(t, pp.Process(fragmentShader, req, glslpost.Outputs{GLSL: &glsl, SPIRV: &blob, MSL: &msl}))

	assert.NoError(t, blob.Validate())
	assert.True(t, strings.HasPrefix(glsl, "#version 300 es\n"))
	assert.NotContains(t, glsl, "\n\n")
	assert.Contains(t, msl, "metal")
}
