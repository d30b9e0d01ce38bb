// Copyright 2026 The GoGPU Authors
// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/glslpost"
	"github.com/gogpu/glslpost/target"
	"github.com/gogpu/glslpost/toolchain"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "glslpost.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	cfg, err := decode(v)
	require.NoError(t, err)

	assert.Equal(t, "performance", cfg.Optimization)
	assert.Equal(t, FrontendAuto, cfg.Frontend)
	assert.Equal(t, []string{"MaterialParams"}, cfg.Minify.Keep)
	assert.Equal(t, 4, cfg.Batch.Workers)
	assert.Equal(t, "info", cfg.Logging.Level)

	pc := cfg.PostProcessor()
	assert.Equal(t, glslpost.OptimizationPerformance, pc.Optimization)
	assert.False(t, pc.GenerateDebugInfo)

	req := cfg.Request()
	assert.Equal(t, target.ShaderModelGLES30, req.ShaderModel)
	assert.Equal(t, target.APIOpenGL, req.TargetAPI)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
optimization: size
debug_info: true
shader_model: glcore41
target_api: vulkan
frontend: naga
tools:
  spirv_cross: xcrun spirv-cross
  min_versions:
    spirv-opt: ">= 2022.1"
    glslangValidator: ">= 11"
minify:
  keep: [MaterialParams, FrameUniforms]
batch:
  workers: 8
logging:
  level: debug
`)
	cfg, err := LoadFromFile(New(), path)
	require.NoError(t, err)

	pc := cfg.PostProcessor()
	assert.Equal(t, glslpost.OptimizationSize, pc.Optimization)
	assert.True(t, pc.GenerateDebugInfo)
	assert.Equal(t, []string{"MaterialParams", "FrameUniforms"}, pc.KeepStructs)

	req := cfg.Request()
	assert.Equal(t, target.ShaderModelGLCore41, req.ShaderModel)
	assert.Equal(t, target.APIVulkan, req.TargetAPI)

	tc := cfg.Toolchain()
	assert.Equal(t, "xcrun spirv-cross", tc.SpirvCross)
	assert.Equal(t, ">= 2022.1", tc.MinVersions[toolchain.NameSpirvOpt])
	assert.Equal(t, ">= 11", tc.MinVersions[toolchain.NameGlslang])

	assert.Equal(t, FrontendNaga, cfg.Frontend)
	assert.Equal(t, 8, cfg.Batch.Workers)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadMissingFileIsDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	v := viper.New()
	SetDefaults(v)
	v.SetConfigName(FileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "performance", cfg.Optimization)
}

func TestLoadSearchPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "glslpost.yaml"), []byte("optimization: none\n"), 0o644))
	t.Chdir(dir)

	cfg, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, "none", cfg.Optimization)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("GLSLPOST_OPTIMIZATION", "preprocessor")
	t.Setenv("GLSLPOST_BATCH_WORKERS", "2")

	cfg, err := LoadFromFile(New(), writeConfig(t, "optimization: size\n"))
	require.NoError(t, err)
	assert.Equal(t, "preprocessor", cfg.Optimization)
	assert.Equal(t, 2, cfg.Batch.Workers)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Optimization: "size",
			ShaderModel:  "gles30",
			TargetAPI:    "opengl",
			Frontend:     FrontendGlslang,
			Batch:        BatchConfig{Workers: 1},
			Logging:      LoggingConfig{Level: "warn"},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"optimization", func(c *Config) { c.Optimization = "max" }, "optimization"},
		{"shader model", func(c *Config) { c.ShaderModel = "dx12" }, "shader model"},
		{"target api", func(c *Config) { c.TargetAPI = "metal" }, "target api"},
		{"frontend", func(c *Config) { c.Frontend = "dxc" }, "frontend"},
		{"workers", func(c *Config) { c.Batch.Workers = 0 }, "batch.workers"},
		{"debounce", func(c *Config) { c.Batch.DebounceMS = -1 }, "debounce"},
		{"log level", func(c *Config) { c.Logging.Level = "loud" }, "log level"},
	}

	base := valid()
	require.NoError(t, base.Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFromFileErrors(t *testing.T) {
	_, err := LoadFromFile(New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadFromFile(New(), writeConfig(t, "shader_model: dx12\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}
