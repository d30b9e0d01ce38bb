// Copyright 2026 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package config loads glslpost settings from glslpost.yaml files and
// GLSLPOST_ environment variables.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"

	"github.com/gogpu/glslpost"
	"github.com/gogpu/glslpost/internal/logger"
	"github.com/gogpu/glslpost/target"
	"github.com/gogpu/glslpost/toolchain"
)

// FileName is the base name of configuration files, without extension.
const FileName = "glslpost"

// EnvPrefix prefixes environment overrides, e.g. GLSLPOST_OPTIMIZATION.
const EnvPrefix = "GLSLPOST"

// Front-end names accepted by the frontend key.
const (
	FrontendAuto    = "auto"
	FrontendGlslang = "glslang"
	FrontendNaga    = "naga"
)

// Config is the full set of settings.
type Config struct {
	Optimization string `mapstructure:"optimization"`
	DebugInfo    bool   `mapstructure:"debug_info"`
	PrintShaders bool   `mapstructure:"print_shaders"`
	ShaderModel  string `mapstructure:"shader_model"`
	TargetAPI    string `mapstructure:"target_api"`

	// Frontend selects the source compiler: glslang, naga, or auto (naga for
	// .wgsl inputs, glslang otherwise).
	Frontend string `mapstructure:"frontend"`

	Tools   ToolsConfig   `mapstructure:"tools"`
	Minify  MinifyConfig  `mapstructure:"minify"`
	Batch   BatchConfig   `mapstructure:"batch"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ToolsConfig holds Khronos tool command lines and version constraints.
type ToolsConfig struct {
	Glslang     string            `mapstructure:"glslang"`
	SpirvOpt    string            `mapstructure:"spirv_opt"`
	SpirvRemap  string            `mapstructure:"spirv_remap"`
	SpirvCross  string            `mapstructure:"spirv_cross"`
	MinVersions map[string]string `mapstructure:"min_versions"`
	Verbose     bool              `mapstructure:"verbose"`
}

// MinifyConfig configures the struct-field minifier.
type MinifyConfig struct {
	Keep []string `mapstructure:"keep"`
}

// BatchConfig configures manifest processing.
type BatchConfig struct {
	Workers    int `mapstructure:"workers"`
	DebounceMS int `mapstructure:"debounce_ms"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// SetDefaults registers the default value of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("optimization", glslpost.OptimizationPerformance.String())
	v.SetDefault("debug_info", false)
	v.SetDefault("print_shaders", false)
	v.SetDefault("shader_model", target.ShaderModelGLES30.String())
	v.SetDefault("target_api", target.APIOpenGL.String())
	v.SetDefault("frontend", FrontendAuto)

	v.SetDefault("tools.glslang", "")
	v.SetDefault("tools.spirv_opt", "")
	v.SetDefault("tools.spirv_remap", "")
	v.SetDefault("tools.spirv_cross", "")
	v.SetDefault("tools.min_versions", map[string]string{})
	v.SetDefault("tools.verbose", false)

	v.SetDefault("minify.keep", []string{"MaterialParams"})

	v.SetDefault("batch.workers", 4)
	v.SetDefault("batch.debounce_ms", 200)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", "")
}

// New returns a viper instance with defaults, environment binding and the
// standard search paths: the working directory, then the user config dir.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName(FileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, FileName))
	}
	return v
}

// Load reads the first glslpost.yaml found on the search path. A missing file
// is not an error.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "failed to read config")
		}
	}
	return decode(v)
}

// LoadFromFile reads configuration from path on top of v's defaults.
func LoadFromFile(v *viper.Viper, path string) (*Config, error) {
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", path)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every enumerated value and reports all problems at once.
func (c *Config) Validate() error {
	var problems []string
	check := func(err error) {
		if err != nil {
			problems = append(problems, err.Error())
		}
	}
	_, err := glslpost.ParseOptimization(c.Optimization)
	check(err)
	_, err = target.ParseShaderModel(c.ShaderModel)
	check(err)
	_, err = target.ParseAPI(c.TargetAPI)
	check(err)
	_, err = logger.ParseLevel(c.Logging.Level)
	check(err)
	switch c.Frontend {
	case FrontendAuto, FrontendGlslang, FrontendNaga:
	default:
		check(errors.Newf("unknown frontend %q", c.Frontend))
	}
	if c.Batch.Workers < 1 {
		check(errors.Newf("batch.workers must be at least 1, got %d", c.Batch.Workers))
	}
	if c.Batch.DebounceMS < 0 {
		check(errors.Newf("batch.debounce_ms must not be negative, got %d", c.Batch.DebounceMS))
	}
	if len(problems) > 0 {
		return errors.Newf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// PostProcessor returns the pipeline configuration. Call Validate first.
func (c *Config) PostProcessor() glslpost.Config {
	opt, _ := glslpost.ParseOptimization(c.Optimization)
	return glslpost.Config{
		Optimization:      opt,
		GenerateDebugInfo: c.DebugInfo,
		PrintShaders:      c.PrintShaders,
		KeepStructs:       c.Minify.Keep,
	}
}

// Request returns a request template with the configured shader model and
// target API. The stage is left for the caller.
func (c *Config) Request() glslpost.Request {
	model, _ := target.ParseShaderModel(c.ShaderModel)
	api, _ := target.ParseAPI(c.TargetAPI)
	return glslpost.Request{ShaderModel: model, TargetAPI: api}
}

// Toolchain returns the Khronos tool configuration.
func (c *Config) Toolchain() toolchain.Config {
	return toolchain.Config{
		Glslang:     c.Tools.Glslang,
		SpirvOpt:    c.Tools.SpirvOpt,
		SpirvRemap:  c.Tools.SpirvRemap,
		SpirvCross:  c.Tools.SpirvCross,
		MinVersions: toolNames(c.Tools.MinVersions),
		Verbose:     c.Tools.Verbose,
	}
}

// toolNames restores the case of tool names, which viper lowercases.
func toolNames(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	names := []string{toolchain.NameGlslang, toolchain.NameSpirvOpt, toolchain.NameSpirvRemap, toolchain.NameSpirvCross}
	out := make(map[string]string, len(m))
	for k, v := range m {
		for _, n := range names {
			if strings.EqualFold(k, n) {
				k = n
				break
			}
		}
		out[k] = v
	}
	return out
}
