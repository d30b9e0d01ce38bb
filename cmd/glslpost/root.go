// Copyright 2026 The GoGPU Authors
// SPDX-License-Identifier: MIT

package main

import (
	"github.com/cockroachdb/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/gogpu/glslpost"
	"github.com/gogpu/glslpost/internal/batch"
	"github.com/gogpu/glslpost/internal/config"
	"github.com/gogpu/glslpost/internal/logger"
	"github.com/gogpu/glslpost/nagafront"
	"github.com/gogpu/glslpost/toolchain"
)

// configKey annotates flags that override a configuration key.
const configKey = "glslpost_config_key"

type app struct {
	v          *viper.Viper
	configFile string
	noColor    bool

	cfg *config.Config
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.New()}

	root := &cobra.Command{
		Use:   "glslpost",
		Short: "Shader post-processor: optimized GLSL, SPIR-V and MSL",
		Long: `glslpost compiles shaders to SPIR-V, runs the spirv-opt size or
performance profile, and decompiles the result to minified GLSL or
cross-compiles it to MSL.

GLSL sources go through glslangValidator; WGSL sources go through naga.
Optimization and cross-compilation use spirv-opt, spirv-remap and
spirv-cross from PATH unless configured otherwise.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "config file (default: glslpost.yaml in . or the user config dir)")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-file", "", "also write JSON logs to this rotating file")
	pf.BoolVar(&a.noColor, "no-color", false, "disable colored output")
	bindFlag(pf, "log-level", "logging.level")
	bindFlag(pf, "log-file", "logging.file")

	root.AddCommand(
		a.processCmd(),
		a.batchCmd(),
		a.watchCmd(),
		a.passesCmd(),
		a.minifyCmd(),
		a.reflectCmd(),
		a.toolsCmd(),
	)
	return root
}

// setup applies flag overrides, loads the configuration and creates the
// logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if a.noColor {
		pterm.DisableColor()
	}
	cmd.Flags().Visit(func(f *pflag.Flag) {
		keys := f.Annotations[configKey]
		if len(keys) == 0 {
			return
		}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			a.v.Set(keys[0], sv.GetSlice())
			return
		}
		a.v.Set(keys[0], f.Value.String())
	})

	var err error
	if a.configFile != "" {
		a.cfg, err = config.LoadFromFile(a.v, a.configFile)
	} else {
		a.cfg, err = config.Load(a.v)
	}
	if err != nil {
		return err
	}

	opts := logger.Options{
		Level:   a.cfg.Logging.Level,
		Console: cmd.ErrOrStderr(),
		Color:   !a.noColor,
	}
	if a.cfg.Logging.File != "" {
		opts.File = logger.DefaultFileConfig(a.cfg.Logging.File)
	}
	a.log, err = logger.New(opts)
	if err != nil {
		return err
	}
	logger.Set(a.log)
	if used := a.v.ConfigFileUsed(); used != "" {
		a.log.Debug("loaded config", zap.String("file", used))
	}
	return nil
}

func bindFlag(fs *pflag.FlagSet, name, key string) {
	if err := fs.SetAnnotation(name, configKey, []string{key}); err != nil {
		panic(err)
	}
}

// processors holds one post-processor per front-end.
type processors struct {
	frontend string
	glsl     *glslpost.PostProcessor
	wgsl     *glslpost.PostProcessor
}

func (a *app) processors() (*processors, error) {
	tcCfg := a.cfg.Toolchain()
	tcCfg.Logger = a.log
	khronos, err := toolchain.Khronos(tcCfg)
	if err != nil {
		return nil, err
	}
	ppCfg := a.cfg.PostProcessor()

	glsl, err := glslpost.New(ppCfg, khronos, glslpost.WithLogger(a.log.Named("glslang")))
	if err != nil {
		return nil, err
	}

	naga := nagafront.New()
	naga.Log = a.log.Named("naga")
	wgslTC := khronos
	wgslTC.Compiler = naga
	wgsl, err := glslpost.New(ppCfg, wgslTC, glslpost.WithLogger(naga.Log))
	if err != nil {
		return nil, err
	}
	return &processors{frontend: a.cfg.Frontend, glsl: glsl, wgsl: wgsl}, nil
}

func (p *processors) forJob(job batch.Job) (batch.Processor, error) {
	switch p.frontend {
	case config.FrontendNaga:
		return p.wgsl, nil
	case config.FrontendGlslang:
		return p.glsl, nil
	}
	if batch.IsWGSL(job.Input) {
		return p.wgsl, nil
	}
	return p.glsl, nil
}

func (a *app) runner() (*batch.Runner, error) {
	procs, err := a.processors()
	if err != nil {
		return nil, errors.Wrap(err, "failed to set up toolchain")
	}
	return &batch.Runner{
		ProcessorFor: procs.forJob,
		Workers:      a.cfg.Batch.Workers,
		Log:          a.log.Named("batch"),
	}, nil
}
