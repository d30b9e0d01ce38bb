// Copyright 2026 The GoGPU Authors
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gogpu/glslpost/internal/batch"
)

func (a *app) processCmd() *cobra.Command {
	var (
		stage   string
		outputs batch.EntryOutputs
		subpass map[string]int
	)
	cmd := &cobra.Command{
		Use:   "process [flags] <input>",
		Short: "Process one shader",
		Long: `Process one shader. The stage is taken from the file extension
(.vert, .frag, optionally followed by .glsl or .wgsl) unless --stage is set.
Without any output flag the processed GLSL is written to stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputs == (batch.EntryOutputs{}) {
				outputs.GLSL = batch.Stdout
			}
			remap, err := subpassMap(subpass)
			if err != nil {
				return err
			}
			m := &batch.Manifest{Shaders: []batch.Entry{{
				Input:         args[0],
				Stage:         stage,
				Outputs:       outputs,
				SubpassInputs: remap,
			}}}
			jobs, err := m.Jobs(a.cfg.Request())
			if err != nil {
				return err
			}
			r, err := a.runner()
			if err != nil {
				return err
			}
			r.Stdout = cmd.OutOrStdout()
			return r.Run(cmd.Context(), jobs)[0].Err
		},
	}

	f := cmd.Flags()
	f.StringVar(&stage, "stage", "", "shader stage: vertex or fragment")
	f.StringP("optimization", "O", "", "optimization: none, preprocessor, size, performance")
	f.String("model", "", "shader model: gles30 or glcore41")
	f.String("api", "", "target API: opengl, opengl-core, vulkan")
	f.String("frontend", "", "front-end: auto, glslang, naga")
	f.Bool("debug", false, "keep debug info in SPIR-V")
	f.Bool("print", false, "log the processed GLSL")
	f.StringSlice("keep", nil, "uniform block types excluded from minification")
	f.StringVarP(&outputs.GLSL, "glsl", "o", "", "write processed GLSL to this file (- for stdout)")
	f.StringVar(&outputs.SPIRV, "spirv", "", "write SPIR-V to this file")
	f.StringVar(&outputs.MSL, "msl", "", "write MSL to this file")
	f.StringToIntVar(&subpass, "subpass", nil, "map subpass input attachments to color locations, e.g. 0=1")
	bindFlag(f, "optimization", "optimization")
	bindFlag(f, "model", "shader_model")
	bindFlag(f, "api", "target_api")
	bindFlag(f, "frontend", "frontend")
	bindFlag(f, "debug", "debug_info")
	bindFlag(f, "print", "print_shaders")
	bindFlag(f, "keep", "minify.keep")
	return cmd
}

func subpassMap(m map[string]int) (map[uint32]uint32, error) {
	if len(m) == 0 {
		return nil, nil
	}
	out := make(map[uint32]uint32, len(m))
	for k, v := range m {
		idx, err := strconv.ParseUint(k, 10, 32)
		if err != nil || v < 0 {
			return nil, errors.Newf("invalid subpass mapping %s=%d", k, v)
		}
		out[uint32(idx)] = uint32(v)
	}
	return out, nil
}

func (a *app) batchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <manifest.yaml>",
		Short: "Process every shader listed in a manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := batch.LoadManifest(args[0])
			if err != nil {
				return err
			}
			r, err := a.runner()
			if err != nil {
				return err
			}
			r.Stdout = cmd.OutOrStdout()
			return a.runManifest(cmd.Context(), cmd, r, m)
		},
	}
	cmd.Flags().Int("workers", 0, "number of shaders processed concurrently")
	bindFlag(cmd.Flags(), "workers", "batch.workers")
	return cmd
}

func (a *app) watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <manifest.yaml>",
		Short: "Process a manifest and re-run it whenever a listed shader changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.runner()
			if err != nil {
				return err
			}
			r.Stdout = cmd.OutOrStdout()
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			debounce := time.Duration(a.cfg.Batch.DebounceMS) * time.Millisecond
			a.log.Info("watching", zap.String("manifest", args[0]))
			return batch.Watch(ctx, args[0], debounce, a.log.Named("watch"), func(ctx context.Context, m *batch.Manifest) error {
				return a.runManifest(ctx, cmd, r, m)
			})
		},
	}
	cmd.Flags().Int("workers", 0, "number of shaders processed concurrently")
	bindFlag(cmd.Flags(), "workers", "batch.workers")
	return cmd
}

// runManifest processes m under ctx and prints a result table.
func (a *app) runManifest(ctx context.Context, cmd *cobra.Command, r *batch.Runner, m *batch.Manifest) error {
	jobs, err := m.Jobs(a.cfg.Request())
	if err != nil {
		return err
	}
	results := r.Run(ctx, jobs)

	data := pterm.TableData{{"Shader", "Stage", "Status", "Time"}}
	for _, res := range results {
		status := pterm.Green("ok")
		if res.Err != nil {
			status = pterm.Red(res.Err.Error())
		}
		data = append(data, []string{
			res.Job.Name,
			res.Job.Request.Stage.String(),
			status,
			res.Duration.Round(time.Millisecond).String(),
		})
	}
	if err := renderTable(cmd, data); err != nil {
		return err
	}
	return batch.Failed(results)
}
