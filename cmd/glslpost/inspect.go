// Copyright 2026 The GoGPU Authors
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/gogpu/glslpost"
	"github.com/gogpu/glslpost/minify"
	"github.com/gogpu/glslpost/profile"
	"github.com/gogpu/glslpost/spv"
	"github.com/gogpu/glslpost/textutil"
	"github.com/gogpu/glslpost/toolchain"
)

func renderTable(cmd *cobra.Command, data pterm.TableData) error {
	s, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return errors.Wrap(err, "failed to render table")
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), s)
	return err
}

func (a *app) passesCmd() *cobra.Command {
	var flagsOnly bool
	cmd := &cobra.Command{
		Use:       "passes <size|performance>",
		Short:     "Show the optimizer passes of a profile",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"size", "performance"},
		RunE: func(cmd *cobra.Command, args []string) error {
			opt, err := glslpost.ParseOptimization(args[0])
			if err != nil {
				return err
			}
			model := a.cfg.Request().ShaderModel
			var passes []profile.Pass
			switch opt {
			case glslpost.OptimizationSize:
				passes = profile.Size(model)
			case glslpost.OptimizationPerformance:
				passes = profile.Performance(model)
			default:
				return errors.Newf("%s has no optimizer passes", opt)
			}

			if flagsOnly {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), strings.Join(profile.Flags(passes), " "))
				return err
			}
			data := pterm.TableData{{"#", "Pass", "Flag"}}
			for i, p := range passes {
				data = append(data, []string{strconv.Itoa(i + 1), string(p), p.Flag()})
			}
			return renderTable(cmd, data)
		},
	}
	cmd.Flags().BoolVar(&flagsOnly, "flags", false, "print spirv-opt flags on one line")
	cmd.Flags().String("model", "", "shader model: gles30 or glcore41")
	bindFlag(cmd.Flags(), "model", "shader_model")
	return cmd
}

func (a *app) minifyCmd() *cobra.Command {
	var showTable bool
	cmd := &cobra.Command{
		Use:   "minify [input]",
		Short: "Shrink GLSL and shorten uniform block field names",
		Long: `Shrink GLSL text and rename uniform block fields to short names,
without compiling it. Reads stdin when no input is given or input is -.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			opts := minify.Options{Keep: a.cfg.Minify.Keep}
			shrunk := textutil.Shrink(src)
			if !showTable {
				_, err := io.WriteString(cmd.OutOrStdout(), minify.StructFields(shrunk, opts))
				return err
			}
			table := minify.BuildTable(textutil.Lines(shrunk), opts)
			data := pterm.TableData{{"Instance", "Field", "Short"}}
			for _, f := range table.Fields() {
				data = append(data, []string{f.Instance, f.Name, f.Short})
			}
			return renderTable(cmd, data)
		},
	}
	cmd.Flags().BoolVar(&showTable, "table", false, "print the rename table instead of the shader")
	cmd.Flags().StringSlice("keep", nil, "uniform block types excluded from minification")
	bindFlag(cmd.Flags(), "keep", "minify.keep")
	return cmd
}

func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		return string(data), errors.Wrap(err, "failed to read stdin")
	}
	data, err := os.ReadFile(args[0])
	return string(data), errors.Wrap(err, "failed to read input")
}

func (a *app) reflectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reflect <module.spv>",
		Short: "List the resources a SPIR-V module binds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return errors.Wrap(err, "failed to read module")
			}
			blob, err := spv.FromBytes(data)
			if err != nil {
				return err
			}
			res, err := spv.Reflect(blob)
			if err != nil {
				return err
			}

			major, minor := blob.Version()
			fmt.Fprintf(cmd.OutOrStdout(), "SPIR-V %d.%d, %s, bound %d\n", major, minor, res.ExecutionModel, blob.Bound())
			rows := pterm.TableData{{"Kind", "Name", "Set", "Binding", "ID"}}
			groups := []struct {
				kind string
				rs   []spv.Resource
			}{
				{"sampled image", res.SampledImages},
				{"image", res.SeparateImages},
				{"sampler", res.SeparateSamplers},
				{"uniform buffer", res.UniformBuffers},
				{"storage buffer", res.StorageBuffers},
			}
			for _, g := range groups {
				for _, r := range g.rs {
					rows = append(rows, []string{
						g.kind, r.Name,
						strconv.FormatUint(uint64(r.DescriptorSet), 10),
						strconv.FormatUint(uint64(r.Binding), 10),
						strconv.FormatUint(uint64(r.ID), 10),
					})
				}
			}
			return renderTable(cmd, rows)
		},
	}
}

func (a *app) toolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Check that the Khronos tools are installed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			statuses, err := toolchain.Probe(a.cfg.Toolchain())
			if err != nil {
				return err
			}
			data := pterm.TableData{{"Tool", "Command", "Path", "Version", "Required", "Status"}}
			failed := 0
			for _, st := range statuses {
				version := "-"
				if st.Version != nil {
					version = st.Version.String()
				}
				status := pterm.Green("ok")
				if !st.OK() {
					failed++
					status = pterm.Red(st.Err.Error())
				}
				data = append(data, []string{st.Tool.Name, st.Tool.String(), st.Path, version, st.Constraint, status})
			}
			if err := renderTable(cmd, data); err != nil {
				return err
			}
			if failed > 0 {
				return errors.Newf("%d of %d tools unavailable", failed, len(statuses))
			}
			return nil
		},
	}
}
