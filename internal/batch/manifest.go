// Copyright 2026 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package batch processes many shaders described by a YAML manifest.
//
// A manifest looks like:
//
//	defaults:
//	  shader_model: gles30
//	  target_api: opengl
//	shaders:
//	  - input: lit.frag
//	    outputs:
//	      glsl: out/lit.frag
//	      spirv: out/lit.frag.spv
//	      msl: out/lit.frag.metal
//	    subpass_inputs: {0: 1}
//	  - input: sky.wgsl
//	    stage: vertex
//	    outputs:
//	      spirv: out/sky.vert.spv
//
// Relative paths are resolved against the manifest's directory.
package batch

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/glslpost"
	"github.com/gogpu/glslpost/target"
)

// Manifest is a parsed batch manifest.
type Manifest struct {
	Defaults Defaults `yaml:"defaults"`
	Shaders  []Entry  `yaml:"shaders"`

	// Dir is the directory relative paths are resolved against.
	Dir string `yaml:"-"`
}

// Defaults apply to every entry that does not override them.
type Defaults struct {
	ShaderModel string `yaml:"shader_model"`
	TargetAPI   string `yaml:"target_api"`
}

// Entry describes one shader.
type Entry struct {
	Input string `yaml:"input"`

	// Stage overrides the stage derived from the input's extension.
	Stage string `yaml:"stage"`

	ShaderModel string `yaml:"shader_model"`
	TargetAPI   string `yaml:"target_api"`

	Outputs EntryOutputs `yaml:"outputs"`

	// SubpassInputs maps input attachment indices to color locations.
	SubpassInputs map[uint32]uint32 `yaml:"subpass_inputs"`
}

// Stdout as an output path writes the output to standard output.
const Stdout = "-"

// EntryOutputs are output paths. An empty path is not produced.
type EntryOutputs struct {
	GLSL  string `yaml:"glsl"`
	SPIRV string `yaml:"spirv"`
	MSL   string `yaml:"msl"`
}

// Job is a resolved manifest entry.
type Job struct {
	Name    string
	Input   string
	Request glslpost.Request
	Outputs EntryOutputs
}

// LoadManifest reads and parses the manifest at path.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read manifest")
	}
	m, err := ParseManifest(data, filepath.Dir(path))
	if err != nil {
		return nil, errors.Wrapf(err, "manifest %s", path)
	}
	return m, nil
}

// ParseManifest parses manifest data. Unknown keys are rejected.
func ParseManifest(data []byte, dir string) (*Manifest, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var m Manifest
	if err := dec.Decode(&m); err != nil {
		return nil, errors.Wrap(err, "invalid manifest")
	}
	m.Dir = dir
	return &m, nil
}

// Jobs resolves every entry against base, which supplies the shader model
// and target API when neither the entry nor the manifest defaults set them.
func (m *Manifest) Jobs(base glslpost.Request) ([]Job, error) {
	if len(m.Shaders) == 0 {
		return nil, errors.New("manifest lists no shaders")
	}
	jobs := make([]Job, 0, len(m.Shaders))
	for i, e := range m.Shaders {
		job, err := m.resolve(e, base)
		if err != nil {
			return nil, errors.Wrapf(err, "shaders[%d]", i)
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func (m *Manifest) resolve(e Entry, base glslpost.Request) (Job, error) {
	if e.Input == "" {
		return Job{}, errors.New("missing input")
	}
	if e.Outputs == (EntryOutputs{}) {
		return Job{}, errors.Newf("%s: no outputs", e.Input)
	}

	req := glslpost.Request{
		ShaderModel:                 base.ShaderModel,
		TargetAPI:                   base.TargetAPI,
		SubpassInputToColorLocation: e.SubpassInputs,
	}
	var err error
	if req.Stage, err = entryStage(e); err != nil {
		return Job{}, err
	}
	if name := firstNonEmpty(e.ShaderModel, m.Defaults.ShaderModel); name != "" {
		if req.ShaderModel, err = target.ParseShaderModel(name); err != nil {
			return Job{}, errors.Wrap(err, e.Input)
		}
	}
	if name := firstNonEmpty(e.TargetAPI, m.Defaults.TargetAPI); name != "" {
		if req.TargetAPI, err = target.ParseAPI(name); err != nil {
			return Job{}, errors.Wrap(err, e.Input)
		}
	}

	return Job{
		Name:    e.Input,
		Input:   m.path(e.Input),
		Request: req,
		Outputs: EntryOutputs{
			GLSL:  m.path(e.Outputs.GLSL),
			SPIRV: m.path(e.Outputs.SPIRV),
			MSL:   m.path(e.Outputs.MSL),
		},
	}, nil
}

// Inputs returns the resolved input paths of every entry.
func (m *Manifest) Inputs() []string {
	paths := make([]string, 0, len(m.Shaders))
	for _, e := range m.Shaders {
		if e.Input != "" {
			paths = append(paths, m.path(e.Input))
		}
	}
	return paths
}

func (m *Manifest) path(p string) string {
	if p == "" || p == Stdout || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Dir, p)
}

// entryStage uses the explicit stage, or the input's extension: "x.frag",
// "x.frag.glsl" and "x.vert.wgsl" all work.
func entryStage(e Entry) (target.Stage, error) {
	if e.Stage != "" {
		return target.ParseStage(e.Stage)
	}
	name := e.Input
	for range 2 {
		ext := filepath.Ext(name)
		if ext == "" {
			break
		}
		if s, err := target.ParseStage(ext); err == nil {
			return s, nil
		}
		name = strings.TrimSuffix(name, ext)
	}
	return target.StageVertex, errors.Newf("%s: cannot derive stage from file name, set stage", e.Input)
}

// IsWGSL reports whether path names a WGSL source.
func IsWGSL(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".wgsl")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
