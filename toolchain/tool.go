// Copyright 2026 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package toolchain runs the Khronos command line tools as the compiler,
// optimizer and cross-compiler of a glslpost.PostProcessor.
//
// Every call works in its own temporary directory, so one toolchain can serve
// concurrent Process calls.
package toolchain

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/kballard/go-shellquote"
)

// Tool is an external program and the leading arguments it is always
// invoked with.
type Tool struct {
	Name    string
	Command []string
}

// ParseTool builds a Tool from a shell-style command line such as
// "xcrun spirv-cross" or "/opt/vulkan/bin/spirv-opt --preserve-numeric-ids".
// An empty command line means the tool is looked up by name on PATH.
func ParseTool(name, cmdline string) (Tool, error) {
	args, err := shellquote.Split(cmdline)
	if err != nil {
		return Tool{}, errors.Wrapf(err, "parse %s command line", name)
	}
	if len(args) == 0 {
		args = []string{name}
	}
	return Tool{Name: name, Command: args}, nil
}

// String returns the command line.
func (t Tool) String() string {
	return shellquote.Join(t.Command...)
}

// Path resolves the executable on PATH.
func (t Tool) Path() (string, error) {
	if len(t.Command) == 0 {
		return "", errors.Newf("%s: empty command", t.Name)
	}
	return exec.LookPath(t.Command[0])
}

// Args returns the full argument list for an invocation.
func (t Tool) Args(args ...string) []string {
	out := make([]string, 0, len(t.Command)+len(args))
	out = append(out, t.Command...)
	return append(out, args...)
}

// run executes the tool with stdin and returns stdout. On failure the error
// carries the combined tool output as a detail.
func (t Tool) run(stdin []byte, args ...string) (stdout, stderr []byte, err error) {
	if len(t.Command) == 0 {
		return nil, nil, errors.Newf("%s: empty command", t.Name)
	}
	argv := t.Args(args...)
	cmd := exec.Command(argv[0], argv[1:]...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		diag := strings.TrimSpace(outBuf.String() + "\n" + errBuf.String())
		err = errors.Wrapf(err, "failed to run %s", shellquote.Join(argv...))
		if diag != "" {
			err = errors.WithDetail(err, diag)
		}
		return outBuf.Bytes(), errBuf.Bytes(), err
	}
	return outBuf.Bytes(), errBuf.Bytes(), nil
}

// workDir is a scratch directory owned by a single tool invocation.
type workDir string

func newWorkDir() (workDir, error) {
	dir, err := os.MkdirTemp("", "glslpost-*")
	if err != nil {
		return "", errors.Wrap(err, "create work dir")
	}
	return workDir(dir), nil
}

func (wd workDir) Path(name ...string) string {
	return filepath.Join(string(wd), strings.Join(name, "."))
}

func (wd workDir) WriteFile(name string, data []byte) (string, error) {
	path := wd.Path(name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.Wrapf(err, "unable to create %v", path)
	}
	return path, nil
}

func (wd workDir) Remove() {
	_ = os.RemoveAll(string(wd))
}
