// Copyright 2026 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package textutil provides the line-level text transforms shared by the
// GLSL and MSL post-processing steps.
package textutil

import (
	"strings"
)

// Shrink compacts generated shader text: leading spaces and tabs are removed
// from every line and lines left empty are dropped. Every remaining line is
// terminated by a single newline.
func Shrink(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimLeft(line, " \t")
		line = strings.TrimSuffix(line, "\r")
		if line == "" {
			continue
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Lines splits s at newlines and drops empty lines.
func Lines(s string) []string {
	parts := strings.Split(s, "\n")
	lines := parts[:0]
	for _, p := range parts {
		if p != "" {
			lines = append(lines, p)
		}
	}
	return lines
}

// Join is the inverse of Lines: every line is followed by a newline.
func Join(lines []string) string {
	n := 0
	for _, l := range lines {
		n += len(l) + 1
	}
	var sb strings.Builder
	sb.Grow(n)
	for _, l := range lines {
		sb.WriteString(l)
		sb.WriteByte('\n')
	}
	return sb.String()
}
