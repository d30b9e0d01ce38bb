// Copyright 2026 The GoGPU Authors
// SPDX-License-Identifier: MIT

package textutil

import "strings"

// Scanner is a cursor over a single line of GLSL. A matching method advances
// the cursor past what it matched; a failed match leaves the cursor in place.
type Scanner struct {
	line string
	pos  int
}

// NewScanner returns a scanner positioned at the start of line.
func NewScanner(line string) *Scanner {
	return &Scanner{line: line}
}

// Pos returns the current cursor offset.
func (s *Scanner) Pos() int { return s.pos }

// Done reports whether the cursor reached the end of the line.
func (s *Scanner) Done() bool { return s.pos == len(s.line) }

// Identifier consumes a GLSL identifier starting exactly at the cursor.
func (s *Scanner) Identifier() (string, bool) {
	i := s.pos
	if i >= len(s.line) || !isIdentStart(s.line[i]) {
		return "", false
	}
	i++
	for i < len(s.line) && isIdentChar(s.line[i]) {
		i++
	}
	id := s.line[s.pos:i]
	s.pos = i
	return id, true
}

// Find searches for lit at or after the cursor and moves the cursor just
// past the first occurrence. Text skipped over is not inspected.
func (s *Scanner) Find(lit string) bool {
	i := strings.Index(s.line[s.pos:], lit)
	if i < 0 {
		return false
	}
	s.pos += i + len(lit)
	return true
}

// Byte consumes c if it is the byte under the cursor.
func (s *Scanner) Byte(c byte) bool {
	if s.pos >= len(s.line) || s.line[s.pos] != c {
		return false
	}
	s.pos++
	return true
}

// ArraySize consumes an optional "[...]" suffix and returns it verbatim,
// brackets included. An unterminated suffix extends to the end of the line.
func (s *Scanner) ArraySize() string {
	if s.pos >= len(s.line) || s.line[s.pos] != '[' {
		return ""
	}
	start := s.pos
	i := strings.IndexByte(s.line[start:], ']')
	if i < 0 {
		s.pos = len(s.line)
	} else {
		s.pos = start + i + 1
	}
	return s.line[start:s.pos]
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
