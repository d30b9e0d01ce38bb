// Copyright 2026 The GoGPU Authors
// SPDX-License-Identifier: MIT

package minify

import "github.com/gogpu/glslpost/textutil"

type state uint8

const (
	stateOutside state = iota
	stateStructOpen
	stateStructDefn
)

type eventKind uint8

const (
	eventNone  eventKind = iota // plain code outside any block
	eventOpen                   // "uniform Type" header
	eventBrace                  // "{" after a header
	eventField                  // "Type name[N];" inside a body
	eventClose                  // "} instance;"
	eventSkip                   // unrecognized line inside a body
)

type event struct {
	kind  eventKind
	typ   string
	name  string
	array string
}

// machine recognizes uniform block declarations one line at a time. The scan
// and rewrite passes drive the same machine so they agree on every line.
type machine struct {
	state state
	keep  map[string]bool

	// skip is set while inside a block whose type is in keep.
	skip bool
}

func (m *machine) step(line string) event {
	switch m.state {
	case stateStructOpen:
		if line == "{" {
			m.state = stateStructDefn
			return event{kind: eventBrace}
		}
		// Not a block after all; the line is ordinary code.
		m.state = stateOutside
		return m.outside(line)
	case stateStructDefn:
		return m.body(line)
	default:
		return m.outside(line)
	}
}

func (m *machine) outside(line string) event {
	s := textutil.NewScanner(line)
	if !s.Find("uniform ") {
		return event{kind: eventNone}
	}
	typ, ok := s.Identifier()
	if !ok || !s.Done() {
		return event{kind: eventNone}
	}
	m.state = stateStructOpen
	m.skip = m.keep[typ]
	return event{kind: eventOpen, typ: typ}
}

func (m *machine) body(line string) event {
	s := textutil.NewScanner(line)
	if s.Find("} ") {
		inst, ok := s.Identifier()
		if !ok || !s.Byte(';') || !s.Done() {
			return event{kind: eventSkip}
		}
		m.state = stateOutside
		return event{kind: eventClose, name: inst}
	}

	typ, ok := s.Identifier()
	if !ok || !s.Byte(' ') {
		return event{kind: eventSkip}
	}
	name, ok := s.Identifier()
	if !ok {
		return event{kind: eventSkip}
	}
	array := s.ArraySize()
	if !s.Byte(';') || !s.Done() {
		return event{kind: eventSkip}
	}
	return event{kind: eventField, typ: typ, name: name, array: array}
}
