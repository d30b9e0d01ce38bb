// Copyright 2026 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package minify shortens the field names of uniform blocks in generated GLSL.
//
// The input is expected to be compacted with textutil.Shrink first, so that
// every block is laid out one declaration per line:
//
//	uniform FrameUniforms
//	{
//	vec4 resolution;
//	float time;
//	} frameUniforms;
//
// Fields are renamed per instance in first-seen order (a, b, ..., z, aa, bb,
// ...) and every "instance.field" reference in the shader is rewritten.
package minify

import (
	"strings"

	"github.com/gogpu/glslpost/textutil"
)

// DefaultKeep lists block types whose field names are part of an external
// contract and must survive minification.
var DefaultKeep = []string{"MaterialParams"}

// Options configures StructFields.
type Options struct {
	// Keep lists uniform block type names that are never minified.
	// A nil slice means DefaultKeep.
	Keep []string
}

// Field is one renamed struct member.
type Field struct {
	Instance string
	Name     string
	Short    string
}

// Table maps instance fields to their short names. Entries keep the order in
// which the fields were discovered.
type Table struct {
	fields []Field
	index  map[string]int
}

// Len returns the number of renamed fields.
func (t *Table) Len() int { return len(t.fields) }

// Fields returns the entries in discovery order.
func (t *Table) Fields() []Field { return t.fields }

// Lookup returns the short name of instance.name.
func (t *Table) Lookup(instance, name string) (string, bool) {
	i, ok := t.index[instance+"."+name]
	if !ok {
		return "", false
	}
	return t.fields[i].Short, true
}

func (t *Table) add(instance, name, short string) {
	if t.index == nil {
		t.index = make(map[string]int)
	}
	key := instance + "." + name
	if _, ok := t.index[key]; ok {
		return
	}
	t.index[key] = len(t.fields)
	t.fields = append(t.fields, Field{Instance: instance, Name: name, Short: short})
}

// ShortName returns the i-th generated field name: a..z, then aa..zz, then
// aaa..zzz and so on.
func ShortName(i int) string {
	return strings.Repeat(string(rune('a'+i%26)), i/26+1)
}

// StructFields rewrites the uniform blocks of source. Text without uniform
// blocks comes back with blank lines dropped and every line newline-terminated.
func StructFields(source string, opts Options) string {
	lines := textutil.Lines(source)
	table := BuildTable(lines, opts)
	return textutil.Join(rewrite(lines, table, opts))
}

// BuildTable runs the scan pass over pre-split lines.
func BuildTable(lines []string, opts Options) *Table {
	table := &Table{}
	m := machine{keep: keepSet(opts)}
	var fields []string
	for _, line := range lines {
		ev := m.step(line)
		switch ev.kind {
		case eventOpen:
			fields = fields[:0]
		case eventField:
			fields = append(fields, ev.name)
		case eventClose:
			if !m.skip {
				for i, f := range fields {
					table.add(ev.name, f, ShortName(i))
				}
			}
			fields = fields[:0]
		}
	}
	return table
}

// rewrite runs the second pass. Field declarations are buffered until the
// close line names the instance they belong to.
func rewrite(lines []string, table *Table, opts Options) []string {
	out := make([]string, 0, len(lines))
	refs := table.replacer()
	m := machine{keep: keepSet(opts)}
	var body []fieldDecl
	for _, line := range lines {
		inBody := m.state == stateStructDefn
		ev := m.step(line)
		switch {
		case ev.kind == eventOpen:
			body = body[:0]
			out = append(out, line)
		case ev.kind == eventField:
			body = append(body, fieldDecl{line: len(out), typ: ev.typ, name: ev.name, array: ev.array})
			out = append(out, line)
		case ev.kind == eventClose:
			if !m.skip {
				for _, d := range body {
					if short, ok := table.Lookup(ev.name, d.name); ok {
						out[d.line] = d.typ + " " + short + d.array + ";"
					}
				}
			}
			body = body[:0]
			out = append(out, line)
		case ev.kind == eventBrace, inBody:
			out = append(out, line)
		default:
			out = append(out, replaceRefs(line, refs))
		}
	}
	return out
}

// replacer rewrites every "instance.field" reference in a single left to
// right pass, so a short name is never renamed again by a later entry.
// Entries are tried in table order at each position.
func (t *Table) replacer() *strings.Replacer {
	pairs := make([]string, 0, 2*len(t.fields))
	for _, f := range t.fields {
		pairs = append(pairs, f.Instance+"."+f.Name, f.Instance+"."+f.Short)
	}
	return strings.NewReplacer(pairs...)
}

func replaceRefs(line string, refs *strings.Replacer) string {
	if !strings.Contains(line, ".") {
		return line
	}
	return refs.Replace(line)
}

func keepSet(opts Options) map[string]bool {
	keep := opts.Keep
	if keep == nil {
		keep = DefaultKeep
	}
	set := make(map[string]bool, len(keep))
	for _, k := range keep {
		set[k] = true
	}
	return set
}

type fieldDecl struct {
	line  int
	typ   string
	name  string
	array string
}
