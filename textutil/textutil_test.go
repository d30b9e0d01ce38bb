// Copyright 2026 The GoGPU Authors
// SPDX-License-Identifier: MIT

package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShrink(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"indent", "void main()\n{\n    gl_Position = p;\n}\n", "void main()\n{\ngl_Position = p;\n}\n"},
		{"blank lines", "a;\n\n\n\tb;\n", "a;\nb;\n"},
		{"whitespace only line", "a;\n   \t\nb;\n", "a;\nb;\n"},
		{"leading newlines", "\n\na;\n", "a;\n"},
		{"missing final newline", "a;\n  b;", "a;\nb;\n"},
		{"crlf", "a;\r\n  b;\r\n", "a;\nb;\n"},
		{"trailing spaces kept", "a;  \n", "a;  \n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Shrink(tt.in))
		})
	}
}

func TestShrinkIdempotent(t *testing.T) {
	src := "#version 300 es\n\nprecision mediump float;\n\n  layout(std140) uniform FrameUniforms\n  {\n      vec4 color;\n  } frame;\n"
	once := Shrink(src)
	assert.Equal(t, once, Shrink(once))
}

func TestLinesJoin(t *testing.T) {
	lines := Lines("a\n\nb\nc")
	require.Equal(t, []string{"a", "b", "c"}, lines)
	assert.Equal(t, "a\nb\nc\n", Join(lines))
	assert.Empty(t, Lines(""))
	assert.Equal(t, "", Join(nil))
}

func TestScannerIdentifier(t *testing.T) {
	s := NewScanner("vec4 _color0;")
	id, ok := s.Identifier()
	require.True(t, ok)
	assert.Equal(t, "vec4", id)
	assert.Equal(t, 4, s.Pos())

	_, ok = s.Identifier()
	assert.False(t, ok, "space is not an identifier start")
	require.True(t, s.Byte(' '))

	id, ok = s.Identifier()
	require.True(t, ok)
	assert.Equal(t, "_color0", id)
	require.True(t, s.Byte(';'))
	assert.True(t, s.Done())

	_, ok = NewScanner("0abc").Identifier()
	assert.False(t, ok, "identifiers cannot start with a digit")
}

func TestScannerFind(t *testing.T) {
	s := NewScanner("layout(std140) uniform FrameUniforms")
	require.True(t, s.Find("uniform "))
	id, ok := s.Identifier()
	require.True(t, ok)
	assert.Equal(t, "FrameUniforms", id)
	assert.True(t, s.Done())

	s = NewScanner("float x;")
	assert.False(t, s.Find("uniform "))
	assert.Equal(t, 0, s.Pos())
}

func TestScannerArraySize(t *testing.T) {
	tests := []struct {
		line string
		want string
		pos  int
	}{
		{"[4];", "[4]", 3},
		{"[MAX_LIGHTS * 2];", "[MAX_LIGHTS * 2]", 16},
		{";", "", 0},
		{"[4", "[4", 2},
		{"", "", 0},
	}
	for _, tt := range tests {
		s := NewScanner(tt.line)
		assert.Equal(t, tt.want, s.ArraySize(), tt.line)
		assert.Equal(t, tt.pos, s.Pos(), tt.line)
	}
}
