// Copyright 2026 The GoGPU Authors
// SPDX-License-Identifier: MIT

package spv

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// asm is a minimal instruction assembler for building test modules.
type asm struct {
	words Blob
}

func newAsm() *asm {
	return &asm{words: Blob{MagicNumber, 0x00010000, 0, 100, 0}}
}

func (a *asm) op(op OpCode, operands ...uint32) *asm {
	a.words = append(a.words, uint32(len(operands)+1)<<16|uint32(op))
	a.words = append(a.words, operands...)
	return a
}

func (a *asm) name(id uint32, s string) *asm {
	return a.op(OpName, append([]uint32{id}, packString(s)...)...)
}

func packString(s string) []uint32 {
	b := append([]byte(s), 0)
	for len(b)%4 != 0 {
		b = append(b, 0)
	}
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return words
}

// fragmentModule declares:
//
//	layout(set=0, binding=2) uniform sampler2D albedo;       (id 10)
//	layout(set=1, binding=0) uniform FrameUniforms {...} fu;  (id 11)
//	layout(set=0, binding=1) uniform sampler2D shadows[4];   (id 12)
//	layout(set=2, binding=3) buffer Lights {...} lights;      (id 13)
//	layout(set=0, binding=5) uniform texture2D tex;          (id 14)
//	layout(set=0, binding=6) uniform sampler smp;            (id 15)
func fragmentModule() Blob {
	a := newAsm()
	a.op(OpEntryPoint, uint32(ExecutionModelFragment), 1, packString("main")[0], packString("main")[1])
	a.name(10, "albedo").name(11, "fu").name(12, "shadows").name(13, "lights")
	a.name(21, "FrameUniforms")
	a.op(OpDecorate, 10, uint32(DecorationDescriptorSet), 0)
	a.op(OpDecorate, 10, uint32(DecorationBinding), 2)
	a.op(OpDecorate, 11, uint32(DecorationDescriptorSet), 1)
	a.op(OpDecorate, 11, uint32(DecorationBinding), 0)
	a.op(OpDecorate, 12, uint32(DecorationDescriptorSet), 0)
	a.op(OpDecorate, 12, uint32(DecorationBinding), 1)
	a.op(OpDecorate, 13, uint32(DecorationDescriptorSet), 2)
	a.op(OpDecorate, 13, uint32(DecorationBinding), 3)
	a.op(OpDecorate, 14, uint32(DecorationBinding), 5)
	a.op(OpDecorate, 15, uint32(DecorationBinding), 6)
	a.op(OpDecorate, 21, uint32(DecorationBlock))
	a.op(OpDecorate, 23, uint32(DecorationBufferBlock))

	a.op(OpTypeImage, 30, 2, 1, 0, 0, 0, 1, 0)
	a.op(OpTypeSampledImage, 31, 30)
	a.op(OpTypePointer, 32, uint32(StorageClassUniformConstant), 31)
	a.op(OpTypeStruct, 21, 2)
	a.op(OpTypePointer, 33, uint32(StorageClassUniform), 21)
	a.op(OpTypeArray, 34, 31, 40)
	a.op(OpTypePointer, 35, uint32(StorageClassUniformConstant), 34)
	a.op(OpTypeStruct, 23, 2)
	a.op(OpTypePointer, 36, uint32(StorageClassUniform), 23)
	a.op(OpTypePointer, 37, uint32(StorageClassUniformConstant), 30)
	a.op(OpTypeSampler, 38)
	a.op(OpTypePointer, 39, uint32(StorageClassUniformConstant), 38)

	a.op(OpVariable, 32, 10, uint32(StorageClassUniformConstant))
	a.op(OpVariable, 33, 11, uint32(StorageClassUniform))
	a.op(OpVariable, 35, 12, uint32(StorageClassUniformConstant))
	a.op(OpVariable, 36, 13, uint32(StorageClassUniform))
	a.op(OpVariable, 37, 14, uint32(StorageClassUniformConstant))
	a.op(OpVariable, 39, 15, uint32(StorageClassUniformConstant))
	return a.words
}

func TestBlobBytesRoundTrip(t *testing.T) {
	blob := fragmentModule()
	got, err := FromBytes(blob.Bytes())
	require.NoError(t, err)
	assert.Equal(t, blob, got)

	major, minor := got.Version()
	assert.Equal(t, uint8(1), major)
	assert.Equal(t, uint8(0), minor)
	assert.Equal(t, uint32(100), got.Bound())
}

func TestFromBytesBigEndian(t *testing.T) {
	blob := fragmentModule()
	data := make([]byte, len(blob)*4)
	for i, w := range blob {
		binary.BigEndian.PutUint32(data[i*4:], w)
	}
	got, err := FromBytes(data)
	require.NoError(t, err)
	assert.Equal(t, blob, got)
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name string
		blob Blob
	}{
		{"short", Blob{MagicNumber, 0}},
		{"magic", Blob{0xdeadbeef, 0, 0, 0, 0}},
		{"zero length", Blob{MagicNumber, 0, 0, 0, 0, 0}},
		{"overrun", Blob{MagicNumber, 0, 0, 0, 0, 3<<16 | uint32(OpName), 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.blob.Validate())
		})
	}

	_, err := FromBytes([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestReflect(t *testing.T) {
	res, err := Reflect(fragmentModule())
	require.NoError(t, err)

	assert.Equal(t, ExecutionModelFragment, res.ExecutionModel)
	assert.Equal(t, []Resource{
		{ID: 12, Name: "shadows", DescriptorSet: 0, Binding: 1},
		{ID: 10, Name: "albedo", DescriptorSet: 0, Binding: 2},
	}, res.SampledImages)
	assert.Equal(t, []Resource{{ID: 11, Name: "fu", DescriptorSet: 1, Binding: 0}}, res.UniformBuffers)
	assert.Equal(t, []Resource{{ID: 13, Name: "lights", DescriptorSet: 2, Binding: 3}}, res.StorageBuffers)
	assert.Equal(t, []Resource{{ID: 14, Binding: 5}}, res.SeparateImages)
	assert.Equal(t, []Resource{{ID: 15, Binding: 6}}, res.SeparateSamplers)
}

func TestReflectNoEntryPoint(t *testing.T) {
	_, err := Reflect(newAsm().op(OpTypeSampler, 38).words)
	assert.Error(t, err)
}

func TestDecodeString(t *testing.T) {
	s, n := decodeString(packString("main"))
	assert.Equal(t, "main", s)
	assert.Equal(t, 2, n)

	s, n = decodeString(packString("abc"))
	assert.Equal(t, "abc", s)
	assert.Equal(t, 1, n)
}

func TestExecutionModelString(t *testing.T) {
	assert.Equal(t, "vertex", ExecutionModelVertex.String())
	assert.Equal(t, "fragment", ExecutionModelFragment.String())
	assert.Equal(t, "compute", ExecutionModelGLCompute.String())
	assert.Equal(t, "unknown", ExecutionModel(99).String())
}
