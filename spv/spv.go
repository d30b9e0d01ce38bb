// Copyright 2026 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package spv holds SPIR-V modules as word slices and reflects the shader
// resources the cross-compilers need to bind.
package spv

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
)

// MagicNumber is the first word of every SPIR-V module.
const MagicNumber = 0x07230203

// HeaderWords is the number of words in the module header.
const HeaderWords = 5

// Blob is a SPIR-V module in host word order.
type Blob []uint32

// FromBytes decodes a little-endian SPIR-V binary as written by the Khronos
// tools. Byte-swapped modules are detected by their magic number.
func FromBytes(data []byte) (Blob, error) {
	if len(data)%4 != 0 {
		return nil, errors.Newf("spirv: size %d is not a multiple of 4", len(data))
	}
	if len(data) < HeaderWords*4 {
		return nil, errors.Newf("spirv: module too short (%d bytes)", len(data))
	}
	var order binary.ByteOrder = binary.LittleEndian
	if binary.BigEndian.Uint32(data) == MagicNumber {
		order = binary.BigEndian
	}
	words := make(Blob, len(data)/4)
	for i := range words {
		words[i] = order.Uint32(data[i*4:])
	}
	if err := words.Validate(); err != nil {
		return nil, err
	}
	return words, nil
}

// Bytes encodes the module in little-endian byte order.
func (b Blob) Bytes() []byte {
	out := make([]byte, len(b)*4)
	for i, w := range b {
		binary.LittleEndian.PutUint32(out[i*4:], w)
	}
	return out
}

// Validate checks the header and that every instruction fits in the module.
func (b Blob) Validate() error {
	if len(b) < HeaderWords {
		return errors.Newf("spirv: module too short (%d words)", len(b))
	}
	if b[0] != MagicNumber {
		return errors.Newf("spirv: bad magic number 0x%08x", b[0])
	}
	return b.walk(func(Instruction) {})
}

// Version returns the major and minor SPIR-V version from the header.
func (b Blob) Version() (major, minor uint8) {
	if len(b) < 2 {
		return 0, 0
	}
	return uint8(b[1] >> 16), uint8(b[1] >> 8)
}

// Bound returns the id bound from the header.
func (b Blob) Bound() uint32 {
	if len(b) < 4 {
		return 0
	}
	return b[3]
}

// Instruction is one decoded instruction. Operands alias the blob.
type Instruction struct {
	Op       OpCode
	Operands []uint32
}

func (b Blob) walk(fn func(Instruction)) error {
	for offset := HeaderWords; offset < len(b); {
		word := b[offset]
		count := int(word >> 16)
		if count == 0 {
			return errors.Newf("spirv: zero-length instruction at word %d", offset)
		}
		if offset+count > len(b) {
			return errors.Newf("spirv: instruction at word %d overruns module", offset)
		}
		fn(Instruction{Op: OpCode(word & 0xffff), Operands: b[offset+1 : offset+count]})
		offset += count
	}
	return nil
}

// decodeString reads a nul-terminated literal string packed into words.
// It returns the string and the number of words it occupied.
func decodeString(words []uint32) (string, int) {
	buf := make([]byte, 0, len(words)*4)
	for i, w := range words {
		for shift := 0; shift < 32; shift += 8 {
			c := byte(w >> shift)
			if c == 0 {
				return string(buf), i + 1
			}
			buf = append(buf, c)
		}
	}
	return string(buf), len(words)
}

// OpCode is a SPIR-V opcode.
type OpCode uint16

// Opcodes inspected by reflection.
const (
	OpName             OpCode = 5
	OpEntryPoint       OpCode = 15
	OpTypeImage        OpCode = 25
	OpTypeSampler      OpCode = 26
	OpTypeSampledImage OpCode = 27
	OpTypeArray        OpCode = 28
	OpTypeRuntimeArray OpCode = 29
	OpTypeStruct       OpCode = 30
	OpTypePointer      OpCode = 32
	OpVariable         OpCode = 59
	OpDecorate         OpCode = 71
)

// Decoration is a SPIR-V decoration.
type Decoration uint32

const (
	DecorationBlock         Decoration = 2
	DecorationBufferBlock   Decoration = 3
	DecorationBinding       Decoration = 33
	DecorationDescriptorSet Decoration = 34
)

// StorageClass is a SPIR-V storage class.
type StorageClass uint32

const (
	StorageClassUniformConstant StorageClass = 0
	StorageClassUniform         StorageClass = 2
	StorageClassStorageBuffer   StorageClass = 12
)

// ExecutionModel is the pipeline stage of an entry point.
type ExecutionModel uint32

const (
	ExecutionModelVertex    ExecutionModel = 0
	ExecutionModelFragment  ExecutionModel = 4
	ExecutionModelGLCompute ExecutionModel = 5
)

func (m ExecutionModel) String() string {
	switch m {
	case ExecutionModelVertex:
		return "vertex"
	case ExecutionModelFragment:
		return "fragment"
	case ExecutionModelGLCompute:
		return "compute"
	default:
		return "unknown"
	}
}
