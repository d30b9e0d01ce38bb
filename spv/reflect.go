// Copyright 2026 The GoGPU Authors
// SPDX-License-Identifier: MIT

package spv

import (
	"sort"

	"github.com/cockroachdb/errors"
)

// Resource is a global shader resource with its binding decorations.
type Resource struct {
	ID            uint32
	Name          string
	DescriptorSet uint32
	Binding       uint32
}

// Resources lists the bindable globals of a module, grouped the way
// cross-compilers consume them. Each group is ordered by (set, binding, id).
type Resources struct {
	ExecutionModel   ExecutionModel
	SampledImages    []Resource
	SeparateImages   []Resource
	SeparateSamplers []Resource
	UniformBuffers   []Resource
	StorageBuffers   []Resource
}

type typeInfo struct {
	op      OpCode
	elem    uint32 // element type for arrays, pointee for pointers
	storage StorageClass
}

type decorations struct {
	set, binding       uint32
	block, bufferBlock bool
}

// Reflect walks the module and collects its resources. The execution model
// is taken from the first entry point.
func Reflect(b Blob) (*Resources, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	var (
		res       Resources
		haveEntry bool
		names     = make(map[uint32]string)
		decos     = make(map[uint32]*decorations)
		types     = make(map[uint32]typeInfo)
		variables []struct{ id, typ uint32 }
	)
	deco := func(id uint32) *decorations {
		d, ok := decos[id]
		if !ok {
			d = &decorations{}
			decos[id] = d
		}
		return d
	}

	err := b.walk(func(in Instruction) {
		ops := in.Operands
		switch in.Op {
		case OpEntryPoint:
			if !haveEntry && len(ops) >= 1 {
				res.ExecutionModel = ExecutionModel(ops[0])
				haveEntry = true
			}
		case OpName:
			if len(ops) >= 2 {
				names[ops[0]], _ = decodeString(ops[1:])
			}
		case OpDecorate:
			if len(ops) < 2 {
				return
			}
			d := deco(ops[0])
			switch Decoration(ops[1]) {
			case DecorationBlock:
				d.block = true
			case DecorationBufferBlock:
				d.bufferBlock = true
			case DecorationBinding:
				if len(ops) >= 3 {
					d.binding = ops[2]
				}
			case DecorationDescriptorSet:
				if len(ops) >= 3 {
					d.set = ops[2]
				}
			}
		case OpTypeImage, OpTypeSampler, OpTypeSampledImage, OpTypeStruct:
			if len(ops) >= 1 {
				types[ops[0]] = typeInfo{op: in.Op}
			}
		case OpTypeArray, OpTypeRuntimeArray:
			if len(ops) >= 2 {
				types[ops[0]] = typeInfo{op: in.Op, elem: ops[1]}
			}
		case OpTypePointer:
			if len(ops) >= 3 {
				types[ops[0]] = typeInfo{op: in.Op, storage: StorageClass(ops[1]), elem: ops[2]}
			}
		case OpVariable:
			if len(ops) >= 2 {
				variables = append(variables, struct{ id, typ uint32 }{ops[1], ops[0]})
			}
		}
	})
	if err != nil {
		return nil, err
	}
	if !haveEntry {
		return nil, errors.New("spirv: module has no entry point")
	}

	for _, v := range variables {
		ptr, ok := types[v.typ]
		if !ok || ptr.op != OpTypePointer {
			continue
		}
		baseID := unwrapArrays(types, ptr.elem)
		base := types[baseID]

		r := Resource{ID: v.id, Name: names[v.id]}
		if d := decos[v.id]; d != nil {
			r.DescriptorSet, r.Binding = d.set, d.binding
		}
		if r.Name == "" {
			r.Name = names[baseID]
		}

		switch ptr.storage {
		case StorageClassUniformConstant:
			switch base.op {
			case OpTypeSampledImage:
				res.SampledImages = append(res.SampledImages, r)
			case OpTypeImage:
				res.SeparateImages = append(res.SeparateImages, r)
			case OpTypeSampler:
				res.SeparateSamplers = append(res.SeparateSamplers, r)
			}
		case StorageClassUniform:
			if base.op != OpTypeStruct {
				continue
			}
			d := decos[baseID]
			switch {
			case d != nil && d.bufferBlock:
				res.StorageBuffers = append(res.StorageBuffers, r)
			case d != nil && d.block:
				res.UniformBuffers = append(res.UniformBuffers, r)
			}
		case StorageClassStorageBuffer:
			if base.op == OpTypeStruct {
				res.StorageBuffers = append(res.StorageBuffers, r)
			}
		}
	}

	for _, group := range [][]Resource{res.SampledImages, res.SeparateImages,
		res.SeparateSamplers, res.UniformBuffers, res.StorageBuffers} {
		sortResources(group)
	}
	return &res, nil
}

func unwrapArrays(types map[uint32]typeInfo, id uint32) uint32 {
	// Bounded by the number of types so a malformed cycle cannot spin.
	for range len(types) {
		t, ok := types[id]
		if !ok || (t.op != OpTypeArray && t.op != OpTypeRuntimeArray) {
			break
		}
		id = t.elem
	}
	return id
}

func sortResources(rs []Resource) {
	sort.SliceStable(rs, func(i, j int) bool {
		a, b := rs[i], rs[j]
		if a.DescriptorSet != b.DescriptorSet {
			return a.DescriptorSet < b.DescriptorSet
		}
		if a.Binding != b.Binding {
			return a.Binding < b.Binding
		}
		return a.ID < b.ID
	})
}
