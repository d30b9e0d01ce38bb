// Copyright 2026 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package profile builds the ordered SPIR-V optimizer pass lists used for the
// size and performance optimization levels.
//
// Pass identifiers are spirv-opt flag names without the leading dashes. The
// lists are order sensitive and contain deliberate repetitions: later passes
// clean up after earlier ones.
package profile

import (
	"github.com/gogpu/glslpost/target"
)

// Pass names a single SPIR-V transformation.
type Pass string

// Flag returns the spirv-opt command line flag for the pass.
func (p Pass) Flag() string { return "--" + string(p) }

// Passes used by the profiles.
const (
	WrapOpKill                    Pass = "wrap-opkill"
	DeadBranchElim                Pass = "eliminate-dead-branches"
	MergeReturn                   Pass = "merge-return"
	InlineExhaustive              Pass = "inline-entry-points-exhaustive"
	AggressiveDCE                 Pass = "eliminate-dead-code-aggressive"
	PrivateToLocal                Pass = "private-to-local"
	LocalSingleBlockLoadStoreElim Pass = "eliminate-local-single-block"
	LocalSingleStoreElim          Pass = "eliminate-local-single-store"
	ScalarReplacement             Pass = "scalar-replacement"
	ScalarReplacementUnlimited    Pass = "scalar-replacement=0"
	LocalAccessChainConvert       Pass = "convert-local-access-chains"
	LocalMultiStoreElim           Pass = "eliminate-local-multi-store"
	CCP                           Pass = "ccp"
	RedundancyElimination         Pass = "redundancy-elimination"
	CombineAccessChains           Pass = "combine-access-chains"
	Simplification                Pass = "simplify-instructions"
	VectorDCE                     Pass = "vector-dce"
	DeadInsertElim                Pass = "eliminate-dead-inserts"
	IfConversion                  Pass = "if-conversion"
	CopyPropagateArrays           Pass = "copy-propagate-arrays"
	ReduceLoadSize                Pass = "reduce-load-size"
	BlockMerge                    Pass = "merge-blocks"
	EliminateDeadFunctions        Pass = "eliminate-dead-functions"
	LoopUnroll                    Pass = "loop-unroll"
	CFGCleanup                    Pass = "cfg-cleanup"
)

var performanceTail = []Pass{
	InlineExhaustive,
	AggressiveDCE,
	PrivateToLocal,
	LocalSingleBlockLoadStoreElim,
	LocalSingleStoreElim,
	AggressiveDCE,
	ScalarReplacement,
	LocalAccessChainConvert,
	LocalSingleBlockLoadStoreElim,
	LocalSingleStoreElim,
	AggressiveDCE,
	LocalMultiStoreElim,
	AggressiveDCE,
	CCP,
	AggressiveDCE,
	RedundancyElimination,
	CombineAccessChains,
	Simplification,
	VectorDCE,
	DeadInsertElim,
	DeadBranchElim,
	Simplification,
	IfConversion,
	CopyPropagateArrays,
	ReduceLoadSize,
	AggressiveDCE,
	BlockMerge,
	RedundancyElimination,
	DeadBranchElim,
	BlockMerge,
	Simplification,
}

var sizeTail = []Pass{
	InlineExhaustive,
	EliminateDeadFunctions,
	PrivateToLocal,
	ScalarReplacementUnlimited,
	LocalMultiStoreElim,
	CCP,
	LoopUnroll,
	DeadBranchElim,
	Simplification,
	ScalarReplacementUnlimited,
	LocalSingleStoreElim,
	IfConversion,
	Simplification,
	AggressiveDCE,
	DeadBranchElim,
	BlockMerge,
	LocalAccessChainConvert,
	LocalSingleBlockLoadStoreElim,
	AggressiveDCE,
	CopyPropagateArrays,
	VectorDCE,
	DeadInsertElim,
	LocalSingleStoreElim,
	BlockMerge,
	LocalMultiStoreElim,
	RedundancyElimination,
	Simplification,
	AggressiveDCE,
	CFGCleanup,
}

// Performance returns the pass list tuned for runtime speed.
func Performance(model target.ShaderModel) []Pass {
	return build(model, performanceTail)
}

// Size returns the pass list tuned for output size.
func Size(model target.ShaderModel) []Pass {
	return build(model, sizeTail)
}

func build(model target.ShaderModel, tail []Pass) []Pass {
	passes := make([]Pass, 0, 3+len(tail))
	passes = append(passes, WrapOpKill, DeadBranchElim)
	// merge-return crashes some desktop GL 4.1 drivers.
	if model != target.ShaderModelGLCore41 {
		passes = append(passes, MergeReturn)
	}
	return append(passes, tail...)
}

// Flags returns the spirv-opt command line flags for passes, in order.
func Flags(passes []Pass) []string {
	flags := make([]string, len(passes))
	for i, p := range passes {
		flags[i] = p.Flag()
	}
	return flags
}
