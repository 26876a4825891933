// Package builder implements BlockBuilder, the cooperative three-phase
// protocol (initialize, apply extrinsics, finalize) a chain.BuilderExecutor
// uses to author a new block on top of a known parent.
package builder

import (
	"github.com/rust-blockchain/blockchain/chain"
)

// BlockBuilder drives a chain.BuilderExecutor through the lifecycle of a
// single new block: InitializeBlock, zero or more ApplyExtrinsic calls, and
// finally FinalizeBlock. It is single-use; construct a new one per block.
type BlockBuilder[I comparable, B chain.Block[I], S chain.AsExternalities, Inherent any, Extrinsic any, BuildBlock any] struct {
	executor chain.BuilderExecutor[I, B, Inherent, Extrinsic, BuildBlock]

	parent B
	state  S
	build  BuildBlock

	finalized bool
}

// New initializes a block on top of parent, using state (typically a clone
// of the parent's post-execution state) as the mutable view the executor
// will fold extrinsics into.
func New[I comparable, B chain.Block[I], S chain.AsExternalities, Inherent any, Extrinsic any, BuildBlock any](
	executor chain.BuilderExecutor[I, B, Inherent, Extrinsic, BuildBlock],
	parent B,
	state S,
	inherent Inherent,
) (*BlockBuilder[I, B, S, Inherent, Extrinsic, BuildBlock], error) {
	build, err := executor.InitializeBlock(parent, state.AsExternalities(), inherent)
	if err != nil {
		return nil, &chain.ExecutorError{Err: err}
	}
	return &BlockBuilder[I, B, S, Inherent, Extrinsic, BuildBlock]{
		executor: executor,
		parent:   parent,
		state:    state,
		build:    build,
	}, nil
}

// ApplyExtrinsic folds extrinsic into the in-progress block. On failure the
// builder must be discarded: the executor is not required to leave build or
// state in a consistent state after an error.
func (bb *BlockBuilder[I, B, S, Inherent, Extrinsic, BuildBlock]) ApplyExtrinsic(extrinsic Extrinsic) error {
	if err := bb.executor.ApplyExtrinsic(&bb.build, extrinsic, bb.state.AsExternalities()); err != nil {
		return &chain.ExecutorError{Err: err}
	}
	return nil
}

// Finalize seals the in-progress block and returns it along with the state
// it produced. Finalize must be called at most once.
func (bb *BlockBuilder[I, B, S, Inherent, Extrinsic, BuildBlock]) Finalize() (B, S, error) {
	if bb.finalized {
		panic("blockchain: BlockBuilder finalized twice")
	}
	bb.finalized = true

	block, err := bb.executor.FinalizeBlock(&bb.build, bb.state.AsExternalities())
	if err != nil {
		var zero B
		return zero, bb.state, &chain.ExecutorError{Err: err}
	}
	return block, bb.state, nil
}
