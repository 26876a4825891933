package importer

import (
	"github.com/rust-blockchain/blockchain/action"
	"github.com/rust-blockchain/blockchain/chain"
	"github.com/rust-blockchain/blockchain/store"
)

// BuildableState is the capability a DepthImporter needs from a state
// snapshot: it must be clonable (so the importer can fork a fresh mutable
// view off the parent's state) and able to hand out an Externalities view
// for the executor.
type BuildableState[S any] interface {
	chain.AsExternalities
	Clone() S
}

// BestDepthStatus is the outcome of comparing a candidate block's depth
// against the current canonical head.
type BestDepthStatus struct {
	// ShouldSetHead reports whether the candidate is strictly deeper than
	// the current head and should therefore become the new head. Ties are
	// never a reason to reorg: the existing head is kept.
	ShouldSetHead bool
	Depth         uint64
}

// BestDepthStatusProducer computes a BestDepthStatus for a candidate
// block's depth against query's current head. ComputeBestDepthStatus
// implements "longest chain wins, ties keep the current head". DepthImporter
// always calls ComputeBestDepthStatus directly; it takes no producer, and
// nothing in this package accepts a different one.
type BestDepthStatusProducer[I comparable, B chain.Block[I], S any, A chain.Auxiliary[I]] func(
	query store.ChainQuery[I, B, S, A],
	candidateDepth uint64,
) (BestDepthStatus, error)

// ComputeBestDepthStatus implements the reference fork-choice rule used by
// DepthImporter: a candidate becomes head only if its depth is strictly
// greater than the current head's.
func ComputeBestDepthStatus[I comparable, B chain.Block[I], S any, A chain.Auxiliary[I]](
	query store.ChainQuery[I, B, S, A],
	candidateDepth uint64,
) (BestDepthStatus, error) {
	headDepth, err := query.DepthAt(query.Head())
	if err != nil {
		return BestDepthStatus{}, err
	}
	return BestDepthStatus{
		ShouldSetHead: candidateDepth > headDepth,
		Depth:         candidateDepth,
	}, nil
}

// DepthImporter is the reference Importer: it imports every block it's
// given, executing it against a clone of its parent's state, and moves the
// canonical head to it whenever doing so would strictly increase depth.
// A block whose depth does not exceed the head's is stored without moving
// the head; its branch becomes canonical only once a later descendant is
// strictly deeper than the head.
type DepthImporter[I comparable, B chain.Block[I], S BuildableState[S], A chain.Auxiliary[I]] struct {
	locked   action.Locker[I, B, S, A]
	backend  action.Backend[I, B, S, A]
	executor chain.BlockExecutor[I, B]
}

// NewDepthImporter builds a DepthImporter over locked/backend, using
// executor to validate and apply each imported block.
func NewDepthImporter[I comparable, B chain.Block[I], S BuildableState[S], A chain.Auxiliary[I]](
	locked action.Locker[I, B, S, A],
	backend action.Backend[I, B, S, A],
	executor chain.BlockExecutor[I, B],
) *DepthImporter[I, B, S, A] {
	return &DepthImporter[I, B, S, A]{locked: locked, backend: backend, executor: executor}
}

// ImportRaw queues a pre-executed block/state pair and sets head on it if it
// is strictly deeper than the current head.
func (d *DepthImporter[I, B, S, A]) ImportRaw(block B, state S) error {
	act := action.New[I, B, S, A](d.locked, d.backend, d.executor)
	act.ImportRaw(block, state)

	status, err := d.depthOf(act.Query(), block)
	if err != nil {
		act.Discard()
		return err
	}
	if status.ShouldSetHead {
		act.SetHead(block.ID())
	}
	return act.Commit()
}

// ImportBlock executes block against a clone of its parent's state and
// imports it, moving head to it if doing so would strictly increase depth.
func (d *DepthImporter[I, B, S, A]) ImportBlock(block B) error {
	parentID, ok := block.ParentID()
	if !ok {
		return chain.ErrIsGenesis
	}

	act := action.New[I, B, S, A](d.locked, d.backend, d.executor)

	parentState, err := act.Query().StateAt(parentID)
	if err != nil {
		act.Discard()
		return err
	}
	state := parentState.Clone()

	if err := act.ImportBlock(block, state); err != nil {
		act.Discard()
		return err
	}

	status, err := d.depthOf(act.Query(), block)
	if err != nil {
		act.Discard()
		return err
	}
	if status.ShouldSetHead {
		act.SetHead(block.ID())
	}
	return act.Commit()
}

func (d *DepthImporter[I, B, S, A]) depthOf(query store.ChainQuery[I, B, S, A], block B) (BestDepthStatus, error) {
	parentID, ok := block.ParentID()
	if !ok {
		return BestDepthStatus{}, chain.ErrIsGenesis
	}
	parentDepth, err := query.DepthAt(parentID)
	if err != nil {
		return BestDepthStatus{}, err
	}
	return ComputeBestDepthStatus[I, B, S, A](query, parentDepth+1)
}
