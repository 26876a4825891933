// Package action provides ImportAction, the scoped builder used to
// accumulate a batch of block imports and auxiliary edits into a single
// store.Operation and settle it atomically.
package action

import (
	"github.com/rust-blockchain/blockchain/chain"
	"github.com/rust-blockchain/blockchain/store"
)

// Locker is the subset of store/memory.Shared's surface ImportAction needs:
// somewhere to hold the import lock for the action's whole lifetime, and the
// query surface to read parent state and existing blocks while building the
// pending operation.
type Locker[I comparable, B chain.Block[I], S any, A chain.Auxiliary[I]] interface {
	store.ChainQuery[I, B, S, A]
	Lock()
	Unlock()
}

// Backend is the store.Store a Locker wraps, handed to store.Settle once an
// ImportAction commits.
type Backend[I comparable, B chain.Block[I], S any, A chain.Auxiliary[I]] interface {
	store.Store[I, B, S, A]
}

// ImportAction accumulates block imports, a head change, and auxiliary
// edits against a locked backend, then applies them as one store.Operation
// on Commit. The import lock taken in New is held until Commit or Discard
// returns; callers must call exactly one of them.
type ImportAction[I comparable, B chain.Block[I], S chain.AsExternalities, A chain.Auxiliary[I]] struct {
	locked   Locker[I, B, S, A]
	backend  Backend[I, B, S, A]
	executor chain.BlockExecutor[I, B]

	op       store.Operation[I, B, S, A]
	finished bool
}

// New opens an ImportAction against backend, taking its import lock. The
// lock is released exactly once, by Commit or Discard.
func New[I comparable, B chain.Block[I], S chain.AsExternalities, A chain.Auxiliary[I]](
	locked Locker[I, B, S, A],
	backend Backend[I, B, S, A],
	executor chain.BlockExecutor[I, B],
) *ImportAction[I, B, S, A] {
	locked.Lock()
	return &ImportAction[I, B, S, A]{locked: locked, backend: backend, executor: executor}
}

// ImportRaw queues block and its already-computed state for import without
// running the executor. Used for imports whose validity is established some
// other way (trusted sync, checkpoint restore).
func (a *ImportAction[I, B, S, A]) ImportRaw(block B, state S) {
	a.op.ImportBlock = append(a.op.ImportBlock, store.ImportOperation[B, S]{Block: block, State: state})
}

// ImportBlock executes block against state (typically a clone of its
// parent's state) via the action's executor, then queues the pair for
// import if execution succeeds. A block with no parent fails with
// chain.ErrIsGenesis before the executor runs.
func (a *ImportAction[I, B, S, A]) ImportBlock(block B, state S) error {
	if _, ok := block.ParentID(); !ok {
		return chain.ErrIsGenesis
	}
	if err := a.executor.ExecuteBlock(block, state.AsExternalities()); err != nil {
		return &chain.ExecutorError{Err: err}
	}
	a.ImportRaw(block, state)
	return nil
}

// SetHead queues a canonical head change to id.
func (a *ImportAction[I, B, S, A]) SetHead(id I) {
	a.op.SetHead = &id
}

// InsertAuxiliary queues aux to be stored once the operation commits.
func (a *ImportAction[I, B, S, A]) InsertAuxiliary(aux A) {
	a.op.InsertAuxiliaries = append(a.op.InsertAuxiliaries, aux)
}

// RemoveAuxiliary queues the auxiliary stored under key for removal.
func (a *ImportAction[I, B, S, A]) RemoveAuxiliary(key string) {
	a.op.RemoveAuxiliaries = append(a.op.RemoveAuxiliaries, key)
}

// Query exposes the locked backend's read surface, for callers that need to
// look up parent state or existing blocks while building the operation.
func (a *ImportAction[I, B, S, A]) Query() store.ChainQuery[I, B, S, A] { return a.locked }

// Commit settles the accumulated operation against the backend and releases
// the import lock. Commit must be called at most once; calling it after
// Discard, or twice, panics.
func (a *ImportAction[I, B, S, A]) Commit() error {
	if a.finished {
		panic("blockchain: ImportAction committed or discarded twice")
	}
	defer a.finish()
	return store.Settle[I, B, S, A](a.op, a.backend)
}

// Discard releases the import lock without applying any of the queued
// changes. Discard must be called at most once; calling it after Commit, or
// twice, panics.
func (a *ImportAction[I, B, S, A]) Discard() {
	a.finish()
}

func (a *ImportAction[I, B, S, A]) finish() {
	if a.finished {
		panic("blockchain: ImportAction committed or discarded twice")
	}
	a.finished = true
	a.locked.Unlock()
}
