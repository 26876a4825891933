// Package store defines the read-side query surface and low-level mutation
// primitives for the block tree, plus the Operation type and settlement
// algorithm that is the only sanctioned way to mutate a Store.
//
// This mirrors the backend::{ChainQuery, ChainSettlement, Operation} split
// of the reference design: ChainSettlement methods are unchecked and are
// only ever called by Settle after it has fully pre-validated a batch.
package store

import "github.com/rust-blockchain/blockchain/chain"

// ChainQuery is the read surface of a Store. Every method here is
// infallible except where the backend itself may fail on I/O; missing
// identifiers return chain.ErrNotExist, other lookups return the zero value
// and false.
type ChainQuery[I comparable, B chain.Block[I], S any, A chain.Auxiliary[I]] interface {
	// Genesis returns the identifier of the unique depth-0 block.
	Genesis() I

	// Head returns the current canonical tip identifier.
	Head() I

	// Contains reports whether id has been imported.
	Contains(id I) (bool, error)

	// IsCanon reports whether id lies on the canonical chain from genesis
	// to head.
	IsCanon(id I) (bool, error)

	// LookupCanonDepth returns the canonical block at depth, if any.
	LookupCanonDepth(depth uint64) (I, bool, error)

	// Auxiliary returns the auxiliary record stored under key, if any.
	Auxiliary(key string) (A, bool, error)

	// DepthAt returns the depth of id. Fails with chain.ErrNotExist if id is
	// unknown.
	DepthAt(id I) (uint64, error)

	// ChildrenAt returns the identifiers whose parent is id.
	ChildrenAt(id I) ([]I, error)

	// StateAt returns the state snapshot associated with id. Fails with
	// chain.ErrNotExist if id is unknown.
	StateAt(id I) (S, error)

	// BlockAt returns the block stored under id. Fails with chain.ErrNotExist
	// if id is unknown.
	BlockAt(id I) (B, error)
}

// ChainSettlement is the low-level mutation surface of a Store. Every method
// here is an unchecked write; all preconditions (connectivity, existence of
// a set-head target, auxiliary dependency closure) are enforced by Settle
// before any of these are called.
type ChainSettlement[I comparable, B chain.Block[I], S any, A chain.Auxiliary[I]] interface {
	// InsertBlock writes a new, initially non-canonical block with no
	// children recorded yet.
	InsertBlock(id I, block B, state S, depth uint64)

	// PushChild appends id to the children list of parent.
	PushChild(parent, id I)

	// SetCanon marks id canonical or not.
	SetCanon(id I, canon bool)

	// InsertCanonDepthMapping records that depth maps to id on the
	// canonical chain.
	InsertCanonDepthMapping(depth uint64, id I)

	// RemoveCanonDepthMapping removes whatever mapping exists at depth.
	RemoveCanonDepthMapping(depth uint64)

	// InsertAuxiliary stores aux under its own key.
	InsertAuxiliary(aux A)

	// RemoveAuxiliary deletes the auxiliary stored under key, if any.
	RemoveAuxiliary(key string)

	// SetHead updates the head marker.
	SetHead(id I)
}

// Store is a backend capable of both querying and settling the block tree.
// Implementations are expected to be used either directly (single owner) or
// through a Locked/Shared wrapper (store/memory.Shared) that serializes the
// import path while allowing concurrent readers.
type Store[I comparable, B chain.Block[I], S any, A chain.Auxiliary[I]] interface {
	ChainQuery[I, B, S, A]
	ChainSettlement[I, B, S, A]
}
