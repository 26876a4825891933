// Package importer defines the block import interfaces used by network
// synchronization and provides MutexImporter, a simple wrapper that
// serializes concurrent importers that are not already backed by a locked
// store.
package importer

import (
	"sync"

	"github.com/rust-blockchain/blockchain/chain"
)

// RawImporter accepts a block together with its pre-computed state, for
// callers (trusted sync, checkpoint restore) that have already derived the
// state off-band and don't need the executor run again.
type RawImporter[I comparable, B chain.Block[I], S any] interface {
	ImportRaw(block B, state S) error
}

// BlockImporter accepts a block to be executed and imported against its
// parent's state.
type BlockImporter[I comparable, B chain.Block[I]] interface {
	ImportBlock(block B) error
}

// Importer combines both import entry points; the reference depth importer
// implements it and MutexImporter wraps it.
type Importer[I comparable, B chain.Block[I], S any] interface {
	RawImporter[I, B, S]
	BlockImporter[I, B]
}

// MutexImporter wraps an Importer that is not already internally
// synchronized, serializing ImportRaw/ImportBlock calls from concurrent
// callers such as network sync's per-peer response handlers.
type MutexImporter[I comparable, B chain.Block[I], S any] struct {
	mu   sync.Mutex
	inner Importer[I, B, S]
}

// NewMutexImporter wraps inner.
func NewMutexImporter[I comparable, B chain.Block[I], S any](inner Importer[I, B, S]) *MutexImporter[I, B, S] {
	return &MutexImporter[I, B, S]{inner: inner}
}

func (m *MutexImporter[I, B, S]) ImportRaw(block B, state S) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inner.ImportRaw(block, state)
}

func (m *MutexImporter[I, B, S]) ImportBlock(block B) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inner.ImportBlock(block)
}
