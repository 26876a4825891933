package memory

import (
	"sync"

	"github.com/rust-blockchain/blockchain/chain"
	"github.com/rust-blockchain/blockchain/store"
)

// Shared wraps a store.Store with the concurrency shape the rest of this
// library assumes a backend provides: reads may run at any time and from
// any number of goroutines, but the sequence of steps that make up a single
// Settle call (or anything that needs to observe-then-mutate, such as
// action.ImportAction) must run under a single coarse lock so that no two
// writers interleave their operations.
//
// Shared itself does not know about Settle; it only owns the lock. Callers
// that mutate the backend must hold it, either through WithImportLock or
// through Lock and Unlock.
type Shared[I comparable, B chain.Block[I], S any, A chain.Auxiliary[I]] struct {
	importMu sync.Mutex
	backend  store.Store[I, B, S, A]
}

// NewShared wraps backend for concurrent use.
func NewShared[I comparable, B chain.Block[I], S any, A chain.Auxiliary[I]](backend store.Store[I, B, S, A]) *Shared[I, B, S, A] {
	return &Shared[I, B, S, A]{backend: backend}
}

// WithImportLock runs fn with the import lock held, serializing it against
// every other writer. Readers calling Shared's ChainQuery methods directly
// are never blocked by this lock; they rely on the wrapped backend's own
// internal synchronization (as store/memory.Memory provides) to avoid
// observing a torn write.
func (s *Shared[I, B, S, A]) WithImportLock(fn func(store.Store[I, B, S, A]) error) error {
	s.importMu.Lock()
	defer s.importMu.Unlock()
	return fn(s.backend)
}

// Lock acquires the import lock without running a closure, for callers
// (such as action.ImportAction) that hold it across several method calls.
// Unlock releases it.
func (s *Shared[I, B, S, A]) Lock() { s.importMu.Lock() }

// Unlock releases the import lock acquired by Lock.
func (s *Shared[I, B, S, A]) Unlock() { s.importMu.Unlock() }

// Backend returns the wrapped store.Store for direct use while the import
// lock is held, e.g. as the target of store.Settle inside action.ImportAction.
func (s *Shared[I, B, S, A]) Backend() store.Store[I, B, S, A] { return s.backend }

func (s *Shared[I, B, S, A]) Genesis() I { return s.backend.Genesis() }

func (s *Shared[I, B, S, A]) Head() I { return s.backend.Head() }

func (s *Shared[I, B, S, A]) Contains(id I) (bool, error) { return s.backend.Contains(id) }

func (s *Shared[I, B, S, A]) IsCanon(id I) (bool, error) { return s.backend.IsCanon(id) }

func (s *Shared[I, B, S, A]) LookupCanonDepth(depth uint64) (I, bool, error) {
	return s.backend.LookupCanonDepth(depth)
}

func (s *Shared[I, B, S, A]) Auxiliary(key string) (A, bool, error) {
	return s.backend.Auxiliary(key)
}

func (s *Shared[I, B, S, A]) DepthAt(id I) (uint64, error) { return s.backend.DepthAt(id) }

func (s *Shared[I, B, S, A]) ChildrenAt(id I) ([]I, error) { return s.backend.ChildrenAt(id) }

func (s *Shared[I, B, S, A]) StateAt(id I) (S, error) { return s.backend.StateAt(id) }

func (s *Shared[I, B, S, A]) BlockAt(id I) (B, error) { return s.backend.BlockAt(id) }
