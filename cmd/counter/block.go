package main

import (
	"strconv"

	"github.com/rust-blockchain/blockchain/chain"
)

// Block is the demo chain's block: a running counter, plus the parent link
// required by chain.Block.
type Block struct {
	Number    uint64
	Parent    uint64
	HasParent bool
	Value     int64
}

func (b Block) ID() uint64 { return b.Number }

func (b Block) ParentID() (uint64, bool) { return b.Parent, b.HasParent }

// Increment is the demo chain's only extrinsic: add a signed delta to the
// running counter.
type Increment int64

// Inherent seeds a new block; the demo chain has nothing it needs to
// inject, so it's empty.
type Inherent struct{}

// buildBlock is the in-progress block BlockBuilder folds extrinsics into.
type buildBlock struct {
	number    uint64
	parent    uint64
	hasParent bool
	value     int64
}

// state is the demo chain's only piece of state: the counter's current
// value, stored under a single well-known storage key so it still goes
// through the generic Externalities read/write path rather than being read
// directly.
type state struct{ value int64 }

const counterStorageKey = "value"

func (s *state) Clone() *state { return &state{value: s.value} }

func (s *state) AsExternalities() chain.Externalities { return stateExternalities{s} }

type stateExternalities struct{ s *state }

func (e stateExternalities) ReadStorage(key []byte) ([]byte, error) {
	if string(key) != counterStorageKey {
		return nil, nil
	}
	return []byte(strconv.FormatInt(e.s.value, 10)), nil
}

func (e stateExternalities) WriteStorage(key, value []byte) {
	if string(key) != counterStorageKey {
		return
	}
	v, err := strconv.ParseInt(string(value), 10, 64)
	if err != nil {
		return
	}
	e.s.value = v
}

func (e stateExternalities) RemoveStorage(key []byte) {
	if string(key) == counterStorageKey {
		e.s.value = 0
	}
}

// executor is the demo chain's chain.BuilderExecutor: it has no validation
// rules at all (ExecuteBlock just writes the block's Value field into the
// counter state), since the point of the demo is to exercise the
// store/action/builder/importer machinery rather than a real
// state-transition function.
type executor struct{}

func (executor) ExecuteBlock(block Block, ext chain.Externalities) error {
	ext.WriteStorage([]byte(counterStorageKey), []byte(strconv.FormatInt(block.Value, 10)))
	return nil
}

func (executor) InitializeBlock(parent Block, ext chain.Externalities, _ Inherent) (buildBlock, error) {
	raw, err := ext.ReadStorage([]byte(counterStorageKey))
	if err != nil {
		return buildBlock{}, err
	}
	var cur int64
	if len(raw) > 0 {
		cur, _ = strconv.ParseInt(string(raw), 10, 64)
	}
	return buildBlock{number: parent.Number + 1, parent: parent.Number, hasParent: true, value: cur}, nil
}

func (executor) ApplyExtrinsic(build *buildBlock, extrinsic Increment, ext chain.Externalities) error {
	build.value += int64(extrinsic)
	ext.WriteStorage([]byte(counterStorageKey), []byte(strconv.FormatInt(build.value, 10)))
	return nil
}

func (executor) FinalizeBlock(build *buildBlock, _ chain.Externalities) (Block, error) {
	return Block{Number: build.number, Parent: build.parent, HasParent: build.hasParent, Value: build.value}, nil
}

// auxiliary is unused by the demo chain but still has to satisfy
// chain.Auxiliary[uint64] to instantiate the generic store.
type auxiliary struct {
	key        string
	associated []uint64
}

func (a auxiliary) Key() string { return a.key }

func (a auxiliary) Associated() []uint64 { return a.associated }
