package builder_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rust-blockchain/blockchain/builder"
	"github.com/rust-blockchain/blockchain/chain"
)

type counterState struct{ value int }

func (s *counterState) AsExternalities() chain.Externalities { return counterExt{s} }

type counterExt struct{ s *counterState }

func (e counterExt) ReadStorage(key []byte) ([]byte, error) { return nil, nil }
func (e counterExt) WriteStorage(key, value []byte)          {}
func (e counterExt) RemoveStorage(key []byte)                 {}

type counterBlock struct {
	id     int
	parent int
	value  int
}

func (b counterBlock) ID() int                { return b.id }
func (b counterBlock) ParentID() (int, bool) { return b.parent, true }

type increment int

type inProgress struct {
	id    int
	value int
}

type counterExecutor struct{ failApply bool }

func (e counterExecutor) ExecuteBlock(block counterBlock, ext chain.Externalities) error {
	return nil
}

func (e counterExecutor) InitializeBlock(parent counterBlock, ext chain.Externalities, inherent int) (inProgress, error) {
	return inProgress{id: parent.id + 1, value: parent.value}, nil
}

func (e counterExecutor) ApplyExtrinsic(build *inProgress, extrinsic increment, ext chain.Externalities) error {
	if e.failApply {
		return errors.New("overflow")
	}
	build.value += int(extrinsic)
	return nil
}

func (e counterExecutor) FinalizeBlock(build *inProgress, ext chain.Externalities) (counterBlock, error) {
	return counterBlock{id: build.id, parent: build.id - 1, value: build.value}, nil
}

func TestBlockBuilderAppliesExtrinsicsInOrder(t *testing.T) {
	state := &counterState{value: 10}
	bb, err := builder.New[int, counterBlock, *counterState, int, increment, inProgress](
		counterExecutor{}, counterBlock{id: 0, value: 10}, state, 0)
	require.NoError(t, err)

	require.NoError(t, bb.ApplyExtrinsic(increment(5)))
	require.NoError(t, bb.ApplyExtrinsic(increment(2)))

	block, _, err := bb.Finalize()
	require.NoError(t, err)
	require.Equal(t, 17, block.value)
	require.Equal(t, 1, block.id)
}

func TestBlockBuilderApplyExtrinsicFailureWraps(t *testing.T) {
	state := &counterState{value: 0}
	bb, err := builder.New[int, counterBlock, *counterState, int, increment, inProgress](
		counterExecutor{failApply: true}, counterBlock{id: 0}, state, 0)
	require.NoError(t, err)

	err = bb.ApplyExtrinsic(increment(1))
	var execErr *chain.ExecutorError
	require.ErrorAs(t, err, &execErr)
}
