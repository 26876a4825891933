package action_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rust-blockchain/blockchain/action"
	"github.com/rust-blockchain/blockchain/chain"
	"github.com/rust-blockchain/blockchain/store/memory"
)

type kvState map[string][]byte

func (s kvState) AsExternalities() chain.Externalities { return kvExt{s} }

type kvExt struct{ m kvState }

func (e kvExt) ReadStorage(key []byte) ([]byte, error) { return e.m[string(key)], nil }
func (e kvExt) WriteStorage(key, value []byte)         { e.m[string(key)] = value }
func (e kvExt) RemoveStorage(key []byte)                { delete(e.m, string(key)) }

type numBlock struct {
	id        int
	parent    int
	hasParent bool
	value     []byte
}

func (b numBlock) ID() int                { return b.id }
func (b numBlock) ParentID() (int, bool) { return b.parent, b.hasParent }

type noAux struct{}

func (noAux) Key() string       { return "" }
func (noAux) Associated() []int { return nil }

type writeOneExecutor struct{ fail bool }

func (e writeOneExecutor) ExecuteBlock(block numBlock, ext chain.Externalities) error {
	if e.fail {
		return errors.New("boom")
	}
	ext.WriteStorage([]byte("last"), block.value)
	return nil
}

func newShared() *memory.Shared[int, numBlock, kvState, noAux] {
	m := memory.New[int, numBlock, kvState, noAux](0, numBlock{id: 0}, kvState{})
	return memory.NewShared[int, numBlock, kvState, noAux](m)
}

func TestImportActionCommitAppliesBatch(t *testing.T) {
	shared := newShared()
	act := action.New[int, numBlock, kvState, noAux](shared, shared.Backend(), writeOneExecutor{})

	state := kvState{"last": []byte("x")}
	require.NoError(t, act.ImportBlock(numBlock{id: 1, parent: 0, hasParent: true, value: []byte("x")}, state))
	act.SetHead(1)

	require.NoError(t, act.Commit())

	contains, err := shared.Contains(1)
	require.NoError(t, err)
	require.True(t, contains)
	require.Equal(t, 1, shared.Head())
}

func TestImportActionDiscardAppliesNothing(t *testing.T) {
	shared := newShared()
	act := action.New[int, numBlock, kvState, noAux](shared, shared.Backend(), writeOneExecutor{})

	require.NoError(t, act.ImportBlock(numBlock{id: 1, parent: 0, hasParent: true, value: []byte("x")}, kvState{}))
	act.Discard()

	contains, err := shared.Contains(1)
	require.NoError(t, err)
	require.False(t, contains)
}

func TestImportActionExecutorFailureStopsImport(t *testing.T) {
	shared := newShared()
	act := action.New[int, numBlock, kvState, noAux](shared, shared.Backend(), writeOneExecutor{fail: true})

	err := act.ImportBlock(numBlock{id: 1, parent: 0, hasParent: true}, kvState{})
	var execErr *chain.ExecutorError
	require.ErrorAs(t, err, &execErr)

	act.Discard()
}
