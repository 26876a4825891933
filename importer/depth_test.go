package importer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rust-blockchain/blockchain/chain"
	"github.com/rust-blockchain/blockchain/importer"
	"github.com/rust-blockchain/blockchain/store/memory"
)

type depthState struct{ value int }

func (s depthState) Clone() depthState { return depthState{value: s.value} }

func (s depthState) AsExternalities() chain.Externalities { return depthExt{} }

type depthExt struct{}

func (depthExt) ReadStorage(key []byte) ([]byte, error) { return nil, nil }
func (depthExt) WriteStorage(key, value []byte)          {}
func (depthExt) RemoveStorage(key []byte)                 {}

type depthBlock struct {
	id        int
	parent    int
	hasParent bool
}

func (b depthBlock) ID() int                { return b.id }
func (b depthBlock) ParentID() (int, bool) { return b.parent, b.hasParent }

type noopExecutor struct{}

func (noopExecutor) ExecuteBlock(block depthBlock, ext chain.Externalities) error { return nil }

type noAux struct{}

func (noAux) Key() string        { return "" }
func (noAux) Associated() []int { return nil }

func newDepthHarness() (*memory.Shared[int, depthBlock, depthState, noAux], *importer.DepthImporter[int, depthBlock, depthState, noAux]) {
	m := memory.New[int, depthBlock, depthState, noAux](0, depthBlock{id: 0}, depthState{})
	shared := memory.NewShared[int, depthBlock, depthState, noAux](m)
	imp := importer.NewDepthImporter[int, depthBlock, depthState, noAux](shared, shared.Backend(), noopExecutor{})
	return shared, imp
}

func TestDepthImporterAdoptsDeeperBlock(t *testing.T) {
	shared, imp := newDepthHarness()

	require.NoError(t, imp.ImportBlock(depthBlock{id: 1, parent: 0, hasParent: true}))
	require.Equal(t, 1, shared.Head())

	require.NoError(t, imp.ImportBlock(depthBlock{id: 2, parent: 1, hasParent: true}))
	require.Equal(t, 2, shared.Head())
}

func TestDepthImporterKeepsHeadOnEqualDepthFork(t *testing.T) {
	shared, imp := newDepthHarness()

	require.NoError(t, imp.ImportBlock(depthBlock{id: 1, parent: 0, hasParent: true}))
	require.NoError(t, imp.ImportBlock(depthBlock{id: 2, parent: 0, hasParent: true}))

	// Block 2 has the same depth as the current head, block 1: no reorg.
	require.Equal(t, 1, shared.Head())

	contains, err := shared.Contains(2)
	require.NoError(t, err)
	require.True(t, contains)
}

func TestDepthImporterSwitchesToDeeperFork(t *testing.T) {
	shared, imp := newDepthHarness()

	require.NoError(t, imp.ImportBlock(depthBlock{id: 1, parent: 0, hasParent: true}))
	require.NoError(t, imp.ImportBlock(depthBlock{id: 10, parent: 0, hasParent: true}))
	require.NoError(t, imp.ImportBlock(depthBlock{id: 11, parent: 10, hasParent: true}))

	require.Equal(t, 11, shared.Head())

	canon, err := shared.IsCanon(1)
	require.NoError(t, err)
	require.False(t, canon)
}
