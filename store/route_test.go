package store_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rust-blockchain/blockchain/store"
)

// insertLinear inserts a straight-line chain of blocks directly into
// backend, bypassing Settle, so Route tests can set up arbitrary trees
// without exercising the settlement path.
func insertLinear(backend *fakeBackend, ids []int, parentOf map[int]int) {
	for _, id := range ids {
		parent := parentOf[id]
		depth := backend.depths[parent] + 1
		backend.InsertBlock(id, child(id, parent), "", depth)
		backend.PushChild(parent, id)
	}
}

func TestRouteSameBlockIsEmpty(t *testing.T) {
	backend := newFakeBackend(0, "genesis")

	route, err := store.Route[int, testBlock, string, testAux](backend, 0, 0)
	require.NoError(t, err)
	require.Equal(t, 0, route.CommonBlock())
	require.Empty(t, route.Retracted())
	require.Empty(t, route.Enacted())
}

func TestRouteStraightExtension(t *testing.T) {
	backend := newFakeBackend(0, "genesis")
	insertLinear(backend, []int{1, 2, 3}, map[int]int{1: 0, 2: 1, 3: 2})

	route, err := store.Route[int, testBlock, string, testAux](backend, 0, 3)
	require.NoError(t, err)
	require.Equal(t, 0, route.CommonBlock())
	require.Empty(t, route.Retracted())
	require.Equal(t, []int{1, 2, 3}, route.Enacted())
}

func TestRouteForkWithCommonAncestor(t *testing.T) {
	backend := newFakeBackend(0, "genesis")
	insertLinear(backend, []int{1, 2, 3}, map[int]int{1: 0, 2: 1, 3: 2})
	insertLinear(backend, []int{10, 11}, map[int]int{10: 1, 11: 10})

	route, err := store.Route[int, testBlock, string, testAux](backend, 3, 11)
	require.NoError(t, err)
	require.Equal(t, 1, route.CommonBlock())
	require.Equal(t, []int{3, 2}, route.Retracted())
	require.Equal(t, []int{10, 11}, route.Enacted())
}

func TestRouteUnevenDepthFork(t *testing.T) {
	backend := newFakeBackend(0, "genesis")
	insertLinear(backend, []int{1, 2, 3, 4}, map[int]int{1: 0, 2: 1, 3: 2, 4: 3})
	insertLinear(backend, []int{10}, map[int]int{10: 1})

	route, err := store.Route[int, testBlock, string, testAux](backend, 4, 10)
	require.NoError(t, err)
	require.Equal(t, 1, route.CommonBlock())
	require.Equal(t, []int{4, 3, 2}, route.Retracted())
	require.Equal(t, []int{10}, route.Enacted())
}
