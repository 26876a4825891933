package store

import "github.com/rust-blockchain/blockchain/chain"

// TreeRoute is the path through the block tree connecting two blocks: walk
// from from up to their common ancestor, then down to to. Blocks on the from
// side of the pivot (exclusive of the common ancestor) are retracted; blocks
// on the to side (exclusive of the common ancestor) are enacted.
type TreeRoute[I comparable] struct {
	route []I
	pivot int
}

// CommonBlock is the identifier both from and to descend from. It may be
// from or to themselves.
func (r TreeRoute[I]) CommonBlock() I { return r.route[r.pivot] }

// Retracted lists the blocks leaving the canonical chain, from the old head
// down to (exclusive of) the common ancestor, oldest-divergence-last.
func (r TreeRoute[I]) Retracted() []I { return r.route[:r.pivot] }

// Enacted lists the blocks entering the canonical chain, from (exclusive of)
// the common ancestor up to the new head.
func (r TreeRoute[I]) Enacted() []I { return r.route[r.pivot+1:] }

// Route computes the tree route between from and to by walking the deeper
// side up via ParentID until both depths match, then walking both sides up
// in lockstep until they meet at the common ancestor, which becomes the
// pivot. Both identifiers must already be known to backend.
func Route[I comparable, B chain.Block[I], S any, A chain.Auxiliary[I]](
	backend ChainQuery[I, B, S, A],
	from, to I,
) (TreeRoute[I], error) {
	fromDepth, err := backend.DepthAt(from)
	if err != nil {
		return TreeRoute[I]{}, err
	}
	toDepth, err := backend.DepthAt(to)
	if err != nil {
		return TreeRoute[I]{}, err
	}

	fromBranch := []I{from}
	toBranch := []I{to}

	cur := from
	for fromDepth > toDepth {
		block, err := backend.BlockAt(cur)
		if err != nil {
			return TreeRoute[I]{}, err
		}
		parent, ok := block.ParentID()
		if !ok {
			return TreeRoute[I]{}, chain.ErrIsGenesis
		}
		cur = parent
		fromBranch = append(fromBranch, cur)
		fromDepth--
	}

	cur = to
	for toDepth > fromDepth {
		block, err := backend.BlockAt(cur)
		if err != nil {
			return TreeRoute[I]{}, err
		}
		parent, ok := block.ParentID()
		if !ok {
			return TreeRoute[I]{}, chain.ErrIsGenesis
		}
		cur = parent
		toBranch = append(toBranch, cur)
		toDepth--
	}

	for fromBranch[len(fromBranch)-1] != toBranch[len(toBranch)-1] {
		fromBlock, err := backend.BlockAt(fromBranch[len(fromBranch)-1])
		if err != nil {
			return TreeRoute[I]{}, err
		}
		fromParent, ok := fromBlock.ParentID()
		if !ok {
			return TreeRoute[I]{}, chain.ErrIsGenesis
		}
		fromBranch = append(fromBranch, fromParent)

		toBlock, err := backend.BlockAt(toBranch[len(toBranch)-1])
		if err != nil {
			return TreeRoute[I]{}, err
		}
		toParent, ok := toBlock.ParentID()
		if !ok {
			return TreeRoute[I]{}, chain.ErrIsGenesis
		}
		toBranch = append(toBranch, toParent)
	}

	route := make([]I, 0, len(fromBranch)+len(toBranch)-1)
	route = append(route, fromBranch...)
	pivot := len(route) - 1
	for i := len(toBranch) - 2; i >= 0; i-- {
		route = append(route, toBranch[i])
	}

	return TreeRoute[I]{route: route, pivot: pivot}, nil
}
