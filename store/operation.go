package store

import "github.com/rust-blockchain/blockchain/chain"

// ImportOperation pairs a block with the state snapshot produced by
// executing it.
type ImportOperation[B any, S any] struct {
	Block B
	State S
}

// blockData is the bookkeeping Settle accumulates for a block while it is
// being admitted, before it is handed to the backend's InsertBlock.
type blockData[B any, S any] struct {
	block B
	state S
	depth uint64
}

// Operation bundles an ordered batch of block imports, an optional head
// change, and auxiliary edits into a single unit that is either fully
// applied or fully rejected by Settle.
type Operation[I comparable, B chain.Block[I], S any, A chain.Auxiliary[I]] struct {
	ImportBlock       []ImportOperation[B, S]
	SetHead           *I
	InsertAuxiliaries []A
	RemoveAuxiliaries []string
}

// Settle applies op to backend as a single atomic step. All pre-validation
// happens before any mutation is made; a rejected operation leaves backend
// unchanged.
//
// The algorithm, in order:
//
//  1. Topological admission of pending imports, computing each block's depth
//     as parent_depth+1. Disconnected fragments, a duplicate identifier
//     within the batch, or an identifier already present in backend all
//     fail with chain.ErrInvalidOperation; a parentless import fails with
//     chain.ErrIsGenesis.
//  2. Precheck that a requested SetHead target exists (stored or admitted).
//  3. Precheck that every auxiliary to insert only references identifiers
//     that exist (stored or admitted).
//  4. Insert the admitted blocks and fix up children lists.
//  5. Reorg the canonical chain along TreeRoute(head, new head), if SetHead
//     is set.
//  6. Apply auxiliary removals, then insertions.
func Settle[I comparable, B chain.Block[I], S any, A chain.Auxiliary[I]](
	op Operation[I, B, S, A],
	backend Store[I, B, S, A],
) error {
	importing := make(map[I]*blockData[B, S], len(op.ImportBlock))
	parentOf := make(map[I]I, len(op.ImportBlock))

	verifying := op.ImportBlock
	for len(verifying) > 0 {
		progress := false
		var next []ImportOperation[B, S]

		for _, pending := range verifying {
			parentID, hasParent := pending.Block.ParentID()
			if !hasParent {
				return chain.ErrIsGenesis
			}

			var (
				parentDepth uint64
				known       bool
			)
			contains, err := backend.Contains(parentID)
			if err != nil {
				return err
			}
			if contains {
				parentDepth, err = backend.DepthAt(parentID)
				if err != nil {
					return err
				}
				known = true
			} else if data, ok := importing[parentID]; ok {
				parentDepth = data.depth
				known = true
			}

			if !known {
				next = append(next, pending)
				continue
			}

			id := pending.Block.ID()
			if _, alreadyImporting := importing[id]; alreadyImporting {
				return chain.ErrInvalidOperation
			}
			if exists, err := backend.Contains(id); err != nil {
				return err
			} else if exists {
				return chain.ErrInvalidOperation
			}

			progress = true
			parentOf[id] = parentID
			importing[id] = &blockData[B, S]{
				block: pending.Block,
				state: pending.State,
				depth: parentDepth + 1,
			}
		}

		if len(next) == 0 {
			break
		}
		if !progress {
			return chain.ErrInvalidOperation
		}
		verifying = next
	}

	if op.SetHead != nil {
		exists, err := existsOrImporting(backend, importing, *op.SetHead)
		if err != nil {
			return err
		}
		if !exists {
			return chain.ErrInvalidOperation
		}
	}

	for _, aux := range op.InsertAuxiliaries {
		for _, id := range aux.Associated() {
			exists, err := existsOrImporting(backend, importing, id)
			if err != nil {
				return err
			}
			if !exists {
				return chain.ErrInvalidOperation
			}
		}
	}

	for id, data := range importing {
		backend.InsertBlock(id, data.block, data.state, data.depth)
	}
	for id, parentID := range parentOf {
		backend.PushChild(parentID, id)
	}

	if op.SetHead != nil {
		if err := reorg(backend, *op.SetHead); err != nil {
			return err
		}
	}

	for _, key := range op.RemoveAuxiliaries {
		backend.RemoveAuxiliary(key)
	}
	for _, aux := range op.InsertAuxiliaries {
		backend.InsertAuxiliary(aux)
	}

	return nil
}

func existsOrImporting[I comparable, B chain.Block[I], S any](
	backend interface {
		Contains(I) (bool, error)
	},
	importing map[I]*blockData[B, S],
	id I,
) (bool, error) {
	if _, ok := importing[id]; ok {
		return true, nil
	}
	return backend.Contains(id)
}

// reorg moves the canonical chain from its current head to newHead along the
// retracted/enacted path computed by TreeRoute. A reorg to the current head
// is a no-op, matching TreeRoute(head, head) having empty retracted/enacted
// slices.
func reorg[I comparable, B chain.Block[I], S any, A chain.Auxiliary[I]](backend Store[I, B, S, A], newHead I) error {
	route, err := Route[I, B, S, A](backend, backend.Head(), newHead)
	if err != nil {
		return err
	}

	for _, id := range route.Retracted() {
		backend.SetCanon(id, false)
		depth, err := backend.DepthAt(id)
		if err != nil {
			return err
		}
		backend.RemoveCanonDepthMapping(depth)
	}
	for _, id := range route.Enacted() {
		backend.SetCanon(id, true)
		depth, err := backend.DepthAt(id)
		if err != nil {
			return err
		}
		backend.InsertCanonDepthMapping(depth, id)
	}

	backend.SetHead(newHead)
	return nil
}
