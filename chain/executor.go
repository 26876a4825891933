package chain

// BlockExecutor validates and executes a single block against a mutable
// state view. It is supplied by the runtime; the store never interprets the
// effects it has on the externalities.
type BlockExecutor[I comparable, B Block[I]] interface {
	ExecuteBlock(block B, ext Externalities) error
}

// BuilderExecutor extends BlockExecutor with the three phases needed to
// author a new block on top of a parent: start an in-progress block,
// fold in extrinsics one at a time, and seal it into a final block plus
// state. BuildBlock is the mutable in-progress representation; Inherent and
// Extrinsic are runtime-chosen payload types.
type BuilderExecutor[I comparable, B Block[I], Inherent any, Extrinsic any, BuildBlock any] interface {
	BlockExecutor[I, B]

	// InitializeBlock starts a new in-progress block on top of parent. The
	// executor is free to use inherent to seed fields such as a parent hash
	// or timestamp.
	InitializeBlock(parent B, ext Externalities, inherent Inherent) (BuildBlock, error)

	// ApplyExtrinsic folds a single extrinsic into the in-progress block,
	// mutating both build and ext. A failure here is not rolled back by the
	// caller; the builder must be discarded.
	ApplyExtrinsic(build *BuildBlock, extrinsic Extrinsic, ext Externalities) error

	// FinalizeBlock seals the in-progress block, returning a block value
	// whose identifier is now stable.
	FinalizeBlock(build *BuildBlock, ext Externalities) (B, error)
}
