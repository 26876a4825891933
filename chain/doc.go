// Package chain defines the runtime-agnostic capability interfaces that the
// rest of the module is built against: a block shape, a keyed auxiliary
// record, a storage view handed to executors, and the executor contracts
// themselves.
//
// Nothing in this package knows about hashing, extrinsic semantics, or wire
// formats. Those are supplied by whichever runtime embeds the store.
package chain
