package netsync

// Status is the periodic announcement a peer makes of its own canonical
// head. It is the wire payload behind every Status protocol message; a node
// broadcasts its own every SyncConfig.UpdateFrequency, and pushes it at a
// peer whose last status is older than SyncConfig.PeerUpdateFrequency.
type Status[I comparable] struct {
	Head  I
	Depth uint64
}

// BlockRequest asks a peer for up to Count canonical blocks following the
// block identified by From (From itself excluded), ascending by depth, so a
// lagging node can catch up to a peer's announced head.
type BlockRequest[I comparable] struct {
	RequestID uint64
	From      I
	Count     uint64
}

// BlockResponse answers a BlockRequest with the encoded blocks a peer has
// for the requested range, oldest first. Blocks is encoded as opaque wire
// payloads rather than the generic block type itself, since a network
// transport only knows how to move bytes: a BlockImporter-facing caller is
// expected to decode each entry with the codec appropriate to its chain.
type BlockResponse[I comparable] struct {
	RequestID uint64
	Blocks    [][]byte
}

// Message is the tagged union of every payload a caller moves through a
// NetworkHandle: exactly one field is set per value.
type Message[I comparable] struct {
	Status        *Status[I]
	BlockRequest  *BlockRequest[I]
	BlockResponse *BlockResponse[I]
}
