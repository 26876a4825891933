package netsync

// NetworkHandle is the transport boundary a caller dispatches through after
// translating a SyncEvent polled from NetworkSync into a Message. It is
// supplied by the runtime (an in-memory channel pair for tests and demos, a
// real wire codec over TCP/libp2p in production). NetworkSync itself never
// calls a NetworkHandle: it only ever queues events for Poll to hand back,
// leaving message construction and dispatch entirely to the caller.
type NetworkHandle[PeerID comparable, I comparable] interface {
	// Send delivers msg to a single peer.
	Send(peer PeerID, msg Message[I])

	// Broadcast delivers msg to every known peer.
	Broadcast(msg Message[I])
}
