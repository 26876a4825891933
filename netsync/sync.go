// Package netsync implements a minimal peer-to-peer block synchronization
// state machine for use alongside the store/action/importer layers (it does
// not import them): nodes announce
// their head depth to each other, a node that sees a peer deeper than
// itself requests the missing range, and responses are handed back to the
// caller as events to feed into an importer.
package netsync

import (
	"fmt"
	"sync"
	"time"
)

// SyncConfig tunes how often NetworkSync re-announces its own status, how
// often it expects peers to re-announce theirs, and how long an outstanding
// BlockRequest is allowed to sit unanswered before it is retried.
type SyncConfig struct {
	UpdateFrequency     time.Duration
	PeerUpdateFrequency time.Duration
	RequestTimeout      time.Duration
}

// DefaultSyncConfig returns reasonable intervals for an in-process or
// low-latency LAN deployment.
func DefaultSyncConfig() SyncConfig {
	return SyncConfig{
		UpdateFrequency:     5 * time.Second,
		PeerUpdateFrequency: 30 * time.Second,
		RequestTimeout:      10 * time.Second,
	}
}

type peerInfo[I comparable] struct {
	status       Status[I]
	lastStatusAt time.Time
}

type pendingRequest[PeerID comparable, I comparable] struct {
	peer    PeerID
	from    I
	count   uint64
	sentAt  time.Time
}

// SyncEvent is emitted by NetworkSync for its owner to react to. Kind
// decides which of the other fields are set; an event may carry more than
// one (EventPeerConnected sets both Peer and Status, EventRequestTimedOut
// sets Peer, TimedOutFrom and TimedOutCount).
type SyncEvent[PeerID comparable, I comparable] struct {
	Kind SyncEventKind

	Peer PeerID

	Status        Status[I]
	Request       BlockRequest[I]
	Response      BlockResponse[I]
	TimedOutFrom  I
	TimedOutCount uint64
}

// SyncEventKind tags the variant of a SyncEvent.
type SyncEventKind int

const (
	// EventPeerConnected fires when a new peer announces its initial status.
	EventPeerConnected SyncEventKind = iota
	// EventPeerDisconnected fires when a peer is dropped.
	EventPeerDisconnected
	// EventStatusUpdated fires when a known peer re-announces its status.
	EventStatusUpdated
	// EventBlockRequestReceived fires when a peer asks this node for blocks.
	EventBlockRequestReceived
	// EventBlocksReceived fires when a peer answers an outstanding request.
	EventBlocksReceived
	// EventRequestTimedOut fires when an outstanding request exceeds
	// SyncConfig.RequestTimeout without an answer.
	EventRequestTimedOut

	// EventQueryStatus fires on Tick when this node's own status is due for
	// a re-announcement. Status carries the status to broadcast; NetworkSync
	// does not send it itself, leaving translation to a NetworkHandle to the
	// caller.
	EventQueryStatus
	// EventQueryPeerStatus fires on Tick for a peer whose last-known status
	// has gone stale past SyncConfig.PeerUpdateFrequency. Status carries
	// this node's own current status, to be pushed at Peer as a nudge.
	EventQueryPeerStatus
	// EventQueryBlocks fires on Tick for a peer that has announced a depth
	// greater than this node's own with no request outstanding. The caller
	// is expected to call BeginBlockRequest(Peer, ...) to obtain the actual
	// BlockRequest to send.
	EventQueryBlocks
)

// NetworkSync tracks known peers' announced status, issues block requests
// to peers that are ahead of this node, and surfaces protocol activity as
// SyncEvent values through Poll. It holds no reference to a Store or
// importer: the caller decides what to do with each event, typically by
// handing BlocksReceived payloads to an importer.BlockImporter.
type NetworkSync[PeerID comparable, I comparable] struct {
	mu sync.Mutex

	config SyncConfig

	head Status[I]

	peers    map[PeerID]*peerInfo[I]
	nextID   uint64
	pending  map[uint64]*pendingRequest[PeerID, I]

	events   []SyncEvent[PeerID, I]
	seen     map[string]struct{}

	lastSelfUpdate time.Time
}

// New constructs a NetworkSync announcing head as this node's own status.
func New[PeerID comparable, I comparable](config SyncConfig, head Status[I]) *NetworkSync[PeerID, I] {
	return &NetworkSync[PeerID, I]{
		config:  config,
		head:    head,
		peers:   make(map[PeerID]*peerInfo[I]),
		pending: make(map[uint64]*pendingRequest[PeerID, I]),
		seen:    make(map[string]struct{}),
	}
}

// SetHead updates this node's own announced status. It queues nothing
// itself: the new status goes out with the next EventQueryStatus, which Tick
// queues once SyncConfig.UpdateFrequency has passed since the last one.
func (n *NetworkSync[PeerID, I]) SetHead(head Status[I]) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.head = head
}

// PeerStatus records a connect or re-announce from peer. If peer is new,
// an EventPeerConnected is queued; otherwise EventStatusUpdated.
func (n *NetworkSync[PeerID, I]) PeerStatus(peer PeerID, status Status[I], now time.Time) {
	n.mu.Lock()
	defer n.mu.Unlock()

	info, known := n.peers[peer]
	if !known {
		n.peers[peer] = &peerInfo[I]{status: status, lastStatusAt: now}
		n.queue(SyncEvent[PeerID, I]{Kind: EventPeerConnected, Peer: peer, Status: status})
		return
	}
	info.status = status
	info.lastStatusAt = now
	n.queue(SyncEvent[PeerID, I]{Kind: EventStatusUpdated, Peer: peer, Status: status})
}

// PeerDisconnected forgets peer and cancels any request outstanding to it.
func (n *NetworkSync[PeerID, I]) PeerDisconnected(peer PeerID) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, known := n.peers[peer]; !known {
		return
	}
	delete(n.peers, peer)
	for id, req := range n.pending {
		if req.peer == peer {
			delete(n.pending, id)
		}
	}
	n.queue(SyncEvent[PeerID, I]{Kind: EventPeerDisconnected, Peer: peer})
}

// HandleBlockRequest is called when a peer asks this node for a block
// range; it queues an EventBlockRequestReceived so the owner can look up
// and send the answer itself (NetworkSync does not read the store).
func (n *NetworkSync[PeerID, I]) HandleBlockRequest(peer PeerID, req BlockRequest[I]) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.queue(SyncEvent[PeerID, I]{Kind: EventBlockRequestReceived, Peer: peer, Request: req})
}

// HandleBlockResponse matches resp against an outstanding request and
// queues EventBlocksReceived. A response to an unknown or already-resolved
// request ID is ignored, since it may be a duplicate or late timeout retry.
func (n *NetworkSync[PeerID, I]) HandleBlockResponse(peer PeerID, resp BlockResponse[I]) {
	n.mu.Lock()
	defer n.mu.Unlock()

	req, ok := n.pending[resp.RequestID]
	if !ok || req.peer != peer {
		return
	}
	delete(n.pending, resp.RequestID)
	n.queue(SyncEvent[PeerID, I]{Kind: EventBlocksReceived, Peer: peer, Response: resp})
}

// Tick drives time-based behavior: queuing a re-announcement of this node's
// own status, queuing a nudge to peers whose status has gone stale, queuing
// a blocks query for any peer whose announced depth exceeds this node's own
// and that has no outstanding request, and timing out stale requests.
//
// Tick never touches a NetworkHandle itself: every outbound action is
// surfaced as a SyncEvent for the caller to Poll and translate into a
// Message, matching the separation of protocol state from transport the
// rest of the package follows.
func (n *NetworkSync[PeerID, I]) Tick(now time.Time) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if now.Sub(n.lastSelfUpdate) >= n.config.UpdateFrequency {
		n.lastSelfUpdate = now
		n.queue(SyncEvent[PeerID, I]{Kind: EventQueryStatus, Status: n.head})
	}

	for id, req := range n.pending {
		if now.Sub(req.sentAt) >= n.config.RequestTimeout {
			delete(n.pending, id)
			n.queue(SyncEvent[PeerID, I]{
				Kind:          EventRequestTimedOut,
				Peer:          req.peer,
				TimedOutFrom:  req.from,
				TimedOutCount: req.count,
			})
		}
	}

	for peer, info := range n.peers {
		if now.Sub(info.lastStatusAt) >= n.config.PeerUpdateFrequency {
			n.queue(SyncEvent[PeerID, I]{Kind: EventQueryPeerStatus, Peer: peer, Status: n.head})
		}
	}

	for peer, info := range n.peers {
		if info.status.Depth <= n.head.Depth {
			continue
		}
		if n.hasPendingFor(peer) {
			continue
		}
		n.queue(SyncEvent[PeerID, I]{Kind: EventQueryBlocks, Peer: peer})
	}
}

// BeginBlockRequest builds the BlockRequest for the range this node is
// behind peer by, at most 256 blocks per request, and registers it against
// SyncConfig.RequestTimeout. Call it while handling an EventQueryBlocks for
// peer; ok is false if peer is no longer known or is no longer ahead of this
// node by the time it's called.
func (n *NetworkSync[PeerID, I]) BeginBlockRequest(peer PeerID, now time.Time) (req BlockRequest[I], ok bool) {
	const maxBlocksPerRequest = 256

	n.mu.Lock()
	defer n.mu.Unlock()

	info, known := n.peers[peer]
	if !known || info.status.Depth <= n.head.Depth {
		return BlockRequest[I]{}, false
	}
	count := info.status.Depth - n.head.Depth
	if count > maxBlocksPerRequest {
		count = maxBlocksPerRequest
	}
	return n.newRequest(peer, n.head.Head, count, now), true
}

// RequestFrom builds and registers an explicit-range BlockRequest to peer,
// for callers driving acquisition outside of the depth-based EventQueryBlocks
// policy (a checkpoint restore, a manual re-request after a failed import).
func (n *NetworkSync[PeerID, I]) RequestFrom(peer PeerID, from I, count uint64, now time.Time) BlockRequest[I] {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.newRequest(peer, from, count, now)
}

func (n *NetworkSync[PeerID, I]) newRequest(peer PeerID, from I, count uint64, now time.Time) BlockRequest[I] {
	n.nextID++
	id := n.nextID
	n.pending[id] = &pendingRequest[PeerID, I]{peer: peer, from: from, count: count, sentAt: now}
	return BlockRequest[I]{RequestID: id, From: from, Count: count}
}

func (n *NetworkSync[PeerID, I]) hasPendingFor(peer PeerID) bool {
	for _, req := range n.pending {
		if req.peer == peer {
			return true
		}
	}
	return false
}

// Poll dequeues the oldest pending event, if any. Duplicate events (same
// peer and kind queued again before being polled) are coalesced: only the
// most recent occurrence of a given (peer, kind) pair is kept in the queue.
func (n *NetworkSync[PeerID, I]) Poll() (SyncEvent[PeerID, I], bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if len(n.events) == 0 {
		return SyncEvent[PeerID, I]{}, false
	}
	ev := n.events[0]
	n.events = n.events[1:]
	delete(n.seen, dedupKey(ev))
	return ev, true
}

func (n *NetworkSync[PeerID, I]) queue(ev SyncEvent[PeerID, I]) {
	key := dedupKey(ev)
	if _, dup := n.seen[key]; dup {
		for i := range n.events {
			if dedupKey(n.events[i]) == key {
				n.events[i] = ev
				return
			}
		}
	}
	n.seen[key] = struct{}{}
	n.events = append(n.events, ev)
}

func dedupKey[PeerID comparable, I comparable](ev SyncEvent[PeerID, I]) string {
	return fmt.Sprintf("%d|%v", ev.Kind, ev.Peer)
}
