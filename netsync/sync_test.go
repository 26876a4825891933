package netsync_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rust-blockchain/blockchain/netsync"
)

// findEvent drains events looking for one of kind, since Tick may queue
// several distinct (Kind, Peer) events in the same call (e.g. the very
// first Tick always queues EventQueryStatus, because lastSelfUpdate starts
// at the zero time). Fails the test if the queue empties without a match.
func findEvent(t *testing.T, ns *netsync.NetworkSync[string, int], kind netsync.SyncEventKind) netsync.SyncEvent[string, int] {
	t.Helper()
	for {
		ev, ok := ns.Poll()
		require.True(t, ok, "expected to find event kind %v before queue emptied", kind)
		if ev.Kind == kind {
			return ev
		}
	}
}

func drainAll(ns *netsync.NetworkSync[string, int]) {
	for {
		if _, ok := ns.Poll(); !ok {
			return
		}
	}
}

func TestPeerConnectedEmitsEvent(t *testing.T) {
	ns := netsync.New[string, int](netsync.DefaultSyncConfig(), netsync.Status[int]{Head: 0, Depth: 0})

	ns.PeerStatus("alice", netsync.Status[int]{Head: 5, Depth: 5}, time.Now())

	ev, ok := ns.Poll()
	require.True(t, ok)
	require.Equal(t, netsync.EventPeerConnected, ev.Kind)
	require.Equal(t, "alice", ev.Peer)
}

func TestTickQueuesQueryBlocksForDeeperPeer(t *testing.T) {
	ns := netsync.New[string, int](netsync.DefaultSyncConfig(), netsync.Status[int]{Head: 0, Depth: 0})
	now := time.Now()

	ns.PeerStatus("alice", netsync.Status[int]{Head: 5, Depth: 5}, now)
	drainAll(ns)

	ns.Tick(now)

	ev := findEvent(t, ns, netsync.EventQueryBlocks)
	require.Equal(t, "alice", ev.Peer)

	req, ok := ns.BeginBlockRequest("alice", now)
	require.True(t, ok)
	require.Equal(t, uint64(5), req.Count)
	require.Equal(t, 0, req.From)
}

func TestTickDoesNotQueueQueryBlocksForShallowerPeer(t *testing.T) {
	ns := netsync.New[string, int](netsync.DefaultSyncConfig(), netsync.Status[int]{Head: 10, Depth: 10})
	now := time.Now()

	ns.PeerStatus("bob", netsync.Status[int]{Head: 3, Depth: 3}, now)
	drainAll(ns)
	ns.Tick(now)

	for {
		ev, ok := ns.Poll()
		if !ok {
			return
		}
		require.NotEqual(t, netsync.EventQueryBlocks, ev.Kind)
	}
}

func TestTickDoesNotRequeueQueryBlocksWhileRequestOutstanding(t *testing.T) {
	ns := netsync.New[string, int](netsync.DefaultSyncConfig(), netsync.Status[int]{Head: 0, Depth: 0})
	now := time.Now()

	ns.PeerStatus("alice", netsync.Status[int]{Head: 5, Depth: 5}, now)
	drainAll(ns)
	ns.Tick(now)
	findEvent(t, ns, netsync.EventQueryBlocks)
	drainAll(ns)

	_, ok := ns.BeginBlockRequest("alice", now)
	require.True(t, ok)

	ns.Tick(now.Add(time.Millisecond))
	for {
		ev, ok := ns.Poll()
		if !ok {
			break
		}
		require.NotEqual(t, netsync.EventQueryBlocks, ev.Kind)
	}
}

func TestBlockResponseMatchesOutstandingRequest(t *testing.T) {
	ns := netsync.New[string, int](netsync.DefaultSyncConfig(), netsync.Status[int]{Head: 0, Depth: 0})
	now := time.Now()

	ns.PeerStatus("alice", netsync.Status[int]{Head: 5, Depth: 5}, now)
	drainAll(ns)
	ns.Tick(now)
	findEvent(t, ns, netsync.EventQueryBlocks)
	drainAll(ns)

	req, ok := ns.BeginBlockRequest("alice", now)
	require.True(t, ok)

	ns.HandleBlockResponse("alice", netsync.BlockResponse[int]{RequestID: req.RequestID, Blocks: [][]byte{{1, 2, 3}}})

	ev, ok := ns.Poll()
	require.True(t, ok)
	require.Equal(t, netsync.EventBlocksReceived, ev.Kind)
	require.Equal(t, [][]byte{{1, 2, 3}}, ev.Response.Blocks)
}

func TestRequestTimesOutAfterConfiguredDuration(t *testing.T) {
	config := netsync.SyncConfig{UpdateFrequency: time.Hour, PeerUpdateFrequency: time.Hour, RequestTimeout: time.Second}
	ns := netsync.New[string, int](config, netsync.Status[int]{Head: 0, Depth: 0})
	now := time.Now()

	ns.PeerStatus("alice", netsync.Status[int]{Head: 5, Depth: 5}, now)
	drainAll(ns)
	ns.Tick(now)
	findEvent(t, ns, netsync.EventQueryBlocks)
	drainAll(ns)
	_, ok := ns.BeginBlockRequest("alice", now)
	require.True(t, ok)

	ns.Tick(now.Add(2 * time.Second))

	ev := findEvent(t, ns, netsync.EventRequestTimedOut)
	require.Equal(t, "alice", ev.Peer)
}

func TestPeerDisconnectedCancelsPendingRequest(t *testing.T) {
	ns := netsync.New[string, int](netsync.DefaultSyncConfig(), netsync.Status[int]{Head: 0, Depth: 0})
	now := time.Now()

	ns.PeerStatus("alice", netsync.Status[int]{Head: 5, Depth: 5}, now)
	drainAll(ns)
	ns.Tick(now)
	findEvent(t, ns, netsync.EventQueryBlocks)
	drainAll(ns)
	req, ok := ns.BeginBlockRequest("alice", now)
	require.True(t, ok)

	ns.PeerDisconnected("alice")
	ev, ok := ns.Poll()
	require.True(t, ok)
	require.Equal(t, netsync.EventPeerDisconnected, ev.Kind)

	ns.HandleBlockResponse("alice", netsync.BlockResponse[int]{RequestID: req.RequestID})
	_, ok = ns.Poll()
	require.False(t, ok)
}

func TestTickQueuesQueryStatusOnUpdateFrequency(t *testing.T) {
	config := netsync.SyncConfig{UpdateFrequency: time.Second, PeerUpdateFrequency: time.Hour, RequestTimeout: time.Hour}
	ns := netsync.New[string, int](config, netsync.Status[int]{Head: 0, Depth: 0})
	now := time.Now()

	ns.Tick(now)
	ev, ok := ns.Poll()
	require.True(t, ok)
	require.Equal(t, netsync.EventQueryStatus, ev.Kind)

	// Not due again immediately.
	ns.Tick(now.Add(time.Millisecond))
	_, ok = ns.Poll()
	require.False(t, ok)

	ns.Tick(now.Add(2 * time.Second))
	ev, ok = ns.Poll()
	require.True(t, ok)
	require.Equal(t, netsync.EventQueryStatus, ev.Kind)
}

func TestTickQueuesQueryPeerStatusForStalePeer(t *testing.T) {
	config := netsync.SyncConfig{UpdateFrequency: time.Hour, PeerUpdateFrequency: time.Second, RequestTimeout: time.Hour}
	ns := netsync.New[string, int](config, netsync.Status[int]{Head: 0, Depth: 0})
	now := time.Now()

	ns.PeerStatus("alice", netsync.Status[int]{Head: 0, Depth: 0}, now)
	drainAll(ns)
	ns.Tick(now)
	drainAll(ns)

	ns.Tick(now.Add(2 * time.Second))
	ev := findEvent(t, ns, netsync.EventQueryPeerStatus)
	require.Equal(t, "alice", ev.Peer)
}
