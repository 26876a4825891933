package main

import (
	"time"

	"github.com/rust-blockchain/blockchain/netsync"
)

// inMemoryHandle is a netsync.NetworkHandle that delivers messages directly
// to a peer's NetworkSync in-process, standing in for a real transport the
// way the demo's two nodes stand in for a real multi-process deployment.
type inMemoryHandle struct {
	self   string
	remote *netsync.NetworkSync[string, uint64]
}

func (h *inMemoryHandle) Send(_ string, msg netsync.Message[uint64]) {
	h.dispatch(msg)
}

func (h *inMemoryHandle) Broadcast(msg netsync.Message[uint64]) {
	h.dispatch(msg)
}

func (h *inMemoryHandle) dispatch(msg netsync.Message[uint64]) {
	switch {
	case msg.Status != nil:
		h.remote.PeerStatus(h.self, *msg.Status, time.Now())
	case msg.BlockRequest != nil:
		h.remote.HandleBlockRequest(h.self, *msg.BlockRequest)
	case msg.BlockResponse != nil:
		h.remote.HandleBlockResponse(h.self, *msg.BlockResponse)
	}
}
