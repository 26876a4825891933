// Command counter runs a pair of in-process demo nodes on top of the
// store/action/builder/importer/netsync packages: one node builds blocks
// incrementing a shared counter, announces its head through netsync, and
// the second node syncs by requesting and importing the missing blocks.
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/fjl/memsize"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"
	"golang.org/x/crypto/sha3"

	"github.com/rust-blockchain/blockchain/builder"
	"github.com/rust-blockchain/blockchain/importer"
	"github.com/rust-blockchain/blockchain/netsync"
	"github.com/rust-blockchain/blockchain/store/memory"
)

var (
	depthGauge    = metrics.NewRegisteredGauge("counter/depth", nil)
	producedMeter = metrics.NewRegisteredMeter("counter/blocks/produced", nil)
	importedMeter = metrics.NewRegisteredMeter("counter/blocks/imported", nil)
)

// node bundles one demo chain's store, importer, and netsync state.
type node struct {
	name     string
	shared   *memory.Shared[uint64, Block, *state, auxiliary]
	importer *importer.DepthImporter[uint64, Block, *state, auxiliary]
	sync     *netsync.NetworkSync[string, uint64]
	feed     event.Feed
}

func newNode(name string) *node {
	m := memory.New[uint64, Block, *state, auxiliary](0, Block{Number: 0}, &state{value: 0})
	shared := memory.NewShared[uint64, Block, *state, auxiliary](m)
	imp := importer.NewDepthImporter[uint64, Block, *state, auxiliary](shared, shared.Backend(), executor{})
	sync := netsync.New[string, uint64](netsync.DefaultSyncConfig(), netsync.Status[uint64]{Head: 0, Depth: 0})
	return &node{name: name, shared: shared, importer: imp, sync: sync}
}

// produce builds count new blocks on top of the current head, each
// applying a single +1 increment, importing each one as it's finalized.
func (n *node) produce(count int) error {
	for i := 0; i < count; i++ {
		headID := n.shared.Head()
		parent, err := n.shared.BlockAt(headID)
		if err != nil {
			return err
		}
		parentState, err := n.shared.StateAt(headID)
		if err != nil {
			return err
		}

		bb, err := builder.New[uint64, Block, *state, Inherent, Increment, buildBlock](
			executor{}, parent, parentState.Clone(), Inherent{})
		if err != nil {
			return err
		}
		if err := bb.ApplyExtrinsic(Increment(1)); err != nil {
			return err
		}
		block, newState, err := bb.Finalize()
		if err != nil {
			return err
		}

		if err := n.importer.ImportBlock(block); err != nil {
			return err
		}
		_ = newState
		producedMeter.Mark(1)

		depth, err := n.shared.DepthAt(n.shared.Head())
		if err != nil {
			return err
		}
		depthGauge.Update(int64(depth))
		n.sync.SetHead(netsync.Status[uint64]{Head: n.shared.Head(), Depth: depth})
		n.feed.Send(n.shared.Head())

		hash := sha3.Sum256(encodeBlockForDisplay(block))
		log.Info("produced block", "node", n.name, "number", block.Number, "value", block.Value, "hash", fmt.Sprintf("%x", hash[:4]))
	}
	return nil
}

func encodeBlockForDisplay(block Block) []byte {
	data, err := rlp.EncodeToBytes(&block)
	if err != nil {
		return nil
	}
	return data
}

// pumpEvents drains pending netsync events on n, translating the outbound
// Query* events into Messages sent through handle, answering block requests
// from its own store, and feeding received blocks to its importer. now is
// passed through to BeginBlockRequest so the timeout clock it starts lines
// up with the Tick that produced the triggering event.
func (n *node) pumpEvents(handle *inMemoryHandle, now time.Time) {
	for {
		ev, ok := n.sync.Poll()
		if !ok {
			return
		}
		switch ev.Kind {
		case netsync.EventQueryStatus:
			handle.Broadcast(netsync.Message[uint64]{Status: &ev.Status})
		case netsync.EventQueryPeerStatus:
			handle.Send(ev.Peer, netsync.Message[uint64]{Status: &ev.Status})
		case netsync.EventQueryBlocks:
			if req, ok := n.sync.BeginBlockRequest(ev.Peer, now); ok {
				handle.Send(ev.Peer, netsync.Message[uint64]{BlockRequest: &req})
			}
		case netsync.EventBlockRequestReceived:
			n.answerBlockRequest(ev.Peer, ev.Request, handle)
		case netsync.EventBlocksReceived:
			n.importReceivedBlocks(ev.Response)
		case netsync.EventPeerConnected, netsync.EventStatusUpdated:
			log.Debug("peer status", "node", n.name, "peer", ev.Peer, "head", ev.Status.Head, "depth", ev.Status.Depth)
		case netsync.EventRequestTimedOut:
			log.Warn("request timed out", "node", n.name, "peer", ev.Peer, "from", ev.TimedOutFrom)
		}
	}
}

func (n *node) answerBlockRequest(peer string, req netsync.BlockRequest[uint64], handle *inMemoryHandle) {
	var blocks [][]byte
	id := req.From
	for i := uint64(0); i < req.Count; i++ {
		child, ok, err := n.shared.LookupCanonDepth(mustDepth(n.shared, id) + 1)
		if err != nil || !ok {
			break
		}
		block, err := n.shared.BlockAt(child)
		if err != nil {
			break
		}
		data, err := rlp.EncodeToBytes(&block)
		if err != nil {
			break
		}
		blocks = append(blocks, data)
		id = child
	}
	resp := netsync.BlockResponse[uint64]{RequestID: req.RequestID, Blocks: blocks}
	handle.Send(peer, netsync.Message[uint64]{BlockResponse: &resp})
}

func mustDepth(shared *memory.Shared[uint64, Block, *state, auxiliary], id uint64) uint64 {
	depth, err := shared.DepthAt(id)
	if err != nil {
		return 0
	}
	return depth
}

func (n *node) importReceivedBlocks(resp netsync.BlockResponse[uint64]) {
	for _, raw := range resp.Blocks {
		var block Block
		if err := rlp.DecodeBytes(raw, &block); err != nil {
			log.Error("failed to decode synced block", "node", n.name, "err", err)
			return
		}
		if err := n.importer.ImportBlock(block); err != nil {
			log.Error("failed to import synced block", "node", n.name, "number", block.Number, "err", err)
			return
		}
		importedMeter.Mark(1)
		depth, _ := n.shared.DepthAt(n.shared.Head())
		n.sync.SetHead(netsync.Status[uint64]{Head: n.shared.Head(), Depth: depth})
		log.Info("imported synced block", "node", n.name, "number", block.Number, "value", block.Value)
	}
}

func run(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	configureLogging(cfg)

	a := newNode(cfg.Name + "-a")
	b := newNode(cfg.Name + "-b")

	handleAtoB := &inMemoryHandle{self: a.name, remote: b.sync}
	handleBtoA := &inMemoryHandle{self: b.name, remote: a.sync}

	sub := a.feed.Subscribe(make(chan uint64, 8))
	defer sub.Unsubscribe()

	if err := a.produce(5); err != nil {
		return err
	}

	now := time.Now()
	for round := 0; round < 3; round++ {
		now = now.Add(netsync.DefaultSyncConfig().UpdateFrequency)
		a.sync.Tick(now)
		b.sync.Tick(now)
		a.pumpEvents(handleAtoB, now)
		b.pumpEvents(handleBtoA, now)
	}

	aHead, _ := a.shared.DepthAt(a.shared.Head())
	bHead, _ := b.shared.DepthAt(b.shared.Head())
	log.Info("sync complete", "a.depth", aHead, "b.depth", bHead)

	if cfg.ReportMemsize {
		report := memsize.Scan(b.shared)
		fmt.Fprintln(os.Stdout, report.Report())
	}

	return nil
}

// configureLogging mirrors go-ethereum's own terminal-detection dance for
// its stderr handler: color only when stderr is actually a terminal
// (including a Windows Cygwin/MSYS terminal), wrapped through colorable so
// ANSI codes still render on Windows consoles.
func configureLogging(cfg config) {
	var handler log.Handler
	if writer, ok := cfg.logWriter(); ok {
		handler = log.StreamHandler(writer, log.TerminalFormat(false))
	} else {
		fd := os.Stderr.Fd()
		usecolor := isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
		output := io.Writer(os.Stderr)
		if usecolor {
			output = colorable.NewColorableStderr()
		}
		handler = log.StreamHandler(output, log.TerminalFormat(usecolor))
	}
	log.Root().SetHandler(log.LvlFilterHandler(log.Lvl(cfg.LogVerbosity), handler))
}

func main() {
	app := &cli.App{
		Name:   "counter",
		Usage:  "run a pair of in-process demo chains over the block-tree store and netsync",
		Flags:  appFlags,
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
