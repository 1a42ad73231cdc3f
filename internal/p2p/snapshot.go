package p2p

import (
	"fmt"
	"io"
	"time"

	"github.com/accountchain/node/internal/chain"
	klog "github.com/accountchain/node/internal/log"
	"github.com/fxamacker/cbor/v2"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
)

const (
	// snapshotTimeout bounds a full snapshot exchange. A snapshot carries
	// the entire chain, so this is far looser than the handshake timeout.
	snapshotTimeout = 30 * time.Second

	// maxSnapshotBytes limits the decoded size of a snapshot response.
	maxSnapshotBytes = 256 << 20
)

// SnapshotRequest asks a peer for its current chain snapshot. It carries
// no fields today; it exists as a struct so the wire format can grow
// (e.g. a from-height delta) without changing the protocol ID.
type SnapshotRequest struct {
	_ struct{} `cbor:",toarray"`
}

// SnapshotResponse carries a peer's full chain state.
type SnapshotResponse struct {
	Snapshot chain.Snapshot `cbor:"1,keyasint"`
}

// SnapshotProvider supplies the local chain snapshot to serve to peers.
type SnapshotProvider interface {
	Snapshot() chain.Snapshot
}

// MiningPauser lets the snapshot responder hold off the local miner for
// the short window it takes to copy chain state, so the copy reflects one
// consistent instant instead of racing a block acceptance mid-copy.
type MiningPauser interface {
	Pause()
	Resume()
}

// RegisterSnapshotHandler wires a snapshot provider into the node. Called
// before Start, the stream handler is registered when Start runs; called
// after Start, it is registered immediately.
func (n *Node) RegisterSnapshotHandler(p SnapshotProvider) {
	n.snapshotProvider = p
	if n.host != nil {
		n.registerSnapshotHandler()
	}
}

// SetMiningPauser registers the local miner so the snapshot responder can
// pause it around each served snapshot. Unset, snapshots are served
// without pausing anything (a node with mining disabled has no miner to
// pause in the first place).
func (n *Node) SetMiningPauser(p MiningPauser) {
	n.miningPauser = p
}

func (n *Node) registerSnapshotHandler() {
	logger := klog.WithComponent("p2p")
	n.host.SetStreamHandler(SnapshotProtocol, func(stream network.Stream) {
		defer stream.Close()

		remotePeer := stream.Conn().RemotePeer()
		_ = stream.SetDeadline(time.Now().Add(snapshotTimeout))

		var req SnapshotRequest
		if err := cbor.NewDecoder(io.LimitReader(stream, maxHandshakeBytes)).Decode(&req); err != nil {
			logger.Debug().Err(err).Str("peer", remotePeer.String()[:16]).Msg("Snapshot request decode failed")
			return
		}

		if n.snapshotProvider == nil {
			return
		}
		if n.miningPauser != nil {
			n.miningPauser.Pause()
			defer n.miningPauser.Resume()
		}
		resp := SnapshotResponse{Snapshot: n.snapshotProvider.Snapshot()}

		if err := cbor.NewEncoder(stream).Encode(&resp); err != nil {
			logger.Debug().Err(err).Str("peer", remotePeer.String()[:16]).Msg("Snapshot response encode failed")
			return
		}
	})
}

// RequestSnapshot opens a stream to peerID, asks for its chain snapshot,
// and decodes the response.
func (n *Node) RequestSnapshot(peerID peer.ID) (*chain.Snapshot, error) {
	if n.host == nil {
		return nil, fmt.Errorf("node not started")
	}

	stream, err := n.host.NewStream(n.ctx, peerID, SnapshotProtocol)
	if err != nil {
		return nil, fmt.Errorf("open snapshot stream: %w", err)
	}
	defer stream.Close()

	_ = stream.SetDeadline(time.Now().Add(snapshotTimeout))

	if err := cbor.NewEncoder(stream).Encode(&SnapshotRequest{}); err != nil {
		return nil, fmt.Errorf("send snapshot request: %w", err)
	}
	if err := stream.CloseWrite(); err != nil {
		return nil, fmt.Errorf("close write side: %w", err)
	}

	var resp SnapshotResponse
	if err := cbor.NewDecoder(io.LimitReader(stream, maxSnapshotBytes)).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode snapshot response: %w", err)
	}

	return &resp.Snapshot, nil
}
