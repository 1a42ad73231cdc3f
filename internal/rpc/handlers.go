package rpc

import (
	"encoding/hex"
	"encoding/json"

	"github.com/accountchain/node/pkg/tx"
	"github.com/accountchain/node/pkg/types"
)

func decodeParams(raw json.RawMessage, v interface{}) *Error {
	if len(raw) == 0 {
		return newError(ErrCodeInvalidParams, "missing params")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return newError(ErrCodeInvalidParams, "malformed params: "+err.Error())
	}
	return nil
}

func parsePubKey(s string) (types.PubKey, *Error) {
	pk, err := types.PubKeyFromHex(s)
	if err != nil {
		return pk, newError(ErrCodeInvalidParams, "invalid pubkey: "+err.Error())
	}
	return pk, nil
}

func parseUInt(s string) (types.UInt, *Error) {
	u, err := types.ParseUInt(s)
	if err != nil {
		return u, newError(ErrCodeInvalidParams, "invalid unsigned integer: "+err.Error())
	}
	return u, nil
}

// handleGetAccount implements account_getAccount: the balance and nonce
// of a compressed public key under the current chain tip. An address
// never referenced by any transaction is reported as the zero account
// rather than as an error, matching the ledger's own lazy-creation
// semantics.
func (s *Server) handleGetAccount(params json.RawMessage) (interface{}, *Error) {
	var p PubKeyParam
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	pk, rpcErr := parsePubKey(p.PubKey)
	if rpcErr != nil {
		return nil, rpcErr
	}
	acc := s.ch.Account(pk)
	return AccountResult{Balance: acc.Balance.String(), Nonce: acc.Nonce.String()}, nil
}

// handleGetTip implements chain_getTip: the current best block's hash,
// height, and the difficulty the next block must be mined against.
func (s *Server) handleGetTip(params json.RawMessage) (interface{}, *Error) {
	tip := s.ch.Tip()
	height, ok := s.ch.Height(tip)
	if !ok {
		return nil, newError(ErrCodeInternal, "tip height unavailable")
	}
	return TipResult{
		Hash:       tip.String(),
		Height:     height,
		Difficulty: s.ch.CurrentDifficulty().String(),
	}, nil
}

// handleGetBlock implements chain_getBlock: the full header and
// transaction list for a known block hash.
func (s *Server) handleGetBlock(params json.RawMessage) (interface{}, *Error) {
	var p HashParam
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	h := types.Hash(p.Hash)
	blk, ok := s.ch.Block(h)
	if !ok {
		return nil, newError(ErrCodeNotFound, "unknown block hash")
	}
	height, _ := s.ch.Height(h)
	miner, _ := s.ch.MinerOf(h)

	txs := make([]TxView, len(blk.Transactions))
	for i, t := range blk.Transactions {
		txs[i] = TxView{
			From:      t.From.String(),
			To:        t.To.String(),
			Amount:    t.Amount.String(),
			Fee:       t.Fee.String(),
			Nonce:     t.Nonce.String(),
			Signature: hex.EncodeToString(t.Signature),
		}
	}

	return BlockResult{
		Hash:         h.String(),
		Height:       height,
		PrevHash:     blk.Header.PrevHash.String(),
		Nonce:        blk.Header.Nonce,
		Timestamp:    blk.Header.Timestamp,
		Difficulty:   blk.Header.Difficulty.String(),
		MerkleRoot:   blk.Header.MerkleRoot.String(),
		Miner:        miner.String(),
		Transactions: txs,
	}, nil
}

// handleSendTx implements tx_send: structural and signature validation
// followed by mempool admission. A transaction accepted here is not yet
// mined; callers needing confirmation should poll chain_getAccount for
// the nonce to advance or chain_getBlock once it is included.
func (s *Server) handleSendTx(params json.RawMessage) (interface{}, *Error) {
	var p SendTxParam
	if rpcErr := decodeParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}

	from, rpcErr := parsePubKey(p.From)
	if rpcErr != nil {
		return nil, rpcErr
	}
	to, rpcErr := parsePubKey(p.To)
	if rpcErr != nil {
		return nil, rpcErr
	}
	amount, rpcErr := parseUInt(p.Amount)
	if rpcErr != nil {
		return nil, rpcErr
	}
	fee, rpcErr := parseUInt(p.Fee)
	if rpcErr != nil {
		return nil, rpcErr
	}
	nonce, rpcErr := parseUInt(p.Nonce)
	if rpcErr != nil {
		return nil, rpcErr
	}
	sig, err := hex.DecodeString(p.Signature)
	if err != nil {
		return nil, newError(ErrCodeInvalidParams, "invalid signature hex: "+err.Error())
	}

	t := &tx.Transaction{From: from, To: to, Amount: amount, Fee: fee, Nonce: nonce, Signature: sig}
	if err := t.Validate(); err != nil {
		return nil, newError(ErrCodeInvalidParams, "invalid transaction: "+err.Error())
	}
	if err := t.VerifySignature(); err != nil {
		return nil, newError(ErrCodeInvalidParams, "signature verification failed: "+err.Error())
	}

	accepted, err := s.pool.Add(t)
	if err != nil {
		return nil, newError(ErrCodeRejected, err.Error())
	}
	if !accepted {
		return nil, newError(ErrCodeRejected, "transaction already pooled")
	}

	if s.p2p != nil {
		if err := s.p2p.BroadcastTx(t); err != nil {
			// The transaction is pooled locally regardless; broadcast
			// failure only delays how fast peers learn of it.
			_ = err
		}
	}

	return SendTxResult{Hash: t.Fingerprint().String()}, nil
}

// handleMempoolStatus implements mempool_status: the number of
// transactions currently pooled, awaiting inclusion in a block.
func (s *Server) handleMempoolStatus(params json.RawMessage) (interface{}, *Error) {
	return MempoolStatusResult{Count: s.pool.Count()}, nil
}

// handlePeerList implements peer_list: the node's currently connected
// gossip peers and how each was discovered.
func (s *Server) handlePeerList(params json.RawMessage) (interface{}, *Error) {
	if s.p2p == nil {
		return []PeerView{}, nil
	}
	peers := s.p2p.PeerList()
	out := make([]PeerView, len(peers))
	for i, p := range peers {
		out[i] = PeerView{ID: p.ID.String(), Source: p.Source}
	}
	return out, nil
}

// handleNodeInfo implements node_info: this node's own peer identity,
// listen addresses, and connected peer count.
func (s *Server) handleNodeInfo(params json.RawMessage) (interface{}, *Error) {
	if s.p2p == nil {
		return nil, newError(ErrCodeInternal, "p2p not available")
	}
	return NodeInfoResult{
		PeerID:    s.p2p.ID().String(),
		Addrs:     s.p2p.Addrs(),
		PeerCount: s.p2p.PeerCount(),
	}, nil
}
