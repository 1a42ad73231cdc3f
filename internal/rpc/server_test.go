package rpc

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/accountchain/node/config"
	"github.com/accountchain/node/internal/chain"
	"github.com/accountchain/node/internal/mempool"
	"github.com/accountchain/node/pkg/crypto"
	"github.com/accountchain/node/pkg/tx"
	"github.com/accountchain/node/pkg/types"
)

func testServer(t *testing.T) (*Server, *chain.Chain, *mempool.Pool) {
	t.Helper()
	gen := config.TestnetGenesis()
	ch := chain.New(gen)
	pool := mempool.New(ch.Ledger(), 0)

	s, err := New(config.RPCConfig{Addr: "127.0.0.1", Port: 0}, ch, pool, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s, ch, pool
}

func call(t *testing.T, s *Server, method string, params interface{}) Response {
	t.Helper()
	raw, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("marshal params: %v", err)
	}
	req := Request{JSONRPC: jsonRPCVersion, Method: method, Params: raw, ID: json.RawMessage("1")}
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	httpReq := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.handleHTTP(rec, httpReq)

	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v (body %s)", err, rec.Body.String())
	}
	return resp
}

func TestServer_GetAccount_ZeroValueForUnknown(t *testing.T) {
	s, _, _ := testServer(t)
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	pk, err := types.PubKeyFromBytes(key.PublicKey())
	if err != nil {
		t.Fatalf("pubkey: %v", err)
	}

	resp := call(t, s, "account_getAccount", PubKeyParam{PubKey: pk.String()})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
}

func TestServer_GetTip_BeforeGenesis(t *testing.T) {
	s, _, _ := testServer(t)
	resp := call(t, s, "chain_getTip", struct{}{})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
	b, _ := json.Marshal(resp.Result)
	var tip TipResult
	if err := json.Unmarshal(b, &tip); err != nil {
		t.Fatalf("unmarshal tip: %v", err)
	}
	if tip.Hash != "" || tip.Height != 0 {
		t.Errorf("expected empty tip at height 0, got %+v", tip)
	}
}

func TestServer_GetBlock_Unknown(t *testing.T) {
	s, _, _ := testServer(t)
	resp := call(t, s, "chain_getBlock", HashParam{Hash: "deadbeef"})
	if resp.Error == nil || resp.Error.Code != ErrCodeNotFound {
		t.Fatalf("expected not-found error, got %+v", resp.Error)
	}
}

func TestServer_SendTx_ValidIsPooled(t *testing.T) {
	s, ch, pool := testServer(t)

	fromKey, _ := crypto.GenerateKey()
	toKey, _ := crypto.GenerateKey()
	from, _ := types.PubKeyFromBytes(fromKey.PublicKey())
	to, _ := types.PubKeyFromBytes(toKey.PublicKey())
	ch.CreditGenesis(from, types.NewUInt(1000))

	builder := tx.NewBuilder(from, to, types.NewUInt(100), types.NewUInt(1), types.Zero)
	if err := builder.Sign(fromKey); err != nil {
		t.Fatalf("sign: %v", err)
	}
	signed := builder.Build()

	resp := call(t, s, "tx_send", SendTxParam{
		From:      from.String(),
		To:        to.String(),
		Amount:    signed.Amount.String(),
		Fee:       signed.Fee.String(),
		Nonce:     signed.Nonce.String(),
		Signature: hex.EncodeToString(signed.Signature),
	})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
	if pool.Count() != 1 {
		t.Errorf("expected 1 pooled transaction, got %d", pool.Count())
	}
}

func TestServer_SendTx_InvalidSignatureRejected(t *testing.T) {
	s, ch, _ := testServer(t)

	fromKey, _ := crypto.GenerateKey()
	toKey, _ := crypto.GenerateKey()
	from, _ := types.PubKeyFromBytes(fromKey.PublicKey())
	to, _ := types.PubKeyFromBytes(toKey.PublicKey())
	ch.CreditGenesis(from, types.NewUInt(1000))

	resp := call(t, s, "tx_send", SendTxParam{
		From:      from.String(),
		To:        to.String(),
		Amount:    "100",
		Fee:       "1",
		Nonce:     "0",
		Signature: hex.EncodeToString(bytes.Repeat([]byte{0x01}, 64)),
	})
	if resp.Error == nil {
		t.Fatal("expected signature verification to fail")
	}
}

func TestServer_MempoolStatus(t *testing.T) {
	s, _, _ := testServer(t)
	resp := call(t, s, "mempool_status", struct{}{})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
}

func TestServer_PeerList_NoP2P(t *testing.T) {
	s, _, _ := testServer(t)
	resp := call(t, s, "peer_list", struct{}{})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}
}

func TestServer_UnknownMethod(t *testing.T) {
	s, _, _ := testServer(t)
	resp := call(t, s, "no_such_method", struct{}{})
	if resp.Error == nil || resp.Error.Code != ErrCodeMethodNotFound {
		t.Fatalf("expected method-not-found error, got %+v", resp.Error)
	}
}

func TestServer_MalformedJSON(t *testing.T) {
	s, _, _ := testServer(t)
	httpReq := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	s.handleHTTP(rec, httpReq)

	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != ErrCodeParse {
		t.Fatalf("expected parse error, got %+v", resp.Error)
	}
}

func TestParseAllowedIPs_BareAndCIDR(t *testing.T) {
	nets, err := parseAllowedIPs([]string{"127.0.0.1", "10.0.0.0/8"})
	if err != nil {
		t.Fatalf("parseAllowedIPs: %v", err)
	}
	if len(nets) != 2 {
		t.Fatalf("expected 2 networks, got %d", len(nets))
	}
}

func TestParseAllowedIPs_Invalid(t *testing.T) {
	if _, err := parseAllowedIPs([]string{"not-an-ip"}); err == nil {
		t.Error("expected error for invalid IP")
	}
}

func TestServer_IsAllowed_EmptyListUnrestricted(t *testing.T) {
	s, _, _ := testServer(t)
	if !s.isAllowed("203.0.113.5:1234") {
		t.Error("empty allow list should permit any address")
	}
}

func TestServer_IsAllowed_Restricted(t *testing.T) {
	gen := config.TestnetGenesis()
	ch := chain.New(gen)
	pool := mempool.New(ch.Ledger(), 0)
	s, err := New(config.RPCConfig{Addr: "127.0.0.1", Port: 0, AllowedIPs: []string{"10.0.0.0/8"}}, ch, pool, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s.isAllowed("203.0.113.5:1234") {
		t.Error("address outside allow list should be rejected")
	}
	if !s.isAllowed("10.1.2.3:1234") {
		t.Error("address inside allow list should be permitted")
	}
}

func TestServer_StartStop(t *testing.T) {
	s, _, _ := testServer(t)
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Errorf("Stop: %v", err)
	}
}

func TestServer_StopBeforeStart(t *testing.T) {
	s, _, _ := testServer(t)
	if err := s.Stop(); err != nil {
		t.Errorf("Stop before Start should not error, got: %v", err)
	}
}
