package rpc

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/accountchain/node/config"
	"github.com/accountchain/node/internal/chain"
	"github.com/accountchain/node/internal/log"
	"github.com/accountchain/node/internal/mempool"
	"github.com/accountchain/node/internal/p2p"
)

// Server is the JSON-RPC 2.0 HTTP server. It holds references to the live
// chain, mempool and p2p node rather than copies, so every call reflects
// the node's current state.
type Server struct {
	addr       string
	allowedIPs []*net.IPNet

	ch   *chain.Chain
	pool *mempool.Pool
	p2p  *p2p.Node

	httpServer *http.Server
	methods    map[string]handlerFunc
}

// handlerFunc handles one JSON-RPC method, given its raw params.
type handlerFunc func(s *Server, params json.RawMessage) (interface{}, *Error)

// New creates an RPC server bound to addr:port, restricted to the given
// allowed IPs/CIDRs (empty means unrestricted), serving ch/pool/p2pNode.
func New(cfg config.RPCConfig, ch *chain.Chain, pool *mempool.Pool, p2pNode *p2p.Node) (*Server, error) {
	nets, err := parseAllowedIPs(cfg.AllowedIPs)
	if err != nil {
		return nil, fmt.Errorf("rpc: parsing allowed IPs: %w", err)
	}

	s := &Server{
		addr:       fmt.Sprintf("%s:%d", cfg.Addr, cfg.Port),
		allowedIPs: nets,
		ch:         ch,
		pool:       pool,
		p2p:        p2pNode,
	}
	s.methods = map[string]handlerFunc{
		"account_getAccount": (*Server).handleGetAccount,
		"chain_getTip":       (*Server).handleGetTip,
		"chain_getBlock":     (*Server).handleGetBlock,
		"tx_send":            (*Server).handleSendTx,
		"mempool_status":     (*Server).handleMempoolStatus,
		"peer_list":          (*Server).handlePeerList,
		"node_info":          (*Server).handleNodeInfo,
	}
	return s, nil
}

// parseAllowedIPs parses a list of bare IPs or CIDRs into IPNets. A bare
// IP is treated as a /32 (or /128) network.
func parseAllowedIPs(raw []string) ([]*net.IPNet, error) {
	nets := make([]*net.IPNet, 0, len(raw))
	for _, entry := range raw {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if !strings.Contains(entry, "/") {
			ip := net.ParseIP(entry)
			if ip == nil {
				return nil, fmt.Errorf("invalid IP %q", entry)
			}
			bits := 32
			if ip.To4() == nil {
				bits = 128
			}
			entry = fmt.Sprintf("%s/%d", entry, bits)
		}
		_, ipnet, err := net.ParseCIDR(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid CIDR %q: %w", entry, err)
		}
		nets = append(nets, ipnet)
	}
	return nets, nil
}

// isAllowed reports whether remoteAddr (host:port) may reach this server.
// An empty allow-list means unrestricted.
func (s *Server) isAllowed(remoteAddr string) bool {
	if len(s.allowedIPs) == 0 {
		return true
	}
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	for _, n := range s.allowedIPs {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// Start begins serving JSON-RPC requests in a background goroutine. A
// synchronous listen error (bad address, port in use) is returned
// immediately; later accept-loop errors are logged, matching how the p2p
// node reports its own background failures.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("rpc: listen on %s: %w", s.addr, err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleHTTP)

	s.httpServer = &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.RPC.Error().Err(err).Msg("rpc server stopped")
		}
	}()

	log.RPC.Info().Str("addr", s.addr).Msg("rpc server listening")
	return nil
}

// Addr returns the address the server is configured to listen on.
func (s *Server) Addr() string {
	return s.addr
}

// Stop gracefully shuts the server down. Calling Stop before Start is a
// no-op, matching p2p.Node.Stop's same tolerance.
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Close()
}

// handleHTTP is the single HTTP entry point: it enforces the IP allow
// list, decodes one JSON-RPC request, dispatches it, and writes back
// exactly one JSON-RPC response.
func (s *Server) handleHTTP(w http.ResponseWriter, r *http.Request) {
	if !s.isAllowed(r.RemoteAddr) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req Request
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		s.writeResponse(w, nil, nil, newError(ErrCodeParse, "invalid JSON"))
		return
	}

	if req.JSONRPC != jsonRPCVersion || req.Method == "" {
		s.writeResponse(w, req.ID, nil, newError(ErrCodeInvalidRequest, "not a JSON-RPC 2.0 request"))
		return
	}

	handler, ok := s.methods[req.Method]
	if !ok {
		s.writeResponse(w, req.ID, nil, newError(ErrCodeMethodNotFound, "unknown method "+req.Method))
		return
	}

	result, rpcErr := handler(s, req.Params)
	s.writeResponse(w, req.ID, result, rpcErr)
}

func (s *Server) writeResponse(w http.ResponseWriter, id json.RawMessage, result interface{}, rpcErr *Error) {
	resp := Response{JSONRPC: jsonRPCVersion, ID: id}
	if rpcErr != nil {
		resp.Error = rpcErr
	} else {
		resp.Result = result
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.RPC.Error().Err(err).Msg("encoding rpc response")
	}
}
