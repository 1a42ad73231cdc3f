// klingnet-cli is a command-line client for interacting with an
// accountchain node's JSON-RPC server.
package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/accountchain/node/internal/rpc"
	"github.com/accountchain/node/internal/rpcclient"
	"github.com/accountchain/node/pkg/crypto"
	"github.com/accountchain/node/pkg/tx"
	"github.com/accountchain/node/pkg/types"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	rpcURL := "http://127.0.0.1:8545"
	args := os.Args[1:]
	for len(args) > 0 {
		switch {
		case args[0] == "--rpc" && len(args) > 1:
			rpcURL = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--rpc="):
			rpcURL = args[0][len("--rpc="):]
			args = args[1:]
		default:
			goto dispatch
		}
	}

dispatch:
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	client := rpcclient.New(rpcURL)
	cmd := args[0]
	rest := args[1:]

	var err error
	switch cmd {
	case "tip":
		err = cmdTip(client)
	case "block":
		err = cmdBlock(client, rest)
	case "account":
		err = cmdAccount(client, rest)
	case "send":
		err = cmdSend(client, rest)
	case "mempool":
		err = cmdMempool(client)
	case "peers":
		err = cmdPeers(client)
	case "info":
		err = cmdInfo(client)
	case "help", "--help", "-h":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", cmd)
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `klingnet-cli [--rpc=<url>] <command> [args]

Commands:
  tip                                 show the current chain tip
  block <hash>                        show a block by hash
  account <pubkey>                    show an account's balance and nonce
  send <from-key-hex> <to-pubkey> <amount> <fee> <nonce>
                                       sign and submit a transaction
  mempool                             show mempool occupancy
  peers                               list connected peers
  info                                show this node's identity

Global flags:
  --rpc=<url>    RPC endpoint (default http://127.0.0.1:8545)
`)
}

func cmdTip(c *rpcclient.Client) error {
	var result rpc.TipResult
	if err := c.Call("chain_getTip", struct{}{}, &result); err != nil {
		return err
	}
	fmt.Printf("hash:       %s\nheight:     %d\ndifficulty: %s\n", result.Hash, result.Height, result.Difficulty)
	return nil
}

func cmdBlock(c *rpcclient.Client, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: block <hash>")
	}
	var result rpc.BlockResult
	if err := c.Call("chain_getBlock", rpc.HashParam{Hash: args[0]}, &result); err != nil {
		return err
	}
	fmt.Printf("hash:         %s\nheight:       %d\nprev_hash:    %s\nnonce:        %d\ntimestamp:    %d\ndifficulty:   %s\nmerkle_root:  %s\nminer:        %s\ntransactions: %d\n",
		result.Hash, result.Height, result.PrevHash, result.Nonce, result.Timestamp, result.Difficulty, result.MerkleRoot, result.Miner, len(result.Transactions))
	return nil
}

func cmdAccount(c *rpcclient.Client, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: account <pubkey>")
	}
	var result rpc.AccountResult
	if err := c.Call("account_getAccount", rpc.PubKeyParam{PubKey: args[0]}, &result); err != nil {
		return err
	}
	fmt.Printf("balance: %s\nnonce:   %s\n", result.Balance, result.Nonce)
	return nil
}

// cmdSend signs a transaction locally with the given hex-encoded 32-byte
// private key and submits it. The key never leaves this process except
// as a signature.
func cmdSend(c *rpcclient.Client, args []string) error {
	if len(args) != 5 {
		return fmt.Errorf("usage: send <from-key-hex> <to-pubkey> <amount> <fee> <nonce>")
	}
	keyBytes, err := hex.DecodeString(args[0])
	if err != nil {
		return fmt.Errorf("invalid private key hex: %w", err)
	}
	fromKey, err := crypto.PrivateKeyFromBytes(keyBytes)
	if err != nil {
		return fmt.Errorf("invalid private key: %w", err)
	}
	from, err := types.PubKeyFromBytes(fromKey.PublicKey())
	if err != nil {
		return fmt.Errorf("derive pubkey: %w", err)
	}
	to, err := types.PubKeyFromHex(args[1])
	if err != nil {
		return fmt.Errorf("invalid recipient pubkey: %w", err)
	}
	amount, err := types.ParseUInt(args[2])
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	fee, err := types.ParseUInt(args[3])
	if err != nil {
		return fmt.Errorf("invalid fee: %w", err)
	}
	nonceVal, err := strconv.ParseUint(args[4], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid nonce: %w", err)
	}
	nonce := types.NewUInt(nonceVal)

	builder := tx.NewBuilder(from, to, amount, fee, nonce)
	if err := builder.Sign(fromKey); err != nil {
		return fmt.Errorf("sign transaction: %w", err)
	}
	signed := builder.Build()

	var result rpc.SendTxResult
	params := rpc.SendTxParam{
		From:      from.String(),
		To:        to.String(),
		Amount:    signed.Amount.String(),
		Fee:       signed.Fee.String(),
		Nonce:     signed.Nonce.String(),
		Signature: hex.EncodeToString(signed.Signature),
	}
	if err := c.Call("tx_send", params, &result); err != nil {
		return err
	}
	fmt.Printf("submitted: %s\n", result.Hash)
	return nil
}

func cmdMempool(c *rpcclient.Client) error {
	var result rpc.MempoolStatusResult
	if err := c.Call("mempool_status", struct{}{}, &result); err != nil {
		return err
	}
	fmt.Printf("pending transactions: %d\n", result.Count)
	return nil
}

func cmdPeers(c *rpcclient.Client) error {
	var result []rpc.PeerView
	if err := c.Call("peer_list", struct{}{}, &result); err != nil {
		return err
	}
	for _, p := range result {
		fmt.Printf("%s  (%s)\n", p.ID, p.Source)
	}
	fmt.Printf("total: %d\n", len(result))
	return nil
}

func cmdInfo(c *rpcclient.Client) error {
	var result rpc.NodeInfoResult
	if err := c.Call("node_info", struct{}{}, &result); err != nil {
		return err
	}
	fmt.Printf("peer_id:    %s\npeer_count: %d\n", result.PeerID, result.PeerCount)
	for _, a := range result.Addrs {
		fmt.Printf("addr:       %s\n", a)
	}
	return nil
}
