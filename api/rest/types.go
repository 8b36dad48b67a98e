package rest

import (
	"encoding/json"

	"github.com/abcfe/abcfe-wallet/provider"
)

// General response structure
type RestResp struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// JSON-RPC 2.0 envelope for POST /rpc
type RPCReq struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type RPCResp struct {
	JSONRPC string             `json:"jsonrpc"`
	ID      json.RawMessage    `json:"id"`
	Result  interface{}        `json:"result"`
	Error   *provider.RPCError `json:"error,omitempty"`
}

// rpcErrResp omits result, which must be absent on errors
type rpcErrResp struct {
	JSONRPC string             `json:"jsonrpc"`
	ID      json.RawMessage    `json:"id"`
	Error   *provider.RPCError `json:"error"`
}

// Wallet account response
type WalletAccountResp struct {
	Index   uint32 `json:"index"`
	Address string `json:"address"`
	Path    string `json:"path"`
}

type WalletResp struct {
	Created      bool                `json:"created"`
	Name         string              `json:"name"`
	AccountCount uint32              `json:"accountCount"`
	Unlocked     bool                `json:"unlocked"`
	Accounts     []WalletAccountResp `json:"accounts"`
}

type CreateWalletReq struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type CreateWalletResp struct {
	Mnemonic string            `json:"mnemonic"`
	Account  WalletAccountResp `json:"account"`
}

type RestoreWalletReq struct {
	Mnemonic string `json:"mnemonic"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Count    uint32 `json:"count"`
}

// Password is optional once the wallet is unlocked
type PasswordReq struct {
	Password string `json:"password"`
}

type RenameWalletReq struct {
	Name string `json:"name"`
}

type ChainResp struct {
	ID       uint64 `json:"id"`
	ChainID  string `json:"chainId"`
	Name     string `json:"name"`
	RPCURL   string `json:"rpcUrl"`
	Testnet  bool   `json:"testnet"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
	Explorer string `json:"explorer,omitempty"`
	Active   bool   `json:"active"`
}
