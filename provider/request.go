package provider

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/abcfe/abcfe-wallet/common/crypto"
	prt "github.com/abcfe/abcfe-wallet/protocol"
)

// Supported methods
const (
	MethodRequestAccounts = "eth_requestAccounts"
	MethodAccounts        = "eth_accounts"
	MethodChainID         = "eth_chainId"
	MethodGetBalance      = "eth_getBalance"
	MethodSendTransaction = "eth_sendTransaction"
	MethodPersonalSign    = "personal_sign"
	MethodSwitchChain     = "wallet_switchEthereumChain"
)

// Methods lists every method ParseRequest understands
var Methods = []string{
	MethodRequestAccounts,
	MethodAccounts,
	MethodChainID,
	MethodGetBalance,
	MethodSendTransaction,
	MethodPersonalSign,
	MethodSwitchChain,
}

// Request is one of the typed provider requests below
type Request interface {
	Method() string
}

type RequestAccountsRequest struct{}

type AccountsRequest struct{}

type ChainIDRequest struct{}

type GetBalanceRequest struct {
	Address  *common.Address // nil means the active account
	BlockTag string
}

type SendTransactionRequest struct {
	From     string
	To       *common.Address
	Value    *big.Int
	Data     []byte
	Gas      uint64
	GasPrice *big.Int
	Nonce    *uint64
}

type PersonalSignRequest struct {
	Message []byte
	Address string
}

type SwitchChainRequest struct {
	ChainID prt.ChainID
}

func (RequestAccountsRequest) Method() string { return MethodRequestAccounts }
func (AccountsRequest) Method() string        { return MethodAccounts }
func (ChainIDRequest) Method() string         { return MethodChainID }
func (GetBalanceRequest) Method() string      { return MethodGetBalance }
func (SendTransactionRequest) Method() string { return MethodSendTransaction }
func (PersonalSignRequest) Method() string    { return MethodPersonalSign }
func (SwitchChainRequest) Method() string     { return MethodSwitchChain }

// TxArgs is the wire shape of an eth_sendTransaction object
type TxArgs struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Value    string `json:"value,omitempty"`
	Data     string `json:"data,omitempty"`
	Input    string `json:"input,omitempty"`
	Gas      string `json:"gas,omitempty"`
	GasPrice string `json:"gasPrice,omitempty"`
	Nonce    string `json:"nonce,omitempty"`
}

type switchChainArgs struct {
	ChainID string `json:"chainId"`
}

func invalidParams(method, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s: %s", prt.ErrValidation, method, fmt.Sprintf(format, args...))
}

// ParseRequest maps a method name and its raw params onto a typed request.
// Unknown methods yield an *UnsupportedMethodError.
func ParseRequest(method string, params json.RawMessage) (Request, error) {
	switch method {
	case MethodRequestAccounts, MethodAccounts, MethodChainID,
		MethodGetBalance, MethodSendTransaction, MethodPersonalSign, MethodSwitchChain:
	default:
		return nil, &UnsupportedMethodError{Method: method}
	}

	args, err := splitParams(method, params)
	if err != nil {
		return nil, err
	}

	switch method {
	case MethodRequestAccounts:
		return RequestAccountsRequest{}, nil
	case MethodAccounts:
		return AccountsRequest{}, nil
	case MethodChainID:
		return ChainIDRequest{}, nil
	case MethodGetBalance:
		return parseGetBalance(args)
	case MethodSendTransaction:
		return parseSendTransaction(args)
	case MethodPersonalSign:
		return parsePersonalSign(args)
	default:
		return parseSwitchChain(args)
	}
}

// splitParams accepts an absent/null params or a JSON array
func splitParams(method string, params json.RawMessage) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(params)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] != '[' {
		return nil, invalidParams(method, "params must be an array")
	}
	var args []json.RawMessage
	if err := json.Unmarshal(trimmed, &args); err != nil {
		return nil, invalidParams(method, "malformed params: %v", err)
	}
	return args, nil
}

func isNull(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

func stringParam(method string, args []json.RawMessage, i int, name string) (string, bool, error) {
	if i >= len(args) || isNull(args[i]) {
		return "", false, nil
	}
	var s string
	if err := json.Unmarshal(args[i], &s); err != nil {
		return "", false, invalidParams(method, "%s must be a string", name)
	}
	return s, true, nil
}

func parseGetBalance(args []json.RawMessage) (Request, error) {
	req := GetBalanceRequest{BlockTag: "latest"}

	addr, ok, err := stringParam(MethodGetBalance, args, 0, "address")
	if err != nil {
		return nil, err
	}
	if ok {
		if !crypto.IsAddress(addr) {
			return nil, invalidParams(MethodGetBalance, "invalid address %q", addr)
		}
		a := common.HexToAddress(addr)
		req.Address = &a
	}

	tag, ok, err := stringParam(MethodGetBalance, args, 1, "block tag")
	if err != nil {
		return nil, err
	}
	if ok {
		var bn rpc.BlockNumber
		if err := bn.UnmarshalJSON([]byte(strconv.Quote(tag))); err != nil {
			return nil, invalidParams(MethodGetBalance, "invalid block tag %q", tag)
		}
		req.BlockTag = tag
	}
	return req, nil
}

func parseSendTransaction(args []json.RawMessage) (Request, error) {
	if len(args) == 0 || isNull(args[0]) {
		return nil, invalidParams(MethodSendTransaction, "transaction object is required")
	}
	var tx TxArgs
	if err := json.Unmarshal(args[0], &tx); err != nil {
		return nil, invalidParams(MethodSendTransaction, "malformed transaction: %v", err)
	}

	if tx.From == "" {
		return nil, invalidParams(MethodSendTransaction, "from is required")
	}
	if !crypto.IsAddress(tx.From) {
		return nil, invalidParams(MethodSendTransaction, "invalid from %q", tx.From)
	}
	if tx.To == "" {
		return nil, invalidParams(MethodSendTransaction, "to is required")
	}
	if !crypto.IsAddress(tx.To) {
		return nil, invalidParams(MethodSendTransaction, "invalid to %q", tx.To)
	}
	to := common.HexToAddress(tx.To)
	req := SendTransactionRequest{From: tx.From, To: &to}

	if tx.Value != "" {
		v, ok := math.ParseBig256(tx.Value)
		if !ok {
			return nil, invalidParams(MethodSendTransaction, "invalid value %q", tx.Value)
		}
		req.Value = v
	}
	data := tx.Data
	if data == "" {
		data = tx.Input
	}
	if data != "" {
		b, err := hexutil.Decode(data)
		if err != nil {
			return nil, invalidParams(MethodSendTransaction, "invalid data: %v", err)
		}
		req.Data = b
	}
	if tx.Gas != "" {
		g, ok := math.ParseUint64(tx.Gas)
		if !ok {
			return nil, invalidParams(MethodSendTransaction, "invalid gas %q", tx.Gas)
		}
		req.Gas = g
	}
	if tx.GasPrice != "" {
		p, ok := math.ParseBig256(tx.GasPrice)
		if !ok {
			return nil, invalidParams(MethodSendTransaction, "invalid gasPrice %q", tx.GasPrice)
		}
		req.GasPrice = p
	}
	if tx.Nonce != "" {
		n, ok := math.ParseUint64(tx.Nonce)
		if !ok {
			return nil, invalidParams(MethodSendTransaction, "invalid nonce %q", tx.Nonce)
		}
		req.Nonce = &n
	}
	return req, nil
}

func parsePersonalSign(args []json.RawMessage) (Request, error) {
	msg, ok, err := stringParam(MethodPersonalSign, args, 0, "message")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, invalidParams(MethodPersonalSign, "message is required")
	}
	addr, ok, err := stringParam(MethodPersonalSign, args, 1, "address")
	if err != nil {
		return nil, err
	}
	if !ok || !crypto.IsAddress(addr) {
		return nil, invalidParams(MethodPersonalSign, "a valid address is required")
	}
	return PersonalSignRequest{Message: crypto.DecodeMessage(msg), Address: addr}, nil
}

func parseSwitchChain(args []json.RawMessage) (Request, error) {
	if len(args) == 0 || isNull(args[0]) {
		return nil, invalidParams(MethodSwitchChain, "chain parameter is required")
	}
	var p switchChainArgs
	if err := json.Unmarshal(args[0], &p); err != nil {
		return nil, invalidParams(MethodSwitchChain, "malformed chain parameter: %v", err)
	}
	if strings.TrimSpace(p.ChainID) == "" {
		return nil, invalidParams(MethodSwitchChain, "chainId is required")
	}
	id, err := prt.ParseChainID(p.ChainID)
	if err != nil {
		return nil, invalidParams(MethodSwitchChain, "%v", err)
	}
	return SwitchChainRequest{ChainID: id}, nil
}
