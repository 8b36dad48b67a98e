package provider

import (
	"errors"
	"fmt"

	prt "github.com/abcfe/abcfe-wallet/protocol"
)

// JSON-RPC error codes
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInternalError  = -32603
)

var (
	ErrNoActiveAccount = fmt.Errorf("%w: no active account", prt.ErrValidation)
	ErrAddressMismatch = fmt.Errorf("%w: address does not match the active account", prt.ErrValidation)
	ErrNoClients       = fmt.Errorf("%w: chain clients are not available", prt.ErrNetwork)
)

// RPCError is what crosses the provider boundary
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// UnsupportedMethodError names a method outside the supported set
type UnsupportedMethodError struct {
	Method string
}

func (e *UnsupportedMethodError) Error() string {
	return "Unsupported method: " + e.Method
}

func (e *UnsupportedMethodError) Unwrap() error {
	return prt.ErrUnsupportedMethod
}

// ToRPCError maps any failure onto -32601 or -32603
func ToRPCError(err error) *RPCError {
	if err == nil {
		return nil
	}
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	if errors.Is(err, prt.ErrUnsupportedMethod) {
		return &RPCError{Code: CodeMethodNotFound, Message: err.Error()}
	}
	return &RPCError{Code: CodeInternalError, Message: err.Error()}
}
