package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/abcfe/abcfe-wallet/api"
	"github.com/abcfe/abcfe-wallet/chain"
	"github.com/abcfe/abcfe-wallet/common/logger"
	prt "github.com/abcfe/abcfe-wallet/protocol"
	"github.com/abcfe/abcfe-wallet/provider"
	"github.com/abcfe/abcfe-wallet/wallet"
)

// get home response
func HomeHandler(w http.ResponseWriter, r *http.Request) {
	info := map[string]string{
		"name":    "ABCFE Wallet API",
		"version": "1.0.0",
	}
	sendResp(w, http.StatusOK, info, nil)
}

// RPCHandler serves EIP-1193 requests as JSON-RPC 2.0 over HTTP
func RPCHandler(d *provider.Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RPCReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			sendRPC(w, rpcErrResp{
				JSONRPC: "2.0",
				ID:      json.RawMessage("null"),
				Error:   &provider.RPCError{Code: provider.CodeParseError, Message: "Parse error: " + err.Error()},
			})
			return
		}

		id := req.ID
		if len(id) == 0 {
			id = json.RawMessage("null")
		}
		if req.Method == "" {
			sendRPC(w, rpcErrResp{
				JSONRPC: "2.0",
				ID:      id,
				Error:   &provider.RPCError{Code: provider.CodeInvalidRequest, Message: "Invalid request: missing method"},
			})
			return
		}

		result, rpcErr := d.Request(r.Context(), req.Method, req.Params)
		if rpcErr != nil {
			sendRPC(w, rpcErrResp{JSONRPC: "2.0", ID: id, Error: rpcErr})
			return
		}
		sendRPC(w, RPCResp{JSONRPC: "2.0", ID: id, Result: result})
	}
}

// GetWallet returns the wallet status, with accounts when unlocked
func GetWallet(wm *wallet.WalletManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := wm.Status(r.Context())
		if err != nil {
			sendResp(w, httpStatus(err), nil, err)
			return
		}

		resp := WalletResp{
			Created:      status.Created,
			Name:         status.Name,
			AccountCount: status.AccountCount,
			Unlocked:     status.Unlocked,
			Accounts:     []WalletAccountResp{},
		}
		if status.Unlocked {
			accounts, err := wm.UnlockedAccounts(r.Context())
			if err != nil {
				sendResp(w, httpStatus(err), nil, err)
				return
			}
			resp.Accounts = formatAccountsResp(accounts)
		}
		sendResp(w, http.StatusOK, resp, nil)
	}
}

// CreateWallet generates a new wallet and returns its mnemonic once
func CreateWallet(wm *wallet.WalletManager, hub *api.WSHub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateWalletReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			sendResp(w, http.StatusBadRequest, nil, fmt.Errorf("invalid request body: %w", err))
			return
		}

		mnemonic, account, err := wm.CreateWallet(r.Context(), req.Name, req.Password)
		if err != nil {
			sendResp(w, httpStatus(err), nil, err)
			return
		}

		emitAccounts(wm, hub, r)
		sendResp(w, http.StatusCreated, CreateWalletResp{
			Mnemonic: mnemonic,
			Account:  formatAccountResp(account),
		}, nil)
	}
}

func RestoreWallet(wm *wallet.WalletManager, hub *api.WSHub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RestoreWalletReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			sendResp(w, http.StatusBadRequest, nil, fmt.Errorf("invalid request body: %w", err))
			return
		}
		if req.Count == 0 {
			req.Count = 1
		}

		accounts, err := wm.RestoreWallet(r.Context(), req.Mnemonic, req.Name, req.Password, req.Count)
		if err != nil {
			sendResp(w, httpStatus(err), nil, err)
			return
		}

		emitAccounts(wm, hub, r)
		sendResp(w, http.StatusCreated, formatAccountsResp(accounts), nil)
	}
}

// CreateNewAccount derives the next account
func CreateNewAccount(wm *wallet.WalletManager, hub *api.WSHub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PasswordReq
		if r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				sendResp(w, http.StatusBadRequest, nil, fmt.Errorf("invalid request body: %w", err))
				return
			}
		}

		password := req.Password
		if password == "" {
			cached, ok := wm.Keyring().Password()
			if !ok {
				sendResp(w, http.StatusUnauthorized, nil, wallet.ErrWalletLocked)
				return
			}
			password = cached
		}

		account, err := wm.CreateAccount(r.Context(), password)
		if err != nil {
			sendResp(w, httpStatus(err), nil, err)
			return
		}

		emitAccounts(wm, hub, r)
		sendResp(w, http.StatusCreated, formatAccountResp(account), nil)
	}
}

func RenameWallet(wm *wallet.WalletManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RenameWalletReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			sendResp(w, http.StatusBadRequest, nil, fmt.Errorf("invalid request body: %w", err))
			return
		}
		if err := wm.Rename(r.Context(), req.Name); err != nil {
			sendResp(w, httpStatus(err), nil, err)
			return
		}
		sendResp(w, http.StatusOK, map[string]string{"name": req.Name}, nil)
	}
}

func UnlockWallet(wm *wallet.WalletManager, hub *api.WSHub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PasswordReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			sendResp(w, http.StatusBadRequest, nil, fmt.Errorf("invalid request body: %w", err))
			return
		}
		if err := wm.Keyring().Unlock(r.Context(), req.Password); err != nil {
			sendResp(w, httpStatus(err), nil, err)
			return
		}

		emitAccounts(wm, hub, r)
		sendResp(w, http.StatusOK, map[string]bool{"unlocked": true}, nil)
	}
}

func LockWallet(wm *wallet.WalletManager, hub *api.WSHub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wm.Keyring().Lock()
		if hub != nil {
			hub.Emit(provider.EventAccountsChanged, []string{})
		}
		sendResp(w, http.StatusOK, map[string]bool{"unlocked": false}, nil)
	}
}

// GetChains lists supported chains
func GetChains(reg *chain.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		active := reg.CurrentChain().ID
		chains := reg.Chains()
		result := make([]ChainResp, 0, len(chains))
		for _, d := range chains {
			result = append(result, formatChainResp(d, d.ID == active))
		}
		sendResp(w, http.StatusOK, result, nil)
	}
}

// GetActiveChain returns the active chain
func GetActiveChain(reg *chain.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sendResp(w, http.StatusOK, formatChainResp(reg.CurrentChain(), true), nil)
	}
}

// GetWSStatus gets WebSocket connection status
func GetWSStatus(hub *api.WSHub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if hub == nil {
			sendResp(w, http.StatusInternalServerError, nil, fmt.Errorf("WebSocket hub not initialized"))
			return
		}

		status := map[string]interface{}{
			"connected_clients": hub.GetClientCount(),
			"endpoint":          "/ws",
		}

		sendResp(w, http.StatusOK, status, nil)
	}
}

func emitAccounts(wm *wallet.WalletManager, hub *api.WSHub, r *http.Request) {
	if hub == nil {
		return
	}
	accounts, err := wm.UnlockedAccounts(r.Context())
	if err != nil {
		logger.Debug("skip accountsChanged: ", err)
		return
	}
	addrs := make([]string, 0, len(accounts))
	for _, a := range accounts {
		addrs = append(addrs, a.Hex())
	}
	hub.Emit(provider.EventAccountsChanged, addrs)
}

// httpStatus maps wallet error kinds onto status codes
func httpStatus(err error) int {
	switch {
	case errors.Is(err, wallet.ErrWalletExists):
		return http.StatusConflict
	case errors.Is(err, wallet.ErrWalletNotFound):
		return http.StatusNotFound
	case errors.Is(err, wallet.ErrInvalidPassword), errors.Is(err, wallet.ErrWalletLocked):
		return http.StatusUnauthorized
	case errors.Is(err, prt.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, prt.ErrNetwork):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// send response
func sendResp(w http.ResponseWriter, statusCode int, data interface{}, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := RestResp{
		Success: err == nil,
		Data:    data,
	}

	if err != nil {
		response.Error = err.Error()
	}

	json.NewEncoder(w).Encode(response)
}

func sendRPC(w http.ResponseWriter, resp interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

func formatAccountResp(acc *wallet.Account) WalletAccountResp {
	return WalletAccountResp{
		Index:   acc.Index,
		Address: acc.Hex(),
		Path:    acc.Path,
	}
}

func formatAccountsResp(accounts []*wallet.Account) []WalletAccountResp {
	result := make([]WalletAccountResp, len(accounts))
	for i, acc := range accounts {
		result[i] = formatAccountResp(acc)
	}
	return result
}

func formatChainResp(d chain.Descriptor, active bool) ChainResp {
	return ChainResp{
		ID:       uint64(d.ID),
		ChainID:  d.ID.Hex(),
		Name:     d.Name,
		RPCURL:   d.URL,
		Testnet:  d.Testnet,
		Symbol:   d.Currency.Symbol,
		Decimals: d.Currency.Decimals,
		Explorer: d.Explorer,
		Active:   active,
	}
}
