package rest

import (
	"net/http"

	"github.com/abcfe/abcfe-wallet/api"
	"github.com/abcfe/abcfe-wallet/chain"
	"github.com/abcfe/abcfe-wallet/provider"
	"github.com/abcfe/abcfe-wallet/wallet"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the services the HTTP surface is built on
type Deps struct {
	Wallet     *wallet.WalletManager
	Registry   *chain.Registry
	Dispatcher *provider.Dispatcher
	Hub        *api.WSHub
	Gatherer   prometheus.Gatherer
}

func setupRouter(d Deps) http.Handler {
	r := mux.NewRouter()

	// Middleware setup
	r.Use(LoggingMiddleware)
	r.Use(RecoveryMiddleware)

	// Base route
	r.HandleFunc("/", HomeHandler).Methods("GET")

	// EIP-1193 provider over JSON-RPC
	r.HandleFunc("/rpc", RPCHandler(d.Dispatcher)).Methods("POST")

	// WebSocket endpoint
	if d.Hub != nil {
		r.HandleFunc("/ws", api.HandleWebSocket(d.Hub))
	}

	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})).Methods("GET")
	}

	apiRouter := r.PathPrefix("/api/v1").Subrouter()

	// Wallet related API
	apiRouter.HandleFunc("/wallet", GetWallet(d.Wallet)).Methods("GET")
	apiRouter.HandleFunc("/wallet", CreateWallet(d.Wallet, d.Hub)).Methods("POST")
	apiRouter.HandleFunc("/wallet/restore", RestoreWallet(d.Wallet, d.Hub)).Methods("POST")
	apiRouter.HandleFunc("/wallet/accounts", CreateNewAccount(d.Wallet, d.Hub)).Methods("POST")
	apiRouter.HandleFunc("/wallet/name", RenameWallet(d.Wallet)).Methods("PUT")
	apiRouter.HandleFunc("/wallet/unlock", UnlockWallet(d.Wallet, d.Hub)).Methods("POST")
	apiRouter.HandleFunc("/wallet/lock", LockWallet(d.Wallet, d.Hub)).Methods("POST")

	// Chain related API
	apiRouter.HandleFunc("/chains", GetChains(d.Registry)).Methods("GET")
	apiRouter.HandleFunc("/chain", GetActiveChain(d.Registry)).Methods("GET")

	// WebSocket status API
	apiRouter.HandleFunc("/ws/status", GetWSStatus(d.Hub)).Methods("GET")

	return r
}
