package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDaemon struct {
	lastMethod string
	lastParams json.RawMessage
	unlockPW   string
}

func (f *fakeDaemon) handler() http.Handler {
	mux := http.NewServeMux()
	ok := func(w http.ResponseWriter, data interface{}) {
		json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "data": data})
	}
	mux.HandleFunc("/api/v1/wallet", func(w http.ResponseWriter, r *http.Request) {
		ok(w, map[string]interface{}{
			"created": true, "name": "main", "accountCount": 1, "unlocked": true,
			"accounts": []map[string]interface{}{
				{"index": 0, "address": "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", "path": "m/44'/60'/0'/0/0"},
			},
		})
	})
	mux.HandleFunc("/api/v1/chains", func(w http.ResponseWriter, r *http.Request) {
		ok(w, []map[string]interface{}{
			{"id": 1, "chainId": "0x1", "name": "Ethereum", "symbol": "ETH", "decimals": 18, "active": true},
		})
	})
	mux.HandleFunc("/api/v1/ws/status", func(w http.ResponseWriter, r *http.Request) {
		ok(w, map[string]interface{}{"connected_clients": 3, "endpoint": "/ws"})
	})
	mux.HandleFunc("/api/v1/wallet/unlock", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Password string `json:"password"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "pw" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "error": "invalid password"})
			return
		}
		f.unlockPW = req.Password
		ok(w, nil)
	})
	mux.HandleFunc("/rpc", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
			Params json.RawMessage `json:"params"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		f.lastMethod = req.Method
		f.lastParams = req.Params

		resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
		switch req.Method {
		case "eth_getBalance":
			resp["result"] = "1500000000000000000"
		case "wallet_switchEthereumChain":
			resp["result"] = nil
		default:
			resp["error"] = map[string]interface{}{"code": -32601, "message": "Unsupported method: " + req.Method}
		}
		json.NewEncoder(w).Encode(resp)
	})
	return mux
}

func newTestClient(t *testing.T) (*Client, *fakeDaemon) {
	f := &fakeDaemon{}
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	return NewClientWithURL(srv.URL), f
}

func TestClientRest(t *testing.T) {
	c, _ := newTestClient(t)

	w, err := c.GetWallet()
	require.NoError(t, err)
	assert.True(t, w.Created)
	assert.Equal(t, "main", w.Name)
	require.Len(t, w.Accounts, 1)
	assert.Equal(t, "m/44'/60'/0'/0/0", w.Accounts[0].Path)

	chains, err := c.GetChains()
	require.NoError(t, err)
	require.Len(t, chains, 1)
	assert.Equal(t, "0x1", chains[0].ChainID)
	assert.True(t, chains[0].Active)

	ws, err := c.GetWSStatus()
	require.NoError(t, err)
	assert.Equal(t, 3, ws.ConnectedClients)

	assert.True(t, c.IsAlive())
}

func TestClientUnlock(t *testing.T) {
	c, f := newTestClient(t)

	err := c.Unlock("wrong")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid password")

	require.NoError(t, c.Unlock("pw"))
	assert.Equal(t, "pw", f.unlockPW)
}

func TestClientRPC(t *testing.T) {
	c, f := newTestClient(t)

	balance, err := c.GetBalance("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	require.NoError(t, err)
	assert.Equal(t, "1500000000000000000", balance)
	assert.JSONEq(t, `["0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266","latest"]`, string(f.lastParams))

	require.NoError(t, c.SwitchChain("0xaa36a7"))
	assert.Equal(t, "wallet_switchEthereumChain", f.lastMethod)
	assert.JSONEq(t, `[{"chainId":"0xaa36a7"}]`, string(f.lastParams))

	err = c.Call(nil, "eth_mining")
	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, -32601, rpcErr.Code)
	assert.Equal(t, "Unsupported method: eth_mining", rpcErr.Message)
}

func TestClientOffline(t *testing.T) {
	c := NewClientWithURL("http://127.0.0.1:1")
	assert.False(t, c.IsAlive())
}
