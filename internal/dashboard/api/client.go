package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Client는 월렛 데몬 API 클라이언트
type Client struct {
	baseURL    string
	httpClient *http.Client
	nextID     atomic.Uint64
}

// NewClient는 새 API 클라이언트 생성
func NewClient(host string, port int) *Client {
	return NewClientWithURL(fmt.Sprintf("http://%s:%d", host, port))
}

// NewClientWithURL은 base URL로 클라이언트 생성 (테스트용)
func NewClientWithURL(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// RestResp는 API 응답 래퍼
type RestResp struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// WalletAccount는 파생 계정 정보
type WalletAccount struct {
	Index   uint32 `json:"index"`
	Address string `json:"address"`
	Path    string `json:"path"`
}

// WalletStatus는 /api/v1/wallet 응답
type WalletStatus struct {
	Created      bool            `json:"created"`
	Name         string          `json:"name"`
	AccountCount uint32          `json:"accountCount"`
	Unlocked     bool            `json:"unlocked"`
	Accounts     []WalletAccount `json:"accounts"`
}

// ChainInfo는 /api/v1/chains 항목
type ChainInfo struct {
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

// WSStatus는 /api/v1/ws/status 응답
type WSStatus struct {
	ConnectedClients int    `json:"connected_clients"`
	Endpoint         string `json:"endpoint"`
}

// RPCError는 JSON-RPC 에러 객체
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type rpcReq struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcResp struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

// GetWallet은 월렛 상태 조회
func (c *Client) GetWallet() (*WalletStatus, error) {
	resp, err := c.get("/api/v1/wallet")
	if err != nil {
		return nil, err
	}

	var status WalletStatus
	if err := json.Unmarshal(resp.Data, &status); err != nil {
		return nil, fmt.Errorf("parse wallet: %w", err)
	}
	return &status, nil
}

// GetChains는 지원 체인 목록 조회
func (c *Client) GetChains() ([]ChainInfo, error) {
	resp, err := c.get("/api/v1/chains")
	if err != nil {
		return nil, err
	}

	var chains []ChainInfo
	if err := json.Unmarshal(resp.Data, &chains); err != nil {
		return nil, fmt.Errorf("parse chains: %w", err)
	}
	return chains, nil
}

// GetWSStatus는 웹소켓 구독자 수 조회
func (c *Client) GetWSStatus() (*WSStatus, error) {
	resp, err := c.get("/api/v1/ws/status")
	if err != nil {
		return nil, err
	}

	var status WSStatus
	if err := json.Unmarshal(resp.Data, &status); err != nil {
		return nil, fmt.Errorf("parse ws status: %w", err)
	}
	return &status, nil
}

// GetBalance는 eth_getBalance 결과(wei, 10진수 문자열) 반환
func (c *Client) GetBalance(address string) (string, error) {
	var balance string
	if err := c.Call(&balance, "eth_getBalance", address, "latest"); err != nil {
		return "", err
	}
	return balance, nil
}

// SwitchChain은 wallet_switchEthereumChain 호출
func (c *Client) SwitchChain(chainIDHex string) error {
	return c.Call(nil, "wallet_switchEthereumChain", map[string]string{"chainId": chainIDHex})
}

// Unlock은 비밀번호로 키링 잠금 해제
func (c *Client) Unlock(password string) error {
	_, err := c.post("/api/v1/wallet/unlock", map[string]string{"password": password})
	return err
}

// Lock은 키링 잠금
func (c *Client) Lock() error {
	_, err := c.post("/api/v1/wallet/lock", struct{}{})
	return err
}

// AddAccount는 다음 인덱스 계정 파생 (잠금 해제 상태 필요)
func (c *Client) AddAccount() (*WalletAccount, error) {
	resp, err := c.post("/api/v1/wallet/accounts", map[string]string{})
	if err != nil {
		return nil, err
	}

	var account WalletAccount
	if err := json.Unmarshal(resp.Data, &account); err != nil {
		return nil, fmt.Errorf("parse account: %w", err)
	}
	return &account, nil
}

// IsAlive는 데몬 생존 여부 확인
func (c *Client) IsAlive() bool {
	_, err := c.GetWallet()
	return err == nil
}

// Call은 /rpc로 프로바이더 요청을 보냄
func (c *Client) Call(result interface{}, method string, params ...interface{}) error {
	if params == nil {
		params = []interface{}{}
	}
	body, err := json.Marshal(rpcReq{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Post(c.baseURL+"/rpc", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var out rpcResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if out.Error != nil {
		return out.Error
	}
	if result == nil {
		return nil
	}
	return json.Unmarshal(out.Result, result)
}

func (c *Client) get(path string) (*RestResp, error) {
	resp, err := c.httpClient.Get(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return decodeRest(resp)
}

func (c *Client) post(path string, payload interface{}) (*RestResp, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Post(c.baseURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return decodeRest(resp)
}

func decodeRest(resp *http.Response) (*RestResp, error) {
	defer resp.Body.Close()

	var result RestResp
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if !result.Success {
		return nil, fmt.Errorf("api error: %s", result.Error)
	}

	return &result, nil
}
