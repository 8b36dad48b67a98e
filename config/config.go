package config

import (
	"fmt"
	"os"
	"path"

	"github.com/abcfe/abcfe-wallet/common/utils"
	prt "github.com/abcfe/abcfe-wallet/protocol"
	"github.com/naoina/toml"
)

type Common struct {
	Level        string `toml:"Level"` // alpha, prod
	ServiceName  string `toml:"ServiceName"`
	DefaultChain uint64 `toml:"DefaultChain"` // active chain at cold start
}

type LogInfo struct {
	Path       string `toml:"Path"`
	MaxAgeHour int    `toml:"MaxAgeHour"`
	RotateHour int    `toml:"RotateHour"`
}

type DB struct {
	Backend string `toml:"Backend"` // leveldb, file, memory
	Path    string `toml:"Path"`
}

// Wallet keystore settings
type Wallet struct {
	EntropyBits  int    `toml:"EntropyBits"`
	ScryptN      int    `toml:"ScryptN"`
	ScryptR      int    `toml:"ScryptR"`
	ScryptP      int    `toml:"ScryptP"`
	PasswordFile string `toml:"PasswordFile"` // unlock at startup when set

	MaxRestoreAccounts uint32 `toml:"MaxRestoreAccounts"` // upper bound for restore count

}

type Server struct {
	Host     string `toml:"Host"`
	RestPort int    `toml:"RestPort"`
}

// Node client settings shared by every chain endpoint
type Node struct {
	TimeoutSec      int     `toml:"TimeoutSec"`
	RateLimit       int     `toml:"RateLimit"` // requests per second, 0 = unlimited
	BreakerRequests int     `toml:"BreakerRequests"`
	BreakerRatio    float64 `toml:"BreakerRatio"`
}

type Chain struct {
	ID       uint64 `toml:"ID"`
	Name     string `toml:"Name"`
	URL      string `toml:"URL"`
	Testnet  bool   `toml:"Testnet"`
	Symbol   string `toml:"Symbol"`
	Decimals uint8  `toml:"Decimals"`
	Explorer string `toml:"Explorer"`
}

type Config struct {
	Common  Common
	LogInfo LogInfo
	DB      DB
	Wallet  Wallet
	Server  Server
	Node    Node
	Chains  []Chain `toml:"Chains"`
}

// Light scrypt parameters, for tests only
const (
	LightScryptN = 1 << 12
	LightScryptP = 6
)

const (
	StandardScryptN = 1 << 18
	StandardScryptR = 8
	StandardScryptP = 1

	DefaultMaxRestoreAccounts = 100
)

// DefaultChains mirrors the networks the wallet ships with.
func DefaultChains() []Chain {
	return []Chain{
		{
			ID:       uint64(prt.ChainIDMainnet),
			Name:     "Ethereum",
			URL:      "https://rpc.payload.de",
			Symbol:   "ETH",
			Decimals: 18,
			Explorer: "https://etherscan.io",
		},
		{
			ID:       uint64(prt.ChainIDSepolia),
			Name:     "Sepolia",
			URL:      "https://1rpc.io/sepolia",
			Testnet:  true,
			Symbol:   "ETH",
			Decimals: 18,
			Explorer: "https://sepolia.etherscan.io",
		},
	}
}

// DefaultConfig returns a config usable without any file on disk.
func DefaultConfig() *Config {
	c := &Config{}
	c.sanitize()
	return c
}

func NewConfig(filepath string) (*Config, error) {
	explicit := filepath != ""
	if !explicit {
		workDir, _ := os.Getwd()
		rootDir := utils.FindProjectRoot(workDir)
		filepath = path.Join(rootDir, "config", "config.toml")
	}

	file, err := os.Open(filepath)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}
	defer file.Close()

	c := new(Config)
	if err := toml.NewDecoder(file).Decode(c); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filepath, err)
	}
	c.sanitize()
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (p *Config) sanitize() {
	if p.Common.ServiceName == "" {
		p.Common.ServiceName = "abcfe-wallet"
	}
	if p.Common.Level == "" {
		p.Common.Level = "prod"
	}
	if p.LogInfo.Path == "" {
		p.LogInfo.Path = "~/.abcfe-wallet/log/wallet"
	}
	p.LogInfo.Path = utils.ExpandHome(p.LogInfo.Path)
	if p.LogInfo.MaxAgeHour == 0 {
		p.LogInfo.MaxAgeHour = 24 * 7
	}
	if p.LogInfo.RotateHour == 0 {
		p.LogInfo.RotateHour = 24
	}

	if p.DB.Backend == "" {
		p.DB.Backend = "leveldb"
	}
	if p.DB.Path == "" {
		p.DB.Path = "~/.abcfe-wallet/data"
	}
	p.DB.Path = utils.ExpandHome(p.DB.Path)

	if p.Wallet.EntropyBits == 0 {
		p.Wallet.EntropyBits = 128
	}
	if p.Wallet.ScryptN == 0 {
		p.Wallet.ScryptN = StandardScryptN
	}
	if p.Wallet.ScryptR == 0 {
		p.Wallet.ScryptR = StandardScryptR
	}
	if p.Wallet.ScryptP == 0 {
		p.Wallet.ScryptP = StandardScryptP
	}
	if p.Wallet.MaxRestoreAccounts == 0 {
		p.Wallet.MaxRestoreAccounts = DefaultMaxRestoreAccounts
	}
	p.Wallet.PasswordFile = utils.ExpandHome(p.Wallet.PasswordFile)

	if p.Server.Host == "" {
		p.Server.Host = "127.0.0.1"
	}
	if p.Server.RestPort == 0 {
		p.Server.RestPort = 8545
	}

	if p.Node.TimeoutSec == 0 {
		p.Node.TimeoutSec = 15
	}
	if p.Node.BreakerRequests == 0 {
		p.Node.BreakerRequests = 10
	}
	if p.Node.BreakerRatio == 0 {
		p.Node.BreakerRatio = 0.6
	}

	if len(p.Chains) == 0 {
		p.Chains = DefaultChains()
	}
	if p.Common.DefaultChain == 0 {
		p.Common.DefaultChain = uint64(prt.ChainIDSepolia)
	}
}

func (p *Config) validate() error {
	seen := make(map[uint64]bool, len(p.Chains))
	for _, c := range p.Chains {
		if c.ID == 0 {
			return fmt.Errorf("chain %q: id must not be zero", c.Name)
		}
		if c.URL == "" {
			return fmt.Errorf("chain %d: endpoint url is required", c.ID)
		}
		if seen[c.ID] {
			return fmt.Errorf("chain %d declared twice", c.ID)
		}
		seen[c.ID] = true
	}
	if !seen[p.Common.DefaultChain] {
		return fmt.Errorf("default chain %d is not in the chains table", p.Common.DefaultChain)
	}
	switch p.DB.Backend {
	case "leveldb", "file", "memory":
	default:
		return fmt.Errorf("unknown db backend %q", p.DB.Backend)
	}
	return nil
}

func (p *Config) GetConfig() *Config {
	return p
}

func (p *Config) GetLogInfoConfig() *LogInfo {
	return &p.LogInfo
}
