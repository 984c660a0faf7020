package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
)

// Config is the node configuration, loaded from TOML.
type Config struct {
	RPCAddress          string `toml:"RPCAddress"`
	DataDir             string `toml:"DataDir"`
	StorageBackend      string `toml:"StorageBackend"`
	LockStrategy        string `toml:"LockStrategy"`
	AdminAddress        string `toml:"AdminAddress"`
	SaleAccount         string `toml:"SaleAccount"`
	VaultAccount        string `toml:"VaultAccount"`
	Rate                uint64 `toml:"Rate"`
	LockDurationSeconds int64  `toml:"LockDurationSeconds"`
	MinPurchase         string `toml:"MinPurchase"`
	MaxPurchase         string `toml:"MaxPurchase"`
	Environment         string `toml:"Environment"`
}

// Load reads the configuration from path, creating a default file when none
// exists yet.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	cfg := &Config{}
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config file %s contains unknown field %s", path, undecoded[0])
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.RPCAddress == "" {
		c.RPCAddress = "127.0.0.1:8545"
	}
	if c.DataDir == "" {
		c.DataDir = "./data"
	}
	if c.StorageBackend == "" {
		c.StorageBackend = "leveldb"
	}
	if c.LockStrategy == "" {
		c.LockStrategy = "vault"
	}
	if c.Rate == 0 {
		c.Rate = 12
	}
	if c.LockDurationSeconds == 0 {
		c.LockDurationSeconds = 365 * 24 * 60 * 60
	}
	if c.MinPurchase == "" {
		c.MinPurchase = "1000000"
	}
	if c.MaxPurchase == "" {
		c.MaxPurchase = "1000000000000"
	}
	if c.Environment == "" {
		c.Environment = "dev"
	}
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Admin returns the parsed administrator address.
func (c *Config) Admin() common.Address {
	return common.HexToAddress(c.AdminAddress)
}

// Sale returns the parsed controller custody address.
func (c *Config) Sale() common.Address {
	return common.HexToAddress(c.SaleAccount)
}

// Vault returns the parsed vault custody address.
func (c *Config) Vault() common.Address {
	return common.HexToAddress(c.VaultAccount)
}
