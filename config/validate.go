package config

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Validate checks the configuration invariants the engines rely on.
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case "leveldb", "bolt":
	default:
		return fmt.Errorf("config: unknown storage backend %q", c.StorageBackend)
	}
	switch c.LockStrategy {
	case "vault", "embedded":
	default:
		return fmt.Errorf("config: unknown lock strategy %q", c.LockStrategy)
	}
	if c.AdminAddress == "" || !common.IsHexAddress(c.AdminAddress) {
		return fmt.Errorf("config: AdminAddress must be a hex address")
	}
	if c.SaleAccount == "" || !common.IsHexAddress(c.SaleAccount) {
		return fmt.Errorf("config: SaleAccount must be a hex address")
	}
	if c.LockStrategy == "vault" {
		if c.VaultAccount == "" || !common.IsHexAddress(c.VaultAccount) {
			return fmt.Errorf("config: VaultAccount must be a hex address under the vault strategy")
		}
	}
	if c.Rate == 0 {
		return fmt.Errorf("config: Rate must be positive")
	}
	if c.LockDurationSeconds <= 0 {
		return fmt.Errorf("config: LockDurationSeconds must be positive")
	}
	min, ok := new(big.Int).SetString(c.MinPurchase, 10)
	if !ok || min.Sign() <= 0 {
		return fmt.Errorf("config: MinPurchase must be a positive integer")
	}
	max, ok := new(big.Int).SetString(c.MaxPurchase, 10)
	if !ok || max.Sign() <= 0 {
		return fmt.Errorf("config: MaxPurchase must be a positive integer")
	}
	if min.Cmp(max) > 0 {
		return fmt.Errorf("config: MinPurchase exceeds MaxPurchase")
	}
	return nil
}

// MinPurchaseAmount returns the parsed minimum purchase in payment base units.
func (c *Config) MinPurchaseAmount() *big.Int {
	v, _ := new(big.Int).SetString(c.MinPurchase, 10)
	return v
}

// MaxPurchaseAmount returns the parsed maximum purchase in payment base units.
func (c *Config) MaxPurchaseAmount() *big.Int {
	v, _ := new(big.Int).SetString(c.MaxPurchase, 10)
	return v
}
