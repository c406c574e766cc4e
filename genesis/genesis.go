// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package genesis describes the initial parameters and token allocations of a staking node.
package genesis

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vechain/stakeweight/builtin/staker"
	"github.com/vechain/stakeweight/builtin/staker/deposit"
	"github.com/vechain/stakeweight/thor"
)

// Addresses of the builtin contracts.
var (
	TokenAddress    = thor.BytesToAddress([]byte("Token"))
	RegistryAddress = thor.BytesToAddress([]byte("Registry"))
	StakerAddress   = thor.BytesToAddress([]byte("Staker"))
)

// Account is a genesis token allocation.
type Account struct {
	Address thor.Address     `yaml:"address"`
	Balance *HexOrDecimal256 `yaml:"balance"`
}

type LeaderSelection struct {
	Frequency uint64 `yaml:"frequency"`
	Weighted  bool   `yaml:"weighted"`
}

// Config is the genesis file content.
type Config struct {
	Admin           thor.Address     `yaml:"admin"`
	StakeAuthority  thor.Address     `yaml:"stakeAuthority"`
	WeightThreshold *HexOrDecimal256 `yaml:"weightThreshold"`
	IsLeaderDefault bool             `yaml:"isLeaderDefault"`
	RewardNotifiers []thor.Address   `yaml:"rewardNotifiers"`

	RewardDuration    uint32           `yaml:"rewardDuration"`
	MaxBumpTip        *HexOrDecimal256 `yaml:"maxBumpTip"`
	MaxDepositBalance *HexOrDecimal256 `yaml:"maxDepositBalance"` // zero or absent means uncapped
	ValidatorGated    bool             `yaml:"validatorGatedEarningPower"`

	CommitteeActivationDelay uint64           `yaml:"committeeActivationDelay"`
	LeaderSelection          *LeaderSelection `yaml:"leaderSelection"`

	Accounts []Account `yaml:"accounts"`
}

// Load reads a yaml genesis file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read genesis")
	}
	return Parse(data)
}

// Parse decodes and validates yaml genesis content.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "decode genesis")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Admin.IsZero() {
		return errors.New("genesis: admin required")
	}
	if c.LeaderSelection != nil && c.LeaderSelection.Frequency == 0 {
		return errors.New("genesis: leader selection frequency must be positive")
	}
	for i, acc := range c.Accounts {
		if acc.Address.IsZero() {
			return errors.Errorf("genesis: accounts[%d]: zero address", i)
		}
		if acc.Balance == nil || acc.Balance.Big().Sign() <= 0 {
			return errors.Errorf("genesis: accounts[%d]: balance must be positive", i)
		}
	}
	return nil
}

// StakerGenesis returns the staker initialization parameters.
func (c *Config) StakerGenesis() *staker.Genesis {
	return &staker.Genesis{
		Admin:           c.Admin,
		StakeAuthority:  c.StakeAuthority,
		WeightThreshold: c.WeightThreshold.Big(),
		IsLeaderDefault: c.IsLeaderDefault,
		Registry:        RegistryAddress,
		RewardNotifiers: c.RewardNotifiers,
	}
}

// DepositConfig returns the deposit ledger policies.
func (c *Config) DepositConfig() deposit.Config {
	cfg := deposit.Config{
		RewardDuration: c.RewardDuration,
		MaxBumpTip:     c.MaxBumpTip.Big(),
		Surrogates:     deposit.HashedSurrogates{},
	}
	if limit := c.MaxDepositBalance.Big(); limit.Sign() > 0 {
		cfg.Cap = deposit.MaxBalance{Limit: limit}
	} else {
		cfg.Cap = deposit.NoCap{}
	}
	return cfg
}
