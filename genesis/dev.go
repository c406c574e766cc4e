// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"crypto/ecdsa"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/vechain/stakeweight/thor"
)

// DevAccount is a pre-funded development account.
type DevAccount struct {
	Address    thor.Address
	PrivateKey *ecdsa.PrivateKey
}

var devAccounts = sync.OnceValue(func() []DevAccount {
	keys := []string{
		"dce1443bd2ef0c2631adc1c67e5c93f13dc23a41c18b536effbbdcbcdb96fb65",
		"321d6443bc6177273b5abf54210fe806d451d6b7973bccc2384ef78bbcd0bf51",
		"2d7c882bad2a01105e36dda3646693bc1aaaa45b0ed63fb0ce23c060294f3af2",
		"593537225b037191d322c3b1df585fb1e5100811b71a6f7fc7e29cca1333483e",
		"ca7b25fc980c759df5f3ce17a3d881d6e19a38e651fc4315fc08917edab41058",
		"88d2d80b12b92feaa0da6d62309463d20408157723f2d7e799b6a74ead9a673b",
	}
	accs := make([]DevAccount, 0, len(keys))
	for _, hex := range keys {
		pk, err := crypto.HexToECDSA(hex)
		if err != nil {
			panic(err)
		}
		accs = append(accs, DevAccount{thor.Address(crypto.PubkeyToAddress(pk.PublicKey)), pk})
	}
	return accs
})

// DevAccounts returns the dev mode accounts. The first is admin, the second the stake
// authority and the third the reward notifier.
func DevAccounts() []DevAccount {
	return devAccounts()
}

var devBalance = new(big.Int).Mul(big.NewInt(1_000_000), big.NewInt(1e18))

// NewDevConfig returns the genesis used when no genesis file is given.
func NewDevConfig() *Config {
	accs := DevAccounts()
	cfg := &Config{
		Admin:                    accs[0].Address,
		StakeAuthority:           accs[1].Address,
		WeightThreshold:          (*HexOrDecimal256)(new(big.Int).Mul(big.NewInt(10_000), big.NewInt(1e18))),
		IsLeaderDefault:          true,
		RewardNotifiers:          []thor.Address{accs[2].Address},
		RewardDuration:           8640,
		MaxBumpTip:               (*HexOrDecimal256)(big.NewInt(1e18)),
		CommitteeActivationDelay: 10,
		LeaderSelection:          &LeaderSelection{Frequency: 1, Weighted: true},
	}
	for _, acc := range accs {
		cfg.Accounts = append(cfg.Accounts, Account{Address: acc.Address, Balance: (*HexOrDecimal256)(new(big.Int).Set(devBalance))})
	}
	return cfg
}
