// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package node runs staker operations one at a time. Every successful operation is committed
// as a new block: state is flushed to the store and the emitted events to the event db.
package node

import (
	"context"
	"math/big"
	"sync"

	"github.com/pkg/errors"

	"github.com/vechain/stakeweight/builtin/registry"
	"github.com/vechain/stakeweight/builtin/solidity"
	"github.com/vechain/stakeweight/builtin/staker"
	"github.com/vechain/stakeweight/builtin/staker/deposit"
	"github.com/vechain/stakeweight/builtin/staker/oracle"
	"github.com/vechain/stakeweight/builtin/staker/vctx"
	"github.com/vechain/stakeweight/builtin/token"
	"github.com/vechain/stakeweight/co"
	"github.com/vechain/stakeweight/eventdb"
	"github.com/vechain/stakeweight/genesis"
	"github.com/vechain/stakeweight/health"
	"github.com/vechain/stakeweight/kv"
	"github.com/vechain/stakeweight/log"
	"github.com/vechain/stakeweight/metrics"
	"github.com/vechain/stakeweight/state"
	"github.com/vechain/stakeweight/thor"
)

var (
	logger = log.WithContext("pkg", "node")

	metricHead      = metrics.LazyLoadGauge("node_head_block")
	metricExecCount = metrics.LazyLoadCounterVec("node_exec_count", []string{"result"})

	metaAddress = thor.BytesToAddress([]byte("NodeMeta"))
	stateBucket = kv.Bucket("st.")
)

// Contracts are the builtin contracts an operation works on.
type Contracts struct {
	Staker   *staker.Staker
	Registry *registry.Registry
	Token    *token.Token
}

type Node struct {
	mu        sync.Mutex
	state     *state.State
	edb       *eventdb.EventDB
	contracts *Contracts
	head      *solidity.Uint256
	current   uint32
	ticker    co.Signal
	health    health.Health
}

// New opens the node over store. The genesis is applied when the store holds no staker yet.
func New(ctx context.Context, store kv.Store, edb *eventdb.EventDB, gen *genesis.Config) (*Node, error) {
	st := state.New(stateBucket.NewStore(store))
	n := &Node{
		state: st,
		edb:   edb,
		head:  solidity.NewUint256(solidity.NewContext(metaAddress, st), thor.BytesToBytes32([]byte("head"))),
	}
	head, err := n.head.Get()
	if err != nil {
		return nil, err
	}
	n.current = uint32(head.Uint64())

	blockNum := func() uint32 { return n.current }
	cfg := staker.Config{Deposit: gen.DepositConfig()}
	if gen.ValidatorGated {
		cfg.Oracle = func(vc vctx.Reader, keys oracle.KeyLookup) deposit.EarningPowerOracle {
			return oracle.NewValidatorGated(vc, keys)
		}
	}
	tok := token.New(genesis.TokenAddress, st)
	reg := registry.New(genesis.RegistryAddress, st, blockNum)
	stk := staker.New(genesis.StakerAddress, st, tok, blockNum, cfg)
	stk.AddRegistry(reg)
	n.contracts = &Contracts{Staker: stk, Registry: reg, Token: tok}

	params, err := stk.Params()
	if err != nil {
		return nil, err
	}
	if params.Admin.IsZero() {
		if err := n.applyGenesis(ctx, gen); err != nil {
			return nil, errors.WithMessage(err, "apply genesis")
		}
	}
	logger.Info("node opened", "head", n.current)
	return n, nil
}

func (n *Node) applyGenesis(ctx context.Context, gen *genesis.Config) error {
	return n.Exec(ctx, func(c *Contracts) error {
		for _, acc := range gen.Accounts {
			if err := c.Token.Mint(acc.Address, acc.Balance.Big()); err != nil {
				return err
			}
		}
		if err := c.Registry.SetCommitteeActivationDelay(gen.CommitteeActivationDelay); err != nil {
			return err
		}
		if ls := gen.LeaderSelection; ls != nil {
			if err := c.Registry.UpdateLeaderSelection(ls.Frequency, ls.Weighted); err != nil {
				return err
			}
		}
		return c.Staker.Initialize(gen.StakerGenesis())
	})
}

// Exec runs op as the next block. On success the state and the drained events are committed;
// on failure everything op wrote is discarded.
func (n *Node) Exec(ctx context.Context, op func(c *Contracts) error) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	head := n.current
	n.current = head + 1
	checkpoint := n.state.NewCheckpoint()

	if err := op(n.contracts); err != nil {
		n.state.RevertTo(checkpoint)
		n.contracts.Staker.DrainEvents()
		n.current = head
		metricExecCount().AddWithLabel(1, map[string]string{"result": "failed"})
		return err
	}

	evs := n.contracts.Staker.DrainEvents()
	if err := n.head.Set(new(big.Int).SetUint64(uint64(n.current))); err != nil {
		n.state.RevertTo(checkpoint)
		n.current = head
		return err
	}
	if err := n.state.Stage().Commit(); err != nil {
		n.state.RevertTo(checkpoint)
		n.current = head
		return errors.WithMessage(err, "commit state")
	}
	n.health.NewBlock(n.current)

	// the block is committed at this point, a failed event write only leaves a gap in the event log
	if err := n.edb.Write(ctx, n.current, evs); err != nil {
		logger.Error("failed to write events", "number", n.current, "err", err)
		n.health.EventsWriteFailed(n.current, err)
	}

	metricExecCount().AddWithLabel(1, map[string]string{"result": "ok"})
	metricHead().Set(int64(n.current))
	logger.Debug("block committed", "number", n.current, "events", len(evs))
	n.ticker.Broadcast()
	return nil
}

// View runs a read-only function against the committed state.
func (n *Node) View(fn func(c *Contracts) error) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	return fn(n.contracts)
}

// Head returns the number of the last committed block.
func (n *Node) Head() uint32 {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.current
}

// NewTicker returns a waiter signaled on every committed block.
func (n *Node) NewTicker() co.Waiter {
	return n.ticker.NewWaiter()
}

func (n *Node) Health() *health.Health {
	return &n.health
}

func (n *Node) EventDB() *eventdb.EventDB {
	return n.edb
}
