// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package client provides an HTTP client for the stake weight node API.
package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/vechain/stakeweight/api/events"
	"github.com/vechain/stakeweight/api/registry"
	"github.com/vechain/stakeweight/api/restutil"
	"github.com/vechain/stakeweight/api/staker"
	"github.com/vechain/stakeweight/api/token"
	"github.com/vechain/stakeweight/thor"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrNot2xStatus = errors.New("not 2xx status code")
)

// RevertError is returned when the node reverted the requested operation.
type RevertError struct {
	StatusCode int
	restutil.Revert
}

func (e *RevertError) Error() string {
	return fmt.Sprintf("reverted (%d): %s", e.StatusCode, e.Revert.Error)
}

// Is reports reverts for missing records as ErrNotFound.
func (e *RevertError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Client represents the HTTP client for interacting with a node.
type Client struct {
	url string
	c   *http.Client
}

// New creates a new Client with the provided URL.
func New(url string) *Client {
	return NewWithHTTP(url, http.DefaultClient)
}

func NewWithHTTP(url string, c *http.Client) *Client {
	return &Client{url: url, c: c}
}

func amount(v *big.Int) *math.HexOrDecimal256 {
	return (*math.HexOrDecimal256)(v)
}

// Head returns the number of the last committed block.
func (c *Client) Head() (uint32, error) {
	var info struct {
		Head uint32 `json:"head"`
	}
	if err := c.get("/node", &info); err != nil {
		return 0, fmt.Errorf("unable to retrieve node info - %w", err)
	}
	return info.Head, nil
}

// Params retrieves the staker parameters.
func (c *Client) Params() (*staker.Params, error) {
	var params staker.Params
	if err := c.get("/staker/params", &params); err != nil {
		return nil, fmt.Errorf("unable to retrieve staker params - %w", err)
	}
	return &params, nil
}

// Totals retrieves the total staked amount and earning power.
func (c *Client) Totals() (*staker.Totals, error) {
	var totals staker.Totals
	if err := c.get("/staker/totals", &totals); err != nil {
		return nil, fmt.Errorf("unable to retrieve totals - %w", err)
	}
	return &totals, nil
}

// RewardState retrieves the reward stream state.
func (c *Client) RewardState() (*staker.RewardState, error) {
	var state staker.RewardState
	if err := c.get("/staker/rewards", &state); err != nil {
		return nil, fmt.Errorf("unable to retrieve reward state - %w", err)
	}
	return &state, nil
}

// Validator retrieves the staker's view of a validator.
func (c *Client) Validator(addr thor.Address) (*staker.Validator, error) {
	var v staker.Validator
	if err := c.get("/staker/validators/"+addr.String(), &v); err != nil {
		return nil, fmt.Errorf("unable to retrieve validator - %w", err)
	}
	return &v, nil
}

// Deposit retrieves a deposit by id. ErrNotFound is returned for unknown deposits.
func (c *Client) Deposit(id uint64) (*staker.Deposit, error) {
	var d staker.Deposit
	if err := c.get("/staker/deposits/"+strconv.FormatUint(id, 10), &d); err != nil {
		return nil, fmt.Errorf("unable to retrieve deposit - %w", err)
	}
	return &d, nil
}

// Depositor retrieves the totals of a depositor.
func (c *Client) Depositor(addr thor.Address) (*staker.Depositor, error) {
	var d staker.Depositor
	if err := c.get("/staker/depositors/"+addr.String(), &d); err != nil {
		return nil, fmt.Errorf("unable to retrieve depositor - %w", err)
	}
	return &d, nil
}

// Stake creates a deposit backing validator and returns its id.
func (c *Client) Stake(caller thor.Address, value *big.Int, delegatee, claimer, validator thor.Address) (uint64, error) {
	var res staker.StakeResponse
	req := &staker.StakeRequest{Caller: caller, Amount: amount(value), Delegatee: delegatee, Claimer: claimer, Validator: validator}
	if err := c.post("/staker/deposits", req, &res); err != nil {
		return 0, fmt.Errorf("unable to stake - %w", err)
	}
	return res.DepositID, nil
}

func (c *Client) StakeMore(caller thor.Address, id uint64, value *big.Int) error {
	return c.depositOp(id, "stake-more", &staker.AmountRequest{Caller: caller, Amount: amount(value)})
}

func (c *Client) Withdraw(caller thor.Address, id uint64, value *big.Int) error {
	return c.depositOp(id, "withdraw", &staker.AmountRequest{Caller: caller, Amount: amount(value)})
}

func (c *Client) AlterValidator(caller thor.Address, id uint64, validator thor.Address) error {
	return c.depositOp(id, "validator", &staker.AddressRequest{Caller: caller, Address: validator})
}

func (c *Client) AlterClaimer(caller thor.Address, id uint64, claimer thor.Address) error {
	return c.depositOp(id, "claimer", &staker.AddressRequest{Caller: caller, Address: claimer})
}

func (c *Client) AlterDelegatee(caller thor.Address, id uint64, delegatee thor.Address) error {
	return c.depositOp(id, "delegatee", &staker.AddressRequest{Caller: caller, Address: delegatee})
}

func (c *Client) BumpEarningPower(caller thor.Address, id uint64, tipReceiver thor.Address, tip *big.Int) error {
	return c.depositOp(id, "bump", &staker.BumpRequest{Caller: caller, TipReceiver: tipReceiver, Tip: amount(tip)})
}

// Claim claims the unclaimed reward of a deposit and returns the claimed amount.
func (c *Client) Claim(caller thor.Address, id uint64) (*big.Int, error) {
	var res staker.ClaimResponse
	if err := c.post(fmt.Sprintf("/staker/deposits/%d/claim", id), &staker.CallerRequest{Caller: caller}, &res); err != nil {
		return nil, fmt.Errorf("unable to claim - %w", err)
	}
	return (*big.Int)(res.Reward), nil
}

// NotifyRewardAmount starts or extends the reward stream with value.
func (c *Client) NotifyRewardAmount(caller thor.Address, value *big.Int) error {
	if err := c.post("/staker/rewards", &staker.AmountRequest{Caller: caller, Amount: amount(value)}, nil); err != nil {
		return fmt.Errorf("unable to notify reward - %w", err)
	}
	return nil
}

// SetValidatorKeys declares or rotates the consensus keys of validator.
func (c *Client) SetValidatorKeys(caller, validator thor.Address, pk thor.PublicKey, pop thor.ProofOfPossession) error {
	req := &staker.KeysRequest{Caller: caller, PubKey: pk, Pop: pop}
	if err := c.post("/staker/validators/"+validator.String()+"/keys", req, nil); err != nil {
		return fmt.Errorf("unable to set validator keys - %w", err)
	}
	return nil
}

func (c *Client) SetBonusWeight(caller, validator thor.Address, value *big.Int) error {
	req := &staker.AmountRequest{Caller: caller, Amount: amount(value)}
	if err := c.post("/staker/validators/"+validator.String()+"/bonus", req, nil); err != nil {
		return fmt.Errorf("unable to set bonus weight - %w", err)
	}
	return nil
}

func (c *Client) SetValidatorWeightThreshold(caller thor.Address, threshold *big.Int) error {
	req := &staker.AmountRequest{Caller: caller, Amount: amount(threshold)}
	if err := c.post("/staker/admin/weight-threshold", req, nil); err != nil {
		return fmt.Errorf("unable to set weight threshold - %w", err)
	}
	return nil
}

func (c *Client) SetRewardNotifier(caller, notifier thor.Address, enabled bool) error {
	req := &staker.NotifierRequest{Caller: caller, Notifier: notifier, Enabled: enabled}
	if err := c.post("/staker/admin/reward-notifiers", req, nil); err != nil {
		return fmt.Errorf("unable to set reward notifier - %w", err)
	}
	return nil
}

// RegistryValidators retrieves the validators known to the registry.
func (c *Client) RegistryValidators() ([]*registry.Validator, error) {
	var vs []*registry.Validator
	if err := c.get("/registry/validators", &vs); err != nil {
		return nil, fmt.Errorf("unable to retrieve registry validators - %w", err)
	}
	return vs, nil
}

// RegistryValidator retrieves a registry record. ErrNotFound is returned for unregistered owners.
func (c *Client) RegistryValidator(owner thor.Address) (*registry.Validator, error) {
	var v registry.Validator
	if err := c.get("/registry/validators/"+owner.String(), &v); err != nil {
		return nil, fmt.Errorf("unable to retrieve registry validator - %w", err)
	}
	return &v, nil
}

// Committee retrieves the committee committed for epoch, or the latest when epoch is nil.
func (c *Client) Committee(epoch *uint64) (*registry.Committee, error) {
	path := "/registry/committee"
	if epoch != nil {
		path += "?epoch=" + strconv.FormatUint(*epoch, 10)
	}
	var committee registry.Committee
	if err := c.get(path, &committee); err != nil {
		return nil, fmt.Errorf("unable to retrieve committee - %w", err)
	}
	return &committee, nil
}

func (c *Client) Balance(addr thor.Address) (*big.Int, error) {
	var bal token.Balance
	if err := c.get("/token/balances/"+addr.String(), &bal); err != nil {
		return nil, fmt.Errorf("unable to retrieve balance - %w", err)
	}
	return (*big.Int)(bal.Balance), nil
}

func (c *Client) Transfer(caller, to thor.Address, value *big.Int) error {
	if err := c.post("/token/transfers", &token.TransferRequest{Caller: caller, To: to, Amount: amount(value)}, nil); err != nil {
		return fmt.Errorf("unable to transfer - %w", err)
	}
	return nil
}

// EventFilter selects the events returned by Events. Zero values are not sent.
type EventFilter struct {
	Address *thor.Address
	Topic   *thor.Bytes32
	From    *uint32
	To      *uint32
	Desc    bool
	Offset  uint64
	Limit   uint64
}

func (f *EventFilter) query() string {
	q := url.Values{}
	if f.Address != nil {
		q.Set("address", f.Address.String())
	}
	if f.Topic != nil {
		q.Set("topic", f.Topic.String())
	}
	if f.From != nil {
		q.Set("from", strconv.FormatUint(uint64(*f.From), 10))
	}
	if f.To != nil {
		q.Set("to", strconv.FormatUint(uint64(*f.To), 10))
	}
	if f.Desc {
		q.Set("order", "desc")
	}
	if f.Offset > 0 {
		q.Set("offset", strconv.FormatUint(f.Offset, 10))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.FormatUint(f.Limit, 10))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// Events retrieves the stored events matching filter.
func (c *Client) Events(filter *EventFilter) ([]*events.Event, error) {
	path := "/events"
	if filter != nil {
		path += filter.query()
	}
	var evs []*events.Event
	if err := c.get(path, &evs); err != nil {
		return nil, fmt.Errorf("unable to filter events - %w", err)
	}
	return evs, nil
}

// NextEvents waits up to timeoutMs for a block after the given one and returns the events committed since.
func (c *Client) NextEvents(after uint32, timeoutMs uint64) ([]*events.Event, error) {
	var evs []*events.Event
	if err := c.get(fmt.Sprintf("/events/next?after=%d&timeout=%d", after, timeoutMs), &evs); err != nil {
		return nil, fmt.Errorf("unable to wait for events - %w", err)
	}
	return evs, nil
}

func (c *Client) depositOp(id uint64, op string, req any) error {
	if err := c.post(fmt.Sprintf("/staker/deposits/%d/%s", id, op), req, nil); err != nil {
		return fmt.Errorf("unable to %s deposit %d - %w", op, id, err)
	}
	return nil
}

func (c *Client) get(path string, out any) error {
	return c.httpRequest(http.MethodGet, path, nil, out)
}

func (c *Client) post(path string, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("unable to marshal payload - %w", err)
	}
	return c.httpRequest(http.MethodPost, path, bytes.NewReader(data), out)
}

func (c *Client) httpRequest(method, path string, payload io.Reader, out any) error {
	req, err := http.NewRequest(method, c.url+path, payload)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.c.Do(req)
	if err != nil {
		return fmt.Errorf("error performing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var revert restutil.Revert
		if json.Unmarshal(body, &revert) == nil && revert.Data != "" {
			return &RevertError{StatusCode: resp.StatusCode, Revert: revert}
		}
		if resp.StatusCode == http.StatusNotFound {
			return ErrNotFound
		}
		return fmt.Errorf("http error - Status Code %d - %s - %w", resp.StatusCode, body, ErrNot2xStatus)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unable to unmarshal response - %w", err)
	}
	return nil
}
