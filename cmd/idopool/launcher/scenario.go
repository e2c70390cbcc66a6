package launcher

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"io/ioutil"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/state"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/naoina/toml"
	"github.com/sirupsen/logrus"

	"github.com/rony4d/go-idopool/evmcore"
	"github.com/rony4d/go-idopool/ido"
	"github.com/rony4d/go-idopool/ido/contracts/erc20"
	"github.com/rony4d/go-idopool/ido/contracts/oracle"
	"github.com/rony4d/go-idopool/ido/contracts/poolcontract"
	"github.com/rony4d/go-idopool/ido/pool"
	"github.com/rony4d/go-idopool/integration"
)

// callGas is the gas limit of every scenario transaction. It covers the most
// expensive call of the default gas schedule.
const callGas uint64 = 1_000_000

// Scenario is a script of pool operations replayed against a chain.
//
// Example:
//
//	accounts = 4
//	preset = "short"
//
//	[[step]]
//	action = "deploy"
//
//	[[step]]
//	action = "deposit"
//	from = 1
//	amount = "100"
//
//	[[step]]
//	action = "buy"
//	day = 1
//	from = 1
//	amount = "10"
//	expect = "IDOPool::buy: allowance is insufficient"
type Scenario struct {
	Name     string
	Accounts int    // genesis accounts, the configured count when zero
	Preset   string // deploy preset, the configured one when empty
	Steps    []Step `toml:"step"`
}

// Step is one block holding a single operation.
//
// Accounts are genesis account indexes; account 0 is the owner. Amounts are
// decimal whole units: native units for deploy, deposit, withdraw, buy and
// refund, token units for approve, mint and transfer. A price is in token units
// per whole native unit.
type Step struct {
	Action string

	// The block time is the scenario start plus Day vesting days plus Offset seconds.
	Day    uint64
	Offset uint64

	From     int
	To       int
	Referrer int
	Pool     uint64 // the last deployed pool when zero
	Amount   string
	Price    string

	// Deploy overrides of the preset.
	Preset string
	Days   uint64
	Rate   uint64
	Delay  uint64
	Fund   string

	// Expect is a substring of the revert reason the step must fail with.
	// An empty Expect means the step must succeed.
	Expect string
}

// LoadScenario reads a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

// ParseScenario decodes a TOML scenario.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := toml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if len(sc.Steps) == 0 {
		return nil, errors.New("scenario has no steps")
	}
	for i := range sc.Steps {
		sc.Steps[i].Action = strings.ToLower(sc.Steps[i].Action)
	}
	return &sc, nil
}

// StepResult is the outcome of one scenario step.
type StepResult struct {
	Index  int
	Action string
	Time   uint64
	Block  uint64
	From   common.Address
	Pool   uint64
	Gas    uint64
	Reason string   // revert reason, empty on success
	Events []string // names of the emitted pool events
	Output string   // decoded outputs
}

// OK reports whether the step succeeded.
func (r *StepResult) OK() bool {
	return r.Reason == ""
}

// Runner replays scenarios on a chain.
type Runner struct {
	chain  *evmcore.Chain
	rules  ido.Rules
	preset integration.PoolPreset
	keys   []*ecdsa.PrivateKey
	start  uint64

	lastPool uint64

	log *logrus.Entry
}

// NewRunner prepares a runner signing for the first accounts genesis accounts.
// Step times are counted from the current head.
func NewRunner(chain *evmcore.Chain, accounts int, preset integration.PoolPreset) *Runner {
	keys := make([]*ecdsa.PrivateKey, accounts)
	for i := range keys {
		keys[i] = evmcore.FakeKey(i)
	}
	return &Runner{
		chain:    chain,
		rules:    chain.Rules(),
		preset:   preset,
		keys:     keys,
		start:    chain.Head().Time,
		lastPool: chain.Pool().PoolCount(),
		log:      logrus.WithField("module", "launcher"),
	}
}

// Accounts returns the addresses of the runner's accounts.
func (r *Runner) Accounts() []common.Address {
	out := make([]common.Address, len(r.keys))
	for i := range r.keys {
		out[i] = evmcore.FakeAddress(i)
	}
	return out
}

// Run applies every step in order. It stops at the first step whose outcome
// differs from its expectation and returns the results gathered so far.
func (r *Runner) Run(sc *Scenario) ([]*StepResult, error) {
	results := make([]*StepResult, 0, len(sc.Steps))
	for i, s := range sc.Steps {
		res, err := r.Step(i, s)
		if err != nil {
			return results, fmt.Errorf("step %d (%s): %w", i, s.Action, err)
		}
		results = append(results, res)

		entry := r.log.WithFields(logrus.Fields{"step": i, "action": s.Action, "block": res.Block})
		switch {
		case s.Expect == "" && !res.OK():
			return results, fmt.Errorf("step %d (%s): unexpected revert: %s", i, s.Action, res.Reason)
		case s.Expect != "" && res.OK():
			return results, fmt.Errorf("step %d (%s): want revert %q, step succeeded", i, s.Action, s.Expect)
		case s.Expect != "" && !strings.Contains(res.Reason, s.Expect):
			return results, fmt.Errorf("step %d (%s): want revert %q, got %q", i, s.Action, s.Expect, res.Reason)
		case !res.OK():
			entry.WithField("reason", res.Reason).Warn("Step reverted as expected")
		default:
			entry.Debug("Step applied")
		}
	}
	return results, nil
}

// Step applies a single step in its own block.
func (r *Runner) Step(index int, s Step) (*StepResult, error) {
	time := r.start + s.Day*r.rules.DayLength + s.Offset
	from, err := r.key(s.From)
	if err != nil {
		return nil, err
	}
	res := &StepResult{
		Index:  index,
		Action: s.Action,
		Time:   time,
		From:   evmcore.FakeAddress(s.From),
		Pool:   s.Pool,
	}
	if res.Pool == 0 {
		res.Pool = r.lastPool
	}

	switch s.Action {
	case "mint", "approve", "setprice":
		return res, r.system(res, s)
	}

	method, value, args, err := r.call(res, s, time)
	if err != nil {
		return nil, err
	}
	contract := r.chain.Processor().Contract()
	data, err := contract.Pack(method, args...)
	if err != nil {
		return nil, err
	}
	tx, err := r.chain.SignCall(from, value, callGas, data)
	if err != nil {
		return nil, err
	}
	block, receipts, results, err := r.chain.Apply(time, types.Transactions{tx}, nil)
	if err != nil {
		return nil, err
	}
	res.Block = block.Number.Uint64()
	result := results[0]
	res.Gas = result.UsedGas
	if result.Failed() {
		res.Reason = revertReason(result)
		return res, nil
	}
	res.Events = eventNames(receipts[0].Logs)

	outputs, err := contract.Unpack(method, result.ReturnData)
	if err != nil {
		return nil, fmt.Errorf("unpack %s outputs: %w", method, err)
	}
	if method == "deploy" {
		r.lastPool = outputs[0].(*big.Int).Uint64()
		res.Pool = r.lastPool
	}
	res.Output = formatOutputs(outputs)
	return res, nil
}

// call builds the contract call of a transaction step.
func (r *Runner) call(res *StepResult, s Step, time uint64) (method string, value *big.Int, args []interface{}, err error) {
	native := func() (*big.Int, error) { return integration.ParseUnits(orZero(s.Amount), int32(r.rules.PriceDecimals)) }
	id := new(big.Int).SetUint64(res.Pool)

	switch s.Action {
	case "deploy":
		preset := r.preset
		if s.Preset != "" {
			if preset, err = integration.GetPresetByName(s.Preset); err != nil {
				return
			}
		}
		integration.ApplyPreset(&preset, integration.PoolPreset{
			DurationDays:     s.Days,
			RewardRatePermil: s.Rate,
			StartDelayDays:   s.Delay,
			Funding:          s.Fund,
		})
		var d integration.DeployArgs
		if d, err = preset.DeployArgs(r.rules, time); err != nil {
			return
		}
		return "deploy", d.Value, []interface{}{
			new(big.Int).SetUint64(d.StartTime),
			new(big.Int).SetUint64(d.Duration),
			new(big.Int).SetUint64(d.RewardRatePermil),
			evmcore.OracleAddress,
		}, nil
	case "deposit":
		if value, err = native(); err != nil {
			return
		}
		return "deposit", value, []interface{}{id}, nil
	case "withdraw":
		var amount *big.Int
		if amount, err = native(); err != nil {
			return
		}
		return "withdraw", nil, []interface{}{id, amount}, nil
	case "accept":
		return "accept", nil, []interface{}{id, evmcore.FakeAddress(s.Referrer)}, nil
	case "buy":
		var amount *big.Int
		if amount, err = native(); err != nil {
			return
		}
		return "buy", nil, []interface{}{id, evmcore.TokenAddress, amount}, nil
	case "transfer":
		var amount *big.Int
		if amount, err = r.tokenUnits(s.Amount); err != nil {
			return
		}
		return "transfer", nil, []interface{}{evmcore.TokenAddress, evmcore.FakeAddress(s.To), amount}, nil
	case "refund":
		var amount *big.Int
		if amount, err = native(); err != nil {
			return
		}
		return "refund", nil, []interface{}{evmcore.FakeAddress(s.To), amount}, nil
	case "stop", "start":
		return s.Action, nil, nil, nil
	case "transferownership":
		return "transferOwnership", nil, []interface{}{evmcore.FakeAddress(s.To)}, nil
	}
	return "", nil, nil, fmt.Errorf("unknown action %q", s.Action)
}

// system applies a token or oracle step as a system mutation of its block.
func (r *Runner) system(res *StepResult, s Step) error {
	amount, err := r.tokenUnits(orZero(s.Amount))
	if err != nil {
		return err
	}
	var price *big.Int
	if s.Action == "setprice" {
		if price, err = r.tokenUnits(orZero(s.Price)); err != nil {
			return err
		}
	}

	var reason error
	apply := func(statedb *state.StateDB) error {
		token, err := erc20.At(statedb, evmcore.TokenAddress)
		if err != nil {
			return err
		}
		switch s.Action {
		case "mint":
			reason = token.Mint(res.From, evmcore.FakeAddress(s.To), amount)
		case "approve":
			token.Approve(res.From, pool.ContractAddress, amount)
		case "setprice":
			o, err := oracle.At(statedb, evmcore.OracleAddress)
			if err != nil {
				return err
			}
			reason = o.SetPrice(res.From, evmcore.TokenAddress, price)
		}
		return reason
	}
	block, _, _, err := r.chain.Apply(res.Time, nil, apply)
	if err != nil {
		if reason != nil {
			res.Reason = reason.Error()
			return nil
		}
		return err
	}
	res.Block = block.Number.Uint64()
	return nil
}

func (r *Runner) key(index int) (*ecdsa.PrivateKey, error) {
	if index < 0 || index >= len(r.keys) {
		return nil, fmt.Errorf("account %d out of range [0, %d)", index, len(r.keys))
	}
	return r.keys[index], nil
}

func (r *Runner) tokenUnits(s string) (*big.Int, error) {
	token, err := r.chain.Token(evmcore.TokenAddress)
	if err != nil {
		return nil, err
	}
	return integration.ParseUnits(orZero(s), int32(token.Decimals()))
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

func revertReason(result *evmcore.ExecutionResult) string {
	if reason, err := poolcontract.Reason(result.Revert()); err == nil && reason != "" {
		return reason
	}
	return result.Err.Error()
}

// eventNames lists the names of the pool events in logs.
func eventNames(logs []*types.Log) []string {
	byID := make(map[common.Hash]string)
	for name, ev := range pool.ABI().Events {
		byID[ev.ID] = name
	}
	var names []string
	for _, l := range logs {
		if l.Address != pool.ContractAddress || len(l.Topics) == 0 {
			continue
		}
		if name, ok := byID[l.Topics[0]]; ok {
			names = append(names, name)
		}
	}
	return names
}

func formatOutputs(outputs []interface{}) string {
	parts := make([]string, 0, len(outputs))
	for _, o := range outputs {
		switch v := o.(type) {
		case *big.Int:
			parts = append(parts, v.String())
		default:
			parts = append(parts, fmt.Sprint(v))
		}
	}
	return strings.Join(parts, ",")
}
