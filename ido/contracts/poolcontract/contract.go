// Package poolcontract exposes the pool engine as an ABI-encoded contract call.
//
// Overview:
//
//	Run takes the calldata of a transaction sent to the pool contract address,
//	dispatches on the 4-byte selector, unpacks the arguments and calls the pool
//	engine. Results are ABI-packed; a rejected call reverts with the standard
//	Error(string) payload carrying the pool's reason string.
//
// Gas Costs:
//
//	Every method charges the flat cost of its entry in ido.GasRules. A purchase is
//	charged for the maximum number of rewarded ranks up front and refunded for the
//	ranks that were not paid.
package poolcontract

import (
	"errors"
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/rony4d/go-idopool/ido"
	"github.com/rony4d/go-idopool/ido/pool"
)

var (
	// revertSelector is the selector of Error(string).
	revertSelector = crypto.Keccak256([]byte("Error(string)"))[:4]

	revertArgs abi.Arguments

	errNonPayable = errors.New("IDOPool: method is not payable")
	errBadInput   = errors.New("IDOPool: invalid call data")
)

func init() {
	stringT, err := abi.NewType("string", "", nil)
	if err != nil {
		panic(err)
	}
	revertArgs = abi.Arguments{{Type: stringT}}
}

// Contract is the ABI call surface of one pool engine.
type Contract struct {
	pool  *pool.Pool
	rules ido.Rules
	abi   abi.ABI
}

// New wraps p.
func New(p *pool.Pool) *Contract {
	return &Contract{pool: p, rules: p.Rules(), abi: pool.ABI()}
}

// Pack encodes a call of method with args.
func (c *Contract) Pack(method string, args ...interface{}) ([]byte, error) {
	return c.abi.Pack(method, args...)
}

// Unpack decodes the return data of method.
func (c *Contract) Unpack(method string, ret []byte) ([]interface{}, error) {
	return c.abi.Unpack(method, ret)
}

// Run executes input as a call from caller carrying value.
// It returns the packed outputs, the gas left and, for a rejected call,
// vm.ErrExecutionReverted with the revert payload as return data.
func (c *Contract) Run(block vm.BlockContext, caller common.Address, value *big.Int, input []byte, suppliedGas uint64) ([]byte, uint64, error) {
	if len(input) < 4 {
		return revertData(errBadInput), 0, vm.ErrExecutionReverted
	}
	method, err := c.abi.MethodById(input[:4])
	if err != nil {
		return revertData(errBadInput), 0, vm.ErrExecutionReverted
	}
	if value == nil {
		value = new(big.Int)
	}
	if value.Sign() > 0 && !method.IsPayable() {
		return revertData(errNonPayable), suppliedGas, vm.ErrExecutionReverted
	}

	cost, refundable := c.gas(method.Name)
	if suppliedGas < cost {
		return nil, 0, vm.ErrOutOfGas
	}
	suppliedGas -= cost

	args, err := method.Inputs.Unpack(input[4:])
	if err != nil {
		return revertData(errBadInput), suppliedGas, vm.ErrExecutionReverted
	}
	var now uint64
	if block.Time != nil {
		now = block.Time.Uint64()
	}
	ctx := pool.Context{Caller: caller, Value: value, Time: now}

	out, paidRanks, err := c.dispatch(method.Name, ctx, args)
	if err != nil {
		return revertData(err), suppliedGas, vm.ErrExecutionReverted
	}
	if refundable > 0 {
		suppliedGas += refundable * uint64(c.rules.Reward.Ranks-paidRanks) / uint64(c.rules.Reward.Ranks)
	}
	ret, err := method.Outputs.Pack(out...)
	if err != nil {
		return nil, suppliedGas, err
	}
	return ret, suppliedGas, nil
}

// gas returns the cost of method and the part of it refunded per unpaid rank.
func (c *Contract) gas(method string) (cost, refundable uint64) {
	g := c.rules.Gas
	switch method {
	case "deploy":
		return g.Deploy, 0
	case "deposit":
		return g.Deposit, 0
	case "withdraw":
		return g.Withdraw, 0
	case "accept":
		return g.Accept, 0
	case "buy":
		ranks := g.PerRank * uint64(c.rules.Reward.Ranks)
		return g.Buy + ranks, ranks
	case "transfer", "refund", "stop", "start", "transferOwnership":
		return g.Admin, 0
	}
	return g.View, 0
}

func (c *Contract) dispatch(method string, ctx pool.Context, args []interface{}) ([]interface{}, int, error) {
	p := c.pool
	switch method {
	case "deploy":
		id, err := p.Deploy(ctx, u64(args[0]), u64(args[1]), u64(args[2]), args[3].(common.Address))
		return values(new(big.Int).SetUint64(id)), 0, err
	case "deposit":
		return nil, 0, p.Deposit(ctx, u64(args[0]))
	case "withdraw":
		paid, err := p.Withdraw(ctx, u64(args[0]), args[1].(*big.Int))
		return values(paid), 0, err
	case "accept":
		return nil, 0, p.Accept(ctx, u64(args[0]), args[1].(common.Address))
	case "buy":
		r, err := p.Buy(ctx, u64(args[0]), args[1].(common.Address), args[2].(*big.Int))
		if err != nil {
			return nil, 0, err
		}
		return values(r.TotalPrice, r.BuyerPayout), len(r.Rewards), nil
	case "transfer":
		return nil, 0, p.Transfer(ctx, args[0].(common.Address), args[1].(common.Address), args[2].(*big.Int))
	case "refund":
		return nil, 0, p.Refund(ctx, args[0].(common.Address), args[1].(*big.Int))
	case "stop":
		return nil, 0, p.Stop(ctx)
	case "start":
		return nil, 0, p.Start(ctx)
	case "transferOwnership":
		return nil, 0, p.TransferOwnership(ctx, args[0].(common.Address))
	case "owner":
		return values(p.Owner()), 0, nil
	case "stopped":
		return values(p.Stopped()), 0, nil
	case "poolCount":
		return values(new(big.Int).SetUint64(p.PoolCount())), 0, nil
	case "balanceOf":
		v, err := p.BalanceOf(u64(args[0]), args[1].(common.Address))
		return values(v), 0, err
	case "totalDeposit":
		v, err := p.TotalDeposit(u64(args[0]))
		return values(v), 0, err
	case "availableToExchange":
		v, err := p.AvailableToExchange(u64(args[0]), args[1].(common.Address), ctx.Time)
		return values(v), 0, err
	case "referrerOf":
		return values(p.ReferrerOf(args[0].(common.Address))), 0, nil
	}
	return nil, 0, errBadInput
}

func values(v ...interface{}) []interface{} {
	return v
}

// u64 saturates an unpacked uint256 argument; out-of-range ids and times fail
// the engine's own checks.
func u64(v interface{}) uint64 {
	b := v.(*big.Int)
	if !b.IsUint64() {
		return math.MaxUint64
	}
	return b.Uint64()
}

// revertData encodes err as an Error(string) revert payload.
func revertData(err error) []byte {
	data, packErr := revertArgs.Pack(err.Error())
	if packErr != nil {
		return nil
	}
	return append(append([]byte{}, revertSelector...), data...)
}

// Reason decodes the reason of a revert payload returned by Run.
func Reason(ret []byte) (string, error) {
	return abi.UnpackRevert(ret)
}
