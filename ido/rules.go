// Package ido defines the rules and shared state primitives for the IDO staking pool.
//
// This package provides:
//   - Rule sets (DefaultRules, DevRules) describing day length, deploy limits,
//     reward cascade shares and the gas schedule of the pool contract
//   - The StateDB surface the native contracts run on
//   - Storage slot helpers used by the pool, token and oracle contracts
//
// The Rules type is the single configuration structure every contract in this
// module reads; it is immutable once a pool engine is constructed.

package ido

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	ethparams "github.com/ethereum/go-ethereum/params"
)

const (
	// DefaultDayLength is the length of a vesting day in seconds.
	DefaultDayLength uint64 = 24 * 60 * 60

	// PermilBase is the denominator of permil rates.
	PermilBase uint64 = 1000

	// DefaultRewardRanks is the number of ancestors rewarded on a purchase.
	DefaultRewardRanks = 5

	// DefaultRankSharePercent is the fixed share of the total reward paid to each of ranks 2..5.
	DefaultRankSharePercent uint64 = 20

	// DefaultPriceDecimals is the number of decimals of the native unit a price is quoted for.
	DefaultPriceDecimals uint8 = 18
)

// Rules describes the complete configuration of a pool engine.
type Rules struct {
	// Name identifies the rule set in logs and config dumps ("default", "dev").
	Name string

	// DayLength is the length in seconds of one vesting day.
	// Day indexes, daily deposit buckets and closing snapshots are all counted in these units.
	DayLength uint64

	// Deploy limits applied by the pool owner when a new pool is created.
	Deploy DeployRules

	// Reward controls the referral cascade triggered by a purchase.
	Reward RewardRules

	// PriceDecimals is the decimals of the native unit an oracle price is quoted for.
	// totalPrice = price * amount / 10^PriceDecimals.
	PriceDecimals uint8

	// Gas is the gas schedule charged by the ABI call surface.
	Gas GasRules
}

// DeployRules bounds the parameters accepted by deploy.
type DeployRules struct {
	// MinDurationDays is the minimum pool duration counted in days.
	MinDurationDays uint64

	// MaxRewardRatePermil is the upper bound of the commission rate.
	MaxRewardRatePermil uint64
}

// RewardRules configures the referral cascade.
type RewardRules struct {
	// Ranks is how many ancestors of the buyer can receive a reward.
	Ranks int

	// RankSharePercent is the share of the total reward paid to every rank above the first.
	// The direct referrer receives what is left.
	RankSharePercent uint64
}

// GasRules defines the gas cost of each pool operation.
type GasRules struct {
	Deploy   uint64 // pool creation, several fresh storage slots
	Deposit  uint64 // value transfer plus balance and history writes
	Withdraw uint64 // value transfer plus balance and history writes
	Accept   uint64 // one fresh storage slot
	Buy      uint64 // token pull, buyer payout, accounting writes
	PerRank  uint64 // every rewarded ancestor is a value transfer
	Admin    uint64 // transfer, refund, stop, start
	View     uint64 // read-only calls
}

// DefaultGasRules returns the gas schedule derived from the go-ethereum protocol constants.
func DefaultGasRules() GasRules {
	return GasRules{
		Deploy:   ethparams.CreateGas + 8*ethparams.SstoreSetGasEIP2200,
		Deposit:  ethparams.CallValueTransferGas + 4*ethparams.SstoreSetGasEIP2200,
		Withdraw: ethparams.CallValueTransferGas + 4*ethparams.SstoreSetGasEIP2200,
		Accept:   ethparams.SstoreSetGasEIP2200,
		Buy:      ethparams.CallValueTransferGas + 6*ethparams.SstoreSetGasEIP2200,
		PerRank:  ethparams.CallValueTransferGas,
		Admin:    ethparams.CallValueTransferGas,
		View:     ethparams.SloadGasEIP2200,
	}
}

// DefaultRules returns the production rule set: one day is 24 hours.
func DefaultRules() Rules {
	return Rules{
		Name:      "default",
		DayLength: DefaultDayLength,
		Deploy: DeployRules{
			MinDurationDays:     1,
			MaxRewardRatePermil: PermilBase,
		},
		Reward: RewardRules{
			Ranks:            DefaultRewardRanks,
			RankSharePercent: DefaultRankSharePercent,
		},
		PriceDecimals: DefaultPriceDecimals,
		Gas:           DefaultGasRules(),
	}
}

// DevRules returns an accelerated rule set for local simulations.
// A vesting day lasts one minute so a full pool can be replayed quickly.
func DevRules() Rules {
	r := DefaultRules()
	r.Name = "dev"
	r.DayLength = 60
	return r
}

// RulesByName resolves a rule set from its name.
func RulesByName(name string) (Rules, error) {
	switch name {
	case "", "default":
		return DefaultRules(), nil
	case "dev":
		return DevRules(), nil
	}
	return Rules{}, fmt.Errorf("unknown rules %q", name)
}

// Validate checks that the rules are internally consistent.
func (r Rules) Validate() error {
	if r.DayLength == 0 {
		return errors.New("day length must be positive")
	}
	if r.Deploy.MinDurationDays == 0 {
		return errors.New("minimum pool duration must be at least one day")
	}
	if r.Deploy.MaxRewardRatePermil > PermilBase {
		return fmt.Errorf("max reward rate %d exceeds %d permil", r.Deploy.MaxRewardRatePermil, PermilBase)
	}
	if r.Reward.Ranks <= 0 {
		return errors.New("reward ranks must be positive")
	}
	if uint64(r.Reward.Ranks-1)*r.Reward.RankSharePercent > 100 {
		return fmt.Errorf("%d ranks at %d%% exceed the total reward", r.Reward.Ranks-1, r.Reward.RankSharePercent)
	}
	return nil
}

// PriceUnit returns 10^PriceDecimals, the divisor applied to price * amount.
func (r Rules) PriceUnit() *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(r.PriceDecimals)), nil)
}

// String returns a JSON representation of Rules for debugging and logging.
func (r Rules) String() string {
	b, _ := json.Marshal(&r)
	return string(b)
}
