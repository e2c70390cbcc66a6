// Package integration provides deploy presets for pool scenarios. A preset
// bundles the parameters of a deploy call (length of the pool, commission
// rate, funding, how long before it opens) into a named profile so a scenario
// can deploy a pool without spelling every argument out.
//
// Usage:
//
//	preset := integration.ShortPreset()     // three-day pools for quick replays
//	preset := integration.DefaultPreset()   // a month-long pool
//	preset := integration.LongPreset()      // a half-year pool
//
// Each preset returns a PoolPreset that can be merged with the overrides of a
// deploy step and turned into deploy arguments with DeployArgs.
package integration

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/rony4d/go-idopool/ido"
)

// PoolPreset captures the deploy parameters that vary across profiles.
// Fields left at their zero value by an override keep the preset's value.
type PoolPreset struct {
	Name             string // human-readable identifier (e.g., "default", "short")
	DurationDays     uint64 // pool length counted in vesting days
	RewardRatePermil uint64 // commission rate of purchases, in permil of the amount
	Funding          string // funded native value in whole units, decimal notation
	StartDelayDays   uint64 // days between the deploy block and the first vesting day
}

// DefaultPreset returns a month-long pool opening the day after it is deployed.
func DefaultPreset() PoolPreset {
	return PoolPreset{
		Name:             "default",
		DurationDays:     30,       // one month of daily releases
		RewardRatePermil: 100,      // 10% of every purchase is shared among referrers
		Funding:          "300000", // 10000 units released per day
		StartDelayDays:   1,        // leaves a day to collect early deposits
	}
}

// ShortPreset returns a three-day pool for quick simulations.
//
// Use cases:
//   - Replaying a complete pool with the dev rules in a few minutes
//   - Unit scenarios exercising maturity and post-maturity withdrawal
func ShortPreset() PoolPreset {
	cfg := DefaultPreset()
	cfg.Name = "short"
	cfg.DurationDays = 3
	cfg.RewardRatePermil = 50
	cfg.Funding = "3000"
	cfg.StartDelayDays = 0 // open in the deploy block
	return cfg
}

// LongPreset returns a half-year pool paying the maximum commission.
func LongPreset() PoolPreset {
	cfg := DefaultPreset()
	cfg.Name = "long"
	cfg.DurationDays = 180
	cfg.RewardRatePermil = ido.PermilBase
	cfg.Funding = "1800000"
	cfg.StartDelayDays = 7
	return cfg
}

// GetPresetByName looks up a preset by its string identifier and returns the
// corresponding PoolPreset. Returns an error if the name is unrecognized.
// This helper lets a scenario or the --preset flag select a profile by name.
func GetPresetByName(name string) (PoolPreset, error) {
	switch name {
	case "short":
		return ShortPreset(), nil
	case "long":
		return LongPreset(), nil
	case "default", "":
		return DefaultPreset(), nil
	default:
		return PoolPreset{}, fmt.Errorf("unknown preset: %q (valid: short, long, default)", name)
	}
}

// ApplyPreset merges preset into target. Non-zero fields of preset override
// the corresponding values in the target; zero fields leave them alone, so the
// overrides of a deploy step can be applied on top of a named profile.
//
// Example:
//
//	cfg := integration.DefaultPreset()
//	integration.ApplyPreset(&cfg, integration.PoolPreset{DurationDays: 7})
func ApplyPreset(target *PoolPreset, preset PoolPreset) {
	if preset.DurationDays > 0 {
		target.DurationDays = preset.DurationDays
	}
	if preset.RewardRatePermil > 0 {
		target.RewardRatePermil = preset.RewardRatePermil
	}
	if preset.Funding != "" {
		target.Funding = preset.Funding
	}
	if preset.StartDelayDays > 0 {
		target.StartDelayDays = preset.StartDelayDays
	}
	if preset.Name != "" {
		target.Name = preset.Name
	}
}

// DeployArgs are the arguments of a deploy call derived from a preset.
type DeployArgs struct {
	StartTime        uint64
	Duration         uint64 // seconds
	RewardRatePermil uint64
	Value            *big.Int // funded native value in base units
}

// DeployArgs converts the preset into deploy arguments for a block at now.
func (p PoolPreset) DeployArgs(rules ido.Rules, now uint64) (DeployArgs, error) {
	if p.DurationDays == 0 {
		return DeployArgs{}, errors.New("preset has no duration")
	}
	value, err := ParseUnits(p.Funding, int32(rules.PriceDecimals))
	if err != nil {
		return DeployArgs{}, fmt.Errorf("preset %q funding: %w", p.Name, err)
	}
	return DeployArgs{
		StartTime:        now + p.StartDelayDays*rules.DayLength,
		Duration:         p.DurationDays * rules.DayLength,
		RewardRatePermil: p.RewardRatePermil,
		Value:            value,
	}, nil
}

// ParseUnits converts a decimal amount of whole units into base units with
// the given number of decimals. "1.5" with 18 decimals is 1.5e18.
func ParseUnits(s string, decimals int32) (*big.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, err
	}
	d = d.Shift(decimals)
	if !d.IsInteger() {
		return nil, fmt.Errorf("%s has more than %d decimals", s, decimals)
	}
	if d.Sign() < 0 {
		return nil, fmt.Errorf("negative amount %s", s)
	}
	return d.BigInt(), nil
}

// FormatUnits renders base units as a decimal amount of whole units.
func FormatUnits(v *big.Int, decimals int32) string {
	if v == nil {
		return "0"
	}
	return decimal.NewFromBigInt(v, -decimals).String()
}
