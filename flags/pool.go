package flags

import (
	"gopkg.in/urfave/cli.v1"
)

// PoolFlags selects the rule set and the genesis of the pool chain.

func PoolFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:  "rules",
			Usage: "Pool rule set (default|dev)",
			Value: "default",
		},
		cli.StringFlag{
			Name:  "preset",
			Usage: "Deploy preset used by scenario steps that omit the pool parameters (default|short|long)",
			Value: "default",
		},
		cli.IntFlag{
			Name:  "accounts",
			Usage: "Number of funded accounts created by the genesis of a fresh chain",
			Value: 8,
		},
	}
}

// InspectFlags selects the account and instant a position is reported for.
func InspectFlags() []cli.Flag {
	return []cli.Flag{
		cli.IntFlag{
			Name:  "account",
			Usage: "Index of the genesis account to report (-1 for none)",
			Value: -1,
		},
		cli.StringFlag{
			Name:  "address",
			Usage: "Hex address to report, takes precedence over --account",
		},
		cli.Uint64Flag{
			Name:  "time",
			Usage: "Unix time the vesting figures are computed at (defaults to the head block)",
		},
	}
}
