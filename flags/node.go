package flags

import (
	"gopkg.in/urfave/cli.v1"
)

// NodeFlags holds knobs specific to the local chain database (cache, handles, in-memory mode).

func NodeFlags() []cli.Flag {
	return []cli.Flag{
		cli.IntFlag{
			Name:  "cache",
			Usage: "Megabytes of memory allocated to the database cache",
			Value: 256,
		},
		cli.IntFlag{
			Name:  "handles",
			Usage: "Number of file handles the database may open",
			Value: 256,
		},
		cli.BoolFlag{
			Name:  "memory",
			Usage: "Keep the chain in memory instead of <datadir>/chaindata",
		},
	}
}
