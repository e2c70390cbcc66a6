// Package launcher wires configuration, logging and the pool chain into the
// idopool command line.
//
// Commands:
//
//	run <scenario.toml>   replay a scenario and print the step, pool and balance tables
//	inspect               print the pools and a position from the persisted chain
//	dumpconfig            print the merged configuration as TOML
package launcher

import (
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"gopkg.in/urfave/cli.v1"

	"github.com/rony4d/go-idopool/evmcore"
	"github.com/rony4d/go-idopool/flags"
	"github.com/rony4d/go-idopool/integration"
)

var log = logrus.WithField("module", "launcher")

// NewApp builds the idopool command line.
func NewApp() *cli.App {
	app := flags.NewApp("IDO staking pool simulator")
	app.Flags = flags.Merge(flags.CommonFlags(), flags.NodeFlags(), flags.PoolFlags())
	app.Commands = []cli.Command{
		{
			Name:      "run",
			Usage:     "Replay a scenario against the pool chain",
			ArgsUsage: "<scenario.toml>",
			Action:    runScenario,
		},
		{
			Name:   "inspect",
			Usage:  "Print the pools and an account position of the persisted chain",
			Flags:  flags.InspectFlags(),
			Action: inspect,
		},
		{
			Name:   "dumpconfig",
			Usage:  "Print the merged configuration",
			Action: dumpconfig,
		},
	}
	return app
}

// Launch runs the command line with args.
func Launch(args []string) error {
	return NewApp().Run(args)
}

// prepare resolves the configuration and sets up logging.
func prepare(ctx *cli.Context) (Config, error) {
	cfg, err := MakeAllConfigs(ctx)
	if err != nil {
		return Config{}, err
	}
	if err := setupLogging(cfg.Node.Logging, os.Stderr); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func openStore(cfg Config) (*evmcore.Store, error) {
	if cfg.Storage.InMemory {
		return evmcore.NewMemoryStore(), nil
	}
	return evmcore.OpenStore(cfg.Node.DataDir, cfg.Storage.CacheMB, cfg.Storage.Handles)
}

// openChain opens the configured chain. With fresh, an empty store is
// initialized from a fake genesis funding accounts accounts; without it the
// store must already hold a chain.
func openChain(cfg Config, accounts int, fresh bool) (*evmcore.Chain, *evmcore.Store, error) {
	rules, err := cfg.PoolRules()
	if err != nil {
		return nil, nil, err
	}
	store, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}
	var genesis *evmcore.Genesis
	if fresh {
		genesis = evmcore.FakeGenesis(accounts)
	}
	chain, err := evmcore.NewChain(store, rules, genesis)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return chain, store, nil
}

func dbName(cfg Config) string {
	if cfg.Storage.InMemory {
		return "memory"
	}
	return cfg.ChainDir()
}

func runScenario(ctx *cli.Context) error {
	cfg, err := prepare(ctx)
	if err != nil {
		return err
	}
	if ctx.NArg() != 1 {
		return errors.New("usage: idopool run <scenario.toml>")
	}
	sc, err := LoadScenario(ctx.Args().First())
	if err != nil {
		return fmt.Errorf("load scenario: %w", err)
	}
	accounts := cfg.Pool.Accounts
	if sc.Accounts > 0 {
		accounts = sc.Accounts
	}
	presetName := cfg.Pool.Preset
	if sc.Preset != "" {
		presetName = sc.Preset
	}
	preset, err := integration.GetPresetByName(presetName)
	if err != nil {
		return err
	}

	chain, store, err := openChain(cfg, accounts, true)
	if err != nil {
		return err
	}
	defer store.Close()

	log.WithFields(logrus.Fields{
		"scenario": sc.Name,
		"steps":    len(sc.Steps),
		"rules":    chain.Rules().Name,
		"preset":   preset.Name,
		"head":     chain.Head().Number,
		"db":       dbName(cfg),
	}).Info("Running scenario")

	runner := NewRunner(chain, accounts, preset)
	results, runErr := runner.Run(sc)

	out := ctx.App.Writer
	if err := writeSteps(out, results); err != nil {
		return err
	}
	fmt.Fprintln(out)
	if err := writePools(out, chain); err != nil {
		return err
	}
	fmt.Fprintln(out)
	if err := writeBalances(out, chain, runner.Accounts(), chain.Head().Time); err != nil {
		return err
	}
	if runErr != nil {
		log.WithError(runErr).Error("Scenario failed")
	}
	return runErr
}

func inspect(ctx *cli.Context) error {
	cfg, err := prepare(ctx)
	if err != nil {
		return err
	}
	if cfg.Storage.InMemory {
		return errors.New("inspect needs a persisted chain, drop --memory")
	}
	chain, store, err := openChain(cfg, cfg.Pool.Accounts, false)
	if err != nil {
		return err
	}
	defer store.Close()

	out := ctx.App.Writer
	if err := writePools(out, chain); err != nil {
		return err
	}

	var accounts []common.Address
	switch {
	case ctx.IsSet("address"):
		hex := ctx.String("address")
		if !common.IsHexAddress(hex) {
			return fmt.Errorf("invalid address %q", hex)
		}
		accounts = append(accounts, common.HexToAddress(hex))
	case ctx.Int("account") >= 0:
		accounts = append(accounts, evmcore.FakeAddress(ctx.Int("account")))
	default:
		return nil
	}
	now := chain.Head().Time
	if ctx.IsSet("time") {
		now = ctx.Uint64("time")
	}
	fmt.Fprintln(out)
	return writeBalances(out, chain, accounts, now)
}

func dumpconfig(ctx *cli.Context) error {
	cfg, err := MakeAllConfigs(ctx)
	if err != nil {
		return err
	}
	return dumpConfig(ctx.App.Writer, cfg)
}
