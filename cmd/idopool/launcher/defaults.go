package launcher

// Defaults bundles the baseline configuration values the launcher uses
// before config files, the environment and flags override them.

type Defaults struct {
	Node    NodeDefaults
	Storage StorageDefaults
	Pool    PoolDefaults
	Logging LoggingDefaults
}

// NodeDefaults captures top-level settings (datadir, identity).

type NodeDefaults struct {
	DataDir string //	Filesystem root where the chain database lives (<datadir>/chaindata). Changing it keeps several simulations isolated.
	Name    string //	Human-readable identity used in logs and config dumps.
}

// StorageDefaults configures database/cache behaviour.
type StorageDefaults struct {
	InMemory    bool //	Keep the whole chain in memory; nothing is written under DataDir and every run starts from genesis.
	CacheSizeMB int  //	Megabytes reserved for the LevelDB block cache and write buffer. Larger values reduce disk I/O but increase RAM footprint.
	Handles     int  //	Number of file handles LevelDB may keep open.
}

// PoolDefaults selects the pool rules and the fake genesis.
type PoolDefaults struct {
	Rules    string //	Name of the rule set (default: 24h days, dev: one-minute days). Must match ido.RulesByName.
	Preset   string //	Deploy preset applied to scenario deploy steps that leave parameters out. Must match integration.GetPresetByName.
	Accounts int    //	Number of deterministic accounts funded by the genesis of a fresh chain; account 0 owns the pool, the token and the oracle.
}

// LoggingDefaults controls log verbosity/format.
type LoggingDefaults struct {
	Verbosity int    //	Log level numeric (0=fatal, 1=error, 2=warn, 3=info, 4=debug, 5=trace).
	Format    string //	Log output format (text vs json).
	Color     bool   //	Whether to use ANSI color codes in logs (helpful on terminals, best disabled when piping to files).
	SentryDSN string //	When set, error/fatal/panic entries are also reported to this Sentry project.
}

// DefaultConfig returns a fully populated Defaults instance.

func DefaultConfig() Defaults {
	return Defaults{
		Node: NodeDefaults{
			DataDir: "~/.idopool",
			Name:    "idopool",
		},
		Storage: StorageDefaults{
			InMemory:    false,
			CacheSizeMB: 256,
			Handles:     256,
		},
		Pool: PoolDefaults{
			Rules:    "default",
			Preset:   "default",
			Accounts: 8,
		},
		Logging: LoggingDefaults{
			Verbosity: 3,
			Format:    "text",
			Color:     false,
		},
	}
}
