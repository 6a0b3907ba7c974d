package repo

import (
	"time"

	"github.com/axiomesh/govtracker/referendum"
	"github.com/axiomesh/govtracker/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

const (
	ClockModeLocal = "local"
	ClockModeChain = "chain"
)

type Config struct {
	RepoRoot   string     `mapstructure:"-" toml:"-"`
	Log        Log        `mapstructure:"log" toml:"log"`
	Governance Governance `mapstructure:"governance" toml:"governance"`
	Referendum Referendum `mapstructure:"referendum" toml:"referendum"`
	Clock      Clock      `mapstructure:"clock" toml:"clock"`
	API        API        `mapstructure:"api" toml:"api"`
	Notify     Notify     `mapstructure:"notify" toml:"notify"`
}

type Log struct {
	Level        string        `mapstructure:"level" toml:"level"`
	Filename     string        `mapstructure:"filename" toml:"filename"`
	ReportCaller bool          `mapstructure:"report_caller" toml:"report_caller"`
	MaxAge       time.Duration `mapstructure:"max_age" toml:"max_age"`
	RotationTime time.Duration `mapstructure:"rotation_time" toml:"rotation_time"`
}

type Governance struct {
	// decimal amount in the smallest unit, floor for both submissions and votes
	MinDeposit string `mapstructure:"min_deposit" toml:"min_deposit"`
	// number of blocks a proposal stays open after submission
	VotingPeriod    uint64   `mapstructure:"voting_period" toml:"voting_period"`
	Owner           string   `mapstructure:"owner" toml:"owner"`
	SupportedAssets []uint32 `mapstructure:"supported_assets" toml:"supported_assets"`
	// 0 means unbounded
	MaxTitleLength       int `mapstructure:"max_title_length" toml:"max_title_length"`
	MaxDescriptionLength int `mapstructure:"max_description_length" toml:"max_description_length"`
	// parachain id named in cross chain advisories
	TargetChain uint32 `mapstructure:"target_chain" toml:"target_chain"`
}

type Referendum struct {
	// sequence, proposal-count or remote
	Policy   string        `mapstructure:"policy" toml:"policy"`
	Endpoint string        `mapstructure:"endpoint" toml:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout" toml:"timeout"`
}

type Clock struct {
	// local derives blocks from wall time, chain asks the node at dial_url
	Mode          string        `mapstructure:"mode" toml:"mode"`
	DialUrl       string        `mapstructure:"dial_url" toml:"dial_url"`
	GenesisUnix   int64         `mapstructure:"genesis_unix" toml:"genesis_unix"`
	BlockInterval time.Duration `mapstructure:"block_interval" toml:"block_interval"`
}

type API struct {
	Listen string `mapstructure:"listen" toml:"listen"`
}

type Notify struct {
	// address stamped on emitted logs
	Emitter string `mapstructure:"emitter" toml:"emitter"`
}

func DefaultConfig(repoRoot string) *Config {
	return &Config{
		RepoRoot: repoRoot,
		Log: Log{
			Level:        "info",
			Filename:     "govtracker.log",
			ReportCaller: false,
			MaxAge:       30 * 24 * time.Hour,
			RotationTime: 24 * time.Hour,
		},
		Governance: Governance{
			MinDeposit:           "1000000000000",
			VotingPeriod:         100800,
			Owner:                "0x0000000000000000000000000000000000000000",
			SupportedAssets:      []uint32{0},
			MaxTitleLength:       256,
			MaxDescriptionLength: 4096,
			TargetChain:          1000,
		},
		Referendum: Referendum{
			Policy:  referendum.PolicySequence,
			Timeout: 10 * time.Second,
		},
		Clock: Clock{
			Mode:          ClockModeLocal,
			DialUrl:       "ws://localhost:9944",
			GenesisUnix:   0,
			BlockInterval: 6 * time.Second,
		},
		API: API{
			Listen: "127.0.0.1:9991",
		},
		Notify: Notify{
			Emitter: GovernanceContractAddr,
		},
	}
}

// Validate rejects settings the daemon could not start with. Nothing is dialed.
func (c *Config) Validate() error {
	if err := c.Governance.Validate(); err != nil {
		return errors.Wrap(err, "governance")
	}
	if _, err := referendum.New(c.Referendum.Policy, c.Referendum.Endpoint, c.Referendum.Timeout); err != nil {
		return errors.Wrap(err, "referendum")
	}
	switch c.Clock.Mode {
	case "", ClockModeLocal:
		if c.Clock.BlockInterval <= 0 {
			return errors.New("clock: block_interval must be positive")
		}
	case ClockModeChain:
		if c.Clock.DialUrl == "" {
			return errors.New("clock: chain mode needs dial_url")
		}
	default:
		return errors.Errorf("clock: unknown mode %q", c.Clock.Mode)
	}
	if !common.IsHexAddress(c.Notify.Emitter) {
		return errors.Errorf("notify: emitter %q is not a hex address", c.Notify.Emitter)
	}
	return nil
}

func (g *Governance) Validate() error {
	if _, err := types.ParseBalance(g.MinDeposit); err != nil {
		return errors.Wrap(err, "min_deposit")
	}
	if g.Owner != "" && !common.IsHexAddress(g.Owner) {
		return errors.Errorf("owner %q is not a hex address", g.Owner)
	}
	if g.MaxTitleLength < 0 || g.MaxDescriptionLength < 0 {
		return errors.New("length limits must not be negative")
	}
	return nil
}
