package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"time"

	"github.com/cometbft/cometbft/config"
	"github.com/cometbft/cometbft/crypto"
	"github.com/cometbft/cometbft/p2p"
	"github.com/cometbft/cometbft/privval"
	"github.com/icon-project/governance/proposal"
	"github.com/shopspring/decimal"
)

const (
	DefaultVotingPeriod        = 43200
	DefaultApproveVoters       = 15
	DefaultDisapproveVoters    = 8
	DefaultCommitteeSize       = 22
	DefaultApproveStakeRate    = "0.66"
	DefaultDisapproveStakeRate = "0.33"
	DefaultMainPReps           = 22
	DefaultSubPReps            = 78
	DefaultIndexerListen       = "127.0.0.1:26680"
)

// GovAppConfig is the [app] section of config.toml.
type GovAppConfig struct {
	Home          string `mapstructure:"-"`
	TimeoutCommit uint64 `mapstructure:"-"`

	VotingPeriod        uint64 `mapstructure:"voting_period"`
	ApproveVoters       uint64 `mapstructure:"approve_voters"`
	DisapproveVoters    uint64 `mapstructure:"disapprove_voters"`
	CommitteeSize       uint64 `mapstructure:"committee_size"`
	ApproveStakeRate    string `mapstructure:"approve_stake_rate"`
	DisapproveStakeRate string `mapstructure:"disapprove_stake_rate"`
	Inclusive           bool   `mapstructure:"inclusive"`

	MainPReps int `mapstructure:"main_preps"`
	SubPReps  int `mapstructure:"sub_preps"`

	IndexerDB     string `mapstructure:"indexer_db"`
	IndexerListen string `mapstructure:"indexer_listen"`
}

func DefaultGovAppConfig(home string) *GovAppConfig {
	return &GovAppConfig{
		Home:                home,
		VotingPeriod:        DefaultVotingPeriod,
		ApproveVoters:       DefaultApproveVoters,
		DisapproveVoters:    DefaultDisapproveVoters,
		CommitteeSize:       DefaultCommitteeSize,
		ApproveStakeRate:    DefaultApproveStakeRate,
		DisapproveStakeRate: DefaultDisapproveStakeRate,
		Inclusive:           true,
		MainPReps:           DefaultMainPReps,
		SubPReps:            DefaultSubPReps,
		IndexerDB:           "indexer.db",
		IndexerListen:       DefaultIndexerListen,
	}
}

// Policy builds the tally policy from the configured thresholds.
func (c *GovAppConfig) Policy() (p proposal.Policy, err error) {
	approveRate, err := decimal.NewFromString(c.ApproveStakeRate)
	if err != nil {
		return p, fmt.Errorf("approve_stake_rate: %w", err)
	}
	disapproveRate, err := decimal.NewFromString(c.DisapproveStakeRate)
	if err != nil {
		return p, fmt.Errorf("disapprove_stake_rate: %w", err)
	}
	p = proposal.Policy{
		Approve: proposal.Threshold{
			Voters:    c.ApproveVoters,
			Committee: c.CommitteeSize,
			StakeRate: approveRate,
		},
		Disapprove: proposal.Threshold{
			Voters:    c.DisapproveVoters,
			Committee: c.CommitteeSize,
			StakeRate: disapproveRate,
		},
		Inclusive: c.Inclusive,
	}
	return p, nil
}

func (c *GovAppConfig) ValidateBasic() error {
	if c.VotingPeriod == 0 {
		return fmt.Errorf("voting_period must be positive")
	}
	if c.MainPReps <= 0 {
		return fmt.Errorf("main_preps must be positive")
	}
	if c.SubPReps < 0 {
		return fmt.Errorf("sub_preps cannot be negative")
	}
	_, err := c.Policy()
	return err
}

func GWeiPerPower() *big.Int {
	return big.NewInt(1000000000)
}

// PowerPerStake converts a stake into consensus power. Any positive stake is
// worth at least 1.
func PowerPerStake(stake *big.Int) int64 {
	if stake == nil || stake.Sign() <= 0 {
		return 0
	}
	power := new(big.Int).Div(stake, GWeiPerPower())
	if power.Sign() == 0 {
		return 1
	}
	if !power.IsInt64() || power.Int64() > MaxPower {
		return MaxPower
	}
	return power.Int64()
}

// MaxPower keeps the sum of main prep powers below the consensus limit.
const MaxPower = int64(1) << 50

func StakeOfPower(power int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(power), GWeiPerPower())
}

type Config struct {
	*config.Config `mapstructure:",squash"`

	App *GovAppConfig `mapstructure:"app"`
}

func DefaultConfig(home string) *Config {
	if len(home) == 0 {
		home = os.ExpandEnv("$HOME/.govd")
	}
	config := &Config{
		DefaultGovCometConfig(),
		DefaultGovAppConfig(home),
	}
	config.SetRoot(home)
	_ = os.MkdirAll(filepath.Join(home, "config"), 0755)
	return config
}

func InitializeNodeValidatorFiles(config *Config, privKey crypto.PrivKey) (nodeID string, pk crypto.PubKey, err error) {
	nodeKey, err := p2p.LoadOrGenNodeKey(config.NodeKeyFile())
	if err != nil {
		return "", nil, err
	}
	nodeID = string(nodeKey.ID())

	pvKeyFile := config.PrivValidatorKeyFile()
	if err := os.MkdirAll(filepath.Dir(pvKeyFile), 0o777); err != nil {
		return "", nil, fmt.Errorf("could not create directory %q: %w", filepath.Dir(pvKeyFile), err)
	}

	pvStateFile := config.PrivValidatorStateFile()
	if err := os.MkdirAll(filepath.Dir(pvStateFile), 0o777); err != nil {
		return "", nil, fmt.Errorf("could not create directory %q: %w", filepath.Dir(pvStateFile), err)
	}

	var filePV *privval.FilePV
	if privKey == nil {
		filePV = privval.LoadOrGenFilePV(pvKeyFile, pvStateFile)
	} else {
		filePV = privval.NewFilePV(privKey, pvKeyFile, pvStateFile)
		filePV.Save()
	}
	pukey, err := filePV.GetPubKey()
	if err != nil {
		return "", nil, err
	}

	return nodeID, pukey, nil
}

func DefaultGovCometConfig() *config.Config {
	cometConfig := config.DefaultConfig()
	cometConfig.Consensus.TimeoutPropose = time.Second * 3
	cometConfig.Consensus.TimeoutPrevote = time.Second * 1
	cometConfig.Consensus.TimeoutPrecommit = time.Second * 1
	cometConfig.Consensus.TimeoutCommit = time.Second * 2
	return cometConfig
}
