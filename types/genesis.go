package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cometbft/cometbft/crypto"
	cmtjson "github.com/cometbft/cometbft/libs/json"
	cmttypes "github.com/cometbft/cometbft/types"
)

type GenesisValidator struct {
	Address crypto.Address `json:"address"`
	PubKey  crypto.PubKey  `json:"pub_key"`
	Power   int64          `json:"power"`
	Name    string         `json:"name"`
}

// GenesisDoc defines the initial conditions for the chain, in particular its validator set.
type GenesisDoc struct {
	GenesisTime     time.Time                 `json:"genesis_time"`
	ChainID         string                    `json:"chain_id"`
	InitialHeight   int64                     `json:"initial_height"`
	ConsensusParams *cmttypes.ConsensusParams `json:"consensus_params,omitempty"`
	Validators      []GenesisValidator        `json:"validators"`
	AppHash         []byte                    `json:"app_hash"`
	AppState        json.RawMessage           `json:"app_state"`
}

// GenesisContract seeds the contract registry so that malicious score
// proposals have something to target.
type GenesisContract struct {
	Address string `json:"address"`
	Owner   string `json:"owner"`
}

// GenesisNetwork holds the initial network values. Integers are decimal strings.
type GenesisNetwork struct {
	RevisionCode string `json:"revision_code"`
	RevisionName string `json:"revision_name"`
	StepPrice    string `json:"step_price"`
	Irep         string `json:"irep"`
	Iglobal      string `json:"iglobal"`
}

type GenesisAppState struct {
	Contracts      []GenesisContract `json:"contracts"`
	Network        GenesisNetwork    `json:"network"`
	ValidatorNames map[string]string `json:"validator_names,omitempty"`
}

func DefaultGenesisAppState() GenesisAppState {
	return GenesisAppState{
		Contracts: []GenesisContract{},
		Network: GenesisNetwork{
			RevisionCode: "0",
			StepPrice:    "12500000000",
			Irep:         "50000000000000000000000",
			Iglobal:      "0",
		},
	}
}

// SaveAs is a utility method for saving GenesisDoc as a JSON file.
func (genDoc *GenesisDoc) SaveAs(file string) error {
	genDocBytes, err := cmtjson.MarshalIndent(genDoc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(file, genDocBytes, 0o600)
}

func (genDoc *GenesisDoc) ValidateAndComplete() error {
	if genDoc.ChainID == "" {
		return errors.New("genesis doc must include non-empty chain_id")
	}

	if genDoc.InitialHeight < 0 {
		return fmt.Errorf("initial_height cannot be negative (got %v)", genDoc.InitialHeight)
	}

	if genDoc.InitialHeight == 0 {
		genDoc.InitialHeight = 1
	}

	if genDoc.GenesisTime.IsZero() {
		genDoc.GenesisTime = time.Now().Round(0).UTC()
	}

	if len(genDoc.AppState) == 0 {
		dat, err := json.Marshal(DefaultGenesisAppState())
		if err != nil {
			return err
		}
		genDoc.AppState = dat
	}

	return nil
}

func ExportGenesisFile(genesis *GenesisDoc, genFile string) error {
	if err := genesis.ValidateAndComplete(); err != nil {
		return err
	}
	return genesis.SaveAs(genFile)
}

const GovModuleName = "governance"
const DefaultPower = 1000
