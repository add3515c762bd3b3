package state

import (
	"encoding/json"
	"fmt"
	"math/big"

	cmtcrypto "github.com/cometbft/cometbft/crypto"
	"github.com/icon-project/governance/proposal"
	"github.com/icon-project/governance/types"
)

var _ proposal.Network = (*State)(nil)

// NetworkValues are the chain parameters network proposals change.
type NetworkValues struct {
	RevisionCode         *big.Int            `json:"revisionCode"`
	RevisionName         string              `json:"revisionName"`
	StepPrice            *big.Int            `json:"stepPrice"`
	StepCosts            map[string]*big.Int `json:"stepCosts"`
	Irep                 *big.Int            `json:"irep"`
	Iglobal              *big.Int            `json:"iglobal"`
	RewardFundAllocation map[string]*big.Int `json:"rewardFundAllocation"`
}

func cloneBig(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}

func cloneBigMap(m map[string]*big.Int) map[string]*big.Int {
	if m == nil {
		return nil
	}
	return copyMap(m, cloneBig)
}

func (nv *NetworkValues) Clone() *NetworkValues {
	return &NetworkValues{
		RevisionCode:         cloneBig(nv.RevisionCode),
		RevisionName:         nv.RevisionName,
		StepPrice:            cloneBig(nv.StepPrice),
		StepCosts:            cloneBigMap(nv.StepCosts),
		Irep:                 cloneBig(nv.Irep),
		Iglobal:              cloneBig(nv.Iglobal),
		RewardFundAllocation: cloneBigMap(nv.RewardFundAllocation),
	}
}

func (nv *NetworkValues) Bytes() ([]byte, error) {
	return json.Marshal(nv)
}

type Contract struct {
	Owner  string `json:"owner"`
	Frozen bool   `json:"frozen"`
}

func (c *Contract) Clone() *Contract {
	n := *c
	return &n
}

func (c *Contract) Bytes() ([]byte, error) {
	return json.Marshal(c)
}

func (s *State) loadNetwork() (*NetworkValues, error) {
	if s.network != nil {
		return s.network, nil
	}
	nv := new(NetworkValues)
	val, err := s.get(KeyNetwork)
	if err != nil {
		return nil, err
	}
	if val != nil {
		if err = json.Unmarshal(val, nv); err != nil {
			return nil, err
		}
	}
	s.network = nv
	return nv, nil
}

// NetworkValues returns a copy of the current network values.
func (s *State) NetworkValues() (*NetworkValues, error) {
	nv, err := s.loadNetwork()
	if err != nil {
		return nil, err
	}
	return nv.Clone(), nil
}

func (s *State) SetNetworkValues(nv *NetworkValues) {
	s.network = nv.Clone()
	s.modNetwork = true
}

func (s *State) GetContract(addr cmtcrypto.Address) (*Contract, error) {
	key := fmt.Sprintf(KeyContract, []byte(addr))
	if c, ok := s.contracts[key]; ok {
		return c, nil
	}
	val, err := s.get(key)
	if err != nil || val == nil {
		return nil, err
	}
	c := new(Contract)
	if err = json.Unmarshal(val, c); err != nil {
		return nil, err
	}
	s.contracts[key] = c
	return c, nil
}

func (s *State) SetContract(addr cmtcrypto.Address, c *Contract) {
	key := fmt.Sprintf(KeyContract, []byte(addr))
	s.contracts[key] = c.Clone()
	s.modContracts[key] = true
}

func (s *State) IsContract(addr cmtcrypto.Address) bool {
	c, err := s.GetContract(addr)
	if err != nil {
		s.logger.Error("load contract fail", "addr", addr, "err", err)
		return false
	}
	return c != nil
}

// IsPRep reports whether addr currently ranks as a main or sub prep.
func (s *State) IsPRep(addr cmtcrypto.Address) bool {
	ranked, err := s.rankedAccounts()
	if err != nil {
		s.logger.Error("rank preps fail", "err", err)
		return false
	}
	limit := min(len(ranked), s.opts.MainPReps+s.opts.SubPReps)
	for _, a := range ranked[:limit] {
		if a.AddrBytes().String() == addr.String() {
			return true
		}
	}
	return false
}

func (s *State) StepPrice() *big.Int {
	nv, err := s.loadNetwork()
	if err != nil {
		s.logger.Error("load network fail", "err", err)
		return nil
	}
	return cloneBig(nv.StepPrice)
}

// CheckIrep accepts a positive irep within 20% of the current one.
func (s *State) CheckIrep(irep *big.Int) error {
	if irep == nil || irep.Sign() <= 0 {
		return fmt.Errorf("%w: %v", ErrIrepOutOfRange, irep)
	}
	nv, err := s.loadNetwork()
	if err != nil {
		return err
	}
	if nv.Irep == nil || nv.Irep.Sign() == 0 {
		return nil
	}
	upper := new(big.Int).Div(new(big.Int).Mul(nv.Irep, big.NewInt(120)), big.NewInt(100))
	lower := new(big.Int).Div(new(big.Int).Mul(nv.Irep, big.NewInt(80)), big.NewInt(100))
	if irep.Cmp(lower) < 0 || irep.Cmp(upper) > 0 {
		return fmt.Errorf("%w: %v not in [%v, %v]", ErrIrepOutOfRange, irep, lower, upper)
	}
	return nil
}

// ApplyNetworkProposal enacts an approved proposal of type t.
func (s *State) ApplyNetworkProposal(t types.ProposalType, value types.ProposalValue) (err error) {
	s.logger.Debug("apply network proposal", "type", t, "height", s.header.Height)
	if t == types.ProposalTypeText {
		return nil
	}
	if t == types.ProposalTypeMaliciousScore {
		return s.applyMaliciousScore(value)
	}
	if t == types.ProposalTypePRepDisqualification {
		addr, err := proposal.ParseAddress(value["address"])
		if err != nil {
			return err
		}
		return s.Disqualify(addr)
	}

	nv, err := s.NetworkValues()
	if err != nil {
		return err
	}
	switch t {
	case types.ProposalTypeRevision:
		if nv.RevisionCode, err = proposal.ParseInt(value["code"]); err != nil {
			return
		}
		nv.RevisionName, _ = value["name"].(string)
	case types.ProposalTypeStepPrice:
		if nv.StepPrice, err = proposal.ParseInt(value["value"]); err != nil {
			return
		}
	case types.ProposalTypeIrep:
		if nv.Irep, err = proposal.ParseInt(value["value"]); err != nil {
			return
		}
	case types.ProposalTypeStepCosts:
		costs, _ := value["costs"].(map[string]any)
		if nv.StepCosts == nil {
			nv.StepCosts = make(map[string]*big.Int)
		}
		for name, raw := range costs {
			var v *big.Int
			if v, err = proposal.ParseInt(raw); err != nil {
				return
			}
			nv.StepCosts[name] = v
		}
	case types.ProposalTypeRewardFundSetting:
		if nv.Iglobal, err = proposal.ParseInt(value["iglobal"]); err != nil {
			return
		}
	case types.ProposalTypeRewardFundAllocation:
		alloc := make(map[string]*big.Int)
		for _, key := range proposal.RewardFundAllocationKeys {
			var v *big.Int
			if v, err = proposal.ParseInt(value[key]); err != nil {
				return
			}
			alloc[key] = v
		}
		nv.RewardFundAllocation = alloc
	default:
		return fmt.Errorf("unknown proposal type %v", t)
	}
	s.SetNetworkValues(nv)
	return nil
}

func (s *State) applyMaliciousScore(value types.ProposalValue) error {
	addr, err := proposal.ParseAddress(value["address"])
	if err != nil {
		return err
	}
	typ, err := proposal.ParseInt(value["type"])
	if err != nil {
		return err
	}
	c, err := s.GetContract(addr)
	if err != nil {
		return err
	}
	if c == nil {
		return ErrContractNoexists
	}
	c = c.Clone()
	c.Frozen = typ.Uint64() == uint64(types.MaliciousScoreFreeze)
	s.SetContract(addr, c)
	return nil
}

// InitGenesis seeds the contract registry and network values.
func (s *State) InitGenesis(appState types.GenesisAppState) error {
	for _, gc := range appState.Contracts {
		addr, err := proposal.ParseAddress(gc.Address)
		if err != nil {
			return fmt.Errorf("genesis contract: %w", err)
		}
		s.SetContract(addr, &Contract{Owner: gc.Owner})
	}

	parse := func(name, raw string) (*big.Int, error) {
		if raw == "" {
			return nil, nil
		}
		v, err := proposal.ParseInt(raw)
		if err != nil {
			return nil, fmt.Errorf("genesis network %s: %w", name, err)
		}
		return v, nil
	}
	gn := appState.Network
	nv := &NetworkValues{RevisionName: gn.RevisionName}
	var err error
	if nv.RevisionCode, err = parse("revision_code", gn.RevisionCode); err != nil {
		return err
	}
	if nv.StepPrice, err = parse("step_price", gn.StepPrice); err != nil {
		return err
	}
	if nv.Irep, err = parse("irep", gn.Irep); err != nil {
		return err
	}
	if nv.Iglobal, err = parse("iglobal", gn.Iglobal); err != nil {
		return err
	}
	s.SetNetworkValues(nv)
	return nil
}
