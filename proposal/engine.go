package proposal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"

	cmtcrypto "github.com/cometbft/cometbft/crypto"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/icon-project/governance/types"
)

// Validator is an entry of the live main validator roster.
type Validator struct {
	Address cmtcrypto.Address
	Name    string
	Stake   *big.Int
}

type Registration struct {
	ID           []byte
	Proposer     cmtcrypto.Address
	ProposerName string
	StartHeight  uint64
	EndHeight    uint64
	Title        string
	Description  string
	Type         types.ProposalType
	Value        types.ProposalValue
}

type Ballot struct {
	ProposalID []byte
	Voter      cmtcrypto.Address
	Vote       types.VoteType
	Height     uint64
	ID         []byte
	Timestamp  int64
}

// VoteResult describes the outcome of a ballot. Decided is set when the call
// moved the proposal out of VOTING; Type and Value are what an approval
// must enact.
type VoteResult struct {
	Decided bool
	Status  types.ProposalStatus
	Type    types.ProposalType
	Value   types.ProposalValue
	Amount  *big.Int
}

// Engine owns the proposal store. Calls must not run concurrently.
type Engine struct {
	logger  cmtlog.Logger
	store   Store
	network Network
	policy  Policy
}

func NewEngine(store Store, network Network, policy Policy, logger cmtlog.Logger) *Engine {
	return &Engine{
		logger:  logger.With("module", "proposal"),
		store:   store,
		network: network,
		policy:  policy,
	}
}

func (e *Engine) Policy() Policy {
	return e.policy
}

func (e *Engine) load(id []byte) (*types.Proposal, error) {
	dat, err := e.store.GetProposal(id)
	if err != nil {
		return nil, err
	}
	if dat == nil {
		return nil, fmt.Errorf("%w: %X", ErrNotFound, id)
	}
	return types.ProposalFromBytes(dat)
}

func (e *Engine) save(p *types.Proposal) error {
	dat, err := p.Bytes()
	if err != nil {
		return err
	}
	return e.store.SetProposal(p.ID, dat)
}

// Proposal returns the stored record without applying the expiry view.
func (e *Engine) Proposal(id []byte) (*types.Proposal, error) {
	return e.load(id)
}

func (e *Engine) RegisterProposal(reg Registration, live []Validator) (p *types.Proposal, err error) {
	if len(reg.ID) == 0 {
		return nil, fmt.Errorf("%w: empty proposal id", ErrValidationFailed)
	}
	if !reg.Type.Valid() {
		return nil, fmt.Errorf("%w: invalid proposal type %d", ErrValidationFailed, uint64(reg.Type))
	}
	if reg.StartHeight > reg.EndHeight {
		return nil, fmt.Errorf("%w: start height %d after end height %d", ErrValidationFailed, reg.StartHeight, reg.EndHeight)
	}
	existing, err := e.store.GetProposal(reg.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: proposal %X already registered", ErrValidationFailed, reg.ID)
	}
	value, err := normalizeValue(reg.Value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}
	if err = ValidateValue(reg.Type, value, e.network); err != nil {
		return nil, err
	}

	vote := types.Vote{
		Agree:    types.NewVoteBucket(),
		Disagree: types.NewVoteBucket(),
		NoVote:   types.NewVoteBucket(),
	}
	for _, v := range live {
		if vote.NoVote.Find(v.Address) >= 0 {
			continue
		}
		vote.NoVote.Add(types.VoteEntry{
			Address: bytes.Clone(v.Address),
			Name:    v.Name,
			Amount:  stakeOf(v),
		})
	}

	p = &types.Proposal{
		ID:                   bytes.Clone(reg.ID),
		Proposer:             bytes.Clone(reg.Proposer),
		ProposerName:         reg.ProposerName,
		Title:                reg.Title,
		Description:          reg.Description,
		Type:                 reg.Type,
		Value:                value,
		StartBlockHeight:     reg.StartHeight,
		EndBlockHeight:       reg.EndHeight,
		Status:               types.ProposalStatusVoting,
		Vote:                 vote,
		TotalVoter:           uint64(vote.NoVote.Count()),
		TotalDelegatedAmount: new(big.Int).Set(vote.NoVote.Amount),
	}
	if err = e.save(p); err != nil {
		return nil, err
	}
	if err = e.store.AppendProposalID(p.ID); err != nil {
		return nil, err
	}
	e.logger.Info("register proposal", "id", p.ID, "type", p.Type, "proposer", p.Proposer,
		"end", p.EndBlockHeight, "voters", p.TotalVoter)
	return p, nil
}

func (e *Engine) CancelProposal(id []byte, caller cmtcrypto.Address, height uint64) (p *types.Proposal, err error) {
	p, err = e.load(id)
	if err != nil {
		return nil, err
	}
	if p.Expired(height) {
		return nil, ErrExpired
	}
	if !bytes.Equal(p.Proposer, caller) {
		return nil, fmt.Errorf("%w: only for proposer", ErrUnauthorized)
	}
	if p.Status != types.ProposalStatusVoting {
		return nil, fmt.Errorf("%w: can not be canceled, proposal is %s", ErrAlreadyFinalized, p.Status)
	}
	p.Status = types.ProposalStatusCanceled
	if err = e.save(p); err != nil {
		return nil, err
	}
	e.logger.Info("cancel proposal", "id", p.ID, "height", height)
	return p, nil
}

// VoteProposal records a ballot. A vote on a VOTING proposal past its end
// height settles it as DISAPPROVED: the status is written and the result is
// returned together with ErrExpired.
func (e *Engine) VoteProposal(b Ballot, live []Validator) (res *VoteResult, err error) {
	p, err := e.load(b.ProposalID)
	if err != nil {
		return nil, err
	}
	if !b.Vote.Valid() {
		return nil, fmt.Errorf("%w: invalid vote type %d", ErrValidationFailed, uint64(b.Vote))
	}
	if p.Expired(b.Height) {
		if p.Status != types.ProposalStatusVoting {
			return nil, &ExpiredError{Status: p.Status}
		}
		p.Status = types.ProposalStatusDisapproved
		if err = e.save(p); err != nil {
			return nil, err
		}
		e.logger.Info("expired proposal settled", "id", p.ID, "height", b.Height)
		return nil, &ExpiredError{Settled: true, Status: p.Status}
	}
	if p.Status == types.ProposalStatusCanceled {
		return nil, fmt.Errorf("%w: this proposal has already canceled", ErrAlreadyFinalized)
	}
	if p.Vote.Voted(b.Voter) {
		return nil, ErrDuplicateVote
	}
	idx := p.Vote.NoVote.Find(b.Voter)
	if idx < 0 {
		return nil, fmt.Errorf("%w: only for main prep when network proposal registered", ErrUnauthorized)
	}

	entry := types.VoteEntry{
		ID:        bytes.Clone(b.ID),
		Timestamp: b.Timestamp,
		Address:   bytes.Clone(b.Voter),
		Name:      p.Vote.NoVote.List[idx].Name,
		Amount:    new(big.Int),
	}
	for _, v := range live {
		if bytes.Equal(v.Address, b.Voter) {
			entry.Amount = stakeOf(v)
			if v.Name != "" {
				entry.Name = v.Name
			}
			break
		}
	}
	p.Vote.NoVote.Remove(b.Voter, entry.Amount)
	bucket := p.Vote.Bucket(b.Vote)
	bucket.Add(entry)

	res = &VoteResult{
		Status: p.Status,
		Type:   p.Type,
		Value:  p.Value,
		Amount: new(big.Int).Set(entry.Amount),
	}
	if p.Status == types.ProposalStatusVoting {
		if e.policy.Decide(b.Vote, TallyOf(bucket), p.TotalVoter, p.TotalDelegatedAmount) {
			if b.Vote == types.VoteAgree {
				p.Status = types.ProposalStatusApproved
			} else {
				p.Status = types.ProposalStatusDisapproved
			}
			res.Decided = true
		}
		res.Status = p.Status
	}
	if err = e.save(p); err != nil {
		return nil, err
	}
	e.logger.Info("vote proposal", "id", p.ID, "voter", b.Voter, "vote", b.Vote,
		"amount", entry.Amount, "status", p.Status)
	return res, nil
}

func stakeOf(v Validator) *big.Int {
	if v.Stake == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v.Stake)
}

// normalizeValue copies v into the form it takes after a storage round trip.
func normalizeValue(v types.ProposalValue) (types.ProposalValue, error) {
	if v == nil {
		return nil, nil
	}
	dat, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(dat))
	dec.UseNumber()
	var out types.ProposalValue
	if err = dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}
