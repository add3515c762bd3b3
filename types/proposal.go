package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	cmtcrypto "github.com/cometbft/cometbft/crypto"
	cmtbytes "github.com/cometbft/cometbft/libs/bytes"
)

type ProposalType uint64

const (
	ProposalTypeText                 ProposalType = 0
	ProposalTypeRevision             ProposalType = 1
	ProposalTypeMaliciousScore       ProposalType = 2
	ProposalTypePRepDisqualification ProposalType = 3
	ProposalTypeStepPrice            ProposalType = 4
	ProposalTypeIrep                 ProposalType = 5
	ProposalTypeStepCosts            ProposalType = 6
	ProposalTypeRewardFundSetting    ProposalType = 7
	ProposalTypeRewardFundAllocation ProposalType = 8
)

var proposalTypeNames = map[ProposalType]string{
	ProposalTypeText:                 "text",
	ProposalTypeRevision:             "revision",
	ProposalTypeMaliciousScore:       "maliciousScore",
	ProposalTypePRepDisqualification: "prepDisqualification",
	ProposalTypeStepPrice:            "stepPrice",
	ProposalTypeIrep:                 "irep",
	ProposalTypeStepCosts:            "stepCosts",
	ProposalTypeRewardFundSetting:    "rewardFundSetting",
	ProposalTypeRewardFundAllocation: "rewardFundAllocation",
}

func (t ProposalType) Valid() bool {
	_, ok := proposalTypeNames[t]
	return ok
}

func (t ProposalType) String() string {
	if name, ok := proposalTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", uint64(t))
}

// ParseProposalType accepts either the type name or its decimal number.
func ParseProposalType(s string) (ProposalType, error) {
	for t, name := range proposalTypeNames {
		if strings.EqualFold(name, s) || fmt.Sprintf("%d", uint64(t)) == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown proposal type %q", s)
}

type ProposalStatus uint64

const (
	ProposalStatusVoting      ProposalStatus = 0
	ProposalStatusApproved    ProposalStatus = 1
	ProposalStatusDisapproved ProposalStatus = 2
	ProposalStatusCanceled    ProposalStatus = 3
)

func (s ProposalStatus) Valid() bool {
	return s <= ProposalStatusCanceled
}

func (s ProposalStatus) String() string {
	switch s {
	case ProposalStatusVoting:
		return "voting"
	case ProposalStatusApproved:
		return "approved"
	case ProposalStatusDisapproved:
		return "disapproved"
	case ProposalStatusCanceled:
		return "canceled"
	}
	return fmt.Sprintf("unknown(%d)", uint64(s))
}

type VoteType uint64

const (
	VoteDisagree VoteType = 0
	VoteAgree    VoteType = 1
)

func (v VoteType) Valid() bool {
	return v == VoteDisagree || v == VoteAgree
}

func (v VoteType) String() string {
	switch v {
	case VoteDisagree:
		return "disagree"
	case VoteAgree:
		return "agree"
	}
	return fmt.Sprintf("unknown(%d)", uint64(v))
}

type MaliciousScoreType uint64

const (
	MaliciousScoreFreeze   MaliciousScoreType = 0
	MaliciousScoreUnfreeze MaliciousScoreType = 1
)

// ProposalValue is the type specific payload of a proposal. Numbers decoded
// from storage are kept as json.Number so re-encoding is exact.
type ProposalValue map[string]any

func (v *ProposalValue) UnmarshalJSON(dat []byte) error {
	dec := json.NewDecoder(bytes.NewReader(dat))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return err
	}
	*v = m
	return nil
}

type VoteEntry struct {
	ID        cmtbytes.HexBytes `json:"id,omitempty"`
	Timestamp int64             `json:"timestamp,omitempty"`
	Address   cmtcrypto.Address `json:"address"`
	Name      string            `json:"name"`
	Amount    *big.Int          `json:"amount"`
}

type VoteBucket struct {
	List   []VoteEntry `json:"list"`
	Amount *big.Int    `json:"amount"`
}

func NewVoteBucket() VoteBucket {
	return VoteBucket{List: []VoteEntry{}, Amount: new(big.Int)}
}

func (b *VoteBucket) Count() int {
	return len(b.List)
}

func (b *VoteBucket) Find(addr cmtcrypto.Address) int {
	for i, e := range b.List {
		if bytes.Equal(e.Address, addr) {
			return i
		}
	}
	return -1
}

func (b *VoteBucket) Add(e VoteEntry) {
	b.List = append(b.List, e)
	b.Amount = new(big.Int).Add(b.Amount, e.Amount)
}

// Remove drops the entry of addr and subtracts amount from the bucket total.
func (b *VoteBucket) Remove(addr cmtcrypto.Address, amount *big.Int) bool {
	i := b.Find(addr)
	if i < 0 {
		return false
	}
	list := make([]VoteEntry, 0, len(b.List)-1)
	list = append(list, b.List[:i]...)
	list = append(list, b.List[i+1:]...)
	b.List = list
	b.Amount = new(big.Int).Sub(b.Amount, amount)
	return true
}

type Vote struct {
	Agree    VoteBucket `json:"agree"`
	Disagree VoteBucket `json:"disagree"`
	NoVote   VoteBucket `json:"noVote"`
}

func (v *Vote) Bucket(vt VoteType) *VoteBucket {
	if vt == VoteAgree {
		return &v.Agree
	}
	return &v.Disagree
}

func (v *Vote) Voted(addr cmtcrypto.Address) bool {
	return v.Agree.Find(addr) >= 0 || v.Disagree.Find(addr) >= 0
}

func (v *Vote) Eligible(addr cmtcrypto.Address) bool {
	return v.Voted(addr) || v.NoVote.Find(addr) >= 0
}

type Proposal struct {
	ID                   cmtbytes.HexBytes `json:"id"`
	Proposer             cmtcrypto.Address `json:"proposer"`
	ProposerName         string            `json:"proposer_name"`
	Title                string            `json:"title"`
	Description          string            `json:"description"`
	Type                 ProposalType      `json:"type"`
	Value                ProposalValue     `json:"value"`
	StartBlockHeight     uint64            `json:"start_block_height"`
	EndBlockHeight       uint64            `json:"end_block_height"`
	Status               ProposalStatus    `json:"status"`
	Vote                 Vote              `json:"vote"`
	TotalVoter           uint64            `json:"total_voter"`
	TotalDelegatedAmount *big.Int          `json:"total_delegated_amount"`
}

func (p *Proposal) Bytes() ([]byte, error) {
	return json.Marshal(p)
}

func ProposalFromBytes(dat []byte) (*Proposal, error) {
	dec := json.NewDecoder(bytes.NewReader(dat))
	dec.UseNumber()
	p := new(Proposal)
	if err := dec.Decode(p); err != nil {
		return nil, err
	}
	if p.TotalDelegatedAmount == nil {
		p.TotalDelegatedAmount = new(big.Int)
	}
	return p, nil
}

// Clone returns a deep copy that shares nothing with p.
func (p *Proposal) Clone() (*Proposal, error) {
	dat, err := p.Bytes()
	if err != nil {
		return nil, err
	}
	return ProposalFromBytes(dat)
}

func (p *Proposal) Expired(height uint64) bool {
	return p.EndBlockHeight < height
}

// EffectiveStatus is the status a reader at height observes. A voting
// proposal past its end height reads as disapproved.
func (p *Proposal) EffectiveStatus(height uint64) ProposalStatus {
	if p.Status == ProposalStatusVoting && p.Expired(height) {
		return ProposalStatusDisapproved
	}
	return p.Status
}
