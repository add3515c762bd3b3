package proposal

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/icon-project/governance/types"
)

type VoteEntryView struct {
	ID        string `json:"id,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Address   string `json:"address"`
	Name      string `json:"name"`
	Amount    string `json:"amount"`
}

type VoteBucketView struct {
	List   []VoteEntryView `json:"list"`
	Count  string          `json:"count"`
	Amount string          `json:"amount"`
}

type VoteView struct {
	Agree    VoteBucketView `json:"agree"`
	Disagree VoteBucketView `json:"disagree"`
	NoVote   VoteBucketView `json:"noVote"`
}

type ContentsView struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Type        string              `json:"type"`
	Value       types.ProposalValue `json:"value"`
}

// ProposalView is the query form of a proposal: integers are 0x hex and the
// status has the expiry view applied.
type ProposalView struct {
	ID               string       `json:"id"`
	Proposer         string       `json:"proposer"`
	ProposerName     string       `json:"proposerName"`
	Status           string       `json:"status"`
	StartBlockHeight string       `json:"startBlockHeight"`
	EndBlockHeight   string       `json:"endBlockHeight"`
	TotalVoter       string       `json:"totalVoter"`
	TotalDelegated   string       `json:"totalDelegatedAmount"`
	Vote             VoteView     `json:"vote"`
	Contents         ContentsView `json:"contents"`
}

type BucketSummary struct {
	Count  string `json:"count"`
	Amount string `json:"amount"`
}

type VoteSummary struct {
	Agree    BucketSummary `json:"agree"`
	Disagree BucketSummary `json:"disagree"`
	NoVote   BucketSummary `json:"noVote"`
}

type ProposalSummary struct {
	ID               string      `json:"id"`
	Proposer         string      `json:"proposer"`
	ProposerName     string      `json:"proposerName"`
	Title            string      `json:"title"`
	Description      string      `json:"description"`
	Type             string      `json:"type"`
	Status           string      `json:"status"`
	StartBlockHeight string      `json:"startBlockHeight"`
	EndBlockHeight   string      `json:"endBlockHeight"`
	Vote             VoteSummary `json:"vote"`
}

type ProposalList struct {
	Proposals []ProposalSummary `json:"proposals"`
}

type Filter struct {
	Type   *types.ProposalType
	Status *types.ProposalStatus
}

func (f Filter) match(p *types.Proposal, status types.ProposalStatus) bool {
	if f.Type != nil && *f.Type != p.Type {
		return false
	}
	if f.Status != nil && *f.Status != status {
		return false
	}
	return true
}

func (e *Engine) GetProposal(id []byte, height uint64) (*ProposalView, error) {
	p, err := e.load(id)
	if err != nil {
		return nil, err
	}
	return NewProposalView(p, height), nil
}

// ListProposals walks the index in insertion order and returns summaries of
// the proposals matching f, using the status as seen at height.
func (e *Engine) ListProposals(height uint64, f Filter) ([]ProposalSummary, error) {
	res := make([]ProposalSummary, 0)
	var loadErr error
	err := e.store.IterateProposalIDs(func(id []byte) bool {
		p, err := e.load(id)
		if err != nil {
			loadErr = err
			return false
		}
		status := p.EffectiveStatus(height)
		if f.match(p, status) {
			res = append(res, NewProposalSummary(p, height))
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	if loadErr != nil {
		return nil, loadErr
	}
	return res, nil
}

func NewProposalView(p *types.Proposal, height uint64) *ProposalView {
	return &ProposalView{
		ID:               hexutil.Encode(p.ID),
		Proposer:         p.Proposer.String(),
		ProposerName:     p.ProposerName,
		Status:           hexutil.EncodeUint64(uint64(p.EffectiveStatus(height))),
		StartBlockHeight: hexutil.EncodeUint64(p.StartBlockHeight),
		EndBlockHeight:   hexutil.EncodeUint64(p.EndBlockHeight),
		TotalVoter:       hexutil.EncodeUint64(p.TotalVoter),
		TotalDelegated:   encodeBig(p.TotalDelegatedAmount),
		Vote: VoteView{
			Agree:    newBucketView(&p.Vote.Agree),
			Disagree: newBucketView(&p.Vote.Disagree),
			NoVote:   newBucketView(&p.Vote.NoVote),
		},
		Contents: ContentsView{
			Title:       p.Title,
			Description: p.Description,
			Type:        hexutil.EncodeUint64(uint64(p.Type)),
			Value:       p.Value,
		},
	}
}

func NewProposalSummary(p *types.Proposal, height uint64) ProposalSummary {
	return ProposalSummary{
		ID:               hexutil.Encode(p.ID),
		Proposer:         p.Proposer.String(),
		ProposerName:     p.ProposerName,
		Title:            p.Title,
		Description:      p.Description,
		Type:             hexutil.EncodeUint64(uint64(p.Type)),
		Status:           hexutil.EncodeUint64(uint64(p.EffectiveStatus(height))),
		StartBlockHeight: hexutil.EncodeUint64(p.StartBlockHeight),
		EndBlockHeight:   hexutil.EncodeUint64(p.EndBlockHeight),
		Vote: VoteSummary{
			Agree:    newBucketSummary(&p.Vote.Agree),
			Disagree: newBucketSummary(&p.Vote.Disagree),
			NoVote:   newBucketSummary(&p.Vote.NoVote),
		},
	}
}

func newBucketView(b *types.VoteBucket) VoteBucketView {
	v := VoteBucketView{
		List:   make([]VoteEntryView, 0, len(b.List)),
		Count:  hexutil.EncodeUint64(uint64(b.Count())),
		Amount: encodeBig(b.Amount),
	}
	for _, e := range b.List {
		ev := VoteEntryView{
			Address: e.Address.String(),
			Name:    e.Name,
			Amount:  encodeBig(e.Amount),
		}
		if len(e.ID) > 0 {
			ev.ID = hexutil.Encode(e.ID)
			ev.Timestamp = hexutil.EncodeUint64(uint64(e.Timestamp))
		}
		v.List = append(v.List, ev)
	}
	return v
}

func newBucketSummary(b *types.VoteBucket) BucketSummary {
	return BucketSummary{
		Count:  hexutil.EncodeUint64(uint64(b.Count())),
		Amount: encodeBig(b.Amount),
	}
}

func encodeBig(v *big.Int) string {
	if v == nil {
		return "0x0"
	}
	return hexutil.EncodeBig(v)
}
