package types

import (
	"encoding/json"
	"math/big"
	"strings"
	"testing"

	cmtcrypto "github.com/cometbft/cometbft/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleProposal() *Proposal {
	addr := func(b byte) cmtcrypto.Address {
		a := make([]byte, 20)
		a[19] = b
		return a
	}
	p := &Proposal{
		ID:           []byte{0xde, 0xad, 0xbe, 0xef},
		Proposer:     addr(1),
		ProposerName: "prep1",
		Title:        "step costs",
		Description:  "update step costs",
		Type:         ProposalTypeStepCosts,
		Value: ProposalValue{
			"costs": map[string]any{"default": "0x186a0", "delete": json.Number("-240")},
		},
		StartBlockHeight: 10,
		EndBlockHeight:   20,
		Status:           ProposalStatusVoting,
		Vote: Vote{
			Agree:    NewVoteBucket(),
			Disagree: NewVoteBucket(),
			NoVote:   NewVoteBucket(),
		},
		TotalVoter:           2,
		TotalDelegatedAmount: big.NewInt(300),
	}
	p.Vote.Agree.Add(VoteEntry{ID: []byte{0x01}, Timestamp: 1234, Address: addr(1), Name: "prep1", Amount: big.NewInt(100)})
	p.Vote.NoVote.Add(VoteEntry{Address: addr(2), Name: "prep2", Amount: big.NewInt(200)})
	return p
}

func TestProposalSerializationIdempotent(t *testing.T) {
	p := sampleProposal()
	dat, err := p.Bytes()
	require.NoError(t, err)

	decoded, err := ProposalFromBytes(dat)
	require.NoError(t, err)
	again, err := decoded.Bytes()
	require.NoError(t, err)
	assert.Equal(t, string(dat), string(again))

	assert.Equal(t, p.ID, decoded.ID)
	assert.Equal(t, p.Proposer, decoded.Proposer)
	assert.Equal(t, p.Type, decoded.Type)
	assert.Equal(t, p.Status, decoded.Status)
	assert.Equal(t, p.EndBlockHeight, decoded.EndBlockHeight)
	assert.Equal(t, 0, p.TotalDelegatedAmount.Cmp(decoded.TotalDelegatedAmount))
	assert.Equal(t, p.Value, decoded.Value)
	require.Len(t, decoded.Vote.Agree.List, 1)
	assert.Equal(t, int64(1234), decoded.Vote.Agree.List[0].Timestamp)
	assert.Equal(t, int64(100), decoded.Vote.Agree.Amount.Int64())
	assert.Empty(t, decoded.Vote.Disagree.List)
}

func TestProposalSerializationFormat(t *testing.T) {
	dat, err := sampleProposal().Bytes()
	require.NoError(t, err)
	s := string(dat)

	keys := []string{`"id"`, `"proposer"`, `"proposer_name"`, `"title"`, `"description"`, `"type"`,
		`"value"`, `"start_block_height"`, `"end_block_height"`, `"status"`, `"vote"`,
		`"total_voter"`, `"total_delegated_amount"`}
	last := -1
	for _, k := range keys {
		i := strings.Index(s, k)
		require.Greater(t, i, last, "key %s out of order", k)
		last = i
	}
	assert.Contains(t, s, `"id":"DEADBEEF"`)
	assert.Contains(t, s, `"start_block_height":10`)
	assert.Contains(t, s, `"total_delegated_amount":300`)
	assert.Contains(t, s, `"delete":-240`)
	assert.Contains(t, s, `"noVote":{"list":[{"address":"0000000000000000000000000000000000000002","name":"prep2","amount":200}],"amount":200}`)
}

func TestProposalClone(t *testing.T) {
	p := sampleProposal()
	c, err := p.Clone()
	require.NoError(t, err)
	c.Vote.Agree.List[0].Name = "other"
	c.Value["costs"].(map[string]any)["default"] = "0x1"
	assert.Equal(t, "prep1", p.Vote.Agree.List[0].Name)
	assert.Equal(t, "0x186a0", p.Value["costs"].(map[string]any)["default"])
}

func TestEffectiveStatus(t *testing.T) {
	p := sampleProposal()
	assert.Equal(t, ProposalStatusVoting, p.EffectiveStatus(20))
	assert.Equal(t, ProposalStatusDisapproved, p.EffectiveStatus(21))
	p.Status = ProposalStatusCanceled
	assert.Equal(t, ProposalStatusCanceled, p.EffectiveStatus(21))
}

func TestVoteBucket(t *testing.T) {
	b := NewVoteBucket()
	a1 := cmtcrypto.Address(make([]byte, 20))
	a2 := cmtcrypto.Address(append(make([]byte, 19), 2))
	b.Add(VoteEntry{Address: a1, Amount: big.NewInt(5)})
	b.Add(VoteEntry{Address: a2, Amount: big.NewInt(7)})
	assert.Equal(t, 2, b.Count())
	assert.Equal(t, int64(12), b.Amount.Int64())
	assert.Equal(t, 1, b.Find(a2))

	assert.True(t, b.Remove(a1, big.NewInt(5)))
	assert.False(t, b.Remove(a1, big.NewInt(5)))
	assert.Equal(t, 1, b.Count())
	assert.Equal(t, int64(7), b.Amount.Int64())
}

func TestParseProposalType(t *testing.T) {
	typ, err := ParseProposalType("stepPrice")
	require.NoError(t, err)
	assert.Equal(t, ProposalTypeStepPrice, typ)

	typ, err = ParseProposalType("8")
	require.NoError(t, err)
	assert.Equal(t, ProposalTypeRewardFundAllocation, typ)

	_, err = ParseProposalType("nope")
	assert.Error(t, err)
}
