package tx

import (
	"testing"

	"github.com/icon-project/governance/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalGovTx(t *testing.T) {
	gtx := NewGovTx(GovTxTypeRegisterProposal, 65536, 4, RegisterProposalTx{
		Title:       "step price",
		Description: "raise it",
		Type:        types.ProposalTypeStepPrice,
		Value:       types.ProposalValue{"value": "0x2e90edd00"},
	})
	gtx.Sig = [][]byte{{0x01, 0x02}}
	dat, err := MarshalGovTx(gtx)
	require.NoError(t, err)

	decoded, err := UnmarshalGovTx(dat)
	require.NoError(t, err)
	assert.Equal(t, GovTxTypeRegisterProposal, decoded.Type)
	assert.Equal(t, uint64(65536), decoded.Validator)
	assert.Equal(t, uint64(4), decoded.Nonce)
	assert.Equal(t, gtx.Sig, decoded.Sig)
	body, ok := decoded.Tx.(*RegisterProposalTx)
	require.True(t, ok)
	assert.Equal(t, "step price", body.Title)
	assert.Equal(t, "0x2e90edd00", body.Value["value"])

	dat, err = MarshalGovTx(NewGovTx(GovTxTypeVoteProposal, 65537, 0, VoteProposalTx{ID: []byte{0xab}, Vote: types.VoteAgree}))
	require.NoError(t, err)
	decoded, err = UnmarshalGovTx(dat)
	require.NoError(t, err)
	vote, ok := decoded.Tx.(*VoteProposalTx)
	require.True(t, ok)
	assert.Equal(t, types.VoteAgree, vote.Vote)
	assert.Equal(t, []byte{0xab}, []byte(vote.ID))

	dat, err = MarshalGovTx(NewGovTx(GovTxTypeCancelProposal, 65537, 0, CancelProposalTx{ID: []byte{0xcd}}))
	require.NoError(t, err)
	decoded, err = UnmarshalGovTx(dat)
	require.NoError(t, err)
	_, ok = decoded.Tx.(*CancelProposalTx)
	assert.True(t, ok)
}

func TestUnmarshalGovTxErrors(t *testing.T) {
	_, err := UnmarshalGovTx([]byte(`{"type":9}`))
	assert.ErrorIs(t, err, ErrUnsupportedTxType)
	_, err = UnmarshalGovTx([]byte(`not json`))
	assert.ErrorIs(t, err, ErrUnsupportedTxType)
	_, err = UnmarshalGovTx([]byte(`{"version":1,"type":3,"tx":{}}`))
	assert.ErrorIs(t, err, ErrUnsupportedTxVersion)
	_, err = UnmarshalGovTx([]byte(`{"type":3,"tx":{"vote":"yes"}}`))
	assert.Error(t, err)
}

func TestSigDataStable(t *testing.T) {
	value := types.ProposalValue{}
	require.NoError(t, value.UnmarshalJSON([]byte(`{"costs":{"apiCall":10000,"set":1.5}}`)))
	gtx := NewGovTx(GovTxTypeRegisterProposal, 65536, 0, RegisterProposalTx{
		Title: "costs",
		Type:  types.ProposalTypeStepCosts,
		Value: value,
	})
	want, err := gtx.SigData([]byte("gov-test"))
	require.NoError(t, err)

	gtx.Sig = [][]byte{{0x01}}
	dat, err := MarshalGovTx(gtx)
	require.NoError(t, err)
	decoded, err := UnmarshalGovTx(dat)
	require.NoError(t, err)
	got, err := decoded.SigData([]byte("gov-test"))
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))

	other, err := decoded.SigData([]byte("other"))
	require.NoError(t, err)
	assert.NotEqual(t, string(want), string(other))
}

func TestGovTxTypeString(t *testing.T) {
	assert.Equal(t, "voteProposal", GovTxTypeVoteProposal.String())
}
