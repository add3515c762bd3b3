package types

import (
	"testing"

	abci "github.com/cometbft/cometbft/abci/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventProposalRegisteredCodec(t *testing.T) {
	ev := &EventProposalRegistered{
		ID:           "0xdeadbeef",
		Title:        "t",
		Description:  "d",
		Type:         uint64(ProposalTypeStepPrice),
		Value:        `{"value":"0x64"}`,
		Proposer:     "AB",
		ProposerName: "prep",
		StartHeight:  3,
		EndHeight:    9,
	}
	decoded := DecodeEventProposalRegistered(EncodeEventProposalRegistered(ev))
	require.NotNil(t, decoded)
	assert.Equal(t, ev, decoded)

	assert.Nil(t, DecodeEventProposalRegistered(abci.Event{Type: EventProposalVotedType}))
	bad := EncodeEventProposalRegistered(ev)
	bad.Attributes[5].Value = "x"
	assert.Nil(t, DecodeEventProposalRegistered(bad))
}

func TestEventProposalStatusTypes(t *testing.T) {
	cases := map[ProposalStatus]string{
		ProposalStatusCanceled:    EventProposalCanceledType,
		ProposalStatusApproved:    EventProposalApprovedType,
		ProposalStatusDisapproved: EventProposalDisapprovedType,
	}
	for status, typ := range cases {
		event := EncodeEventProposalStatus(&EventProposalStatus{ID: "0x01", Status: uint64(status)})
		assert.Equal(t, typ, event.Type)
		decoded := DecodeEventProposalStatus(event)
		require.NotNil(t, decoded)
		assert.Equal(t, uint64(status), decoded.Status)
	}
}

func TestEventVotedAndNetworkCodec(t *testing.T) {
	voted := &EventProposalVoted{ID: "0x01", Vote: 1, Voter: "AB", Amount: "25"}
	assert.Equal(t, voted, DecodeEventProposalVoted(EncodeEventProposalVoted(voted)))

	changed := &EventNetworkValueChanged{ID: "0x01", Type: uint64(ProposalTypeIrep), Value: `{"value":"0x1"}`}
	assert.Equal(t, changed, DecodeEventNetworkValueChanged(EncodeEventNetworkValueChanged(changed)))
}

func TestEventUpdateValidatorsCodec(t *testing.T) {
	pk := make([]byte, 32)
	pk[0] = 7
	ev := &EventUpdateValidators{Updates: []abci.ValidatorUpdate{abci.Ed25519ValidatorUpdate(pk, 10)}}
	decoded := DecodeEventUpdateValidators(EncodeEventUpdateValidators(ev))
	require.NotNil(t, decoded)
	require.Len(t, decoded.Updates, 1)
	assert.Equal(t, int64(10), decoded.Updates[0].Power)
	assert.Equal(t, pk, decoded.Updates[0].PubKey.GetEd25519())
}
