package main

import (
	"testing"

	"github.com/icon-project/governance/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountKey(t *testing.T) {
	key, err := accountKey(65536, "")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x00, 0x00}, key)

	key, err = accountKey(0, "0x00112233445566778899aabbccddeeff00112233")
	require.NoError(t, err)
	assert.Len(t, key, 20)

	_, err = accountKey(0, "zz")
	assert.Error(t, err)
}

func TestParseArgs(t *testing.T) {
	id, err := parseID("0xabcd")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xab, 0xcd}, id)
	_, err = parseID("0x")
	assert.Error(t, err)

	v, err := parseVote("agree")
	require.NoError(t, err)
	assert.Equal(t, types.VoteAgree, v)
	v, err = parseVote("0")
	require.NoError(t, err)
	assert.Equal(t, types.VoteDisagree, v)
	_, err = parseVote("maybe")
	assert.Error(t, err)

	st, err := parseStatus("Canceled")
	require.NoError(t, err)
	assert.Equal(t, types.ProposalStatusCanceled, st)
	_, err = parseStatus("pending")
	assert.Error(t, err)
}
