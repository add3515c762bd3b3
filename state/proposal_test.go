package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectIDs(t *testing.T, st *State) [][]byte {
	t.Helper()
	var ids [][]byte
	require.NoError(t, st.IterateProposalIDs(func(id []byte) bool {
		ids = append(ids, id)
		return true
	}))
	return ids
}

func TestProposalStore(t *testing.T) {
	db := newTestDB(t, DefaultOptions())
	st := db.NewState()
	require.NoError(t, st.SetProposal([]byte{0x01}, []byte(`{"id":"01"}`)))
	require.NoError(t, st.AppendProposalID([]byte{0x01}))
	require.NoError(t, st.SetProposal([]byte{0x02}, []byte(`{"id":"02"}`)))
	require.NoError(t, st.AppendProposalID([]byte{0x02}))
	commit(t, db, st)

	st = db.NewState()
	dat, err := st.GetProposal([]byte{0x01})
	require.NoError(t, err)
	assert.Equal(t, `{"id":"01"}`, string(dat))

	require.NoError(t, st.SetProposal([]byte{0x03}, []byte(`{"id":"03"}`)))
	require.NoError(t, st.AppendProposalID([]byte{0x03}))
	require.NoError(t, st.SetProposal([]byte{0x01}, []byte(`{"id":"01","status":1}`)))
	assert.Equal(t, uint64(3), st.ProposalCount())
	assert.Equal(t, [][]byte{{0x01}, {0x02}, {0x03}}, collectIDs(t, st))

	dat, err = st.GetProposal([]byte{0x01})
	require.NoError(t, err)
	assert.Equal(t, `{"id":"01","status":1}`, string(dat))

	var first [][]byte
	require.NoError(t, st.IterateProposalIDs(func(id []byte) bool {
		first = append(first, id)
		return false
	}))
	assert.Len(t, first, 1)

	commit(t, db, st)
	_, err = db.View(func(st *State) error {
		assert.Equal(t, [][]byte{{0x01}, {0x02}, {0x03}}, collectIDs(t, st))
		dat, err := st.GetProposal([]byte{0x01})
		assert.Equal(t, `{"id":"01","status":1}`, string(dat))
		return err
	})
	require.NoError(t, err)
}
