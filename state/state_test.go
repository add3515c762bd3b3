package state

import (
	"math/big"
	"testing"

	"github.com/icon-project/governance/tx"
	"github.com/icon-project/governance/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccounts(t *testing.T) {
	db := newTestDB(t, DefaultOptions())
	st := db.NewState()
	st.SetChainId("gov-test")

	a := testAccount(1, 100, "prep1")
	require.NoError(t, st.AddAccount(a))
	assert.Equal(t, uint64(StartAccountIdx), a.Index)
	assert.ErrorIs(t, st.AddAccount(testAccount(1, 5, "again")), ErrAccountAlreadyExists)

	found, err := st.FindAccount(a.AddrBytes())
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "prep1", found.Name)

	missing, err := st.FindAccount(testAccount(9, 0, "").AddrBytes())
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = st.GetAccount(StartAccountIdx + 1)
	assert.ErrorIs(t, err, ErrAccountNoexists)

	require.NoError(t, st.IncNonce(a.Index))
	commit(t, db, st)

	acnt, height, err := db.GetAccountByAddress(a.AddrBytes())
	require.NoError(t, err)
	assert.Equal(t, uint64(0), height)
	assert.Equal(t, uint64(1), acnt.Nonce)
	assert.Equal(t, big.NewInt(100), acnt.Stake)

	acnt, _, err = db.GetAccountByIndex(StartAccountIdx)
	require.NoError(t, err)
	assert.Equal(t, a.Address(), acnt.Address())

	next := db.NewState()
	assert.Equal(t, uint64(1), next.Height())
	assert.Equal(t, "gov-test", next.Header().ChainId)
}

func TestStateVerify(t *testing.T) {
	db := newTestDB(t, DefaultOptions())
	st := db.NewState()
	st.SetChainId("gov-test")
	a := testAccount(1, 100, "prep1")
	require.NoError(t, st.AddAccount(a))

	gtx := tx.NewGovTx(tx.GovTxTypeVoteProposal, a.Index, 0, tx.VoteProposalTx{ID: []byte{1}, Vote: types.VoteAgree})
	dat, err := gtx.SigData([]byte("gov-test"))
	require.NoError(t, err)
	sig, err := testKey(1).Sign(dat)
	require.NoError(t, err)
	gtx.Sig = [][]byte{sig}

	ok, err := st.Verify(gtx, false)
	require.NoError(t, err)
	assert.True(t, ok)

	gtx.Nonce = 3
	_, err = st.Verify(gtx, false)
	assert.ErrorIs(t, err, ErrTxNonceInvalid)
	_, err = st.Verify(gtx, true)
	assert.ErrorIs(t, err, ErrTxSigInvalid)

	gtx.Nonce = 0
	gtx.Validator = a.Index + 1
	_, err = st.Verify(gtx, false)
	assert.ErrorIs(t, err, ErrTxValidatorNoexists)
}

func TestRoster(t *testing.T) {
	db := newTestDB(t, Options{MainPReps: 2, SubPReps: 1})
	st := db.NewState()
	a := testAccount(1, 100, "a")
	b := testAccount(2, 300, "b")
	c := testAccount(3, 300, "c")
	d := testAccount(4, 0, "d")
	e := testAccount(5, 50, "e")
	for _, acnt := range []*Account{a, b, c, d, e} {
		require.NoError(t, st.AddAccount(acnt))
	}

	main, err := st.MainPReps()
	require.NoError(t, err)
	require.Len(t, main, 2)
	assert.Equal(t, "b", main[0].Name)
	assert.Equal(t, "c", main[1].Name)

	sub, err := st.SubPReps()
	require.NoError(t, err)
	require.Len(t, sub, 1)
	assert.Equal(t, "a", sub[0].Name)

	assert.True(t, st.IsPRep(a.AddrBytes()))
	assert.False(t, st.IsPRep(d.AddrBytes()))
	assert.False(t, st.IsPRep(e.AddrBytes()))

	live, err := st.LiveValidators()
	require.NoError(t, err)
	require.Len(t, live, 2)
	assert.Equal(t, big.NewInt(300), live[0].Stake)

	require.NoError(t, st.Disqualify(b.AddrBytes()))
	main, err = st.MainPReps()
	require.NoError(t, err)
	assert.Equal(t, "c", main[0].Name)
	assert.Equal(t, "a", main[1].Name)

	commit(t, db, st)
	var names []string
	_, err = db.View(func(st *State) error {
		sub, err := st.SubPReps()
		for _, a := range sub {
			names = append(names, a.Name)
		}
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"e"}, names)
}

func TestValidatorsUpdate(t *testing.T) {
	db := newTestDB(t, Options{MainPReps: 2, SubPReps: 0})
	st := db.NewState()
	a := testAccount(1, 3_000_000_000, "a")
	b := testAccount(2, 2_000_000_000, "b")
	c := testAccount(3, 1_000_000_000, "c")
	for _, acnt := range []*Account{a, b, c} {
		require.NoError(t, st.AddAccount(acnt))
	}
	cur, err := st.Validators()
	require.NoError(t, err)
	require.Len(t, cur, 2)

	upd, err := st.ValidatorsUpdate(cur)
	require.NoError(t, err)
	assert.Empty(t, upd)

	require.NoError(t, st.Disqualify(a.AddrBytes()))
	upd, err = st.ValidatorsUpdate(cur)
	require.NoError(t, err)
	require.Len(t, upd, 2)
	powers := make(map[string]int64)
	for _, u := range upd {
		powers[string(u.PubKey.GetEd25519())] = u.Power
	}
	assert.Equal(t, int64(0), powers[string(a.PubKey)])
	assert.Equal(t, int64(1), powers[string(c.PubKey)])
}

func TestStateClone(t *testing.T) {
	db := newTestDB(t, DefaultOptions())
	st := db.NewState()
	a := testAccount(1, 100, "a")
	require.NoError(t, st.AddAccount(a))

	n := st.Clone()
	require.NoError(t, n.IncNonce(a.Index))
	require.NoError(t, n.SetProposal([]byte{1}, []byte("p")))
	require.NoError(t, n.AppendProposalID([]byte{1}))

	orig, err := st.GetAccount(a.Index)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), orig.Nonce)
	dat, err := st.GetProposal([]byte{1})
	require.NoError(t, err)
	assert.Nil(t, dat)
	assert.Equal(t, uint64(0), st.ProposalCount())
	assert.Equal(t, uint64(1), n.ProposalCount())
}

func TestPrefixEndBytes(t *testing.T) {
	assert.Equal(t, []byte("b"), PrefixEndBytes([]byte("a")))
	assert.Equal(t, []byte{0x02}, PrefixEndBytes([]byte{0x01, 0xff}))
	assert.Nil(t, PrefixEndBytes([]byte{0xff}))
	assert.Nil(t, PrefixEndBytes(nil))
}
