package state

import (
	"math/big"
	"testing"

	"github.com/cometbft/cometbft/crypto/ed25519"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T, opts Options) *StateDB {
	t.Helper()
	db, err := NewMemStateDB(opts, cmtlog.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testKey(i byte) ed25519.PrivKey {
	return ed25519.GenPrivKeyFromSecret([]byte{'k', i})
}

func testAccount(i byte, stake int64, name string) *Account {
	a := &Account{Name: name, Stake: big.NewInt(stake)}
	a.SetPubKey(testKey(i).PubKey().Bytes())
	return a
}

// commit flushes st and makes it the committed state.
func commit(t *testing.T, db *StateDB, st *State) {
	t.Helper()
	_, err := st.Update()
	require.NoError(t, err)
	_, err = db.SetState(st)
	require.NoError(t, err)
}
