package app

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	abcitypes "github.com/cometbft/cometbft/abci/types"
	"github.com/cometbft/cometbft/crypto/ed25519"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	cmttypes "github.com/cometbft/cometbft/types"
	"github.com/icon-project/governance/config"
	"github.com/icon-project/governance/crypto"
	"github.com/icon-project/governance/proposal"
	"github.com/icon-project/governance/state"
	"github.com/icon-project/governance/tx"
	"github.com/icon-project/governance/tx/handler"
	"github.com/icon-project/governance/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testChainID = "gov-test"

type testNode struct {
	app    *GovApp
	keys   []ed25519.PrivKey
	nonces []uint64
	height int64
}

// newTestNode starts a chain with three validators of power 4, 3 and 3.
// Two agreeing validators holding 70% of the stake approve a proposal.
func newTestNode(t *testing.T) *testNode {
	t.Helper()
	logger := cmtlog.NewNopLogger()
	cfg := config.DefaultGovAppConfig(t.TempDir())
	cfg.VotingPeriod = 5
	cfg.ApproveVoters = 2
	cfg.DisapproveVoters = 2
	cfg.CommitteeSize = 3
	cfg.MainPReps = 3
	cfg.SubPReps = 0
	db, err := state.NewMemStateDB(stateOptions(cfg), logger)
	require.NoError(t, err)
	app, err := newGovApp(cfg, db, logger)
	require.NoError(t, err)
	t.Cleanup(app.Stop)

	n := &testNode{app: app}
	appState := types.DefaultGenesisAppState()
	appState.ValidatorNames = make(map[string]string)
	var vals []abcitypes.ValidatorUpdate
	for i, power := range []int64{4, 3, 3} {
		key := ed25519.GenPrivKeyFromSecret([]byte{'v', byte(i)})
		n.keys = append(n.keys, key)
		n.nonces = append(n.nonces, 0)
		appState.ValidatorNames[key.PubKey().Address().String()] = string(rune('a' + i))
		vals = append(vals, abcitypes.Ed25519ValidatorUpdate(key.PubKey().Bytes(), power))
	}
	appStateBytes, err := json.Marshal(appState)
	require.NoError(t, err)
	res, err := app.InitChain(context.Background(), &abcitypes.RequestInitChain{
		ChainId:       testChainID,
		Validators:    vals,
		AppStateBytes: appStateBytes,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AppHash)
	assert.Empty(t, res.Validators)
	return n
}

func (n *testNode) signTx(t *testing.T, signer int, tp tx.GovTxType, body any) []byte {
	t.Helper()
	gtx := tx.NewGovTx(tp, state.StartAccountIdx+uint64(signer), n.nonces[signer], body)
	require.NoError(t, crypto.NewPV(n.keys[signer]).SignTx(gtx, testChainID))
	n.nonces[signer]++
	dat, err := tx.MarshalGovTx(gtx)
	require.NoError(t, err)
	return dat
}

// block runs one height through prepare, process, finalize and commit.
func (n *testNode) block(t *testing.T, txs ...[]byte) *abcitypes.ResponseFinalizeBlock {
	t.Helper()
	ctx := context.Background()
	n.height++
	now := time.Unix(1700000000+n.height, 0)
	prep, err := n.app.PrepareProposal(ctx, &abcitypes.RequestPrepareProposal{Height: n.height, Time: now, Txs: txs})
	require.NoError(t, err)
	proc, err := n.app.ProcessProposal(ctx, &abcitypes.RequestProcessProposal{Height: n.height, Time: now, Txs: prep.Txs})
	require.NoError(t, err)
	require.Equal(t, abcitypes.ResponseProcessProposal_ACCEPT, proc.Status)
	res, err := n.app.FinalizeBlock(ctx, &abcitypes.RequestFinalizeBlock{Height: n.height, Time: now, Txs: prep.Txs})
	require.NoError(t, err)
	_, err = n.app.Commit(ctx, &abcitypes.RequestCommit{})
	require.NoError(t, err)
	return res
}

func (n *testNode) query(t *testing.T, path string, data []byte, out any) {
	t.Helper()
	res, err := n.app.Query(context.Background(), &abcitypes.RequestQuery{Path: path, Data: data})
	require.NoError(t, err)
	require.Equal(t, uint32(0), res.Code, res.Log)
	require.NoError(t, json.Unmarshal(res.Value, out))
}

func TestCheckTx(t *testing.T) {
	n := newTestNode(t)
	ctx := context.Background()
	dat := n.signTx(t, 0, tx.GovTxTypeRegisterProposal, tx.RegisterProposalTx{
		Title: "hello", Type: types.ProposalTypeText, Value: types.ProposalValue{"value": "hello"},
	})
	res, err := n.app.CheckTx(ctx, &abcitypes.RequestCheckTx{Tx: dat})
	require.NoError(t, err)
	assert.Equal(t, handler.CodeOK, res.Code, res.Log)

	res, err = n.app.CheckTx(ctx, &abcitypes.RequestCheckTx{Tx: []byte("garbage")})
	require.NoError(t, err)
	assert.Equal(t, handler.CodeInvalidTx, res.Code)

	gtx := tx.NewGovTx(tx.GovTxTypeRegisterProposal, state.StartAccountIdx, 0, tx.RegisterProposalTx{
		Type: types.ProposalTypeText, Value: types.ProposalValue{"value": "hello"},
	})
	require.NoError(t, crypto.NewPV(n.keys[1]).SignTx(gtx, testChainID))
	forged, err := tx.MarshalGovTx(gtx)
	require.NoError(t, err)
	res, err = n.app.CheckTx(ctx, &abcitypes.RequestCheckTx{Tx: forged})
	require.NoError(t, err)
	assert.Equal(t, handler.CodeInvalidTx, res.Code)
}

func TestPrepareDropsFailingTxs(t *testing.T) {
	n := newTestNode(t)
	ctx := context.Background()
	good := n.signTx(t, 0, tx.GovTxTypeRegisterProposal, tx.RegisterProposalTx{
		Type: types.ProposalTypeText, Value: types.ProposalValue{"value": "hello"},
	})
	bad := n.signTx(t, 1, tx.GovTxTypeVoteProposal, tx.VoteProposalTx{ID: []byte{0x01}, Vote: types.VoteAgree})
	res, err := n.app.PrepareProposal(ctx, &abcitypes.RequestPrepareProposal{
		Height: 1,
		Time:   time.Now(),
		Txs:    [][]byte{[]byte("garbage"), good, bad},
	})
	require.NoError(t, err)
	assert.Equal(t, [][]byte{good}, res.Txs)

	proc, err := n.app.ProcessProposal(ctx, &abcitypes.RequestProcessProposal{Height: 1, Time: time.Now(), Txs: [][]byte{good, bad}})
	require.NoError(t, err)
	assert.Equal(t, abcitypes.ResponseProcessProposal_REJECT, proc.Status)
}

func TestProposalLifecycle(t *testing.T) {
	n := newTestNode(t)
	target := n.keys[2].PubKey().Address()
	reg := n.signTx(t, 0, tx.GovTxTypeRegisterProposal, tx.RegisterProposalTx{
		Title:       "disqualify c",
		Description: "misbehaving",
		Type:        types.ProposalTypePRepDisqualification,
		Value:       types.ProposalValue{"address": "0x" + target.String()},
	})
	res := n.block(t, reg)
	require.Len(t, res.TxResults, 1)
	require.Equal(t, handler.CodeOK, res.TxResults[0].Code, res.TxResults[0].Log)
	id := cmttypes.Tx(reg).Hash()
	assert.Equal(t, id, res.TxResults[0].Data)
	assert.Empty(t, res.ValidatorUpdates)

	var view proposal.ProposalView
	n.query(t, "/proposal", id, &view)
	assert.Equal(t, "0x0", view.Status)
	assert.Equal(t, "0x1", view.StartBlockHeight)
	assert.Equal(t, "0x6", view.EndBlockHeight)
	assert.Equal(t, "a", view.ProposerName)

	res = n.block(t,
		n.signTx(t, 0, tx.GovTxTypeVoteProposal, tx.VoteProposalTx{ID: id, Vote: types.VoteAgree}),
		n.signTx(t, 1, tx.GovTxTypeVoteProposal, tx.VoteProposalTx{ID: id, Vote: types.VoteAgree}),
	)
	require.Len(t, res.TxResults, 2)
	assert.Len(t, res.TxResults[1].Events, 3)
	require.Len(t, res.ValidatorUpdates, 1)
	assert.Equal(t, int64(0), res.ValidatorUpdates[0].Power)
	assert.Equal(t, []byte(n.keys[2].PubKey().Bytes()), res.ValidatorUpdates[0].PubKey.GetEd25519())
	require.Len(t, res.Events, 1)
	assert.Equal(t, types.EventUpdateValidatorType, res.Events[0].Type)

	n.query(t, "/proposal/", id, &view)
	assert.Equal(t, "0x1", view.Status)

	var list proposal.ProposalList
	n.query(t, "/proposals/", []byte(`{"status":"0x1"}`), &list)
	require.Len(t, list.Proposals, 1)
	assert.Equal(t, "disqualify c", list.Proposals[0].Title)
	n.query(t, "/proposals/", []byte(`{"status":"0x0"}`), &list)
	assert.Empty(t, list.Proposals)

	var vals struct {
		Main []json.RawMessage `json:"main"`
	}
	n.query(t, "/validators/", nil, &vals)
	assert.Len(t, vals.Main, 2)

	var acnt state.Account
	n.query(t, "/accounts/", target, &acnt)
	assert.True(t, acnt.Disqualified)
	assert.Equal(t, uint64(0), acnt.Nonce)

	info, err := n.app.Info(context.Background(), &abcitypes.RequestInfo{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), info.LastBlockHeight)
	assert.Equal(t, types.GovModuleName, info.Data)
}

func TestExpiredVoteIsKept(t *testing.T) {
	n := newTestNode(t)
	reg := n.signTx(t, 0, tx.GovTxTypeRegisterProposal, tx.RegisterProposalTx{
		Type: types.ProposalTypeText, Value: types.ProposalValue{"value": "hello"},
	})
	n.block(t, reg)
	id := cmttypes.Tx(reg).Hash()
	for i := 0; i < 6; i++ {
		n.block(t)
	}

	var view proposal.ProposalView
	n.query(t, "/proposal/", id, &view)
	assert.Equal(t, "0x2", view.Status)

	res := n.block(t, n.signTx(t, 1, tx.GovTxTypeVoteProposal, tx.VoteProposalTx{ID: id, Vote: types.VoteAgree}))
	require.Len(t, res.TxResults, 1)
	assert.Equal(t, handler.CodeExpired, res.TxResults[0].Code)

	var acnt state.Account
	n.query(t, "/accounts/", n.keys[1].PubKey().Address(), &acnt)
	assert.Equal(t, uint64(1), acnt.Nonce)
}

func TestQueryExpiryAtNextHeight(t *testing.T) {
	n := newTestNode(t)
	reg := n.signTx(t, 0, tx.GovTxTypeRegisterProposal, tx.RegisterProposalTx{
		Type: types.ProposalTypeText, Value: types.ProposalValue{"value": "hello"},
	})
	n.block(t, reg)
	id := cmttypes.Tx(reg).Hash()
	for i := 0; i < 4; i++ {
		n.block(t)
	}

	var view proposal.ProposalView
	n.query(t, "/proposal/", id, &view)
	assert.Equal(t, "0x6", view.EndBlockHeight)
	assert.Equal(t, "0x0", view.Status)

	// committed height now equals the end height, the next vote cannot land
	n.block(t)
	n.query(t, "/proposal/", id, &view)
	assert.Equal(t, "0x2", view.Status)
	var list proposal.ProposalList
	n.query(t, "/proposals/", []byte(`{"status":"0x2"}`), &list)
	assert.Len(t, list.Proposals, 1)

	check, err := n.app.CheckTx(context.Background(), &abcitypes.RequestCheckTx{
		Tx: n.signTx(t, 1, tx.GovTxTypeVoteProposal, tx.VoteProposalTx{ID: id, Vote: types.VoteAgree}),
	})
	require.NoError(t, err)
	assert.Equal(t, handler.CodeExpired, check.Code)
}

func TestQueryUnknownPath(t *testing.T) {
	n := newTestNode(t)
	res, err := n.app.Query(context.Background(), &abcitypes.RequestQuery{Path: "/nope"})
	require.NoError(t, err)
	assert.Equal(t, uint32(404), res.Code)

	res, err = n.app.Query(context.Background(), &abcitypes.RequestQuery{Path: "/proposal/", Data: []byte{0x01}})
	require.NoError(t, err)
	assert.Equal(t, handler.CodeNotFound, res.Code)
}
