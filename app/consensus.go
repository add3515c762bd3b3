package app

import (
	"context"
	"errors"
	"sort"
	"time"

	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmttypes "github.com/cometbft/cometbft/types"
	"github.com/icon-project/governance/state"
	"github.com/icon-project/governance/tx"
	"github.com/icon-project/governance/tx/handler"
	"github.com/icon-project/governance/types"
)

var (
	ErrUnexpectedTxProcess = errors.New("unexpected tx process")
)

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (app *GovApp) getState(height int64) (st *state.State) {
	st = app.db.NewState()
	st.SetHeight(uint64(height))
	return
}

func (app *GovApp) parseTx(st *state.State, txDat []byte, allowNonceGap bool) (gtx *tx.GovTx, err error) {
	gtx, err = tx.UnmarshalGovTx(txDat)
	if err != nil {
		return
	}
	_, err = st.Verify(gtx, allowNonceGap)
	return
}

func newBlock(height int64, t time.Time, txDat []byte) handler.Block {
	return handler.Block{
		Height: uint64(height),
		Time:   t,
		TxHash: cmttypes.Tx(txDat).Hash(),
	}
}

func (app *GovApp) CheckTx(ctx context.Context, check *abcitypes.RequestCheckTx) (res *abcitypes.ResponseCheckTx, err error) {
	st := app.db.State()
	gtx, err := app.parseTx(st, check.Tx, true)
	if err != nil {
		app.logger.Error("parse tx fail", "err", err)
		res = &abcitypes.ResponseCheckTx{Code: handler.ErrorCode(err), Log: err.Error()}
		return res, nil
	}
	app.logger.Debug("check tx", "type", gtx.Type, "validator", gtx.Validator)
	h, ok := app.txHdlrs[gtx.Type]
	if !ok {
		app.logger.Error("unsupported tx", "type", gtx.Type)
		return &abcitypes.ResponseCheckTx{Code: handler.CodeInvalidTx, Log: "unsupported tx"}, nil
	}
	st.SetHeight(st.Height() + 1)
	res, err = h.Check(ctx, st, gtx, newBlock(int64(st.Height()), time.Now(), check.Tx))
	if err != nil {
		app.logger.Error("check tx fail", "err", err)
		res = &abcitypes.ResponseCheckTx{Code: handler.ErrorCode(err), Log: err.Error()}
		err = nil
	}
	return
}

func (app *GovApp) PrepareProposal(ctx context.Context, proposal *abcitypes.RequestPrepareProposal) (res *abcitypes.ResponsePrepareProposal, err error) {
	app.logger.Info("PrepareProposal", "height", proposal.Height, "txs", len(proposal.Txs))
	st := app.getState(proposal.Height)
	txs := make([][]byte, 0, len(proposal.Txs))
	var size int64
	for _, stx := range proposal.Txs {
		if proposal.MaxTxBytes > 0 && size+int64(len(stx)) > proposal.MaxTxBytes {
			break
		}
		stTmp := st.Clone()
		gtx, err := app.parseTx(stTmp, stx, false)
		if err != nil {
			app.logger.Error("unsupported tx, parse fail", "err", err)
			continue
		}
		h, ok := app.txHdlrs[gtx.Type]
		if !ok {
			app.logger.Error("unsupported tx", "type", gtx.Type)
			continue
		}
		result, err := h.Prepare(ctx, stTmp, gtx, newBlock(proposal.Height, proposal.Time, stx))
		if err != nil {
			app.logger.Info("prepare tx fail", "type", gtx.Type, "err", err)
			continue
		}
		if result == nil {
			app.logger.Error("prepare tx nil result", "type", gtx.Type)
			continue
		}
		st = stTmp
		size += int64(len(stx))
		txs = append(txs, stx)
	}
	return &abcitypes.ResponsePrepareProposal{Txs: txs}, nil
}

// process runs txs in order on st. Any tx that fails makes the whole block
// invalid.
func (app *GovApp) process(ctx context.Context, st *state.State, txs [][]byte, height int64, t time.Time) (res []*abcitypes.ExecTxResult, err error) {
	res = make([]*abcitypes.ExecTxResult, len(txs))
	for i, stx := range txs {
		gtx, err := app.parseTx(st, stx, false)
		if err != nil {
			app.logger.Error("unexpected tx, parse fail", "err", err)
			return nil, err
		}
		h, ok := app.txHdlrs[gtx.Type]
		if !ok {
			app.logger.Error("unexpected tx, no handler", "type", gtx.Type)
			return nil, ErrUnexpectedTxProcess
		}
		result, err := h.Process(ctx, st, gtx, newBlock(height, t, stx))
		if err != nil {
			app.logger.Error("unexpected process tx fail", "type", gtx.Type, "err", err)
			return nil, ErrUnexpectedTxProcess
		}
		if result == nil {
			app.logger.Error("unexpected process tx nil result", "type", gtx.Type)
			return nil, ErrUnexpectedTxProcess
		}
		res[i] = result
	}
	return
}

func (app *GovApp) ProcessProposal(ctx context.Context, proposal *abcitypes.RequestProcessProposal) (res *abcitypes.ResponseProcessProposal, err error) {
	app.logger.Info("ProcessProposal", "height", proposal.Height, "txs", len(proposal.Txs))
	res = &abcitypes.ResponseProcessProposal{Status: abcitypes.ResponseProcessProposal_REJECT}
	if len(proposal.Txs) == 0 {
		res.Status = abcitypes.ResponseProcessProposal_ACCEPT
		return res, nil
	}
	st := app.getState(proposal.Height)
	_, err = app.process(ctx, st, proposal.Txs, proposal.Height, proposal.Time)
	if err != nil {
		app.logger.Error("process fail", "err", err)
		return res, nil
	}
	res.Status = abcitypes.ResponseProcessProposal_ACCEPT
	app.logger.Info("proposal accepted", "height", proposal.Height)
	return res, nil
}

func (app *GovApp) FinalizeBlock(ctx context.Context, req *abcitypes.RequestFinalizeBlock) (*abcitypes.ResponseFinalizeBlock, error) {
	app.logger.Info("FinalizeBlock", "height", req.Height, "txs", len(req.Txs))
	app.lastBlk.Set(req)
	st := app.getState(req.Height)
	curVals, err := st.Validators()
	if err != nil {
		app.logger.Error("get validators fail", "err", err)
		return nil, err
	}
	res, err := app.process(ctx, st, req.Txs, req.Height, req.Time)
	if err != nil {
		return nil, err
	}
	h, err := st.Update()
	if err != nil {
		app.logger.Error("state update hash fail", "err", err)
		return nil, err
	}
	updateVals, err := st.ValidatorsUpdate(curVals)
	if err != nil {
		app.logger.Error("state update validators fail", "err", err)
		return nil, err
	}
	var events []abcitypes.Event
	if len(updateVals) != 0 {
		events = append(events, types.EncodeEventUpdateValidators(&types.EventUpdateValidators{Updates: updateVals}))
	}
	app.st = st
	return &abcitypes.ResponseFinalizeBlock{
		TxResults:        res,
		AppHash:          h.Bytes(),
		ValidatorUpdates: updateVals,
		Events:           events,
	}, nil
}

func (app *GovApp) Commit(ctx context.Context, commit *abcitypes.RequestCommit) (*abcitypes.ResponseCommit, error) {
	if app.st == nil {
		return nil, ErrUnexpectedTxProcess
	}
	_, err := app.db.SetState(app.st)
	if err != nil {
		return nil, err
	}
	app.st = nil
	app.logger.Info("Commit", "height", app.lastBlk.Height)
	return &abcitypes.ResponseCommit{}, nil
}
