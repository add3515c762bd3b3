package handler

import (
	"context"

	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/icon-project/governance/proposal"
	"github.com/icon-project/governance/state"
	"github.com/icon-project/governance/tx"
	"github.com/icon-project/governance/types"
)

type CancelProposalTxHandler struct {
	logger cmtlog.Logger
	params Params
}

func NewCancelProposalTxHandler(params Params, logger cmtlog.Logger) (h *CancelProposalTxHandler) {
	logger = logger.With("module", "cancelProposalTx")
	h = &CancelProposalTxHandler{
		logger: logger,
		params: params,
	}
	return
}

func (h *CancelProposalTxHandler) Check(ctx context.Context, st *state.State, gtx *tx.GovTx, blk Block) (res *abcitypes.ResponseCheckTx, err error) {
	_, err1 := h.handle(ctx, st, gtx, blk)
	if err1 != nil {
		h.logger.Info("CheckTx CancelProposalTx fail", "err", err1)
	}
	return checkResult(err1), nil
}

func (h *CancelProposalTxHandler) handle(ctx context.Context, st *state.State, gtx *tx.GovTx, blk Block) (res *abcitypes.ExecTxResult, err error) {
	ctn, ok := gtx.Tx.(*tx.CancelProposalTx)
	if !ok {
		return nil, tx.ErrUnmatchedTxType
	}
	a, err := st.GetAccount(gtx.Validator)
	if err != nil {
		return nil, err
	}
	eng := proposal.NewEngine(st, st, h.params.Policy, h.logger)
	p, err := eng.CancelProposal(ctn.ID, a.AddrBytes(), blk.Height)
	if err != nil {
		return nil, err
	}
	if err = st.IncNonce(gtx.Validator); err != nil {
		return nil, err
	}
	res = &abcitypes.ExecTxResult{
		Events: []abcitypes.Event{types.EncodeEventProposalStatus(&types.EventProposalStatus{
			ID:     hexutil.Encode(p.ID),
			Status: uint64(p.Status),
		})},
	}
	return
}

func (h *CancelProposalTxHandler) Prepare(ctx context.Context, st *state.State, gtx *tx.GovTx, blk Block) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, gtx, blk)
}

func (h *CancelProposalTxHandler) Process(ctx context.Context, st *state.State, gtx *tx.GovTx, blk Block) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, gtx, blk)
}
