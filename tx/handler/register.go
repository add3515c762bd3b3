package handler

import (
	"context"
	"encoding/json"
	"fmt"

	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/icon-project/governance/proposal"
	"github.com/icon-project/governance/state"
	"github.com/icon-project/governance/tx"
	"github.com/icon-project/governance/types"
)

type RegisterProposalTxHandler struct {
	logger cmtlog.Logger
	params Params
}

func NewRegisterProposalTxHandler(params Params, logger cmtlog.Logger) (h *RegisterProposalTxHandler) {
	logger = logger.With("module", "registerProposalTx")
	h = &RegisterProposalTxHandler{
		logger: logger,
		params: params,
	}
	return
}

func (h *RegisterProposalTxHandler) Check(ctx context.Context, st *state.State, gtx *tx.GovTx, blk Block) (res *abcitypes.ResponseCheckTx, err error) {
	_, err1 := h.handle(ctx, st, gtx, blk)
	if err1 != nil {
		h.logger.Info("CheckTx RegisterProposalTx fail", "err", err1)
	}
	return checkResult(err1), nil
}

func (h *RegisterProposalTxHandler) handle(ctx context.Context, st *state.State, gtx *tx.GovTx, blk Block) (res *abcitypes.ExecTxResult, err error) {
	rtx, ok := gtx.Tx.(*tx.RegisterProposalTx)
	if !ok {
		return nil, tx.ErrUnmatchedTxType
	}
	a, err := st.GetAccount(gtx.Validator)
	if err != nil {
		return nil, err
	}
	live, err := st.LiveValidators()
	if err != nil {
		return nil, err
	}
	if !isLive(live, a) {
		return nil, fmt.Errorf("%w: only main prep can register a network proposal", proposal.ErrUnauthorized)
	}

	eng := proposal.NewEngine(st, st, h.params.Policy, h.logger)
	p, err := eng.RegisterProposal(proposal.Registration{
		ID:           blk.TxHash,
		Proposer:     a.AddrBytes(),
		ProposerName: a.Name,
		StartHeight:  blk.Height,
		EndHeight:    blk.Height + h.params.VotingPeriod,
		Title:        rtx.Title,
		Description:  rtx.Description,
		Type:         rtx.Type,
		Value:        rtx.Value,
	}, live)
	if err != nil {
		return nil, err
	}
	if err = st.IncNonce(gtx.Validator); err != nil {
		return nil, err
	}

	value, err := json.Marshal(p.Value)
	if err != nil {
		return nil, err
	}
	res = &abcitypes.ExecTxResult{
		Data: p.ID,
		Events: []abcitypes.Event{types.EncodeEventProposalRegistered(&types.EventProposalRegistered{
			ID:           hexutil.Encode(p.ID),
			Title:        p.Title,
			Description:  p.Description,
			Type:         uint64(p.Type),
			Value:        string(value),
			Proposer:     p.Proposer.String(),
			ProposerName: p.ProposerName,
			StartHeight:  p.StartBlockHeight,
			EndHeight:    p.EndBlockHeight,
		})},
	}
	return
}

func (h *RegisterProposalTxHandler) Prepare(ctx context.Context, st *state.State, gtx *tx.GovTx, blk Block) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, gtx, blk)
}

func (h *RegisterProposalTxHandler) Process(ctx context.Context, st *state.State, gtx *tx.GovTx, blk Block) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, gtx, blk)
}

func isLive(live []proposal.Validator, a *state.Account) bool {
	addr := a.AddrBytes()
	for _, v := range live {
		if v.Address.String() == addr.String() {
			return true
		}
	}
	return false
}
