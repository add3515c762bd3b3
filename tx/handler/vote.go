package handler

import (
	"context"
	"encoding/json"
	"errors"

	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/icon-project/governance/proposal"
	"github.com/icon-project/governance/state"
	"github.com/icon-project/governance/tx"
	"github.com/icon-project/governance/types"
)

type VoteProposalTxHandler struct {
	logger cmtlog.Logger
	params Params
}

func NewVoteProposalTxHandler(params Params, logger cmtlog.Logger) (h *VoteProposalTxHandler) {
	logger = logger.With("module", "voteProposalTx")
	h = &VoteProposalTxHandler{
		logger: logger,
		params: params,
	}
	return
}

func (h *VoteProposalTxHandler) Check(ctx context.Context, st *state.State, gtx *tx.GovTx, blk Block) (res *abcitypes.ResponseCheckTx, err error) {
	result, err1 := h.handle(ctx, st, gtx, blk)
	if err1 == nil && result.Code != CodeOK {
		return &abcitypes.ResponseCheckTx{Code: result.Code, Log: result.Log}, nil
	}
	if err1 != nil {
		h.logger.Info("CheckTx VoteProposalTx fail", "err", err1)
	}
	return checkResult(err1), nil
}

func (h *VoteProposalTxHandler) handle(ctx context.Context, st *state.State, gtx *tx.GovTx, blk Block) (res *abcitypes.ExecTxResult, err error) {
	vtx, ok := gtx.Tx.(*tx.VoteProposalTx)
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
	eng := proposal.NewEngine(st, st, h.params.Policy, h.logger)
	result, err := eng.VoteProposal(proposal.Ballot{
		ProposalID: vtx.ID,
		Voter:      a.AddrBytes(),
		Vote:       vtx.Vote,
		Height:     blk.Height,
		ID:         blk.TxHash,
		Timestamp:  blk.Time.UnixMicro(),
	}, live)
	id := hexutil.Encode(vtx.ID)
	res = &abcitypes.ExecTxResult{}
	var expired *proposal.ExpiredError
	if errors.As(err, &expired) && expired.Settled {
		// The ballot is refused but the expired proposal has been settled.
		res.Code = CodeExpired
		res.Log = err.Error()
		res.Events = append(res.Events, types.EncodeEventProposalStatus(&types.EventProposalStatus{
			ID:     id,
			Status: uint64(expired.Status),
		}))
	} else if err != nil {
		return nil, err
	} else {
		res.Events = append(res.Events, types.EncodeEventProposalVoted(&types.EventProposalVoted{
			ID:     id,
			Vote:   uint64(vtx.Vote),
			Voter:  a.Address(),
			Amount: result.Amount.String(),
		}))
		if result.Decided {
			res.Events = append(res.Events, types.EncodeEventProposalStatus(&types.EventProposalStatus{
				ID:     id,
				Status: uint64(result.Status),
			}))
		}
		if result.Decided && result.Status == types.ProposalStatusApproved {
			events, err := h.enact(st, id, result)
			if err != nil {
				return nil, err
			}
			res.Events = append(res.Events, events...)
		}
	}
	if err = st.IncNonce(gtx.Validator); err != nil {
		return nil, err
	}
	return
}

func (h *VoteProposalTxHandler) enact(st *state.State, id string, result *proposal.VoteResult) ([]abcitypes.Event, error) {
	if result.Type == types.ProposalTypeText {
		return nil, nil
	}
	if err := st.ApplyNetworkProposal(result.Type, result.Value); err != nil {
		h.logger.Error("apply network proposal fail", "id", id, "type", result.Type, "err", err)
		return nil, err
	}
	value, err := json.Marshal(result.Value)
	if err != nil {
		return nil, err
	}
	h.logger.Info("network proposal applied", "id", id, "type", result.Type)
	return []abcitypes.Event{types.EncodeEventNetworkValueChanged(&types.EventNetworkValueChanged{
		ID:    id,
		Type:  uint64(result.Type),
		Value: string(value),
	})}, nil
}

func (h *VoteProposalTxHandler) Prepare(ctx context.Context, st *state.State, gtx *tx.GovTx, blk Block) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, gtx, blk)
}

func (h *VoteProposalTxHandler) Process(ctx context.Context, st *state.State, gtx *tx.GovTx, blk Block) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, gtx, blk)
}
