package handler

import (
	"context"
	"errors"
	"time"

	abcitypes "github.com/cometbft/cometbft/abci/types"
	"github.com/icon-project/governance/proposal"
	"github.com/icon-project/governance/state"
	"github.com/icon-project/governance/tx"
)

const (
	CodeOK uint32 = iota
	CodeInternal
	CodeValidationFailed
	CodeNotFound
	CodeExpired
	CodeAlreadyFinalized
	CodeDuplicateVote
	CodeUnauthorized
	CodeInvalidTx
)

// ErrorCode maps an error to the code reported in tx and query results.
func ErrorCode(err error) uint32 {
	switch {
	case err == nil:
		return CodeOK
	case errors.Is(err, proposal.ErrValidationFailed):
		return CodeValidationFailed
	case errors.Is(err, proposal.ErrNotFound):
		return CodeNotFound
	case errors.Is(err, proposal.ErrExpired):
		return CodeExpired
	case errors.Is(err, proposal.ErrAlreadyFinalized):
		return CodeAlreadyFinalized
	case errors.Is(err, proposal.ErrDuplicateVote):
		return CodeDuplicateVote
	case errors.Is(err, proposal.ErrUnauthorized):
		return CodeUnauthorized
	case errors.Is(err, tx.ErrInvalidTx), errors.Is(err, tx.ErrUnsupportedTxType),
		errors.Is(err, state.ErrTxNonceInvalid), errors.Is(err, state.ErrTxSigInvalid),
		errors.Is(err, state.ErrTxValidatorNoexists):
		return CodeInvalidTx
	}
	return CodeInternal
}

// Block identifies the tx being executed.
type Block struct {
	Height uint64
	Time   time.Time
	TxHash []byte
}

// Params are the governance settings shared by every handler.
type Params struct {
	Policy       proposal.Policy
	VotingPeriod uint64
}

// TxHandler executes one tx type against st. Check runs on a scratch state.
// Prepare and Process return an error when the tx must not be part of the
// block. A result with a non-zero code is still part of the block and its
// state changes are kept.
type TxHandler interface {
	Check(ctx context.Context, st *state.State, gtx *tx.GovTx, blk Block) (res *abcitypes.ResponseCheckTx, err error)
	Prepare(ctx context.Context, st *state.State, gtx *tx.GovTx, blk Block) (res *abcitypes.ExecTxResult, err error)
	Process(ctx context.Context, st *state.State, gtx *tx.GovTx, blk Block) (res *abcitypes.ExecTxResult, err error)
}

func checkResult(err error) *abcitypes.ResponseCheckTx {
	res := &abcitypes.ResponseCheckTx{Code: ErrorCode(err)}
	if err != nil {
		res.Log = err.Error()
	}
	return res
}
