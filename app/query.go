package app

import (
	"context"
	"encoding/json"
	"strings"

	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/icon-project/governance/proposal"
	"github.com/icon-project/governance/state"
	"github.com/icon-project/governance/tx/handler"
	"github.com/icon-project/governance/types"
)

func (app *GovApp) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	path := req.Path
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	q, ok := app.queriers[path]
	if !ok {
		res = &abcitypes.ResponseQuery{}
		res.Code = 404
		return
	}
	res, err = q.Query(ctx, req)
	return
}

type Querier interface {
	Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error)
}

func queryFail(res *abcitypes.ResponseQuery, err error) *abcitypes.ResponseQuery {
	res.Code = handler.ErrorCode(err)
	res.Log = err.Error()
	return res
}

type AccountQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewAccountQuerier(db *state.StateDB, logger cmtlog.Logger) (q *AccountQuerier) {
	q = &AccountQuerier{
		db:     db,
		logger: logger,
	}
	return
}

func (q *AccountQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	var a *state.Account
	var height uint64
	if len(req.Data) == 20 {
		a, height, _ = q.db.GetAccountByAddress(req.Data)
	} else if len(req.Data) <= 8 {
		var idx uint64
		for _, v := range req.Data {
			idx <<= 8
			idx |= uint64(v)
		}
		a, height, _ = q.db.GetAccountByIndex(idx)
	}
	if a != nil {
		res.Value, _ = a.MarshalJSON()
		res.Height = int64(height)
	} else {
		res.Code = 1
	}
	return
}

// Validators lists the main and sub preps in rank order.
type Validators struct {
	Main []*state.Account `json:"main"`
	Sub  []*state.Account `json:"sub"`
}

type ValidatorQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewValidatorQuerier(db *state.StateDB, logger cmtlog.Logger) (q *ValidatorQuerier) {
	q = &ValidatorQuerier{
		db:     db,
		logger: logger,
	}
	return
}

func (q *ValidatorQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	var vals Validators
	height, err1 := q.db.View(func(st *state.State) (err error) {
		if vals.Main, err = st.MainPReps(); err != nil {
			return
		}
		vals.Sub, err = st.SubPReps()
		return
	})
	if err1 != nil {
		q.logger.Error("query validators fail", "err", err1)
		return queryFail(res, err1), nil
	}
	res.Height = int64(height)
	res.Value, _ = json.Marshal(vals)
	return
}

// ProposalQuerier reports status as the next block would see it, so a
// proposal ending at the committed height already reads as expired.
type ProposalQuerier struct {
	db     *state.StateDB
	params handler.Params
	logger cmtlog.Logger
}

func NewProposalQuerier(db *state.StateDB, params handler.Params, logger cmtlog.Logger) (q *ProposalQuerier) {
	q = &ProposalQuerier{
		db:     db,
		params: params,
		logger: logger,
	}
	return
}

func (q *ProposalQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	var view *proposal.ProposalView
	height, err1 := q.db.View(func(st *state.State) (err error) {
		eng := proposal.NewEngine(st, st, q.params.Policy, q.logger)
		view, err = eng.GetProposal(req.Data, st.Height()+1)
		return
	})
	if err1 != nil {
		return queryFail(res, err1), nil
	}
	res.Height = int64(height)
	res.Value, _ = json.Marshal(view)
	return
}

// ProposalFilter is the query data of /proposals/. Both fields are optional
// 0x prefixed hex numbers.
type ProposalFilter struct {
	Type   string `json:"type,omitempty"`
	Status string `json:"status,omitempty"`
}

func (f ProposalFilter) Filter() (filter proposal.Filter, err error) {
	if f.Type != "" {
		v, err := hexutil.DecodeUint64(f.Type)
		if err != nil {
			return filter, err
		}
		t := types.ProposalType(v)
		filter.Type = &t
	}
	if f.Status != "" {
		v, err := hexutil.DecodeUint64(f.Status)
		if err != nil {
			return filter, err
		}
		s := types.ProposalStatus(v)
		filter.Status = &s
	}
	return
}

type ProposalListQuerier struct {
	db     *state.StateDB
	params handler.Params
	logger cmtlog.Logger
}

func NewProposalListQuerier(db *state.StateDB, params handler.Params, logger cmtlog.Logger) (q *ProposalListQuerier) {
	q = &ProposalListQuerier{
		db:     db,
		params: params,
		logger: logger,
	}
	return
}

func (q *ProposalListQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	var pf ProposalFilter
	if len(req.Data) > 0 {
		if err1 := json.Unmarshal(req.Data, &pf); err1 != nil {
			return queryFail(res, err1), nil
		}
	}
	filter, err1 := pf.Filter()
	if err1 != nil {
		return queryFail(res, err1), nil
	}
	var list proposal.ProposalList
	height, err1 := q.db.View(func(st *state.State) (err error) {
		eng := proposal.NewEngine(st, st, q.params.Policy, q.logger)
		list.Proposals, err = eng.ListProposals(st.Height()+1, filter)
		return
	})
	if err1 != nil {
		return queryFail(res, err1), nil
	}
	res.Height = int64(height)
	res.Value, _ = json.Marshal(list)
	return
}

type NetworkQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewNetworkQuerier(db *state.StateDB, logger cmtlog.Logger) (q *NetworkQuerier) {
	q = &NetworkQuerier{
		db:     db,
		logger: logger,
	}
	return
}

func (q *NetworkQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	nv, height, err1 := q.db.GetNetworkValues()
	if err1 != nil {
		return queryFail(res, err1), nil
	}
	res.Height = int64(height)
	res.Value, _ = json.Marshal(nv)
	return
}
