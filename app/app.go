package app

import (
	"context"
	"encoding/json"
	"path/filepath"

	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cometbft/cometbft/store"
	"github.com/ethereum/go-ethereum/common"
	"github.com/icon-project/governance/config"
	"github.com/icon-project/governance/state"
	"github.com/icon-project/governance/tx"
	"github.com/icon-project/governance/tx/handler"
	"github.com/icon-project/governance/types"
)

type finalizeBlock struct {
	Height uint64
	Hash   common.Hash
}

func (b *finalizeBlock) Set(blk *abcitypes.RequestFinalizeBlock) {
	b.Height = uint64(blk.Height)
	b.Hash = common.BytesToHash(blk.Hash)
}

var _ abcitypes.Application = &GovApp{}

type GovApp struct {
	abcitypes.BaseApplication

	cfg    *config.GovAppConfig
	logger cmtlog.Logger
	params handler.Params

	db       *state.StateDB
	lastBlk  finalizeBlock
	txHdlrs  map[tx.GovTxType]handler.TxHandler
	queriers map[string]Querier

	st *state.State
}

func NewGovApp(cfg *config.GovAppConfig, logger cmtlog.Logger) (app *GovApp, err error) {
	logger = logger.With("module", "app")
	db, err := state.NewStateDB(filepath.Join(cfg.Home, "data"), stateOptions(cfg), logger)
	if err != nil {
		return nil, err
	}
	return newGovApp(cfg, db, logger)
}

func stateOptions(cfg *config.GovAppConfig) state.Options {
	return state.Options{MainPReps: cfg.MainPReps, SubPReps: cfg.SubPReps}
}

func newGovApp(cfg *config.GovAppConfig, db *state.StateDB, logger cmtlog.Logger) (app *GovApp, err error) {
	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}
	app = &GovApp{
		cfg:      cfg,
		logger:   logger,
		params:   handler.Params{Policy: policy, VotingPeriod: cfg.VotingPeriod},
		db:       db,
		txHdlrs:  make(map[tx.GovTxType]handler.TxHandler),
		queriers: make(map[string]Querier),
	}
	app.registerTxHandler()
	app.registerQuerier()
	return
}

func (app *GovApp) Start(bs *store.BlockStore) {
	height := app.db.Header().Height
	if height > 0 {
		blk := bs.LoadBlock(int64(height))
		if blk == nil {
			panic("unexpected BlockStore")
		}
		app.lastBlk.Height = height
		app.lastBlk.Hash = common.BytesToHash(blk.Hash())
	}
}

func (app *GovApp) Stop() {
	err := app.db.Close()
	if err != nil {
		app.logger.Error("close db fail", "err", err)
	}
	app.logger.Info("governance app stopped")
}

func (app *GovApp) registerTxHandler() {
	app.txHdlrs = map[tx.GovTxType]handler.TxHandler{
		tx.GovTxTypeRegisterProposal: handler.NewRegisterProposalTxHandler(app.params, app.logger),
		tx.GovTxTypeCancelProposal:   handler.NewCancelProposalTxHandler(app.params, app.logger),
		tx.GovTxTypeVoteProposal:     handler.NewVoteProposalTxHandler(app.params, app.logger),
	}
}

func (app *GovApp) registerQuerier() {
	app.queriers["/accounts/"] = NewAccountQuerier(app.db, app.logger)
	app.queriers["/validators/"] = NewValidatorQuerier(app.db, app.logger)
	app.queriers["/proposal/"] = NewProposalQuerier(app.db, app.params, app.logger)
	app.queriers["/proposals/"] = NewProposalListQuerier(app.db, app.params, app.logger)
	app.queriers["/network/"] = NewNetworkQuerier(app.db, app.logger)
}

func (app *GovApp) InitChain(_ context.Context, chain *abcitypes.RequestInitChain) (res *abcitypes.ResponseInitChain, err error) {
	appState := types.DefaultGenesisAppState()
	if len(chain.AppStateBytes) > 0 {
		if err = json.Unmarshal(chain.AppStateBytes, &appState); err != nil {
			app.logger.Error("InitChain decode app state fail", "err", err)
			return nil, err
		}
	}

	st := app.db.NewState()
	st.SetChainId(chain.ChainId)
	for _, v := range chain.Validators {
		var acnt state.Account
		acnt.SetPubKey(v.PubKey.GetEd25519())
		acnt.Stake = config.StakeOfPower(v.Power)
		acnt.Name = appState.ValidatorNames[acnt.Address()]
		err = st.AddAccount(&acnt)
		if err != nil {
			app.logger.Error("InitChain add account fail", "err", err)
			return nil, err
		}
	}
	if err = st.InitGenesis(appState); err != nil {
		app.logger.Error("InitChain genesis fail", "err", err)
		return nil, err
	}
	// The roster may be smaller than the genesis set.
	vals, err := st.Validators()
	if err != nil {
		return nil, err
	}
	_, err = st.Update()
	if err != nil {
		app.logger.Error("InitChain update state fail", "err", err)
		return nil, err
	}
	h, err := app.db.SetState(st)
	if err != nil {
		app.logger.Error("InitChain apply state fail", "err", err)
		return nil, err
	}
	res = &abcitypes.ResponseInitChain{AppHash: h.Bytes()}
	if len(vals) != len(chain.Validators) {
		for _, key := range sortedKeys(vals) {
			res.Validators = append(res.Validators, vals[key])
		}
	}
	return res, nil
}

func (app *GovApp) Info(ctx context.Context, info *abcitypes.RequestInfo) (*abcitypes.ResponseInfo, error) {
	header := app.db.Header()
	return &abcitypes.ResponseInfo{
		Data:             types.GovModuleName,
		LastBlockHeight:  int64(header.Height),
		LastBlockAppHash: header.Hash,
	}, nil
}
