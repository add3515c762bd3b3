package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	abci "github.com/cometbft/cometbft/abci/types"
	cmtbytes "github.com/cometbft/cometbft/libs/bytes"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	comethttp "github.com/cometbft/cometbft/rpc/client/http"
	coretypes "github.com/cometbft/cometbft/rpc/core/types"
	"github.com/icon-project/governance/types"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
)

// chainClient is the part of the CometBFT RPC client the indexer polls.
type chainClient interface {
	Status(ctx context.Context) (*coretypes.ResultStatus, error)
	BlockResults(ctx context.Context, height *int64) (*coretypes.ResultBlockResults, error)
	ABCIQuery(ctx context.Context, path string, data cmtbytes.HexBytes) (*coretypes.ResultABCIQuery, error)
}

type ChainIndexer struct {
	logger        cmtlog.Logger
	Url           string
	Height        int64
	db            *gorm.DB
	cli           chainClient
	eventHandlers map[string]eventHandler
}

func NewChainIndexer(logger cmtlog.Logger, dbPath string, chainUrl string) (*ChainIndexer, error) {
	logger.Info("NewChainIndexer", "dbPath", dbPath, "url", chainUrl)
	cli, err := comethttp.New(chainUrl, "/websocket")
	if err != nil {
		return nil, err
	}
	db, err := OpenDB(dbPath)
	if err != nil {
		return nil, err
	}
	c, err := newChainIndexer(logger, db, cli)
	if err != nil {
		return nil, err
	}
	c.Url = chainUrl
	return c, nil
}

func OpenDB(dbPath string) (*gorm.DB, error) {
	db, err := gorm.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&Height{}, &Validator{}, &Proposal{}, &ProposalVote{}, &NetworkChange{}).Error; err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func newChainIndexer(logger cmtlog.Logger, db *gorm.DB, cli chainClient) (*ChainIndexer, error) {
	h := Height{Id: 1}
	if err := db.First(&h).Error; err != nil && !gorm.IsRecordNotFoundError(err) {
		return nil, err
	}
	c := &ChainIndexer{
		logger: logger.With("module", "indexer"),
		Height: int64(h.Height + 1),
		db:     db,
		cli:    cli,
	}
	c.eventHandlers = map[string]eventHandler{
		types.EventProposalRegisteredType:  c.handleEventProposalRegistered,
		types.EventProposalVotedType:       c.handleEventProposalVoted,
		types.EventProposalCanceledType:    c.handleEventProposalStatus,
		types.EventProposalApprovedType:    c.handleEventProposalStatus,
		types.EventProposalDisapprovedType: c.handleEventProposalStatus,
		types.EventNetworkValueChangedType: c.handleEventNetworkValueChanged,
		types.EventUpdateValidatorType:     c.handleEventUpdateValidators,
	}
	return c, nil
}

func (c *ChainIndexer) Close() error {
	return c.db.Close()
}

// eventHandler writes one event through db, the transaction of its block.
type eventHandler func(ctx context.Context, db *gorm.DB, event abci.Event, height int64) error

func (c *ChainIndexer) handleEvent(ctx context.Context, db *gorm.DB, event abci.Event, height int64) error {
	if h, ok := c.eventHandlers[event.Type]; ok {
		return h(ctx, db, event, height)
	}
	return nil
}

func (c *ChainIndexer) handleEventProposalRegistered(ctx context.Context, db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventProposalRegistered(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return nil
	}
	proposal := Proposal{
		Id:              ev.ID,
		Proposer:        ev.Proposer,
		ProposerName:    ev.ProposerName,
		Title:           ev.Title,
		Description:     ev.Description,
		Type:            ev.Type,
		Value:           ev.Value,
		StartHeight:     ev.StartHeight,
		EndHeight:       ev.EndHeight,
		Status:          uint64(types.ProposalStatusVoting),
		CreateTimestamp: time.Now().Unix(),
	}
	return db.Save(&proposal).Error
}

func (c *ChainIndexer) handleEventProposalVoted(ctx context.Context, db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventProposalVoted(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return nil
	}
	vote := ProposalVote{
		Proposal: ev.ID,
		Voter:    ev.Voter,
		Vote:     ev.Vote,
		Amount:   ev.Amount,
		Height:   uint64(height),
	}
	if err := db.Create(&vote).Error; err != nil {
		return err
	}
	column := "disagree_count"
	if types.VoteType(ev.Vote) == types.VoteAgree {
		column = "agree_count"
	}
	return db.Model(&Proposal{}).Where("id = ?", ev.ID).
		UpdateColumn(column, gorm.Expr(column+" + ?", 1)).Error
}

func (c *ChainIndexer) handleEventProposalStatus(ctx context.Context, db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventProposalStatus(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return nil
	}
	return db.Model(&Proposal{}).Where("id = ?", ev.ID).Updates(map[string]any{
		"status":        ev.Status,
		"settle_height": uint64(height),
	}).Error
}

func (c *ChainIndexer) handleEventNetworkValueChanged(ctx context.Context, db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventNetworkValueChanged(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return nil
	}
	change := NetworkChange{
		Proposal: ev.ID,
		Type:     ev.Type,
		Value:    ev.Value,
		Height:   uint64(height),
	}
	return db.Create(&change).Error
}

func (c *ChainIndexer) handleEventUpdateValidators(ctx context.Context, db *gorm.DB, event abci.Event, height int64) error {
	if types.DecodeEventUpdateValidators(event) == nil {
		c.logger.Error("decode event fail", "event", event)
		return nil
	}
	return c.saveValidators(ctx, db)
}

type validatorAccount struct {
	Index   uint64      `json:"index"`
	Address string      `json:"address"`
	Name    string      `json:"name"`
	Stake   json.Number `json:"stake"`
}

type validatorSet struct {
	Main []validatorAccount `json:"main"`
	Sub  []validatorAccount `json:"sub"`
}

// syncValidators replaces the validator table with the current roster.
func (c *ChainIndexer) syncValidators(ctx context.Context) error {
	tx := c.db.Begin()
	if err := c.saveValidators(ctx, tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

func (c *ChainIndexer) saveValidators(ctx context.Context, db *gorm.DB) error {
	res, err := c.cli.ABCIQuery(ctx, "/validators/", nil)
	if err != nil {
		return err
	}
	if res.Response.Code != 0 {
		return fmt.Errorf("query validators: code %d %s", res.Response.Code, res.Response.Log)
	}
	var set validatorSet
	if err = json.Unmarshal(res.Response.Value, &set); err != nil {
		return err
	}
	if err = db.Delete(&Validator{}).Error; err != nil {
		return err
	}
	save := func(acnts []validatorAccount, main bool) error {
		for _, a := range acnts {
			val := Validator{Id: a.Index, Address: a.Address, Name: a.Name, Stake: a.Stake.String(), Main: main}
			if err := db.Save(&val).Error; err != nil {
				return err
			}
		}
		return nil
	}
	if err = save(set.Main, true); err != nil {
		return err
	}
	return save(set.Sub, false)
}

// indexBlock stores the events of one block and records it as indexed. The
// block is written in one transaction so a failed block leaves no rows.
func (c *ChainIndexer) indexBlock(ctx context.Context, height int64, results []*abci.ExecTxResult, events []abci.Event) error {
	tx := c.db.Begin()
	if err := tx.Error; err != nil {
		return err
	}
	if err := c.writeBlock(ctx, tx, height, results, events); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit().Error
}

func (c *ChainIndexer) writeBlock(ctx context.Context, db *gorm.DB, height int64, results []*abci.ExecTxResult, events []abci.Event) error {
	for _, res := range results {
		if res == nil {
			continue
		}
		for _, event := range res.Events {
			if err := c.handleEvent(ctx, db, event, height); err != nil {
				return err
			}
		}
	}
	for _, event := range events {
		if err := c.handleEvent(ctx, db, event, height); err != nil {
			return err
		}
	}
	return db.Save(&Height{Id: 1, Height: uint64(height)}).Error
}

func (c *ChainIndexer) reconnect() {
	if c.Url == "" {
		return
	}
	cli, err := comethttp.New(c.Url, "/websocket")
	if err != nil {
		c.logger.Error("reconnect fail", "err", err)
		return
	}
	c.cli = cli
}

func (c *ChainIndexer) sync(ctx context.Context) {
	b, err := c.cli.Status(ctx)
	if err != nil {
		c.logger.Error("get status fail", "err", err)
		c.reconnect()
		return
	}
	for b.SyncInfo.LatestBlockHeight >= c.Height {
		if ctx.Err() != nil {
			return
		}
		c.logger.Debug("indexer syncing", "height", c.Height)
		res, err := c.cli.BlockResults(ctx, &c.Height)
		if err != nil {
			c.logger.Error("get block results fail", "height", c.Height, "err", err)
			c.reconnect()
			return
		}
		if err = c.indexBlock(ctx, c.Height, res.TxsResults, res.FinalizeBlockEvents); err != nil {
			c.logger.Error("index block fail", "height", c.Height, "err", err)
			return
		}
		c.Height++
	}
}

func (c *ChainIndexer) Start(ctx context.Context) {
	if err := c.syncValidators(ctx); err != nil {
		c.logger.Error("sync validators fail", "err", err)
	}
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.sync(ctx)
		}
	}
}

// ProposalQuery selects proposals. Zero fields match everything.
type ProposalQuery struct {
	Id       string
	Proposer string
	Type     *uint64
	Status   *uint64
	Page     int
	PageSize int
}

func page(q *gorm.DB, p, size int) *gorm.DB {
	if size <= 0 {
		size = 20
	}
	if p < 0 {
		p = 0
	}
	return q.Offset(p * size).Limit(size)
}

func (c *ChainIndexer) getProposals(q ProposalQuery) ([]Proposal, uint64, error) {
	query := c.db.Model(&Proposal{})
	if q.Id != "" {
		query = query.Where("id = ?", q.Id)
	}
	if q.Proposer != "" {
		query = query.Where("proposer = ?", q.Proposer)
	}
	if q.Type != nil {
		query = query.Where("type = ?", *q.Type)
	}
	if q.Status != nil {
		query = query.Where("status = ?", *q.Status)
	}
	var total uint64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	proposals := make([]Proposal, 0)
	err := page(query.Order("start_height desc"), q.Page, q.PageSize).Find(&proposals).Error
	if err != nil {
		return nil, 0, err
	}
	return proposals, total, nil
}

func (c *ChainIndexer) getProposalVotes(proposal, voter string, p, pageSize int) ([]ProposalVote, uint64, error) {
	query := c.db.Model(&ProposalVote{})
	if proposal != "" {
		query = query.Where("proposal = ?", proposal)
	}
	if voter != "" {
		query = query.Where("voter = ?", voter)
	}
	var total uint64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	votes := make([]ProposalVote, 0)
	err := page(query.Order("id asc"), p, pageSize).Find(&votes).Error
	if err != nil {
		return nil, 0, err
	}
	return votes, total, nil
}

func (c *ChainIndexer) getNetworkChanges(p, pageSize int) ([]NetworkChange, error) {
	changes := make([]NetworkChange, 0)
	err := page(c.db.Order("id desc"), p, pageSize).Find(&changes).Error
	return changes, err
}

func (c *ChainIndexer) getValidators() ([]Validator, error) {
	validators := make([]Validator, 0)
	err := c.db.Order("main desc, id asc").Find(&validators).Error
	return validators, err
}
