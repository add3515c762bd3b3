package state

import (
	"sync"

	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cosmos/iavl"
	dbm "github.com/cosmos/iavl/db"
	"github.com/ethereum/go-ethereum/common"
)

type StateDB struct {
	mtx sync.RWMutex

	dir    string
	logger cmtlog.Logger
	db     *iavl.MutableTree

	state *State
}

func NewStateDB(dir string, opts Options, logger cmtlog.Logger) (db *StateDB, err error) {
	ldb, err := dbm.NewDB("gov", "goleveldb", dir)
	if err != nil {
		return nil, err
	}
	return newStateDB(ldb, dir, opts, logger)
}

// NewMemStateDB keeps the tree in memory. Nothing survives Close.
func NewMemStateDB(opts Options, logger cmtlog.Logger) (*StateDB, error) {
	return newStateDB(dbm.NewMemDB(), "", opts, logger)
}

func newStateDB(ldb dbm.DB, dir string, opts Options, logger cmtlog.Logger) (db *StateDB, err error) {
	logger = logger.With("module", "govdb")
	tdb := iavl.NewMutableTree(ldb, 128, true, Cometbft2CosmosLogger(logger))
	version, err := tdb.Load()
	if err != nil {
		return nil, err
	}
	logger.Info("load db success", "version", version)
	st := newState(tdb, opts, logger)
	err = st.load()
	if err != nil {
		logger.Error("from govdb load fail", "err", err)
		return nil, err
	}
	db = &StateDB{
		dir:    dir,
		logger: logger,
		db:     tdb,
		state:  st,
	}
	return
}

func (db *StateDB) Close() (err error) {
	err = db.db.Close()
	return
}

func (db *StateDB) Header() (header *StateHeader) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	header = db.state.Header().Clone()
	return
}

// State returns a scratch copy of the last committed state.
func (db *StateDB) State() *State {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	return db.state.Clone()
}

func (db *StateDB) NewState() (st *State) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	st = db.state.nextState()
	return
}

func (db *StateDB) SetState(st *State) (hash common.Hash, err error) {
	db.mtx.Lock()
	defer db.mtx.Unlock()
	hash, err = st.save()
	if err != nil {
		return
	}
	db.state = st
	return
}

func (db *StateDB) GetAccountByIndex(idx uint64) (acnt *Account, height uint64, err error) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	st := db.state.Clone()
	acnt, err = st.GetAccount(idx)
	if err != nil {
		return
	}
	acnt = acnt.Clone()
	height = st.header.Height
	return
}

func (db *StateDB) GetAccountByAddress(addr []byte) (acnt *Account, height uint64, err error) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	st := db.state.Clone()
	acnt, err = st.FindAccount(addr)
	if err != nil {
		return
	}
	if acnt != nil {
		acnt = acnt.Clone()
	}
	height = st.header.Height
	return
}

func (db *StateDB) GetNetworkValues() (nv *NetworkValues, height uint64, err error) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	st := db.state.Clone()
	nv, err = st.NetworkValues()
	height = st.header.Height
	return
}

// View runs fn on a scratch copy of the committed state under the read lock.
func (db *StateDB) View(fn func(st *State) error) (height uint64, err error) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	st := db.state.Clone()
	return st.header.Height, fn(st)
}
