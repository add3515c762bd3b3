package state

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	cmtcrypto "github.com/cometbft/cometbft/crypto"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cosmos/iavl"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/icon-project/governance/tx"
	"github.com/syndtr/goleveldb/leveldb"
)

const (
	StartAccountIdx = 65536

	ModifiedFlagNew = 1 << 0
	ModifiedFlagMod = 1 << 1
	ModifiedFlagPK  = 1 << 2

	DefaultMainPReps = 22
	DefaultSubPReps  = 78
)

var (
	KeyState         = "s"
	KeyAccountIndex  = "i%s"
	KeyAccountBody   = "a%x"
	KeyProposalBody  = "p%x"
	KeyProposalIndex = "pl%016x"
	KeyContract      = "c%x"
	KeyNetwork       = "n"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrTxValidatorNoexists  = errors.New("validator noexists")
	ErrTxNonceInvalid       = errors.New("nonce invalid")
	ErrTxSigInvalid         = errors.New("signature invalid")
	ErrAccountAlreadyExists = errors.New("account already exists")
	ErrAccountNoexists      = errors.New("account noexists")
	ErrContractNoexists     = errors.New("contract noexists")
	ErrIrepOutOfRange       = errors.New("irep out of range")
)

// Options sizes the validator roster.
type Options struct {
	MainPReps int
	SubPReps  int
}

func DefaultOptions() Options {
	return Options{MainPReps: DefaultMainPReps, SubPReps: DefaultSubPReps}
}

// StateHeader is persisted under KeyState on every update.
type StateHeader struct {
	Height        uint64
	ChainId       string
	AccountIdx    uint64
	ProposalCount uint64
	RootHash      []byte
	Hash          []byte
}

func (h *StateHeader) Clone() *StateHeader {
	n := *h
	n.RootHash = bytes.Clone(h.RootHash)
	n.Hash = bytes.Clone(h.Hash)
	return &n
}

// State is a view over the tree at one height. Writes are cached and only
// reach the tree on Update.
type State struct {
	logger cmtlog.Logger
	db     *iavl.MutableTree
	dbVer  int64
	opts   Options

	header        *StateHeader
	idxs          map[string]uint64
	acnts         map[uint64]*Account
	modifiedAcnts map[uint64]uint32

	proposals    map[string][]byte
	newProposals [][]byte

	contracts    map[string]*Contract
	modContracts map[string]bool

	network    *NetworkValues
	modNetwork bool
}

func newState(db *iavl.MutableTree, opts Options, logger cmtlog.Logger) *State {
	s := &State{
		logger: logger,
		db:     db,
		dbVer:  0,
		opts:   opts,
		header: new(StateHeader),
	}
	s.resetCache()
	s.header.AccountIdx = StartAccountIdx
	return s
}

func (s *State) resetCache() {
	s.idxs = make(map[string]uint64)
	s.acnts = make(map[uint64]*Account)
	s.modifiedAcnts = make(map[uint64]uint32)
	s.proposals = make(map[string][]byte)
	s.newProposals = nil
	s.contracts = make(map[string]*Contract)
	s.modContracts = make(map[string]bool)
	s.network = nil
	s.modNetwork = false
}

func (s *State) nextState() *State {
	n := &State{
		logger: s.logger,
		db:     s.db,
		dbVer:  s.dbVer,
		opts:   s.opts,
		header: s.header.Clone(),
	}
	n.resetCache()
	if s.header.Hash != nil {
		n.header.Height = s.header.Height + 1
	}
	return n
}

func copyMap[K comparable, V any](source map[K]V, clone func(V) V) map[K]V {
	res := make(map[K]V, len(source))
	for k, v := range source {
		if clone != nil {
			v = clone(v)
		}
		res[k] = v
	}
	return res
}

// Clone returns a scratch copy sharing the tree. Applying a tx to a clone and
// adopting it only on success keeps failed txs from leaking writes.
func (s *State) Clone() *State {
	n := &State{
		logger:        s.logger,
		db:            s.db,
		dbVer:         s.dbVer,
		opts:          s.opts,
		header:        s.header.Clone(),
		idxs:          copyMap(s.idxs, nil),
		acnts:         copyMap(s.acnts, (*Account).Clone),
		modifiedAcnts: copyMap(s.modifiedAcnts, nil),
		proposals:     copyMap(s.proposals, bytes.Clone),
		contracts:     copyMap(s.contracts, (*Contract).Clone),
		modContracts:  copyMap(s.modContracts, nil),
		modNetwork:    s.modNetwork,
	}
	for _, id := range s.newProposals {
		n.newProposals = append(n.newProposals, bytes.Clone(id))
	}
	if s.network != nil {
		n.network = s.network.Clone()
	}
	return n
}

func (s *State) get(key string) ([]byte, error) {
	val, err := s.db.Get([]byte(key))
	if err != nil && err != leveldb.ErrNotFound {
		return nil, err
	}
	return val, nil
}

func (s *State) load() (err error) {
	val, err := s.get(KeyState)
	if err != nil || val == nil {
		return
	}
	err = rlp.DecodeBytes(val, s.header)
	if err != nil {
		return
	}
	h := s.db.Hash()
	if h != nil {
		s.calcHash(h, true)
	}
	return
}

func (s *State) calcHash(rootHash []byte, update bool) (h common.Hash) {
	h = crypto.Keccak256Hash(rootHash)
	if update {
		s.header.RootHash = bytes.Clone(rootHash)
		s.header.Hash = bytes.Clone(h[:])
	}
	return
}

// Update flushes cached writes into the working tree and returns the hash
// the tree will have once saved.
func (s *State) Update() (h common.Hash, err error) {
	var hash []byte
	defer func() {
		if hash == nil {
			s.db.Rollback()
		}
	}()
	set := func(key string, val []byte) error {
		_, err := s.db.Set([]byte(key), val)
		return err
	}

	for i, id := range s.newProposals {
		n := s.header.ProposalCount - uint64(len(s.newProposals)) + uint64(i)
		if err = set(fmt.Sprintf(KeyProposalIndex, n), id); err != nil {
			return
		}
	}
	for _, key := range sortedKeys(s.proposals) {
		if err = set(key, s.proposals[key]); err != nil {
			return
		}
	}

	for _, key := range sortedKeys(s.modContracts) {
		var val []byte
		val, err = s.contracts[key].Bytes()
		if err != nil {
			return
		}
		if err = set(key, val); err != nil {
			return
		}
	}

	if s.modNetwork && s.network != nil {
		var val []byte
		val, err = s.network.Bytes()
		if err != nil {
			return
		}
		if err = set(KeyNetwork, val); err != nil {
			return
		}
	}

	idxs := make([]uint64, 0, len(s.modifiedAcnts))
	for idx := range s.modifiedAcnts {
		idxs = append(idxs, idx)
	}
	sort.Slice(idxs, func(i, j int) bool {
		return idxs[i] < idxs[j]
	})
	for _, idx := range idxs {
		flag := s.modifiedAcnts[idx]
		acnt := s.acnts[idx]
		var val []byte
		val, err = rlp.EncodeToBytes(acnt)
		if err != nil {
			return
		}
		if err = set(fmt.Sprintf(KeyAccountBody, acnt.Index), val); err != nil {
			return
		}
		if (flag&ModifiedFlagNew == ModifiedFlagNew) || (flag&ModifiedFlagPK == ModifiedFlagPK) {
			val, err = rlp.EncodeToBytes(acnt.Index)
			if err != nil {
				return
			}
			if err = set(fmt.Sprintf(KeyAccountIndex, acnt.Address()), val); err != nil {
				return
			}
		}
	}

	var val []byte
	val, err = rlp.EncodeToBytes(s.header)
	if err != nil {
		return
	}
	if err = set(KeyState, val); err != nil {
		return
	}

	hash = s.db.WorkingHash()
	h = s.calcHash(hash, false)
	s.modifiedAcnts = make(map[uint64]uint32)
	s.proposals = make(map[string][]byte)
	s.newProposals = nil
	s.modContracts = make(map[string]bool)
	s.modNetwork = false
	return
}

func (s *State) save() (h common.Hash, err error) {
	hash, ver, err := s.db.SaveVersion()
	if err != nil {
		return h, err
	}
	s.dbVer = ver
	h = s.calcHash(hash, true)
	return
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *State) Header() *StateHeader {
	return s.header
}

func (s *State) Height() uint64 {
	return s.header.Height
}

// SetHeight pins the state to the block being executed.
func (s *State) SetHeight(height uint64) {
	s.header.Height = height
}

func (s *State) Hash() (h common.Hash) {
	if s.header.Hash != nil {
		copy(h[:], s.header.Hash)
	}
	return
}

func (s *State) SetChainId(chainId string) {
	s.header.ChainId = chainId
}

func (s *State) GetAccount(idx uint64) (acnt *Account, err error) {
	if idx >= s.header.AccountIdx {
		err = ErrAccountNoexists
		return
	}
	acnt = s.acnts[idx]
	if acnt != nil {
		return
	}
	val, err := s.get(fmt.Sprintf(KeyAccountBody, idx))
	if err != nil {
		return nil, err
	}
	if val == nil {
		err = ErrNotFound
		return
	}
	acnt = new(Account)
	err = rlp.DecodeBytes(val, acnt)
	if err != nil {
		return nil, err
	}
	s.acnts[idx] = acnt
	return
}

// FindAccount returns nil without error when addr has no account.
func (s *State) FindAccount(addr []byte) (acnt *Account, err error) {
	saddr := cmtcrypto.Address(addr).String()
	idx, ok := s.idxs[saddr]
	if !ok {
		for _, a := range s.acnts {
			if bytes.Equal(a.AddrBytes(), addr) {
				s.idxs[saddr] = a.Index
				return a, nil
			}
		}
		val, err := s.get(fmt.Sprintf(KeyAccountIndex, saddr))
		if err != nil {
			return nil, err
		}
		if val == nil {
			return nil, nil
		}
		err = rlp.DecodeBytes(val, &idx)
		if err != nil {
			return nil, err
		}
		s.idxs[saddr] = idx
	}
	return s.GetAccount(idx)
}

func (s *State) AddAccount(acnt *Account) (err error) {
	a, err := s.FindAccount(acnt.AddrBytes())
	if err != nil {
		return err
	}
	if a != nil {
		return ErrAccountAlreadyExists
	}
	acnt.Index = s.header.AccountIdx
	s.header.AccountIdx += 1
	s.acnts[acnt.Index] = acnt.Clone()
	s.modifiedAcnts[acnt.Index] = ModifiedFlagNew
	return
}

func (s *State) markAccount(a *Account) {
	s.acnts[a.Index] = a
	s.modifiedAcnts[a.Index] |= ModifiedFlagMod
}

func (s *State) IncNonce(idx uint64) error {
	a, err := s.GetAccount(idx)
	if err != nil {
		return err
	}
	a.Nonce += 1
	s.markAccount(a)
	return nil
}

// Disqualify removes the account behind addr from every validator set.
// Its stake is kept.
func (s *State) Disqualify(addr cmtcrypto.Address) error {
	a, err := s.FindAccount(addr)
	if err != nil {
		return err
	}
	if a == nil {
		return ErrAccountNoexists
	}
	a.Disqualified = true
	s.markAccount(a)
	return nil
}

func (s *State) Verify(t *tx.GovTx, allowNonceGap bool) (succ bool, err error) {
	a, err := s.GetAccount(t.Validator)
	if err != nil {
		if errors.Is(err, ErrAccountNoexists) || errors.Is(err, ErrNotFound) {
			err = ErrTxValidatorNoexists
		}
		return
	}
	if !(a.Nonce == t.Nonce || (allowNonceGap && a.Nonce < t.Nonce)) {
		err = ErrTxNonceInvalid
		return
	}
	dat, err := t.SigData([]byte(s.header.ChainId))
	if err != nil {
		return succ, err
	}
	succ = a.Verify(dat, t.Sig)
	if !succ {
		err = ErrTxSigInvalid
	}
	return
}

// accounts returns every account, cached writes included, in index order.
func (s *State) accounts() ([]*Account, error) {
	start := []byte(fmt.Sprintf(KeyAccountBody, ""))
	end := PrefixEndBytes(start)
	it, err := s.db.Iterator(start, end, true)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	seen := make(map[uint64]bool)
	var res []*Account
	for ; it.Valid(); it.Next() {
		act := new(Account)
		if err := rlp.DecodeBytes(it.Value(), act); err != nil {
			return nil, err
		}
		if cached, ok := s.acnts[act.Index]; ok {
			act = cached
		}
		seen[act.Index] = true
		res = append(res, act)
	}
	for idx, a := range s.acnts {
		if !seen[idx] {
			res = append(res, a)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].Index < res[j].Index
	})
	return res, nil
}

func PrefixEndBytes(prefix []byte) []byte {
	if len(prefix) == 0 {
		return nil
	}

	end := make([]byte, len(prefix))
	copy(end, prefix)

	for {
		if end[len(end)-1] != byte(255) {
			end[len(end)-1]++
			break
		}

		end = end[:len(end)-1]

		if len(end) == 0 {
			end = nil
			break
		}
	}

	return end
}
