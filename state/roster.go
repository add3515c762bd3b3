package state

import (
	"container/heap"

	abci_types "github.com/cometbft/cometbft/abci/types"
	"github.com/icon-project/governance/config"
	"github.com/icon-project/governance/proposal"
)

type rankedAccount struct {
	acnt *Account
}

// PowerQueue orders accounts by stake, highest first, then by index.
type PowerQueue []rankedAccount

func (pq PowerQueue) Len() int { return len(pq) }

func (pq PowerQueue) Less(i, j int) bool {
	c := pq[i].acnt.StakeAmount().Cmp(pq[j].acnt.StakeAmount())
	if c == 0 {
		return pq[i].acnt.Index < pq[j].acnt.Index
	}
	return c > 0
}

func (pq PowerQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
}

func (pq *PowerQueue) Push(x any) {
	item := x.(rankedAccount)
	*pq = append(*pq, item)
}

func (pq *PowerQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[0 : n-1]
	return item
}

// rankedAccounts returns every eligible account ordered by PowerQueue.
func (s *State) rankedAccounts() ([]*Account, error) {
	acnts, err := s.accounts()
	if err != nil {
		return nil, err
	}
	q := &PowerQueue{}
	heap.Init(q)
	for _, a := range acnts {
		if a.Eligible() {
			heap.Push(q, rankedAccount{acnt: a})
		}
	}
	res := make([]*Account, 0, q.Len())
	for q.Len() > 0 {
		res = append(res, heap.Pop(q).(rankedAccount).acnt)
	}
	return res, nil
}

func (s *State) MainPReps() ([]*Account, error) {
	ranked, err := s.rankedAccounts()
	if err != nil {
		return nil, err
	}
	return ranked[:min(len(ranked), s.opts.MainPReps)], nil
}

func (s *State) SubPReps() ([]*Account, error) {
	ranked, err := s.rankedAccounts()
	if err != nil {
		return nil, err
	}
	from := min(len(ranked), s.opts.MainPReps)
	to := min(len(ranked), s.opts.MainPReps+s.opts.SubPReps)
	return ranked[from:to], nil
}

// LiveValidators is the current main prep roster with stakes.
func (s *State) LiveValidators() ([]proposal.Validator, error) {
	preps, err := s.MainPReps()
	if err != nil {
		return nil, err
	}
	vals := make([]proposal.Validator, 0, len(preps))
	for _, a := range preps {
		vals = append(vals, proposal.Validator{
			Address: a.AddrBytes(),
			Name:    a.Name,
			Stake:   a.StakeAmount(),
		})
	}
	return vals, nil
}

func (s *State) ValidatorAccounts() (acnts []*Account, height uint64, err error) {
	preps, err := s.MainPReps()
	if err != nil {
		return nil, 0, err
	}
	for _, a := range preps {
		acnts = append(acnts, a.Clone())
	}
	height = s.header.Height
	return
}

// Validators is the CometBFT validator set derived from the main preps,
// keyed by the update's string form.
func (s *State) Validators() (vals map[string]abci_types.ValidatorUpdate, err error) {
	preps, err := s.MainPReps()
	if err != nil {
		return nil, err
	}
	vals = make(map[string]abci_types.ValidatorUpdate, len(preps))
	for _, a := range preps {
		val := abci_types.Ed25519ValidatorUpdate(a.PubKey, config.PowerPerStake(a.StakeAmount()))
		vals[val.PubKey.String()] = val
	}
	return vals, nil
}

// ValidatorsUpdate diffs the next validator set against curVals. Validators
// that dropped out are returned with zero power.
func (s *State) ValidatorsUpdate(curVals map[string]abci_types.ValidatorUpdate) (updateVals []abci_types.ValidatorUpdate, err error) {
	nextVals, err := s.Validators()
	if err != nil {
		return nil, err
	}

	for _, key := range sortedKeys(nextVals) {
		val := nextVals[key]
		if v, ok := curVals[key]; ok {
			if v.Power != val.Power {
				updateVals = append(updateVals, val)
			}
		} else {
			updateVals = append(updateVals, val)
		}
	}

	for _, key := range sortedKeys(curVals) {
		if _, ok := nextVals[key]; !ok {
			curVal := curVals[key]
			curVal.Power = 0
			updateVals = append(updateVals, curVal)
		}
	}
	return
}
