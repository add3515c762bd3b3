package state

import (
	"bytes"
	"fmt"

	"github.com/icon-project/governance/proposal"
)

var _ proposal.Store = (*State)(nil)

func (s *State) GetProposal(id []byte) ([]byte, error) {
	key := fmt.Sprintf(KeyProposalBody, id)
	if dat, ok := s.proposals[key]; ok {
		return bytes.Clone(dat), nil
	}
	return s.get(key)
}

func (s *State) SetProposal(id []byte, dat []byte) error {
	s.proposals[fmt.Sprintf(KeyProposalBody, id)] = bytes.Clone(dat)
	return nil
}

func (s *State) AppendProposalID(id []byte) error {
	s.newProposals = append(s.newProposals, bytes.Clone(id))
	s.header.ProposalCount += 1
	return nil
}

func (s *State) IterateProposalIDs(fn func(id []byte) bool) error {
	flushed := s.header.ProposalCount - uint64(len(s.newProposals))
	for i := uint64(0); i < flushed; i++ {
		id, err := s.get(fmt.Sprintf(KeyProposalIndex, i))
		if err != nil {
			return err
		}
		if id == nil {
			return fmt.Errorf("proposal index %d: %w", i, ErrNotFound)
		}
		if !fn(id) {
			return nil
		}
	}
	for _, id := range s.newProposals {
		if !fn(bytes.Clone(id)) {
			return nil
		}
	}
	return nil
}

// ProposalCount is the number of proposals ever registered.
func (s *State) ProposalCount() uint64 {
	return s.header.ProposalCount
}
