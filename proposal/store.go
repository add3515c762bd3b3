package proposal

import (
	"bytes"
	"encoding/hex"
)

// Store persists encoded proposals keyed by id, plus the insertion ordered
// index of ids used for enumeration.
type Store interface {
	// GetProposal returns nil without error when id is unknown.
	GetProposal(id []byte) ([]byte, error)
	SetProposal(id []byte, dat []byte) error
	AppendProposalID(id []byte) error
	// IterateProposalIDs calls fn in insertion order until it returns false.
	IterateProposalIDs(fn func(id []byte) bool) error
}

// MemStore is an in-memory Store.
type MemStore struct {
	proposals map[string][]byte
	index     [][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{proposals: make(map[string][]byte)}
}

func (m *MemStore) GetProposal(id []byte) ([]byte, error) {
	dat, ok := m.proposals[hex.EncodeToString(id)]
	if !ok {
		return nil, nil
	}
	return bytes.Clone(dat), nil
}

func (m *MemStore) SetProposal(id []byte, dat []byte) error {
	m.proposals[hex.EncodeToString(id)] = bytes.Clone(dat)
	return nil
}

func (m *MemStore) AppendProposalID(id []byte) error {
	m.index = append(m.index, bytes.Clone(id))
	return nil
}

func (m *MemStore) IterateProposalIDs(fn func(id []byte) bool) error {
	for _, id := range m.index {
		if !fn(bytes.Clone(id)) {
			break
		}
	}
	return nil
}
