package tx

import (
	"errors"
)

type GovTxType uint8

const (
	GovTxTypeUnknown          GovTxType = 0
	GovTxTypeRegisterProposal GovTxType = 1
	GovTxTypeCancelProposal   GovTxType = 2
	GovTxTypeVoteProposal     GovTxType = 3
)

func (t GovTxType) String() string {
	switch t {
	case GovTxTypeRegisterProposal:
		return "registerProposal"
	case GovTxTypeCancelProposal:
		return "cancelProposal"
	case GovTxTypeVoteProposal:
		return "voteProposal"
	}
	return "unknown"
}

const (
	GovTxVersion0 uint8 = 0
)

var (
	ErrInvalidTx            = errors.New("invalid tx")
	ErrUnsupportedTxType    = errors.New("unsupported tx type")
	ErrUnmatchedTxType      = errors.New("unmatched tx type")
	ErrUnsupportedTxVersion = errors.New("unsupported tx version")
)
