package tx

import (
	"encoding/json"

	cmtbytes "github.com/cometbft/cometbft/libs/bytes"
	"github.com/icon-project/governance/types"
)

// GovTx is the signed envelope of every governance transaction. Sig holds
// one ed25519 signature over the envelope encoded with Sig = [chainID].
type GovTx struct {
	Version   uint8     `json:"version"`
	Type      GovTxType `json:"type"`
	Nonce     uint64    `json:"nonce"`
	Validator uint64    `json:"validator"`
	Tx        any       `json:"tx"`
	Sig       [][]byte  `json:"sig"`
}

type RegisterProposalTx struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Type        types.ProposalType  `json:"type"`
	Value       types.ProposalValue `json:"value"`
}

type CancelProposalTx struct {
	ID cmtbytes.HexBytes `json:"id"`
}

type VoteProposalTx struct {
	ID   cmtbytes.HexBytes `json:"id"`
	Vote types.VoteType    `json:"vote"`
}

type govTxTmpl[Tx any] struct {
	Version   uint8     `json:"version"`
	Type      GovTxType `json:"type"`
	Nonce     uint64    `json:"nonce"`
	Validator uint64    `json:"validator"`
	Tx        Tx        `json:"tx"`
	Sig       [][]byte  `json:"sig"`
}

func NewGovTx(tp GovTxType, validator, nonce uint64, body any) *GovTx {
	return &GovTx{
		Version:   GovTxVersion0,
		Type:      tp,
		Nonce:     nonce,
		Validator: validator,
		Tx:        body,
	}
}

func (tx *GovTx) SigData(ext []byte) (dat []byte, err error) {
	ntx := *tx
	ntx.Sig = [][]byte{ext}
	dat, err = json.Marshal(ntx)
	return
}

func parseGovTxType(dat []byte) GovTxType {
	var tx struct {
		Type GovTxType `json:"type"`
	}
	err := json.Unmarshal(dat, &tx)
	if err != nil {
		return GovTxTypeUnknown
	}
	return tx.Type
}

func unmarshalGovTx[Tx any](dat []byte) (gtx *GovTx, err error) {
	var txt govTxTmpl[Tx]
	err = json.Unmarshal(dat, &txt)
	if err != nil {
		return
	}
	if txt.Version != GovTxVersion0 {
		return nil, ErrUnsupportedTxVersion
	}
	gtx = new(GovTx)
	gtx.Version = txt.Version
	gtx.Type = txt.Type
	gtx.Nonce = txt.Nonce
	gtx.Validator = txt.Validator
	gtx.Tx = &txt.Tx
	gtx.Sig = txt.Sig
	return
}

func UnmarshalGovTx(dat []byte) (gtx *GovTx, err error) {
	tp := parseGovTxType(dat)
	switch tp {
	case GovTxTypeRegisterProposal:
		return unmarshalGovTx[RegisterProposalTx](dat)
	case GovTxTypeCancelProposal:
		return unmarshalGovTx[CancelProposalTx](dat)
	case GovTxTypeVoteProposal:
		return unmarshalGovTx[VoteProposalTx](dat)
	default:
		err = ErrUnsupportedTxType
	}
	return
}

func MarshalGovTx(gtx *GovTx) (dat []byte, err error) {
	return json.Marshal(gtx)
}
