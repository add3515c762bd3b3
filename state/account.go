package state

import (
	"bytes"
	"encoding/json"
	"math/big"

	cmtcrypto "github.com/cometbft/cometbft/crypto"
	"github.com/cometbft/cometbft/crypto/ed25519"
)

// Account is a validator account. Stake is the delegated amount it commands.
type Account struct {
	Index        uint64
	PubKey       []byte
	Name         string
	Stake        *big.Int
	Nonce        uint64
	Disqualified bool
}

type accountSt struct {
	Index        uint64            `json:"index"`
	Address      cmtcrypto.Address `json:"address"`
	PubKey       ed25519.PubKey    `json:"pubKey"`
	Name         string            `json:"name"`
	Stake        *big.Int          `json:"stake"`
	Nonce        uint64            `json:"nonce"`
	Disqualified bool              `json:"disqualified"`
}

func (a *Account) MarshalJSON() (dat []byte, err error) {
	o := accountSt{
		Index:        a.Index,
		Address:      a.AddrBytes(),
		PubKey:       a.PubKey,
		Name:         a.Name,
		Stake:        a.StakeAmount(),
		Nonce:        a.Nonce,
		Disqualified: a.Disqualified,
	}
	return json.Marshal(o)
}

func (a *Account) UnmarshalJSON(dat []byte) (err error) {
	var o accountSt
	err = json.Unmarshal(dat, &o)
	if err != nil {
		return
	}
	a.Index = o.Index
	a.PubKey = o.PubKey
	a.Name = o.Name
	a.Stake = o.Stake
	a.Nonce = o.Nonce
	a.Disqualified = o.Disqualified
	return
}

func (a *Account) Clone() *Account {
	n := *a
	n.PubKey = bytes.Clone(a.PubKey)
	n.Stake = a.StakeAmount()
	return &n
}

func (a *Account) StakeAmount() *big.Int {
	if a.Stake == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(a.Stake)
}

func (a *Account) SetPubKey(pkey []byte) {
	a.PubKey = bytes.Clone(pkey)
}

func (a *Account) AddrBytes() cmtcrypto.Address {
	pk := ed25519.PubKey(a.PubKey[:])
	return pk.Address()
}

func (a *Account) Address() string {
	return a.AddrBytes().String()
}

// Eligible reports whether the account can sit in a validator set.
func (a *Account) Eligible() bool {
	return !a.Disqualified && a.Stake != nil && a.Stake.Sign() > 0
}

func (a *Account) Verify(msg []byte, sigs [][]byte) (succ bool) {
	if len(sigs) != 1 {
		return false
	}
	pk := ed25519.PubKey(a.PubKey[:])
	return pk.VerifySignature(msg, sigs[0])
}
