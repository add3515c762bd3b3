package proposal

import (
	"errors"
	"math/big"

	cmtcrypto "github.com/cometbft/cometbft/crypto"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

type fakeNetwork struct {
	contracts map[string]bool
	preps     map[string]bool
	stepPrice *big.Int
	maxIrep   *big.Int
}

func newFakeNetwork() *fakeNetwork {
	return &fakeNetwork{
		contracts: make(map[string]bool),
		preps:     make(map[string]bool),
		stepPrice: big.NewInt(100),
		maxIrep:   big.NewInt(1000),
	}
}

func (n *fakeNetwork) IsContract(addr cmtcrypto.Address) bool {
	return n.contracts[addr.String()]
}

func (n *fakeNetwork) IsPRep(addr cmtcrypto.Address) bool {
	return n.preps[addr.String()]
}

func (n *fakeNetwork) StepPrice() *big.Int {
	return n.stepPrice
}

func (n *fakeNetwork) CheckIrep(irep *big.Int) error {
	if irep.Sign() <= 0 || irep.Cmp(n.maxIrep) > 0 {
		return errors.New("irep out of range")
	}
	return nil
}

type panicNetwork struct {
	fakeNetwork
}

func (n *panicNetwork) StepPrice() *big.Int {
	panic("step price lookup failed")
}

func testAddr(i byte) cmtcrypto.Address {
	addr := make([]byte, 20)
	addr[0] = 0xaa
	addr[19] = i
	return cmtcrypto.Address(addr)
}

func testID(i byte) []byte {
	id := make([]byte, 32)
	id[0] = 0x11
	id[31] = i
	return id
}

// testRoster returns n validators with equal stake.
func testRoster(n int, stake int64) []Validator {
	vals := make([]Validator, n)
	for i := range vals {
		vals[i] = Validator{
			Address: testAddr(byte(i + 1)),
			Name:    "prep" + string(rune('a'+i)),
			Stake:   big.NewInt(stake),
		}
	}
	return vals
}

func newTestEngine() (*Engine, *MemStore, *fakeNetwork) {
	store := NewMemStore()
	nw := newFakeNetwork()
	return NewEngine(store, nw, DefaultPolicy(), cmtlog.NewNopLogger()), store, nw
}
