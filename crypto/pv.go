package crypto

import (
	"fmt"
	"os"

	"github.com/cometbft/cometbft/crypto"
	cmtjson "github.com/cometbft/cometbft/libs/json"
	"github.com/cometbft/cometbft/privval"
	"github.com/icon-project/governance/tx"
)

// PV is a governance signer backed by a CometBFT private validator key file.
type PV struct {
	privateKey crypto.PrivKey
	publicKey  crypto.PubKey
}

func LoadFilePV(keyFilePath string) (*PV, error) {
	keyJSONBytes, err := os.ReadFile(keyFilePath)
	if err != nil {
		return nil, err
	}
	pvKey := privval.FilePVKey{}
	err = cmtjson.Unmarshal(keyJSONBytes, &pvKey)
	if err != nil {
		return nil, fmt.Errorf("reading PrivValidator key from %v: %w", keyFilePath, err)
	}
	return NewPV(pvKey.PrivKey), nil
}

func NewPV(key crypto.PrivKey) *PV {
	return &PV{
		privateKey: key,
		publicKey:  key.PubKey(),
	}
}

func (k *PV) PublicKey() []byte {
	return k.publicKey.Bytes()
}

func (k *PV) Address() crypto.Address {
	return k.publicKey.Address()
}

func (k *PV) Sign(data []byte) ([]byte, error) {
	return k.privateKey.Sign(data)
}

// SignTx signs gtx for chainID and replaces its signatures.
func (k *PV) SignTx(gtx *tx.GovTx, chainID string) error {
	dat, err := gtx.SigData([]byte(chainID))
	if err != nil {
		return err
	}
	sig, err := k.Sign(dat)
	if err != nil {
		return err
	}
	gtx.Sig = [][]byte{sig}
	return nil
}
