package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cometbft/cometbft/rpc/client/http"
	"github.com/icon-project/governance/crypto"
	"github.com/icon-project/governance/state"
	"github.com/icon-project/governance/tx"
)

type signerArguments struct {
	Url    string
	Index  uint64
	Nonce  uint64
	Skey   string
	NoSend bool
}

func newClient(url string) (*http.HTTP, error) {
	cli, err := http.New(url, "/websocket")
	if err != nil {
		return nil, fmt.Errorf("new client: %w", err)
	}
	return cli, nil
}

func query(ctx context.Context, url, path string, data []byte) ([]byte, error) {
	cli, err := newClient(url)
	if err != nil {
		return nil, err
	}
	res, err := cli.ABCIQuery(ctx, path, data)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", path, err)
	}
	if res.Response.Code != 0 {
		return nil, fmt.Errorf("query %s: code %d %s", path, res.Response.Code, res.Response.Log)
	}
	return res.Response.Value, nil
}

// accountKey is the /accounts/ query data: a 20 byte address or a big endian index.
func accountKey(index uint64, address string) ([]byte, error) {
	if len(address) > 0 {
		dat, err := hex.DecodeString(strings.TrimPrefix(address, "0x"))
		if err != nil {
			return nil, fmt.Errorf("invalid address %v: %w", address, err)
		}
		return dat, nil
	}
	s := fmt.Sprintf("0%x", index)
	if len(s)&1 == 1 {
		s = s[1:]
	}
	return hex.DecodeString(s)
}

func queryAccount(ctx context.Context, url string, index uint64, address string) (*state.Account, error) {
	key, err := accountKey(index, address)
	if err != nil {
		return nil, err
	}
	dat, err := query(ctx, url, "/accounts/", key)
	if err != nil {
		return nil, err
	}
	var act state.Account
	if err = act.UnmarshalJSON(dat); err != nil {
		return nil, err
	}
	return &act, nil
}

// sendTx signs body as the configured signer and broadcasts it.
func sendTx(ctx context.Context, args *signerArguments, tp tx.GovTxType, body any) error {
	cli, err := newClient(args.Url)
	if err != nil {
		return err
	}
	gres, err := cli.Genesis(ctx)
	if err != nil {
		return fmt.Errorf("get chain genesis: %w", err)
	}
	nonce := args.Nonce
	if nonce == 0 {
		act, err := queryAccount(ctx, args.Url, args.Index, "")
		if err != nil {
			return err
		}
		nonce = act.Nonce
	}
	pv, err := crypto.LoadFilePV(args.Skey)
	if err != nil {
		return err
	}
	gtx := tx.NewGovTx(tp, args.Index, nonce, body)
	if err = pv.SignTx(gtx, gres.Genesis.ChainID); err != nil {
		return fmt.Errorf("sign tx: %w", err)
	}
	dat, err := tx.MarshalGovTx(gtx)
	if err != nil {
		return err
	}
	if args.NoSend {
		fmt.Println(string(dat))
		return nil
	}
	res, err := cli.BroadcastTxSync(ctx, dat)
	if err != nil {
		return fmt.Errorf("broadcast tx: %w", err)
	}
	out, _ := json.Marshal(res)
	fmt.Println(string(out))
	if res.Code != 0 {
		return fmt.Errorf("tx rejected: code %d %s", res.Code, res.Log)
	}
	return nil
}

func printJSON(dat []byte) {
	var v any
	if err := json.Unmarshal(dat, &v); err != nil {
		fmt.Println(string(dat))
		return
	}
	out, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(out))
}
