package main

import "github.com/spf13/cobra"

const (
	FlagHome      = "home"
	FlagChainID   = "chain-id"
	FlagOverwrite = "overwrite"
	FlagMoniker   = "moniker"
)

const defaultKeyPath = "./config/priv_validator_key.json"

func urlFlag(cmd *cobra.Command, url *string) {
	cmd.Flags().StringVarP(url, "url", "u", "http://127.0.0.1:26657", "govd rpc url")
}

// signerFlags registers the flags every signed transaction needs.
func signerFlags(cmd *cobra.Command, args *signerArguments) {
	urlFlag(cmd, &args.Url)
	cmd.Flags().Uint64VarP(&args.Index, "index", "i", 0, "signer account index")
	cmd.Flags().Uint64VarP(&args.Nonce, "nonce", "n", 0, "signer account nonce, queried when 0")
	cmd.Flags().StringVarP(&args.Skey, "skeyPath", "s", defaultKeyPath, "private key path")
	cmd.Flags().BoolVarP(&args.NoSend, "nosend", "", false, "print the signed transaction instead of sending it")
}
