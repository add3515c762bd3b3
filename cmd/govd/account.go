package main

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"
)

type accountArguments struct {
	Url     string
	Address string
	Index   uint64
}

var accountArgs accountArguments

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Show an account by index or address",
	RunE:  accountRun,
}

func init() {
	urlFlag(accountCmd, &accountArgs.Url)
	accountCmd.Flags().StringVarP(&accountArgs.Address, "address", "a", "", "account address")
	accountCmd.Flags().Uint64VarP(&accountArgs.Index, "index", "i", 0, "account index")
}

func accountRun(cmd *cobra.Command, args []string) error {
	act, err := queryAccount(context.Background(), accountArgs.Url, accountArgs.Index, accountArgs.Address)
	if err != nil {
		return err
	}
	fmt.Printf("index:%v name:%v nonce:%v stake:%v disqualified:%v pk:%v addr:%v\n",
		act.Index, act.Name, act.Nonce, act.StakeAmount(), act.Disqualified,
		hex.EncodeToString(act.PubKey), act.Address())
	return nil
}

var validatorsCmd = &cobra.Command{
	Use:   "validators",
	Short: "List the main and sub preps",
	RunE: func(cmd *cobra.Command, args []string) error {
		dat, err := query(context.Background(), validatorsUrl, "/validators/", nil)
		if err != nil {
			return err
		}
		printJSON(dat)
		return nil
	},
}

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "Show the current network values",
	RunE: func(cmd *cobra.Command, args []string) error {
		dat, err := query(context.Background(), networkUrl, "/network/", nil)
		if err != nil {
			return err
		}
		printJSON(dat)
		return nil
	},
}

var validatorsUrl, networkUrl string

func init() {
	urlFlag(validatorsCmd, &validatorsUrl)
	urlFlag(networkCmd, &networkUrl)
}
