package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/icon-project/governance/app"
	"github.com/icon-project/governance/tx"
	"github.com/icon-project/governance/types"
	"github.com/spf13/cobra"
)

var proposalCmd = &cobra.Command{
	Use:   "proposal",
	Short: "Register, cancel, vote on and inspect network proposals",
}

type registerArguments struct {
	signerArguments
	Title       string
	Description string
	Type        string
	Value       string
}

var registerArgs registerArguments

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a network proposal",
	Args:  cobra.NoArgs,
	RunE:  registerRun,
}

type cancelArguments struct {
	signerArguments
	ID string
}

var cancelArgs cancelArguments

var cancelCmd = &cobra.Command{
	Use:   "cancel <id>",
	Short: "Cancel a voting proposal you registered",
	Args:  cobra.ExactArgs(1),
	RunE:  cancelRun,
}

type voteArguments struct {
	signerArguments
	Vote string
}

var voteArgs voteArguments

var voteCmd = &cobra.Command{
	Use:   "vote <id> <agree|disagree>",
	Short: "Vote on a network proposal",
	Args:  cobra.ExactArgs(2),
	RunE:  voteRun,
}

type getArguments struct {
	Url    string
	Type   string
	Status string
}

var getArgs getArguments

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a network proposal",
	Args:  cobra.ExactArgs(1),
	RunE:  getRun,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List network proposals",
	Args:  cobra.NoArgs,
	RunE:  listRun,
}

func init() {
	signerFlags(registerCmd, &registerArgs.signerArguments)
	registerCmd.Flags().StringVarP(&registerArgs.Title, "title", "t", "", "proposal title")
	registerCmd.Flags().StringVarP(&registerArgs.Description, "desc", "", "", "proposal description")
	registerCmd.Flags().StringVarP(&registerArgs.Type, "type", "", "text", "proposal type name or number")
	registerCmd.Flags().StringVarP(&registerArgs.Value, "value", "v", "{}", "proposal value as a JSON object")

	signerFlags(cancelCmd, &cancelArgs.signerArguments)
	signerFlags(voteCmd, &voteArgs.signerArguments)

	urlFlag(getCmd, &getArgs.Url)
	urlFlag(listCmd, &getArgs.Url)
	listCmd.Flags().StringVarP(&getArgs.Type, "type", "", "", "only proposals of this type")
	listCmd.Flags().StringVarP(&getArgs.Status, "status", "", "", "only proposals with this status: voting, approved, disapproved or canceled")

	proposalCmd.AddCommand(registerCmd, cancelCmd, voteCmd, getCmd, listCmd)
}

func parseID(s string) ([]byte, error) {
	id, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil || len(id) == 0 {
		return nil, fmt.Errorf("invalid proposal id %q", s)
	}
	return id, nil
}

func parseVote(s string) (types.VoteType, error) {
	switch strings.ToLower(s) {
	case "agree", "1":
		return types.VoteAgree, nil
	case "disagree", "0":
		return types.VoteDisagree, nil
	}
	return 0, fmt.Errorf("invalid vote %q", s)
}

func parseStatus(s string) (types.ProposalStatus, error) {
	for st := types.ProposalStatusVoting; st.Valid(); st++ {
		if strings.EqualFold(st.String(), s) || fmt.Sprintf("%d", uint64(st)) == s {
			return st, nil
		}
	}
	return 0, fmt.Errorf("invalid status %q", s)
}

func registerRun(cmd *cobra.Command, args []string) error {
	typ, err := types.ParseProposalType(registerArgs.Type)
	if err != nil {
		return err
	}
	var value types.ProposalValue
	if err = json.Unmarshal([]byte(registerArgs.Value), &value); err != nil {
		return fmt.Errorf("invalid proposal value: %w", err)
	}
	body := tx.RegisterProposalTx{
		Title:       registerArgs.Title,
		Description: registerArgs.Description,
		Type:        typ,
		Value:       value,
	}
	return sendTx(context.Background(), &registerArgs.signerArguments, tx.GovTxTypeRegisterProposal, body)
}

func cancelRun(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return sendTx(context.Background(), &cancelArgs.signerArguments, tx.GovTxTypeCancelProposal, tx.CancelProposalTx{ID: id})
}

func voteRun(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	vote, err := parseVote(args[1])
	if err != nil {
		return err
	}
	return sendTx(context.Background(), &voteArgs.signerArguments, tx.GovTxTypeVoteProposal, tx.VoteProposalTx{ID: id, Vote: vote})
}

func getRun(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	dat, err := query(context.Background(), getArgs.Url, "/proposal/", id)
	if err != nil {
		return err
	}
	printJSON(dat)
	return nil
}

func listRun(cmd *cobra.Command, args []string) error {
	var filter app.ProposalFilter
	if getArgs.Type != "" {
		typ, err := types.ParseProposalType(getArgs.Type)
		if err != nil {
			return err
		}
		filter.Type = hexutil.EncodeUint64(uint64(typ))
	}
	if getArgs.Status != "" {
		st, err := parseStatus(getArgs.Status)
		if err != nil {
			return err
		}
		filter.Status = hexutil.EncodeUint64(uint64(st))
	}
	data, err := json.Marshal(filter)
	if err != nil {
		return err
	}
	dat, err := query(context.Background(), getArgs.Url, "/proposals/", data)
	if err != nil {
		return err
	}
	printJSON(dat)
	return nil
}
