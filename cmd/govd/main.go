package main

import (
	"fmt"
	"os"
)

func main() {
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(accountCmd)
	rootCmd.AddCommand(validatorsCmd)
	rootCmd.AddCommand(networkCmd)
	rootCmd.AddCommand(proposalCmd)
	rootCmd.AddCommand(pubkeyCmd)
	rootCmd.AddCommand(versionCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
