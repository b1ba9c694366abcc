// rankcheck evaluates promotion rules against a roster file without the bot
// or a database. Useful for trying out a rule change before applying it.
//
// Usage:
//
//	rankcheck evaluate --roster roster.yaml --rules rules.txt --today 2024-03-01
//	rankcheck evaluate --roster roster.yaml --settings ranks.yaml -o json
//	rankcheck ignore --list "Alice, Bob" Carol
//	rankcheck rules rules.txt
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rankcheck",
		Short: "Check which clan members are due for promotion",
		Long: `rankcheck runs the same promotion rules the bot uses against a
YAML roster file and prints the members who are due for a rank-up.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(evaluateCmd())
	rootCmd.AddCommand(ignoreCmd())
	rootCmd.AddCommand(rulesCmd())
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
