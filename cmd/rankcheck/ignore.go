package main

import (
	"fmt"

	"clan_rank_notifier/internal/domain/promotion"

	"github.com/spf13/cobra"
)

func ignoreCmd() *cobra.Command {
	var list string
	cmd := &cobra.Command{
		Use:   "ignore NAME",
		Short: "Print an ignore list with NAME added",
		Long: `Add a member to a comma-separated ignore list and print the result.
The name is not added again if it is already on the list in any letter case.

Example:
  rankcheck ignore --list "Alice, Bob" Carol`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), promotion.AddIgnored(list, args[0]))
			return err
		},
	}
	cmd.Flags().StringVarP(&list, "list", "l", "", "Current comma-separated ignore list")
	return cmd
}
