package main

import (
	"fmt"
	"io"
	"os"

	"clan_rank_notifier/internal/domain/promotion"

	"github.com/spf13/cobra"
)

func rulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules FILE",
		Short: "Validate a rules file and print the parsed rules",
		Long: `Parse a days=rank rules file the way the bot does and print the
rules it keeps, lowest threshold first. Use - to read from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				raw []byte
				err error
			)
			if args[0] == "-" {
				raw, err = io.ReadAll(cmd.InOrStdin())
			} else {
				raw, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("failed to read rules: %w", err)
			}

			table := promotion.ParseRules(string(raw))
			if table.Len() == 0 {
				return fmt.Errorf("no valid days=rank rules found")
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), table.String())
			return err
		},
	}
}
