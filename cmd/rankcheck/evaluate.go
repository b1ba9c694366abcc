package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"clan_rank_notifier/internal/domain/promotion"
	"clan_rank_notifier/internal/domain/settings"
	"clan_rank_notifier/internal/infra/settingsfile"

	"github.com/spf13/cobra"
	yaml "go.yaml.in/yaml/v3"
)

type evaluateOptions struct {
	rosterFile   string
	rulesFile    string
	settingsFile string
	eligible     string
	ignored      string
	today        string
	output       string
}

type dueOutput struct {
	Name        string `json:"name" yaml:"name"`
	DaysElapsed int    `json:"days_elapsed" yaml:"days_elapsed"`
	TargetRank  string `json:"target_rank" yaml:"target_rank"`
	CurrentRank string `json:"current_rank" yaml:"current_rank"`
}

type evaluateOutput struct {
	Date  string      `json:"date" yaml:"date"`
	Rules int         `json:"rules" yaml:"rules"`
	Due   []dueOutput `json:"due" yaml:"due"`
}

func evaluateCmd() *cobra.Command {
	opts := &evaluateOptions{}
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "List roster members due for promotion",
		Long: `Evaluate the promotion rules against a roster file.

Settings are taken from the built-in defaults, then from --settings (the
same YAML file the bot can watch), then from --rules, --eligible and
--ignored when given.

Examples:
  # Check with the default rules as of today
  rankcheck evaluate --roster roster.yaml

  # Try new rules for a fixed date, as JSON
  rankcheck evaluate --roster roster.yaml --rules rules.txt --today 2024-03-01 -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEvaluate(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.rosterFile, "roster", "r", "", "YAML roster file (required)")
	cmd.Flags().StringVar(&opts.rulesFile, "rules", "", "File with one days=rank rule per line")
	cmd.Flags().StringVarP(&opts.settingsFile, "settings", "s", "", "YAML settings file")
	cmd.Flags().StringVar(&opts.eligible, "eligible", "", "Comma-separated ranks to check (empty = all)")
	cmd.Flags().StringVar(&opts.ignored, "ignored", "", "Comma-separated member names to skip")
	cmd.Flags().StringVar(&opts.today, "today", "", "Evaluation date, YYYY-MM-DD (default: today)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "table", "Output format: table, json, yaml")
	_ = cmd.MarkFlagRequired("roster")

	return cmd
}

func resolveSettings(cmd *cobra.Command, opts *evaluateOptions) (settings.Settings, error) {
	st := settings.Defaults()
	if opts.settingsFile != "" {
		f, err := settingsfile.Load(opts.settingsFile)
		if err != nil {
			return st, fmt.Errorf("failed to load settings: %w", err)
		}
		f.Apply(&st)
	}
	if opts.rulesFile != "" {
		raw, err := os.ReadFile(opts.rulesFile)
		if err != nil {
			return st, fmt.Errorf("failed to read rules: %w", err)
		}
		st.Rules = string(raw)
	}
	if cmd.Flags().Changed("eligible") {
		st.EligibleRanks = opts.eligible
	}
	if cmd.Flags().Changed("ignored") {
		st.IgnoredUsers = opts.ignored
	}
	return st, nil
}

func runEvaluate(cmd *cobra.Command, opts *evaluateOptions) error {
	st, err := resolveSettings(cmd, opts)
	if err != nil {
		return err
	}

	today := promotion.DateOf(time.Now())
	if opts.today != "" {
		t, err := time.Parse("2006-01-02", opts.today)
		if err != nil {
			return fmt.Errorf("invalid --today: %w", err)
		}
		today = t
	}

	members, warnings, err := loadRoster(opts.rosterFile)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
	}

	snap := promotion.Compile(st)
	if snap.Rules.Len() == 0 {
		return fmt.Errorf("no valid days=rank rules configured")
	}
	res := snap.Evaluate(members, today, promotion.NewNotificationState())

	out := evaluateOutput{
		Date:  today.Format("2006-01-02"),
		Rules: snap.Rules.Len(),
		Due:   make([]dueOutput, 0, len(res.Due)),
	}
	for _, d := range res.Due {
		out.Due = append(out.Due, dueOutput(d))
	}
	return writeEvaluate(cmd.OutOrStdout(), out, opts.output)
}

func writeEvaluate(w io.Writer, out evaluateOutput, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(out)
	case "table":
		if len(out.Due) == 0 {
			_, err := fmt.Fprintf(w, "No promotions due on %s.\n", out.Date)
			return err
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tDAYS\tCURRENT\tNEXT")
		for _, d := range out.Due {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", d.Name, d.DaysElapsed, d.CurrentRank, d.TargetRank)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format %q (use table, json or yaml)", format)
	}
}
