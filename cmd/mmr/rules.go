package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/stake-plus/mmr-scorecard/src/mmr"
)

func rulesCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect and validate rule sets",
	}
	cmd.AddCommand(rulesValidateCmd(), rulesShowCmd(opts))
	return cmd
}

func rulesValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a rules file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := mmr.LoadRules(args[0])
			if err != nil {
				return err
			}
			if err := rules.Validate(); err != nil {
				var ve *mmr.ValidationError
				if errors.As(err, &ve) {
					for _, p := range ve.Problems {
						fmt.Fprintf(cmd.ErrOrStderr(), "  - %s\n", p)
					}
					return fmt.Errorf("%s: %d problem(s)", args[0], len(ve.Problems))
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d pillars, %d outcome levels)\n", args[0], len(rules.Pillars), len(rules.OutcomeLevels))
			return nil
		},
	}
}

func rulesShowCmd(opts *options) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the active rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, err := opts.engine()
			if err != nil {
				return err
			}
			switch format {
			case "json":
				return writeJSON(cmd.OutOrStdout(), engine.Rules())
			case "yaml":
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent(2)
				defer enc.Close()
				return enc.Encode(engine.Rules())
			}
			return fmt.Errorf("unknown format %q", format)
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "json or yaml")
	return cmd
}
