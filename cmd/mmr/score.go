package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/stake-plus/mmr-scorecard/src/dataset"
	"github.com/stake-plus/mmr-scorecard/src/mmr"
)

func filterFlags(cmd *cobra.Command, f *dataset.Filter) {
	cmd.Flags().StringVar(&f.Category, "category", "", "only this category")
	cmd.Flags().StringVar(&f.Group, "group", "", "only this category group")
	cmd.Flags().StringVarP(&f.Query, "query", "q", "", "match name or role")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func scoreCmd(opts *options) *cobra.Command {
	var (
		f      dataset.Filter
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Evaluate every profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.catalog()
			if err != nil {
				return err
			}
			entries := c.List(f)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), entries)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tCATEGORY\tOUTCOME\tROLLUP")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s %s\t%s\n", e.Profile.Name, e.Profile.Category,
					mmr.Icon(e.Evaluation.Outcome), e.Evaluation.Outcome, e.Evaluation.Category)
			}
			return tw.Flush()
		},
	}
	filterFlags(cmd, &f)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func explainCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "explain <name>",
		Short: "Show how one profile was scored",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.catalog()
			if err != nil {
				return err
			}
			e, err := c.Find(strings.Join(args, " "))
			if err != nil {
				return err
			}
			explain(cmd.OutOrStdout(), e)
			return nil
		},
	}
}

func explain(w io.Writer, e dataset.Entry) {
	ev := e.Evaluation
	fmt.Fprintf(w, "%s (%s, %s)\n", e.Profile.Name, e.Profile.Role, e.Profile.Category)
	fmt.Fprintf(w, "%s %s  [%s]\n", mmr.Icon(ev.Outcome), ev.Outcome, ev.Category)
	if ev.Reason != "" {
		fmt.Fprintf(w, "  %s\n", ev.Reason)
	}
	n := ev.Counts
	fmt.Fprintf(w, "  pass %d (strong %d)  partial %d  fail %d  missing %d\n",
		n.PassOrStrong, n.StrongPass, n.PartialOrMixed, n.Fails, n.Missing)
	fmt.Fprintf(w, "  priority: pass %d  partial %d  fail %d\n", n.PriorityPass, n.PriorityPartial, n.PriorityFails)
	if ev.Capped {
		fmt.Fprintln(w, "  capped by priority partials")
	}
	fmt.Fprintln(w)
	for _, p := range ev.Pillars {
		mark := " "
		if p.Priority {
			mark = "*"
		}
		assessment := p.Assessment
		if p.Missing {
			assessment = "(not assessed)"
		}
		fmt.Fprintf(w, " %s %-6s %-40s %s\n", mark, mmr.BandColor(p.Band), p.Pillar, assessment)
	}
}

func rollupCmd(opts *options) *cobra.Command {
	var (
		f      dataset.Filter
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "rollup",
		Short: "Aggregate outcomes per category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if f.Group != "" && f.Group != "all" && f.Group != dataset.OtherGroupID {
				if _, ok := dataset.LookupGroup(f.Group); !ok {
					return fmt.Errorf("unknown group %q", f.Group)
				}
			}
			c, err := opts.catalog()
			if err != nil {
				return err
			}
			r := c.Rollup(f)
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), r)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CATEGORY\tTOTAL\tPASS\tALMOST\tPARTIAL\tFAIL\tRATE\tLEVEL")
			for _, cs := range r.Categories {
				writeStats(tw, cs.Name, cs.Stats)
			}
			writeStats(tw, "Overall", r.Overall)
			return tw.Flush()
		},
	}
	filterFlags(cmd, &f)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func writeStats(w io.Writer, name string, s mmr.Statistics) {
	fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t%d%%\t%s\n", name, s.Total, s.Pass, s.AlmostPass, s.Partial, s.Fail, s.PassRate, s.Level)
}
