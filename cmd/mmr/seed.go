package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stake-plus/mmr-scorecard/src/config"
	"github.com/stake-plus/mmr-scorecard/src/data"
)

func seedCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Write the dataset into the configured database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			base := config.LoadBase()
			if !base.HasDB() {
				return fmt.Errorf("no database configured; set DB_DSN")
			}
			ds, err := opts.dataset()
			if err != nil {
				return err
			}
			log := opts.logger()
			defer func() { _ = log.Sync() }()
			db, err := data.Connect(base.DBDriver, base.DSN, log)
			if err != nil {
				return err
			}
			n, err := data.SeedProfiles(cmd.Context(), db, ds.Profiles)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d profiles\n", n)
			return nil
		},
	}
}
