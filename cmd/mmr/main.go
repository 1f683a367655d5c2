// Command mmr scores profiles against the MMR rules and chats with the
// query endpoint from a terminal.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stake-plus/mmr-scorecard/src/config"
	"github.com/stake-plus/mmr-scorecard/src/dataset"
	"github.com/stake-plus/mmr-scorecard/src/logging"
	"github.com/stake-plus/mmr-scorecard/src/mmr"
)

type options struct {
	rulesPath   string
	datasetPath string
	logLevel    string
}

func main() {
	if err := config.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "mmr",
		Short:         "Mutual Moral Respect scorecards",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.rulesPath, "rules", os.Getenv("MMR_RULES"), "rules file (.json or .yaml); embedded v8 rules when empty")
	root.PersistentFlags().StringVar(&opts.datasetPath, "dataset", os.Getenv("MMR_DATASET"), "profiles file; bundled dataset when empty")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level")

	root.AddCommand(
		scoreCmd(opts),
		explainCmd(opts),
		rollupCmd(opts),
		rulesCmd(opts),
		chatCmd(opts),
		seedCmd(opts),
	)
	return root
}

func (o *options) engine() (*mmr.Engine, error) {
	if o.rulesPath == "" {
		return mmr.DefaultEngine(), nil
	}
	rules, err := mmr.LoadRules(o.rulesPath)
	if err != nil {
		return nil, err
	}
	return mmr.NewEngine(rules)
}

func (o *options) dataset() (*dataset.Dataset, error) {
	if o.datasetPath == "" {
		return dataset.Default(), nil
	}
	return dataset.Load(o.datasetPath)
}

func (o *options) catalog() (*dataset.Catalog, error) {
	engine, err := o.engine()
	if err != nil {
		return nil, err
	}
	ds, err := o.dataset()
	if err != nil {
		return nil, err
	}
	return dataset.NewCatalog(engine, ds.Profiles), nil
}

func (o *options) logger() *zap.Logger {
	log, err := logging.New(o.logLevel, "console")
	if err != nil {
		return zap.NewNop()
	}
	return log
}
