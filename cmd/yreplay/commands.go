package main

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/sanity-io/litter"
	"github.com/spf13/cobra"
	"github.com/zeusync/crdt/internal/config"
	"github.com/zeusync/crdt/internal/core/observability/log"
	"github.com/zeusync/crdt/internal/injector"
	"github.com/zeusync/crdt/internal/replay"
)

type options struct {
	configPath string
	logLevel   string
	workers    int
	dump       bool
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "yreplay [scenario.yaml...]",
		Short: "Replay shared-type scenarios into fresh documents",
		Long: `yreplay applies the operations of each YAML scenario to its own document
and prints the resulting state, snapshot reads and change events as JSON.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "replica config file (YAML)")
	flags.StringVar(&opts.logLevel, "log-level", "", "override the configured log level")
	flags.IntVarP(&opts.workers, "workers", "w", 4, "scenarios replayed at once")
	flags.BoolVar(&opts.dump, "dump", false, "dump the item chain of every root to stderr")
	return cmd
}

func loadConfig(opts options) (*config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.LoadFile(opts.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func runReplay(cmd *cobra.Command, opts options, paths []string) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	logger := injector.ProvideLogger(cfg)
	defer func() { _ = logger.Sync() }()

	scenarios := make([]*replay.Scenario, 0, len(paths))
	for _, path := range paths {
		sc, err := replay.LoadScenarioFile(path)
		if err != nil {
			return err
		}
		scenarios = append(scenarios, sc)
	}

	results, err := replay.NewRunner(cfg, logger).RunAll(cmd.Context(), scenarios, opts.workers)
	if err != nil {
		logger.Error("replay failed", log.Error(err))
		return err
	}

	if opts.dump {
		dumpChains(cmd.ErrOrStderr(), results)
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func dumpChains(w io.Writer, results []*replay.Result) {
	for _, res := range results {
		for _, root := range slices.Sorted(maps.Keys(res.Chains)) {
			fmt.Fprintf(w, "# %s / %s\n%s\n", res.Name, root, litter.Sdump(res.Chains[root]))
		}
	}
}
