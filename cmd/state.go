package cmd

import (
	"fmt"

	"github.com/ethanolivertroy/antimirror/internal/config"
	"github.com/ethanolivertroy/antimirror/internal/state"
	"github.com/spf13/cobra"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect persisted state",
}

var stateShowCmd = &cobra.Command{
	Use:   "show [key]",
	Short: "Print the keys stored in a state record",
	Long: `show prints every key stored under a record, one per line. The default
record holds reported findings (repository:path); the record with the
":forks" suffix holds forks already acted on.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStateShow,
}

func init() {
	stateCmd.AddCommand(stateShowCmd)
}

func runStateShow(cmd *cobra.Command, args []string) error {
	cfg, log, _, err := setup(cmd, config.ScopeState, nil)
	if err != nil {
		return err
	}

	key := cfg.State.Key
	if len(args) == 1 {
		key = args[0]
	}

	ctx := cmd.Context()
	store, err := state.Open(ctx, cfg.State, log)
	if err != nil {
		return err
	}
	defer store.Close()

	set, err := store.Load(ctx, key)
	if err != nil {
		return err
	}
	for _, k := range set.Keys() {
		fmt.Fprintln(cmd.OutOrStdout(), k)
	}
	return nil
}
