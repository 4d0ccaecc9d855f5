// File: cmd/state.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/selector-cli/internal/observability"
	"github.com/xkilldash9x/selector-cli/internal/store"
)

func newStateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "state [on|off]",
		Short:     "Show or set the persisted picker activation flag",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				st, err := snapshot(cmd)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), activeLabel(st.Active))
				return nil
			}

			ctx := cmd.Context()
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			rec, cleanup, err := openRecorder(ctx, cfg, observability.GetLogger())
			if err != nil {
				return err
			}
			defer cleanup()

			st, err := rec.SetActive(ctx, args[0] == "on")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), activeLabel(st.Active))
			return nil
		},
	}
}

// snapshot loads the persisted state for read-only commands.
func snapshot(cmd *cobra.Command) (store.State, error) {
	ctx := cmd.Context()
	cfg, err := configFrom(cmd)
	if err != nil {
		return store.State{}, err
	}
	st, err := store.Open(ctx, cfg, observability.GetLogger())
	if err != nil {
		return store.State{}, fmt.Errorf("failed to open state store: %w", err)
	}
	defer st.Close()

	state, err := st.Load(ctx)
	if err != nil {
		return store.State{}, fmt.Errorf("failed to load picker state: %w", err)
	}
	return state, nil
}

func activeLabel(active bool) string {
	if active {
		return "active"
	}
	return "inactive"
}
