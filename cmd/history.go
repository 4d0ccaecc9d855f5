// File: cmd/history.go
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/selector-cli/internal/history"
	"github.com/xkilldash9x/selector-cli/internal/observability"
)

func newHistoryCmd() *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show and manage recently generated selectors",
	}
	historyCmd.AddCommand(
		newHistoryListCmd(),
		newHistoryLastCmd(),
		newHistoryClearCmd(),
		newHistoryExportCmd(),
		newHistoryCopyCmd(),
		newHistoryWatchCmd(),
	)
	return historyCmd
}

func newHistoryListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the selector history, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := snapshot(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(st.History) == 0 {
				fmt.Fprintln(out, "No selectors recorded.")
				return nil
			}
			for i, s := range st.History {
				fmt.Fprintf(out, "%2d  %s\n", i+1, s)
			}
			return nil
		},
	}
}

func newHistoryLastCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "last",
		Short: "Print the last generated selector",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := snapshot(cmd)
			if err != nil {
				return err
			}
			if st.LastSelector == "" {
				return errors.New("no selector has been generated yet")
			}
			fmt.Fprintln(cmd.OutOrStdout(), st.LastSelector)
			return nil
		},
	}
}

func newHistoryClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the selector history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
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

			if _, err := rec.Clear(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
			return nil
		},
	}
}

func newHistoryExportCmd() *cobra.Command {
	var format, output string
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write the selector history as text, JSON or XML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := snapshot(cmd)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				return history.Export(cmd.OutOrStdout(), st.History, format)
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", output, err)
			}
			if err := history.Export(f, st.History, format); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}
	exportCmd.Flags().StringVarP(&format, "format", "f", history.FormatText, "export format: text, json or xml")
	exportCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return exportCmd
}

func newHistoryCopyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "copy [rank]",
		Short: "Copy a selector from the history to the clipboard (default the most recent)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rank := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 1 {
					return fmt.Errorf("rank must be a positive integer, got %q", args[0])
				}
				rank = n
			}

			st, err := snapshot(cmd)
			if err != nil {
				return err
			}
			if rank > len(st.History) {
				return fmt.Errorf("history has %d entries, no rank %d", len(st.History), rank)
			}

			sel := st.History[rank-1]
			if err := writeClipboard(sel); err != nil {
				return fmt.Errorf("failed to copy selector to clipboard: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Copied: %s\n", sel)
			return nil
		},
	}
}

func newHistoryWatchCmd() *cobra.Command {
	var (
		fromStart bool
		poll      bool
		format    string
	)
	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow changes to the selector history as they happen",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			if cfg.History.Journal == "" {
				return errors.New("history.journal is not configured")
			}

			w := history.NewWatcher(observability.GetLogger(), cfg.History.Journal)
			w.FromStart = fromStart
			w.Poll = poll
			events, err := w.Watch(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(out)
			for ev := range events {
				if format == "json" {
					if err := enc.Encode(ev); err != nil {
						return err
					}
					continue
				}
				fmt.Fprintln(out, describeEvent(ev))
			}
			return nil
		},
	}
	watchCmd.Flags().BoolVar(&fromStart, "from-start", false, "replay the whole journal before following it")
	watchCmd.Flags().BoolVar(&poll, "poll", false, "poll the journal instead of using file system notifications")
	watchCmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text or json")
	return watchCmd
}

func describeEvent(ev history.Event) string {
	at := ev.At.Local().Format(time.DateTime)
	switch ev.Type {
	case history.EventSelectorUpdated:
		return fmt.Sprintf("%s  selector  %s", at, ev.Selector)
	case history.EventHistoryCleared:
		return fmt.Sprintf("%s  cleared", at)
	case history.EventStateChanged:
		return fmt.Sprintf("%s  %s", at, activeLabel(ev.Active))
	}
	return fmt.Sprintf("%s  %s", at, ev.Type)
}
