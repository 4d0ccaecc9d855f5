// File: cmd/pick.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/selector-cli/internal/browser"
	"github.com/xkilldash9x/selector-cli/internal/observability"
	"github.com/xkilldash9x/selector-cli/internal/picker"
)

func newPickCmd(v *viper.Viper) *cobra.Command {
	var (
		inactive bool
		copySel  bool
	)

	pickCmd := &cobra.Command{
		Use:   "pick <url>",
		Short: "Open a browser tab and generate selectors for the elements you click",
		Long: `Pick opens url in Chrome. While picking is active, hovering highlights
elements and clicking one prints its selector and records it in the
history instead of following the click. Alt+Shift+S toggles picking.
Press Ctrl+C to finish.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			logger := observability.GetLogger()

			rec, cleanup, err := openRecorder(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			controller := picker.New(rec, logger, picker.WithActive(!inactive))
			if err := controller.Start(ctx); err != nil {
				return err
			}

			session, err := browser.NewSession(ctx, cfg.Browser, controller, logger)
			if err != nil {
				return err
			}
			defer session.Close()

			if err := session.Navigate(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "Click elements to generate selectors. Alt+Shift+S toggles picking, Ctrl+C finishes.")

			for {
				select {
				case <-ctx.Done():
					return nil
				case pick, ok := <-session.Picks():
					if !ok {
						logger.Info("Browser closed.")
						return nil
					}
					fmt.Fprintln(cmd.OutOrStdout(), pick.Selector)
					if copySel {
						if err := writeClipboard(pick.Selector); err != nil {
							logger.Warn("Failed to copy selector to clipboard.", zap.Error(err))
						}
					}
				}
			}
		},
	}

	flags := pickCmd.Flags()
	flags.BoolVar(&inactive, "inactive", false, "start with picking switched off")
	flags.BoolVar(&copySel, "copy", false, "copy each picked selector to the clipboard")
	flags.Bool("headless", false, "run the browser without a window")
	bindFlags(v, flags, map[string]string{"browser.headless": "headless"})
	return pickCmd
}
