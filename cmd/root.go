// File: cmd/root.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/selector-cli/internal/config"
	"github.com/xkilldash9x/selector-cli/internal/history"
	"github.com/xkilldash9x/selector-cli/internal/observability"
	"github.com/xkilldash9x/selector-cli/internal/store"
)

type contextKey string

const configKey contextKey = "config"

// NewRootCommand builds a fresh command tree. Every invocation gets its own
// viper instance so flags from one run never leak into the next.
func NewRootCommand() *cobra.Command {
	var cfgFile string
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:   "selector-cli",
		Short: "Generate CSS selectors for elements of a web page.",
		Long: `selector-cli turns an element of a web page into a CSS selector.
Selectors are generated from HTML files, URLs or a live browser tab where
you click the element you want, and the most recent ones are kept in a
small history.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Configure(v, cfgFile); err != nil {
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}
			cfg, err := config.NewConfigFromViper(v)
			if err != nil {
				observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "selector-cli"})
				return fmt.Errorf("failed to load or validate config: %w", err)
			}

			observability.InitializeLogger(cfg.Logger)
			observability.GetLogger().Debug("Starting selector-cli", zap.String("version", Version), zap.String("command", cmd.CommandPath()))

			cmd.SetContext(context.WithValue(cmd.Context(), configKey, cfg))
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	flags.String("backend", config.BackendFile, "state backend: file, postgres or memory")
	flags.String("state", "", "state file for the file backend")
	flags.String("journal", "", "journal file followed by `history watch` (empty disables)")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
	bindFlags(v, flags, map[string]string{
		"history.backend": "backend",
		"history.path":    "state",
		"history.journal": "journal",
		"logger.level":    "log-level",
	})

	rootCmd.SetVersionTemplate(`{{printf "%s version %s\n" .Name .Version}}`)

	rootCmd.AddCommand(newGenerateCmd(v))
	rootCmd.AddCommand(newPickCmd(v))
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newStateCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// Execute runs the command tree with ctx, logging any failure.
func Execute(ctx context.Context) error {
	defer observability.Sync()

	err := NewRootCommand().ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		observability.GetLogger().Info("Command aborted.")
		return err
	}
	observability.GetLogger().Error("Command execution failed", zap.Error(err))
	fmt.Fprintln(os.Stderr, "Error:", err)
	return err
}

// bindFlags maps viper keys to flags. Flags only override config and
// environment values when explicitly set.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if f := flags.Lookup(name); f != nil {
			_ = v.BindPFlag(key, f)
		}
	}
}

// configFrom returns the configuration stored by PersistentPreRunE.
func configFrom(cmd *cobra.Command) (*config.Config, error) {
	cfg, ok := cmd.Context().Value(configKey).(*config.Config)
	if !ok || cfg == nil {
		return nil, errors.New("configuration not initialized")
	}
	return cfg, nil
}

// openRecorder opens the configured store and journal. The returned
// function releases both.
func openRecorder(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*history.Recorder, func(), error) {
	st, err := store.Open(ctx, cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open state store: %w", err)
	}

	var journal *history.Journal
	if cfg.History.Journal != "" {
		journal, err = history.OpenJournal(cfg.History.Journal)
		if err != nil {
			st.Close()
			return nil, nil, err
		}
	}

	cleanup := func() {
		if journal != nil {
			if err := journal.Close(); err != nil {
				logger.Debug("Failed to close journal.", zap.Error(err))
			}
		}
		if err := st.Close(); err != nil {
			logger.Debug("Failed to close state store.", zap.Error(err))
		}
	}
	return history.NewRecorder(st, journal, cfg.History.Capacity, logger), cleanup, nil
}
