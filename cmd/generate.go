// File: cmd/generate.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/atotto/clipboard"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/selector-cli/internal/browser"
	"github.com/xkilldash9x/selector-cli/internal/config"
	"github.com/xkilldash9x/selector-cli/internal/fetch"
	"github.com/xkilldash9x/selector-cli/internal/observability"
	"github.com/xkilldash9x/selector-cli/internal/selector"
)

// writeClipboard is swapped out in tests.
var writeClipboard = clipboard.WriteAll

// generated is one output record of `generate`.
type generated struct {
	Source      string `json:"source"`
	Selector    string `json:"selector"`
	Matches     *int   `json:"matches,omitempty"`
	Unique      *bool  `json:"unique,omitempty"`
	VerifyError string `json:"verify_error,omitempty"`
}

type generateOptions struct {
	css    string
	xpath  string
	all    bool
	record bool
	copy   bool
	render bool
	format string
}

func newGenerateCmd(v *viper.Viper) *cobra.Command {
	var opts generateOptions

	generateCmd := &cobra.Command{
		Use:   "generate [sources...]",
		Short: "Generate selectors for elements of HTML documents",
		Long: `Generate loads each source (a file, an http(s) URL, or "-" for stdin),
finds the target elements with --select or --xpath, and prints the
selector synthesized for each of them. Without sources it reads stdin.`,
		Example: `  selector-cli generate page.html --select "button.buy"
  curl -s https://example.com | selector-cli generate --xpath "//a[1]"
  selector-cli generate https://example.com --select h1 --verify --record`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			if (opts.css == "") == (opts.xpath == "") {
				return errors.New("exactly one of --select or --xpath is required")
			}
			if opts.format != "text" && opts.format != "json" {
				return fmt.Errorf("unsupported format %q (want text or json)", opts.format)
			}
			if len(args) == 0 {
				args = []string{fetch.Stdin}
			}
			// Every source is loaded concurrently and stdin can be read only once.
			if countStdin(args) > 1 {
				return errors.New(`stdin ("-") can only be given once`)
			}
			return runGenerate(cmd, cfg, opts, args)
		},
	}

	flags := generateCmd.Flags()
	flags.StringVar(&opts.css, "select", "", "CSS selector of the target elements")
	flags.StringVar(&opts.xpath, "xpath", "", "XPath expression of the target elements")
	flags.BoolVar(&opts.all, "all", false, "generate for every match instead of the first")
	flags.Bool("verify", false, "check that each selector matches exactly one element")
	flags.BoolVar(&opts.record, "record", false, "add the selectors to the history")
	flags.BoolVar(&opts.copy, "copy", false, "copy the last selector to the clipboard")
	flags.BoolVar(&opts.render, "render", false, "render URLs in a headless browser before parsing")
	flags.StringVarP(&opts.format, "format", "f", "text", "output format: text or json")
	flags.Int("concurrency", 0, "number of sources loaded in parallel")
	bindFlags(v, flags, map[string]string{
		"generate.verify":      "verify",
		"generate.concurrency": "concurrency",
	})
	return generateCmd
}

func countStdin(sources []string) int {
	n := 0
	for _, s := range sources {
		if s == fetch.Stdin {
			n++
		}
	}
	return n
}

func runGenerate(cmd *cobra.Command, cfg *config.Config, opts generateOptions, sources []string) error {
	ctx := cmd.Context()
	logger := observability.GetLogger().Named("generate")

	loader := fetch.NewLoader(cfg.Fetch, logger)
	loader.Stdin = cmd.InOrStdin()
	if opts.render {
		loader.Render = func(ctx context.Context, url string) (string, error) {
			return browser.Render(ctx, cfg.Browser, url, logger)
		}
	}
	query := selector.Query{CSS: opts.css, XPath: opts.xpath}

	results := make([][]generated, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Generate.Concurrency)
	for i, source := range sources {
		g.Go(func() error {
			out, err := generateFor(gctx, loader, query, source, opts.all, cfg.Generate.Verify, logger)
			if err != nil {
				return err
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var all []generated
	for _, r := range results {
		all = append(all, r...)
	}
	if err := writeGenerated(cmd.OutOrStdout(), all, opts.format); err != nil {
		return err
	}

	if opts.record {
		rec, cleanup, err := openRecorder(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer cleanup()
		for _, r := range all {
			if _, err := rec.Record(ctx, r.Selector); err != nil {
				return err
			}
		}
	}

	if opts.copy && len(all) > 0 {
		last := all[len(all)-1].Selector
		if err := writeClipboard(last); err != nil {
			return fmt.Errorf("failed to copy selector to clipboard: %w", err)
		}
		logger.Info("Selector copied to clipboard.", zap.String("selector", last))
	}
	return nil
}

func generateFor(ctx context.Context, loader *fetch.Loader, query selector.Query, source string, all, verify bool, logger *zap.Logger) ([]generated, error) {
	doc, err := loader.Load(ctx, source)
	if err != nil {
		return nil, err
	}
	nodes, err := query.Find(doc.Root)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%s: no element matches the query", source)
	}
	if !all {
		nodes = nodes[:1]
	}

	out := make([]generated, 0, len(nodes))
	for _, n := range nodes {
		r := generated{Source: source, Selector: selector.SynthesizeHTML(n)}
		if r.Selector == "" {
			logger.Warn("Target is the body element; its selector is empty.", zap.String("source", source))
		}
		if verify && r.Selector != "" {
			count, err := selector.Verify(doc.Root, r.Selector)
			if err != nil {
				r.VerifyError = err.Error()
				logger.Warn("Could not verify selector.", zap.String("selector", r.Selector), zap.Error(err))
			} else {
				unique := count == 1
				r.Matches, r.Unique = &count, &unique
				if !unique {
					logger.Warn("Selector is not unique.", zap.String("selector", r.Selector), zap.Int("matches", count))
				}
			}
		}
		out = append(out, r)
	}
	return out, nil
}

func writeGenerated(w io.Writer, results []generated, format string) error {
	if format == "json" {
		enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w)
		for _, r := range results {
			if err := enc.Encode(r); err != nil {
				return err
			}
		}
		return nil
	}
	for _, r := range results {
		if _, err := fmt.Fprintln(w, r.Selector); err != nil {
			return err
		}
	}
	return nil
}
