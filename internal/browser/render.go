// internal/browser/render.go
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/selector-cli/internal/config"
)

// Render loads url in a headless browser and returns the outer HTML of the
// document after scripts have run.
func Render(ctx context.Context, cfg config.BrowserConfig, url string, logger *zap.Logger) (string, error) {
	cfg.Headless = true
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, AllocatorOptions(cfg)...)
	defer allocCancel()
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)
	defer tabCancel()

	timeout := cfg.NavigationTimeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	runCtx, cancel := context.WithTimeout(tabCtx, timeout)
	defer cancel()

	logger.Named("browser").Debug("Rendering page.", zap.String("url", url))
	var outer string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &outer, chromedp.ByQuery),
	)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("failed to render %s: %w", url, err)
	}
	return outer, nil
}
