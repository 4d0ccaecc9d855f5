// Package fetch loads HTML documents from files, standard input or HTTP.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/selector-cli/internal/config"
)

// ErrHTTPStatus is returned for non-2xx responses.
var ErrHTTPStatus = errors.New("unexpected HTTP status")

// ErrBodyTooLarge is returned when a document exceeds fetch.max_body_bytes.
var ErrBodyTooLarge = errors.New("document exceeds size limit")

// Stdin is the source name that reads from standard input.
const Stdin = "-"

// Document is a parsed HTML page.
type Document struct {
	Source string
	Root   *html.Node
}

// RenderFunc returns the HTML of a page after it has run in a browser.
type RenderFunc func(ctx context.Context, url string) (string, error)

// Loader fetches and parses documents. It is safe for concurrent use; all
// HTTP requests share one rate limiter.
type Loader struct {
	client  *http.Client
	limiter *rate.Limiter
	cfg     config.FetchConfig
	logger  *zap.Logger

	// Stdin is read for the "-" source. Defaults to os.Stdin.
	Stdin io.Reader
	// Render, when set, replaces plain HTTP for http(s) sources.
	Render RenderFunc
}

// NewLoader returns a Loader configured by cfg.
func NewLoader(cfg config.FetchConfig, logger *zap.Logger) *Loader {
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	return &Loader{
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: newCompressionTransport(http.DefaultTransport.(*http.Transport).Clone()),
		},
		limiter: rate.NewLimiter(limit, burst),
		cfg:     cfg,
		logger:  logger.Named("fetch"),
		Stdin:   os.Stdin,
	}
}

// Load reads source and parses it as HTML.
func (l *Loader) Load(ctx context.Context, source string) (*Document, error) {
	var (
		body io.ReadCloser
		err  error
	)
	switch {
	case source == Stdin:
		body = io.NopCloser(l.Stdin)
	case isURL(source) && l.Render != nil:
		return l.loadRendered(ctx, source)
	case isURL(source):
		body, err = l.get(ctx, source)
	default:
		body, err = openFile(source)
	}
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var r io.Reader = body
	if l.cfg.MaxBodyBytes > 0 {
		// One byte over the limit distinguishes "exactly at" from "beyond".
		r = io.LimitReader(body, l.cfg.MaxBodyBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", source, err)
	}
	if l.cfg.MaxBodyBytes > 0 && int64(len(data)) > l.cfg.MaxBodyBytes {
		return nil, fmt.Errorf("%w: %s is larger than %d bytes", ErrBodyTooLarge, source, l.cfg.MaxBodyBytes)
	}
	return parse(source, bytes.NewReader(data))
}

func (l *Loader) loadRendered(ctx context.Context, source string) (*Document, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	l.logger.Debug("Rendering document.", zap.String("url", source))
	outer, err := l.Render(ctx, source)
	if err != nil {
		return nil, err
	}
	return parse(source, strings.NewReader(outer))
}

func (l *Loader) get(ctx context.Context, url string) (io.ReadCloser, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", url, err)
	}
	for k, v := range l.cfg.Headers {
		req.Header.Set(k, v)
	}
	if l.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", l.cfg.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	l.logger.Debug("Fetching document.", zap.String("url", url))
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s returned %d", ErrHTTPStatus, url, resp.StatusCode)
	}
	return resp.Body, nil
}

func openFile(path string) (io.ReadCloser, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("failed to expand path %q: %w", path, err)
	}
	f, err := os.Open(expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return f, nil
}

func parse(source string, r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", source, err)
	}
	return &Document{Source: source, Root: root}, nil
}

func isURL(source string) bool {
	lower := strings.ToLower(source)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
