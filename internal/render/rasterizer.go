package render

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"factiliza-proxy-go/internal/config"
)

// captureSelector is the element whose box is captured. Cropping to it drops
// the empty viewport around a fixed-width card.
const captureSelector = "body"

// Rasterizer converts an HTML document to PNG bytes.
type Rasterizer interface {
	Rasterize(ctx context.Context, html string) ([]byte, error)
}

// ChromeRasterizer renders HTML in a headless Chromium launched per call.
type ChromeRasterizer struct {
	execPath string
	timeout  time.Duration
	logger   *slog.Logger
}

// NewChromeRasterizer creates a ChromeRasterizer from render settings.
func NewChromeRasterizer(cfg *config.Config, logger *slog.Logger) *ChromeRasterizer {
	return &ChromeRasterizer{
		execPath: cfg.Render.ChromePath,
		timeout:  time.Duration(cfg.Render.TimeoutSeconds) * time.Second,
		logger:   logger.With("component", "chrome_rasterizer"),
	}
}

// allocatorOptions returns the Chromium flags. Sandboxing is disabled so the
// browser can run as root inside containers.
func (r *ChromeRasterizer) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.Flag("disable-setuid-sandbox", true),
	)
	if r.execPath != "" {
		opts = append(opts, chromedp.ExecPath(r.execPath))
	}
	return opts
}

// Rasterize loads html into a blank page and captures the body element as PNG.
func (r *ChromeRasterizer) Rasterize(ctx context.Context, html string) ([]byte, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, r.allocatorOptions()...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(r.logf(slog.LevelDebug)),
		chromedp.WithErrorf(r.logf(slog.LevelWarn)),
	)
	defer cancelBrowser()

	var buf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady(captureSelector, chromedp.ByQuery),
		chromedp.Screenshot(captureSelector, &buf, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("chromium screenshot: %w", err)
	}

	r.logger.Debug("rasterized document", "bytes", len(buf))
	return buf, nil
}

func (r *ChromeRasterizer) logf(level slog.Level) func(string, ...any) {
	return func(format string, args ...any) {
		r.logger.Log(context.Background(), level, fmt.Sprintf(format, args...))
	}
}
