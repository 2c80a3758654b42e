package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// ChromePDF prints HTML to PDF through a remote headless Chrome reached at
// its DevTools URL.
type ChromePDF struct {
	url     string
	timeout time.Duration
	logger  *slog.Logger
}

// NewChromePDF returns a renderer for the DevTools endpoint at url
// (ws://host:9222 or http://host:9222).
func NewChromePDF(url string, timeout time.Duration, logger *slog.Logger) *ChromePDF {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ChromePDF{url: url, timeout: timeout, logger: logger}
}

// RenderPDF loads html into a fresh tab and prints it on A4 with
// backgrounds.
func (c *ChromePDF) RenderPDF(ctx context.Context, html []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	allocCtx, cancelAlloc := chromedp.NewRemoteAllocator(ctx, c.url)
	defer cancelAlloc()
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	start := time.Now()
	var pdf []byte
	err := chromedp.Run(tabCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return fmt.Errorf("get frame tree: %w", err)
			}
			return page.SetDocumentContent(tree.Frame.ID, string(html)).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				Do(ctx)
			if err != nil {
				return fmt.Errorf("print to pdf: %w", err)
			}
			pdf = data
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}

	c.logger.DebugContext(ctx, "pdf rendered",
		slog.Int("bytes", len(pdf)),
		slog.Duration("duration", time.Since(start)),
	)
	return pdf, nil
}
