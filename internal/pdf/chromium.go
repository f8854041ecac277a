package pdf

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// A4 in inches, as expected by the DevTools print API.
const (
	a4Width  = 8.27
	a4Height = 11.69
)

// Chromium prints HTML through a headless Chrome, so the PDF matches what a
// browser shows for the same advice.
type Chromium struct {
	execPath string
	timeout  time.Duration
}

func NewChromium(execPath string, timeout time.Duration) *Chromium {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Chromium{execPath: execPath, timeout: timeout}
}

func (c *Chromium) Convert(ctx context.Context, html string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.NoSandbox)
	if c.execPath != "" {
		opts = append(opts, chromedp.ExecPath(c.execPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var out []byte

	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}

			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error

			out, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(a4Width).
				WithPaperHeight(a4Height).
				Do(ctx)

			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("printing pdf: %w", err)
	}

	return out, nil
}
