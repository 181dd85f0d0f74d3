package booklet

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// chromedpProducer prints pages with Chrome driven by chromedp. CHROME_PATH
// selects the binary.
type chromedpProducer struct {
	timeout time.Duration

	browserCtx    context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc
}

func newChromedpProducer(timeout time.Duration) *chromedpProducer {
	return &chromedpProducer{timeout: timeout}
}

func (p *chromedpProducer) ensureBrowser() error {
	if p.browserCtx != nil {
		return nil
	}

	bin := os.Getenv("CHROME_PATH")
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("no-first-run", true),
	)
	if bin != "" {
		opts = append(opts, chromedp.ExecPath(bin))
	}
	if noSandbox(bin) {
		opts = append(opts, chromedp.NoSandbox)
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	// Start the browser now so launch failures surface here.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	p.browserCtx, p.cancelBrowser, p.cancelAlloc = browserCtx, cancelBrowser, cancelAlloc
	return nil
}

func (p *chromedpProducer) Produce(ctx context.Context, htmlPath, pdfPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.ensureBrowser(); err != nil {
		return err
	}

	url, err := fileURL(htmlPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	timeout, err := loadTimeout(ctx, p.timeout)
	if err != nil {
		return err
	}

	tabCtx, cancelTab := chromedp.NewContext(p.browserCtx)
	defer cancelTab()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, timeout)
	defer cancelTimeout()
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	var data []byte
	err = chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			data, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", ErrPDFGeneration, err)
	}
	return writePDF(pdfPath, data)
}

func (p *chromedpProducer) Close() error {
	if p.browserCtx == nil {
		return nil
	}
	p.cancelBrowser()
	p.cancelAlloc()
	p.browserCtx, p.cancelBrowser, p.cancelAlloc = nil, nil, nil
	return nil
}
