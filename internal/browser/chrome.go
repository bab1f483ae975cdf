package browser

import (
	"context"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"sjsage522/auctionwatcher/helpers"
	"sjsage522/auctionwatcher/internal/extract"
	"sjsage522/auctionwatcher/logger"
	apperrors "sjsage522/auctionwatcher/pkg/errors"
)

// stealthScript hides the most common automation fingerprints.
const stealthScript = `
Object.defineProperty(navigator, 'webdriver', {get: () => undefined});
Object.defineProperty(navigator, 'plugins', {get: () => [1, 2, 3, 4, 5]});
Object.defineProperty(navigator, 'languages', {get: () => ['en-US', 'en']});
window.chrome = window.chrome || {runtime: {}};
`

// ChromeOptions configures a ChromeFetcher.
type ChromeOptions struct {
	Headless bool
	Timeout  time.Duration
	// Settle is how long to wait after load for scripts to render listings.
	Settle time.Duration
	Logger *logger.Logger
}

// ChromeFetcher renders pages in a shared headless Chrome. One tab is open at
// a time. The browser process starts on the first fetch.
type ChromeFetcher struct {
	mu sync.Mutex

	allocCtx      context.Context
	cancelAlloc   context.CancelFunc
	browserCtx    context.Context
	cancelBrowser context.CancelFunc

	started bool

	timeout time.Duration
	settle  time.Duration
	log     *logger.Logger
}

// NewChromeFetcher prepares the browser allocator.
func NewChromeFetcher(opts ChromeOptions) (*ChromeFetcher, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Settle <= 0 {
		opts.Settle = 2 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.UserAgent(helpers.RandomUserAgent()),
		chromedp.WindowSize(1920, 1080),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	return &ChromeFetcher{
		allocCtx:      allocCtx,
		cancelAlloc:   cancelAlloc,
		browserCtx:    browserCtx,
		cancelBrowser: cancelBrowser,
		timeout:       opts.Timeout,
		settle:        opts.Settle,
		log:           opts.Logger,
	}, nil
}

func (f *ChromeFetcher) Fetch(ctx context.Context, url string) (*extract.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.started {
		// Tabs created before the browser runs would each launch their own.
		if err := chromedp.Run(f.browserCtx); err != nil {
			return nil, apperrors.NewFetch("chrome", "start browser", err)
		}
		f.started = true
		f.log.Info().Msg("Browser started")
	}

	tabCtx, cancelTab := chromedp.NewContext(f.browserCtx)
	defer cancelTab()
	runCtx, cancelRun := context.WithTimeout(tabCtx, f.timeout)
	defer cancelRun()
	stop := context.AfterFunc(ctx, cancelRun)
	defer stop()

	start := time.Now()
	var markup, location string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady(`body`, chromedp.ByQuery),
		chromedp.Evaluate(stealthScript, nil),
		chromedp.Sleep(f.settle),
		chromedp.Location(&location),
		chromedp.OuterHTML(`html`, &markup, chromedp.ByQuery),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, apperrors.NewFetch("chrome", "navigate "+url, err)
	}
	if location == "" {
		location = url
	}

	doc, err := extract.NewDocumentFromString(location, markup)
	if err != nil {
		return nil, apperrors.NewFetch("chrome", "parse "+url, err)
	}
	f.log.Debug().
		Str("url", url).
		Str("location", location).
		Int("bytes", len(markup)).
		Dur("elapsed", time.Since(start)).
		Msg("Rendered page")
	return doc, nil
}

// Close shuts the browser down.
func (f *ChromeFetcher) Close() error {
	f.cancelBrowser()
	f.cancelAlloc()
	return nil
}
