package source

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Egham-7/cloudlines/internal/models"

	"github.com/chromedp/chromedp"
	fiberlog "github.com/gofiber/fiber/v2/log"
)

// BrowserSource renders a page in headless Chrome and screenshots the viewport
type BrowserSource struct {
	cfg models.SourceConfig

	mu            sync.Mutex
	browserCtx    context.Context
	cancelAlloc   context.CancelFunc
	cancelBrowser context.CancelFunc
}

func NewBrowserSource(cfg models.SourceConfig) *BrowserSource {
	return &BrowserSource{cfg: cfg}
}

func (b *BrowserSource) Name() string {
	return "browser(" + b.cfg.URL + ")"
}

// Open launches the browser, sets the viewport, loads the page and waits for the warm-up delay
func (b *BrowserSource) Open(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browserCtx != nil {
		return errors.New("browser source already open")
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("headless", b.cfg.IsHeadless()),
		chromedp.WindowSize(b.cfg.Viewport.Width, b.cfg.Viewport.Height),
	)

	// The browser outlives ctx; it is torn down by Close.
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(fiberlog.Debugf),
		chromedp.WithErrorf(fiberlog.Errorf),
	)

	fiberlog.Info("Starting browser...")
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return fmt.Errorf("failed to start browser: %w", err)
	}

	setupCtx, cancelSetup := context.WithTimeout(browserCtx, b.cfg.Timeout+b.cfg.Warmup)
	defer cancelSetup()
	stop := context.AfterFunc(ctx, cancelSetup)
	defer stop()

	fiberlog.Infof("Setting viewport to %dx%d...", b.cfg.Viewport.Width, b.cfg.Viewport.Height)
	fiberlog.Infof("Loading page %s...", b.cfg.URL)
	err := chromedp.Run(setupCtx,
		chromedp.EmulateViewport(int64(b.cfg.Viewport.Width), int64(b.cfg.Viewport.Height)),
		chromedp.Navigate(b.cfg.URL),
	)
	if err == nil {
		fiberlog.Infof("Waiting %v for the page to settle...", b.cfg.Warmup)
		err = sleepContext(setupCtx, b.cfg.Warmup)
	}
	if err != nil {
		cancelBrowser()
		cancelAlloc()
		return fmt.Errorf("failed to load %s: %w", b.cfg.URL, err)
	}

	b.browserCtx = browserCtx
	b.cancelAlloc = cancelAlloc
	b.cancelBrowser = cancelBrowser
	return nil
}

// Capture returns a PNG screenshot of the current viewport
func (b *BrowserSource) Capture(ctx context.Context) ([]byte, error) {
	b.mu.Lock()
	browserCtx := b.browserCtx
	b.mu.Unlock()

	if browserCtx == nil {
		return nil, errors.New("browser source is not open")
	}

	captureCtx, cancel := context.WithTimeout(browserCtx, b.cfg.Timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var buf []byte
	if err := chromedp.Run(captureCtx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, models.NewSourceError(b.Name(), err)
	}
	return buf, nil
}

// Close shuts down the browser
func (b *BrowserSource) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browserCtx == nil {
		return nil
	}
	b.cancelBrowser()
	b.cancelAlloc()
	b.browserCtx = nil
	return nil
}
