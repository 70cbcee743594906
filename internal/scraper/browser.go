package scraper

import (
	"context"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/inventohub/patent-etl/internal/config"
	"github.com/inventohub/patent-etl/internal/infrastructure/monitoring/logging"
)

// defaultUserAgent mirrors a current desktop Chrome; the bulk-data portals
// reject obviously automated agents.
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// maskAutomationJS hides the obvious automation fingerprints.  Installed as
// a new-document script so it runs before any page script on every
// navigation.
const maskAutomationJS = `
Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
window.navigator.chrome = { runtime: {} };
Object.defineProperty(navigator, 'plugins', { get: () => [1, 2, 3, 4, 5] });
Object.defineProperty(navigator, 'languages', { get: () => ['en-US', 'en'] });
`

// Session owns one browser process and its root tab context.
type Session struct {
	ctx    context.Context
	cancel []context.CancelFunc
	log    logging.Logger
}

// NewSession launches a browser configured for unattended downloads into
// cfg.DownloadDir.
func NewSession(parent context.Context, cfg config.BrowserConfig, log logging.Logger) (*Session, error) {
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(ua),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	s := &Session{
		ctx:    tabCtx,
		cancel: []context.CancelFunc{cancelTab, cancelAlloc},
		log:    log.Named("browser"),
	}

	if err := chromedp.Run(tabCtx,
		browser.SetDownloadBehavior(browser.SetDownloadBehaviorBehaviorAllow).
			WithDownloadPath(cfg.DownloadDir),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(maskAutomationJS).Do(ctx)
			return err
		}),
	); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Ctx returns the tab context for chromedp actions.
func (s *Session) Ctx() context.Context { return s.ctx }

// Run executes actions against the session tab.
func (s *Session) Run(actions ...chromedp.Action) error {
	return chromedp.Run(s.ctx, actions...)
}

// Close tears down the tab and the browser process.
func (s *Session) Close() {
	for _, cancel := range s.cancel {
		cancel()
	}
}
