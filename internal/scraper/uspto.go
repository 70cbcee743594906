package scraper

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/inventohub/patent-etl/internal/config"
	"github.com/inventohub/patent-etl/internal/infrastructure/monitoring/logging"
	apperrors "github.com/inventohub/patent-etl/pkg/errors"
)

// setDateJS writes a date into one of the range inputs and fires the blur
// event the date picker listens for.
const setDateJS = `
(() => {
	const input = document.querySelector('input[aria-labelledby=%q]');
	if (!input) { return false; }
	input.value = %q;
	input.dispatchEvent(new Event('input', { bubbles: true }));
	input.dispatchEvent(new Event('blur'));
	return true;
})()
`

// harvestGrantLinksJS collects the .zip link texts of the filtered results
// table.
const harvestGrantLinksJS = `
Array.from(document.querySelectorAll('a'))
	.map(a => a.textContent.trim())
	.filter(t => t.toLowerCase().endsWith('.zip'));
`

// clickGrantLinkJS clicks the link whose text matches the filename.
const clickGrantLinkJS = `
(() => {
	for (const a of document.querySelectorAll('a')) {
		if (a.textContent.trim() === %q) { a.click(); return true; }
	}
	return false;
})()
`

// USPTODriver discovers grant archives on the bulk-data dataset table and
// downloads them one at a time.
type USPTODriver struct {
	session *Session
	cfg     config.BrowserConfig
	waiter  *DownloadWaiter
	log     logging.Logger
}

func NewUSPTODriver(session *Session, cfg config.BrowserConfig, log logging.Logger) *USPTODriver {
	return &USPTODriver{
		session: session,
		cfg:     cfg,
		waiter:  NewDownloadWaiter(cfg.DownloadDir, cfg.DownloadTimeout, log),
		log:     log.Named("uspto-driver"),
	}
}

func (d *USPTODriver) navCtx() (context.Context, context.CancelFunc) {
	if d.cfg.NavTimeout > 0 {
		return context.WithTimeout(d.session.Ctx(), d.cfg.NavTimeout)
	}
	return context.WithCancel(d.session.Ctx())
}

// ListGrantArchives filters the dataset table to [fromDate, toDate]
// (MM-DD-YYYY) and returns the .zip filenames on the result page in table
// order.
func (d *USPTODriver) ListGrantArchives(fromDate, toDate string) ([]string, error) {
	ctx, cancel := d.navCtx()
	defer cancel()

	var fromSet, toSet bool
	err := chromedp.Run(ctx,
		chromedp.Navigate(d.cfg.USPTODatasetURL),
		chromedp.WaitVisible(`input[aria-labelledby="from"]`, chromedp.ByQuery),
		chromedp.Evaluate(fmt.Sprintf(setDateJS, "from", fromDate), &fromSet),
		chromedp.Evaluate(fmt.Sprintf(setDateJS, "to", toDate), &toSet),
	)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeExternalService, "load dataset table")
	}
	if !fromSet || !toSet {
		return nil, apperrors.New(apperrors.ErrCodeListingNotFound, "date filter inputs not on page")
	}

	var names []string
	err = chromedp.Run(ctx,
		chromedp.Click(`//button[contains(., 'Filter')]`, chromedp.BySearch),
		chromedp.Sleep(5*time.Second),
		chromedp.Evaluate(harvestGrantLinksJS, &names),
	)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeExternalService, "filter dataset table")
	}

	kept := names[:0]
	for _, n := range names {
		if strings.HasPrefix(strings.ToLower(n), "ipg") {
			kept = append(kept, n)
		}
	}
	d.log.Info("grant archives listed",
		logging.String("from", fromDate),
		logging.String("to", toDate),
		logging.Int("count", len(kept)))
	return kept, nil
}

// DownloadArchive clicks the named link and waits for the zip to land.
func (d *USPTODriver) DownloadArchive(name string) (string, error) {
	ctx, cancel := d.navCtx()
	defer cancel()

	var clicked bool
	err := chromedp.Run(ctx, chromedp.Evaluate(fmt.Sprintf(clickGrantLinkJS, name), &clicked))
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeExternalService, "click grant link")
	}
	if !clicked {
		return "", apperrors.New(apperrors.ErrCodeListingNotFound, "grant link "+name+" not on page")
	}

	if err := d.waiter.Wait(d.session.Ctx(), name); err != nil {
		return "", err
	}
	return filepath.Join(d.cfg.DownloadDir, name), nil
}
