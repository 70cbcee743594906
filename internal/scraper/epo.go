package scraper

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/inventohub/patent-etl/internal/config"
	"github.com/inventohub/patent-etl/internal/infrastructure/monitoring/logging"
	apperrors "github.com/inventohub/patent-etl/pkg/errors"
)

// harvestEPOListingsJS reads the product table rows: each block carries the
// filename and a published timestamp in its third cell.
const harvestEPOListingsJS = `
Array.from(document.querySelectorAll('div[data-epo="epo-data-table-30x"]')).map(block => {
	const name = block.querySelector('p.text-semibold');
	const published = block.querySelector('td:nth-child(3) p');
	return {
		name: name ? name.textContent.trim() : '',
		published: published ? published.textContent.trim() : ''
	};
}).filter(r => r.name !== '');
`

// clickEPORowJS clicks the download button of the row whose filename matches.
const clickEPORowJS = `
(() => {
	for (const block of document.querySelectorAll('div[data-epo="epo-data-table-30x"]')) {
		const name = block.querySelector('p.text-semibold');
		if (name && name.textContent.trim() === %q) {
			const button = block.querySelector('button');
			if (button) { button.click(); return true; }
		}
	}
	return false;
})()
`

type rawListing struct {
	Name      string `json:"name"`
	Published string `json:"published"`
}

// EPODriver discovers and downloads the weekly front-file archive from the
// publication portal.  All chromedp actions run on the session's tab
// context; NavTimeout bounds page loads.
type EPODriver struct {
	session *Session
	cfg     config.BrowserConfig
	waiter  *DownloadWaiter
	log     logging.Logger
}

func NewEPODriver(session *Session, cfg config.BrowserConfig, log logging.Logger) *EPODriver {
	return &EPODriver{
		session: session,
		cfg:     cfg,
		waiter:  NewDownloadWaiter(cfg.DownloadDir, cfg.DownloadTimeout, log),
		log:     log.Named("epo-driver"),
	}
}

// navCtx derives a page-load context from the session tab.
func (d *EPODriver) navCtx() (context.Context, context.CancelFunc) {
	if d.cfg.NavTimeout > 0 {
		return context.WithTimeout(d.session.Ctx(), d.cfg.NavTimeout)
	}
	return context.WithCancel(d.session.Ctx())
}

// DiscoverLatest navigates to the product page and returns the most recently
// published archive row.
func (d *EPODriver) DiscoverLatest() (Listing, error) {
	ctx, cancel := d.navCtx()
	defer cancel()

	var raw []rawListing
	err := chromedp.Run(ctx,
		chromedp.Navigate(d.cfg.EPOProductURL),
		chromedp.WaitVisible(`div[data-epo="epo-data-table-30x"]`, chromedp.ByQuery),
		chromedp.Evaluate(harvestEPOListingsJS, &raw),
	)
	if err != nil {
		return Listing{}, apperrors.Wrap(err, apperrors.ErrCodeExternalService, "load product listing")
	}

	listings := make([]Listing, 0, len(raw))
	for _, r := range raw {
		published, err := ParsePublished(r.Published)
		if err != nil {
			d.log.Warn("row with unparsable timestamp skipped",
				logging.String("name", r.Name),
				logging.String("published", r.Published))
			continue
		}
		listings = append(listings, Listing{Name: r.Name, Published: published})
	}

	latest, ok := SelectLatestArchive(listings)
	if !ok {
		return Listing{}, apperrors.New(apperrors.ErrCodeListingNotFound, "no archive rows on product page")
	}
	d.log.Info("latest archive discovered",
		logging.String("name", latest.Name),
		logging.String("published", latest.Published.Format(time.RFC3339)))
	return latest, nil
}

// Download triggers the two-click download of the named archive and waits
// for the file to finish landing in the download directory.
func (d *EPODriver) Download(name string) (string, error) {
	ctx, cancel := d.navCtx()
	defer cancel()

	var clicked bool
	err := chromedp.Run(ctx, chromedp.Evaluate(fmt.Sprintf(clickEPORowJS, name), &clicked))
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeExternalService, "click archive row")
	}
	if !clicked {
		return "", apperrors.New(apperrors.ErrCodeListingNotFound, "archive row "+name+" not on page")
	}

	if err := chromedp.Run(ctx,
		chromedp.WaitVisible(`button[data-testid="download-item-button"]`, chromedp.ByQuery),
		chromedp.Click(`button[data-testid="download-item-button"]`, chromedp.ByQuery),
	); err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeExternalService, "confirm download")
	}

	if err := d.waiter.Wait(d.session.Ctx(), name); err != nil {
		return "", err
	}
	return filepath.Join(d.cfg.DownloadDir, name), nil
}
