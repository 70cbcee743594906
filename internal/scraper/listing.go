// Package scraper drives a headless browser to discover and download office
// bulk archives.  The browser is only a discovery and download vehicle; all
// selection logic lives in plain functions so it stays testable without a
// browser.
package scraper

import (
	"strings"
	"time"
)

// publishedLayout is the timestamp format of the EPO product table.
const publishedLayout = "02.01.2006 15:04"

// Listing is one downloadable row of a product table.
type Listing struct {
	Name      string
	Published time.Time
}

// ParsePublished parses the product table's publication timestamp.
func ParsePublished(s string) (time.Time, error) {
	return time.Parse(publishedLayout, strings.TrimSpace(s))
}

// SelectLatestArchive picks the most recently published .zip or .tar row.
// Rows with other extensions never qualify.  ok is false when no archive row
// exists at all.
func SelectLatestArchive(listings []Listing) (latest Listing, ok bool) {
	for _, l := range listings {
		name := strings.ToLower(l.Name)
		if !strings.HasSuffix(name, ".zip") && !strings.HasSuffix(name, ".tar") {
			continue
		}
		if !ok || l.Published.After(latest.Published) {
			latest = l
			ok = true
		}
	}
	return latest, ok
}

// LatestGrantTuesday returns the most recent Tuesday on or before now, in
// the MM-DD-YYYY format the USPTO date filter expects.  Grant data is issued
// weekly on Tuesdays.
func LatestGrantTuesday(now time.Time) string {
	daysBack := (int(now.Weekday()) - int(time.Tuesday) + 7) % 7
	return now.AddDate(0, 0, -daysBack).Format("01-02-2006")
}
