// Package archive handles the office bulk archives: filename codecs, object
// key layout, and zip/tar unpacking with inner-zip walking.
package archive

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	apperrors "github.com/inventohub/patent-etl/pkg/errors"
)

var (
	epoNamePattern   = regexp.MustCompile(`^EPRTBJV(\d{4})0000(\d{2})001001\.(zip|tar)$`)
	usptoNamePattern = regexp.MustCompile(`(?i)^ipg(\d{6}).*?\.zip$`)
)

// EPOArchiveName renders the weekly front-file archive name for a year and
// two-digit week.
func EPOArchiveName(year string, week int, ext string) string {
	return fmt.Sprintf("EPRTBJV%s0000%02d001001%s", year, week, ext)
}

// ParseEPOArchiveName decodes (year, week) from a front-file archive name.
func ParseEPOArchiveName(name string) (year, week string, err error) {
	m := epoNamePattern.FindStringSubmatch(name)
	if m == nil {
		return "", "", apperrors.New(apperrors.ErrCodeValidation, "unrecognized archive name "+name)
	}
	return m[1], m[2], nil
}

// ParseUSPTOArchiveName decodes (year, datePart) from an ipgYYMMDD.zip name.
// The two-digit year expands into the 2000s; the dataset starts in 2001.
func ParseUSPTOArchiveName(name string) (year, datePart string, err error) {
	m := usptoNamePattern.FindStringSubmatch(name)
	if m == nil {
		return "", "", apperrors.New(apperrors.ErrCodeValidation, "unrecognized grant archive name "+name)
	}
	datePart = m[1]
	return "20" + datePart[:2], datePart, nil
}

// EPORawArchiveKey is where the untouched weekly archive lands.
func EPORawArchiveKey(year, name string) string {
	return year + "/" + name
}

// EPOXMLPrefix is the destination prefix for one week's unpacked XMLs,
// laid out as {year}/epo-xmls/{year}_{week}/.
func EPOXMLPrefix(year, week string) string {
	return fmt.Sprintf("%s/epo-xmls/%s_%s/", year, year, week)
}

// EPOXMLKey is the destination key of one member XML.
func EPOXMLKey(year, week, filename string) string {
	return EPOXMLPrefix(year, week) + path.Base(filename)
}

// EPOParquetKey is the embedding-augmented parquet output for one week,
// stored inside that week's XML prefix.
func EPOParquetKey(year, week string) string {
	return fmt.Sprintf("%s%s_%s.parquet", EPOXMLPrefix(year, week), year, week)
}

// USPTORawZipKey is where a raw grant zip lands.
func USPTORawZipKey(year, name string) string {
	return year + "/zipped/" + name
}

// USPTOParquetKey is the derived parquet for one grant date.
func USPTOParquetKey(year, datePart string) string {
	return year + "/xmls/" + datePart + ".parquet"
}

// IsPatentXML reports whether an archive member is a publication document:
// an .xml file that is not a table-of-contents file.
func IsPatentXML(name string) bool {
	return strings.HasSuffix(name, ".xml") && !strings.HasSuffix(name, "TOC.xml")
}
