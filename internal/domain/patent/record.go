// Package patent defines the flat record types produced by the EPO and USPTO
// extractors.  A record is built from exactly one XML document, is never
// mutated after construction, and carries no relations to other records;
// cross-record dedup happens downstream keyed by the natural key.
package patent

import "strings"

// ListSep joins multi-valued fields for tabular storage, preserving document
// order and duplicates.
const ListSep = "; "

// Record is the canonical EPO bibliographic record.  All fields except DocID
// and DocNumber are optional; absent source elements yield empty strings.
type Record struct {
	// DocID is the natural key; extraction discards the document without it.
	DocID string `parquet:"doc_id"`

	// DocNumber is required and all-digit in the source.
	DocNumber int64 `parquet:"doc_number"`

	TitleEN string `parquet:"title_en"`
	TitleDE string `parquet:"title_de"`
	TitleFR string `parquet:"title_fr"`

	Lang    string `parquet:"lang"`
	Country string `parquet:"country"`

	Abstract    string `parquet:"abstract"`
	Description string `parquet:"description"`
	Claims      string `parquet:"claims"`

	IPCClassifications string `parquet:"ipc_classifications"`
	CPCClassifications string `parquet:"cpc_classifications"`
	IntClassifications string `parquet:"int_classifications"`

	InternationalApplicationNumber string `parquet:"international_application_number"`

	Applicants string `parquet:"applicants"`
	Inventors  string `parquet:"inventors"`

	// Representatives and Proprietors hold "name, city, country" triples with
	// empty sub-fields omitted and trailing separators trimmed.
	Representatives string `parquet:"representatives"`
	Proprietors     string `parquet:"proprietors"`

	DatePublication string `parquet:"date_publication"`
	YearPublication string `parquet:"year_publication"`
	DateFiling      string `parquet:"date_filing"`
	YearFiling      string `parquet:"year_filing"`

	PriorityNumber string `parquet:"priority_number"`
	PriorityDate   string `parquet:"priority_date"`

	CorrectionCode        string `parquet:"correction_code"`
	CorrectionDescription string `parquet:"correction_description"`

	ReferencesCited string `parquet:"references_cited"`
}

// EmbeddedRecord is a Record extended with its document-level embedding, used
// by the embedding-augmented parquet job.
type EmbeddedRecord struct {
	Record
	Embedding []float32 `parquet:"embedding,list"`
}

// JoinList joins values with ListSep, dropping empties but preserving order
// and duplicates among the survivors.
func JoinList(values []string) string {
	kept := values[:0:0]
	for _, v := range values {
		if v != "" {
			kept = append(kept, v)
		}
	}
	return strings.Join(kept, ListSep)
}

// NameTriple renders a "name, city, country" contact triple.  Empty trailing
// sub-fields are trimmed together with their separators, so ("Acme", "", "")
// renders as "Acme" and ("", "", "") as the empty string.
func NameTriple(name, city, country string) string {
	s := name + ", " + city + ", " + country
	return strings.Trim(s, ", ")
}

// YearOf returns the first four characters of an 8-digit date string, or the
// empty string when the date is absent or shorter than a year.
func YearOf(date string) string {
	if len(date) < 4 {
		return ""
	}
	return date[:4]
}

// EmbeddingText assembles the labelled free-text block the embedding
// projector encodes for a record.
func (r *Record) EmbeddingText() string {
	return strings.Join([]string{
		"Title: " + r.TitleEN,
		"Abstract: " + r.Abstract,
		"Description: " + r.Description,
		"Applicants: " + r.Applicants,
		"Inventors: " + r.Inventors,
	}, "\n")
}
