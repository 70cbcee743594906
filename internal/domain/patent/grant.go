package patent

// GrantRecord is the flat record extracted from one USPTO us-patent-* grant
// document.  Multi-entity data (assignees, inventors) is held as parallel
// ordered slices of equal length: index i across the slices describes one
// entity.  Absent sub-elements contribute empty strings so the slices never
// drift out of alignment.
type GrantRecord struct {
	Title string `parquet:"title"`

	// Classifications holds fully-formed CPC strings; an entry is present
	// only when all five sub-components existed in the source.
	// ClassificationVersions runs parallel to it.
	Classifications        []string `parquet:"classifications,list"`
	ClassificationVersions []string `parquet:"classification_versions,list"`

	AbstractText string `parquet:"abstract_text"`

	PubRefCountry   string `parquet:"pub_ref_country"`
	PubRefDocNumber string `parquet:"pub_ref_doc_number"`
	PubRefKind      string `parquet:"pub_ref_kind"`
	PubRefDate      string `parquet:"pub_ref_date"`

	AppRefCountry   string `parquet:"app_ref_country"`
	AppRefDocNumber string `parquet:"app_ref_doc_number"`
	AppRefKind      string `parquet:"app_ref_kind"`
	AppRefDate      string `parquet:"app_ref_date"`

	AssigneeOrgNames  []string `parquet:"assignees_orgnames,list"`
	AssigneeCities    []string `parquet:"assignees_cities,list"`
	AssigneeCountries []string `parquet:"assignees_countries,list"`

	InventorLastNames  []string `parquet:"inventors_last_names,list"`
	InventorFirstNames []string `parquet:"inventors_first_names,list"`
	InventorCities     []string `parquet:"inventors_cities,list"`
	InventorCountries  []string `parquet:"inventors_countries,list"`

	DescriptionText string `parquet:"description_text"`
}

// DedupeByPubRef removes records sharing a pub_ref_doc_number, keeping the
// first occurrence and otherwise preserving order.  Records with an empty
// pub_ref_doc_number are always kept.  When no record carries the field the
// input is returned unchanged, mirroring the source data's occasional
// omission of publication references.
func DedupeByPubRef(records []GrantRecord) []GrantRecord {
	any := false
	for i := range records {
		if records[i].PubRefDocNumber != "" {
			any = true
			break
		}
	}
	if !any {
		return records
	}

	seen := make(map[string]struct{}, len(records))
	out := records[:0:0]
	for _, r := range records {
		if r.PubRefDocNumber != "" {
			if _, dup := seen[r.PubRefDocNumber]; dup {
				continue
			}
			seen[r.PubRefDocNumber] = struct{}{}
		}
		out = append(out, r)
	}
	return out
}
