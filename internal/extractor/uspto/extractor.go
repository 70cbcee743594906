package uspto

import (
	"fmt"
	"strings"

	"github.com/inventohub/patent-etl/internal/domain/patent"
	"github.com/inventohub/patent-etl/internal/extractor"
	"github.com/inventohub/patent-etl/internal/infrastructure/monitoring/logging"
)

// Extractor turns one bulk grant file into grant records: decode, split,
// extract each document, then dedupe by publication doc number.  Stateless
// and safe for concurrent use.
type Extractor struct {
	log logging.Logger
}

func New(log logging.Logger) *Extractor {
	return &Extractor{log: log.Named("uspto")}
}

// ExtractFile processes a whole decoded-and-split bulk file.  Per-document
// failures become discards; they never abort sibling documents.
func (e *Extractor) ExtractFile(raw []byte) ([]patent.GrantRecord, []extractor.Discard) {
	content, err := Decode(raw)
	if err != nil {
		return nil, []extractor.Discard{{Reason: extractor.ReasonDecodeError, Detail: err.Error()}}
	}

	docs := Split(content)
	records := make([]patent.GrantRecord, 0, len(docs))
	var discards []extractor.Discard
	for _, doc := range docs {
		rec, dis := e.ExtractOne([]byte(doc))
		if dis != nil {
			discards = append(discards, *dis)
			continue
		}
		records = append(records, *rec)
	}
	return patent.DedupeByPubRef(records), discards
}

// ExtractOne parses a single us-patent-* document.  Panics in the field
// mapping are contained and reported as a discard.
func (e *Extractor) ExtractOne(data []byte) (rec *patent.GrantRecord, dis *extractor.Discard) {
	defer func() {
		if r := recover(); r != nil {
			rec = nil
			dis = &extractor.Discard{Reason: extractor.ReasonPanic, Detail: fmt.Sprint(r)}
		}
	}()

	root, err := extractor.Parse(data)
	if err != nil {
		return nil, &extractor.Discard{Reason: extractor.ReasonMalformedXML, Detail: err.Error()}
	}

	r := &patent.GrantRecord{
		Title: root.FindText("invention-title"),
	}

	e.extractClassifications(root, r)
	r.AbstractText = abstractText(root)
	e.extractReferences(root, r)
	e.extractAssignees(root, r)
	e.extractInventors(root, r)
	r.DescriptionText = descriptionText(root)

	return r, nil
}

// extractClassifications collects CPC entries.  An entry requires all five
// sub-components; a partial entry is omitted entirely rather than emitted as
// a partial string.  Versions run parallel to the kept entries.
func (e *Extractor) extractClassifications(root *extractor.Node, r *patent.GrantRecord) {
	for _, c := range root.FindAll("classification-cpc") {
		section := c.ChildText("section")
		class := c.ChildText("class")
		subclass := c.ChildText("subclass")
		mainGroup := c.ChildText("main-group")
		subgroup := c.ChildText("subgroup")
		if section == "" || class == "" || subclass == "" || mainGroup == "" || subgroup == "" {
			continue
		}
		r.Classifications = append(r.Classifications,
			fmt.Sprintf("%s%s%s %s/%s", section, class, subclass, mainGroup, subgroup))
		r.ClassificationVersions = append(r.ClassificationVersions,
			c.ChildText("cpc-version-indicator", "date"))
	}
}

func (e *Extractor) extractReferences(root *extractor.Node, r *patent.GrantRecord) {
	if d := root.Find("publication-reference", "document-id"); d != nil {
		r.PubRefCountry = d.ChildText("country")
		r.PubRefDocNumber = d.ChildText("doc-number")
		r.PubRefKind = d.ChildText("kind")
		r.PubRefDate = d.ChildText("date")
	}
	if d := root.Find("application-reference", "document-id"); d != nil {
		r.AppRefCountry = d.ChildText("country")
		r.AppRefDocNumber = d.ChildText("doc-number")
		r.AppRefKind = d.ChildText("kind")
		r.AppRefDate = d.ChildText("date")
	}
}

// extractAssignees appends one entry per addressbook to every parallel
// slice, empty strings included, so index i always describes one entity.
func (e *Extractor) extractAssignees(root *extractor.Node, r *patent.GrantRecord) {
	for _, ab := range root.FindAll("assignee", "addressbook") {
		r.AssigneeOrgNames = append(r.AssigneeOrgNames, ab.ChildText("orgname"))
		r.AssigneeCities = append(r.AssigneeCities, ab.ChildText("address", "city"))
		r.AssigneeCountries = append(r.AssigneeCountries, ab.ChildText("address", "country"))
	}
}

func (e *Extractor) extractInventors(root *extractor.Node, r *patent.GrantRecord) {
	for _, ab := range root.FindAll("inventor", "addressbook") {
		r.InventorLastNames = append(r.InventorLastNames, ab.ChildText("last-name"))
		r.InventorFirstNames = append(r.InventorFirstNames, ab.ChildText("first-name"))
		r.InventorCities = append(r.InventorCities, ab.ChildText("address", "city"))
		r.InventorCountries = append(r.InventorCountries, ab.ChildText("address", "country"))
	}
}

// abstractText joins the direct text of every paragraph under the abstract
// with single spaces, skipping empty paragraphs.
func abstractText(root *extractor.Node) string {
	abst := root.Find("abstract")
	if abst == nil {
		return ""
	}
	var texts []string
	for _, p := range abst.FindAll("p") {
		if t := p.Text(); t != "" {
			texts = append(texts, t)
		}
	}
	return strings.Join(texts, " ")
}

// descriptionText joins every text segment of every description paragraph,
// nested markup flattened, then collapses runs of whitespace to single
// spaces.
func descriptionText(root *extractor.Node) string {
	desc := root.Find("description")
	if desc == nil {
		return ""
	}
	var segments []string
	for _, p := range desc.FindAll("p") {
		segments = append(segments, p.TextParts()...)
	}
	return strings.Join(strings.Fields(strings.Join(segments, " ")), " ")
}
