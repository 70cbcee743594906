// Package epo extracts flat patent records from single EPO bibliographic
// XML documents (the front-file B-document schema).
package epo

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/inventohub/patent-etl/internal/domain/patent"
	"github.com/inventohub/patent-etl/internal/extractor"
	"github.com/inventohub/patent-etl/internal/infrastructure/monitoring/logging"
)

// bodyTags are the element names whose text contributes to the description
// body, namespace-stripped, collected depth-first in document order.
var bodyTags = map[string]bool{
	"p":       true,
	"ul":      true,
	"li":      true,
	"heading": true,
}

// Extractor parses one EPO document per call.  It is stateless and safe for
// concurrent use from pipeline workers.
type Extractor struct {
	log logging.Logger
}

// New returns an Extractor logging through log.
func New(log logging.Logger) *Extractor {
	return &Extractor{log: log.Named("epo")}
}

// Extract projects one document's bytes into a Record.  It never returns an
// error: the outcome is either a record or a discard with a reason.  A panic
// anywhere in the field mapping is contained here and reported as a discard,
// so a single pathological document can never take down sibling work.
func (e *Extractor) Extract(data []byte) (rec *patent.Record, dis *extractor.Discard) {
	defer func() {
		if r := recover(); r != nil {
			rec = nil
			dis = &extractor.Discard{
				Reason: extractor.ReasonPanic,
				Detail: fmt.Sprint(r),
			}
		}
	}()

	root, err := extractor.Parse(data)
	if err != nil {
		return nil, &extractor.Discard{Reason: extractor.ReasonMalformedXML, Detail: err.Error()}
	}

	docID := strings.TrimSpace(root.Attr("id"))
	docNumberStr := strings.TrimSpace(root.Attr("doc-number"))
	if docID == "" || docNumberStr == "" || !allDigits(docNumberStr) {
		return nil, &extractor.Discard{
			Reason: extractor.ReasonMissingField,
			Detail: fmt.Sprintf("doc_id=%q doc_number=%q", docID, docNumberStr),
		}
	}
	docNumber, err := strconv.ParseInt(docNumberStr, 10, 64)
	if err != nil {
		return nil, &extractor.Discard{Reason: extractor.ReasonMissingField, Detail: "doc-number overflow"}
	}

	r := &patent.Record{
		DocID:     docID,
		DocNumber: docNumber,
		Lang:      root.Attr("lang"),
		Country:   root.Attr("country"),
	}

	r.Abstract = joinedTexts(root.FindWithAttr("abstract", "id", "abst"), "p")
	r.Description = orderedBody(root.FindWithAttr("description", "id", "desc"))
	r.Claims = joinedTexts(root.FindWithAttr("claims", "id", "claims01"), "claim-text")

	r.IPCClassifications = joinListTexts(root.FindAll("B500", "B510EP", "classification-ipcr", "text"))
	r.CPCClassifications = joinListTexts(root.FindAll("B520EP", "classifications-cpc", "classification-cpc", "text"))
	r.InternationalApplicationNumber = root.FindText("B860", "B861", "dnum", "anum")
	r.Applicants = joinListTexts(root.FindAll("B700", "B710", "B711", "snm"))
	r.Inventors = joinListTexts(root.FindAll("B720", "B721", "snm"))

	e.extractTitles(root, r)

	intMain := root.FindText("B510", "B511")
	intSubs := textsOf(root.FindAll("B510", "B512"))
	r.IntClassifications = patent.JoinList(append([]string{intMain}, intSubs...))

	r.DatePublication = root.FindText("B400", "B405", "date")
	r.YearPublication = patent.YearOf(r.DatePublication)
	r.DateFiling = root.FindText("B200", "B220", "date")
	r.YearFiling = patent.YearOf(r.DateFiling)

	r.PriorityNumber = root.FindText("B300", "B310")
	r.PriorityDate = root.FindText("B300", "B320", "date")

	r.Representatives = contactTriples(root.FindAll("B700", "B740", "B741"))
	r.Proprietors = contactTriples(root.FindAll("B700", "B730", "B731"))

	r.CorrectionCode = root.FindText("B150", "B151")
	r.CorrectionDescription = correctionDescription(root)

	r.ReferencesCited = joinListTexts(root.FindAll("B560", "B561", "text"))

	return r, nil
}

// extractTitles pairs the k-th B541 language element with the k-th B542 text
// element positionally; the source carries no explicit linkage.  Languages
// other than en/de/fr are dropped.  When the element counts differ the
// shorter prefix pairs and the tail is ignored.
func (e *Extractor) extractTitles(root *extractor.Node, r *patent.Record) {
	b540 := root.Find("B540")
	if b540 == nil {
		return
	}
	langs := b540.ChildrenByTag("B541")
	texts := b540.ChildrenByTag("B542")
	n := len(langs)
	if len(texts) < n {
		n = len(texts)
	}
	for i := 0; i < n; i++ {
		title := texts[i].Text()
		switch strings.ToLower(langs[i].Text()) {
		case "en":
			r.TitleEN = title
		case "de":
			r.TitleDE = title
		case "fr":
			r.TitleFR = title
		}
	}
}

// correctionDescription returns the first English B1552 text: within each
// B150/B155 block, the k-th B1551 language code qualifies the k-th B1552
// description.
func correctionDescription(root *extractor.Node) string {
	for _, b155 := range root.FindAll("B150", "B155") {
		langs := b155.ChildrenByTag("B1551")
		texts := b155.ChildrenByTag("B1552")
		n := len(langs)
		if len(texts) < n {
			n = len(texts)
		}
		for i := 0; i < n; i++ {
			if langs[i].Text() == "en" && texts[i].Text() != "" {
				return texts[i].Text()
			}
		}
	}
	return ""
}

// joinedTexts collects the own text of every tag element under parent and
// joins with single spaces.  Each element contributes only its direct
// character data: nested elements of the same tag are matched separately, so
// counting their text toward the ancestor too would emit it twice.
func joinedTexts(parent *extractor.Node, tag string) string {
	if parent == nil {
		return ""
	}
	var texts []string
	for _, el := range parent.FindAll(tag) {
		if t := el.Text(); t != "" {
			texts = append(texts, t)
		}
	}
	return strings.Join(texts, " ")
}

// orderedBody walks the description depth-first and collects the flattened
// text of paragraph, list, list-item and heading elements, joined with
// newlines.  Duplicated nesting (a li inside a ul) is intentional: the
// published ordering of the body is what matters downstream, not minimality.
func orderedBody(parent *extractor.Node) string {
	if parent == nil {
		return ""
	}
	var texts []string
	parent.Walk(func(n *extractor.Node) {
		if bodyTags[n.Tag] {
			if t := strings.TrimSpace(n.AllText()); t != "" {
				texts = append(texts, t)
			}
		}
	})
	return strings.Join(texts, "\n")
}

// contactTriples formats each party element as "name, city, country" with
// absent components elided, and joins the parties into one list value.
func contactTriples(nodes []*extractor.Node) string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, patent.NameTriple(
			n.ChildText("snm"),
			n.ChildText("adr", "city"),
			n.ChildText("adr", "ctry"),
		))
	}
	return patent.JoinList(out)
}

func textsOf(nodes []*extractor.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Text())
	}
	return out
}

func joinListTexts(nodes []*extractor.Node) string {
	return patent.JoinList(textsOf(nodes))
}

func allDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}
