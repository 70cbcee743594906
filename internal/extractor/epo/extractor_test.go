package epo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inventohub/patent-etl/internal/extractor"
	"github.com/inventohub/patent-etl/internal/infrastructure/monitoring/logging"
)

const fullDoc = `<?xml version="1.0" encoding="UTF-8"?>
<ep-patent-document id="DE123" doc-number="456" lang="de" country="EP">
  <B150><B151>W1</B151>
    <B155>
      <B1551>de</B1551><B1552>Titelberichtigung</B1552>
      <B1551>en</B1551><B1552>Title corrected</B1552>
    </B155>
  </B150>
  <B200><B220><date>20230102</date></B220></B200>
  <B300><B310>DE2022001</B310><B320><date>20220105</date></B320></B300>
  <B400><B405><date>20250107</date></B405></B400>
  <B500>
    <B510EP>
      <classification-ipcr><text>A01B 1/00</text></classification-ipcr>
      <classification-ipcr><text>A01B 2/00</text></classification-ipcr>
    </B510EP>
  </B500>
  <B510><B511>A01B 1/00</B511><B512>A01B 3/00</B512></B510>
  <B520EP>
    <classifications-cpc>
      <classification-cpc><text>A01B 1/02</text></classification-cpc>
    </classifications-cpc>
  </B520EP>
  <B540>
    <B541>de</B541><B542>Gerät</B542>
    <B541>en</B541><B542>Widget</B542>
    <B541>fr</B541><B542>Appareil</B542>
  </B540>
  <B560><B561><text>EP1234567A1</text></B561></B560>
  <B700>
    <B710><B711><snm>Acme GmbH</snm></B711></B710>
    <B730><B731><snm>Acme GmbH</snm><adr><city>Munich</city><ctry>DE</ctry></adr></B731></B730>
    <B740><B741><snm>Smith &amp; Co</snm><adr><city>London</city><ctry>GB</ctry></adr></B741></B740>
  </B700>
  <B720><B721><snm>Doe, Jane</snm></B721></B720>
  <B860><B861><dnum><anum>PCT/EP2023/050001</anum></dnum></B861></B860>
  <abstract id="abst"><p>A widget.</p></abstract>
  <description id="desc">
    <heading>FIELD</heading>
    <p>The widget relates to farming.</p>
    <ul><li>sharp edge</li></ul>
  </description>
  <claims id="claims01">
    <claim><claim-text>A widget comprising a blade.</claim-text></claim>
    <claim><claim-text>The widget of claim 1.</claim-text></claim>
  </claims>
</ep-patent-document>`

func newTestExtractor() *Extractor {
	return New(logging.NewNopLogger())
}

func TestExtractFullDocument(t *testing.T) {
	rec, dis := newTestExtractor().Extract([]byte(fullDoc))
	require.Nil(t, dis)
	require.NotNil(t, rec)

	assert.Equal(t, "DE123", rec.DocID)
	assert.Equal(t, int64(456), rec.DocNumber)
	assert.Equal(t, "de", rec.Lang)
	assert.Equal(t, "EP", rec.Country)

	assert.Equal(t, "Widget", rec.TitleEN)
	assert.Equal(t, "Gerät", rec.TitleDE)
	assert.Equal(t, "Appareil", rec.TitleFR)

	assert.Equal(t, "A widget.", rec.Abstract)
	assert.Equal(t, "A01B 1/00; A01B 2/00", rec.IPCClassifications)
	assert.Equal(t, "A01B 1/02", rec.CPCClassifications)
	assert.Equal(t, "A01B 1/00; A01B 3/00", rec.IntClassifications)

	assert.Equal(t, "PCT/EP2023/050001", rec.InternationalApplicationNumber)
	assert.Equal(t, "Acme GmbH", rec.Applicants)
	assert.Equal(t, "Doe, Jane", rec.Inventors)
	assert.Equal(t, "Smith & Co, London, GB", rec.Representatives)
	assert.Equal(t, "Acme GmbH, Munich, DE", rec.Proprietors)

	assert.Equal(t, "20250107", rec.DatePublication)
	assert.Equal(t, "2025", rec.YearPublication)
	assert.Equal(t, "20230102", rec.DateFiling)
	assert.Equal(t, "2023", rec.YearFiling)
	assert.Equal(t, "DE2022001", rec.PriorityNumber)
	assert.Equal(t, "20220105", rec.PriorityDate)

	assert.Equal(t, "W1", rec.CorrectionCode)
	assert.Equal(t, "Title corrected", rec.CorrectionDescription)
	assert.Equal(t, "EP1234567A1", rec.ReferencesCited)

	assert.Equal(t, "A widget comprising a blade. The widget of claim 1.", rec.Claims)
	assert.Contains(t, rec.Description, "FIELD\n")
	assert.Contains(t, rec.Description, "The widget relates to farming.")
	assert.Contains(t, rec.Description, "sharp edge")
}

func TestExtractDiscardsMissingRootAttrs(t *testing.T) {
	cases := map[string]string{
		"no id":            `<doc doc-number="456"/>`,
		"no doc-number":    `<doc id="DE1"/>`,
		"non-digit number": `<doc id="DE1" doc-number="45a6"/>`,
		"empty number":     `<doc id="DE1" doc-number=""/>`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			rec, dis := newTestExtractor().Extract([]byte(doc))
			assert.Nil(t, rec)
			require.NotNil(t, dis)
			assert.Equal(t, extractor.ReasonMissingField, dis.Reason)
		})
	}
}

func TestExtractDiscardsUnparsableDocument(t *testing.T) {
	rec, dis := newTestExtractor().Extract(nil)
	assert.Nil(t, rec)
	require.NotNil(t, dis)
	assert.Equal(t, extractor.ReasonMalformedXML, dis.Reason)
}

func TestExtractTitlePositionalPairing(t *testing.T) {
	doc := `<doc id="X" doc-number="1">
	  <B540>
	    <B541>EN</B541><B542>Upper</B542>
	    <B541>it</B541><B542>Ignored</B542>
	    <B541>de</B541>
	  </B540>
	</doc>`
	rec, dis := newTestExtractor().Extract([]byte(doc))
	require.Nil(t, dis)
	assert.Equal(t, "Upper", rec.TitleEN)
	assert.Equal(t, "", rec.TitleDE)
	assert.Equal(t, "", rec.TitleFR)
}

func TestExtractClaimsWithNestedClaimText(t *testing.T) {
	// Sub-paragraphs nest claim-text inside claim-text; each element must
	// contribute its own text exactly once.
	doc := `<doc id="X" doc-number="1">
	  <claims id="claims01">
	    <claim><claim-text>A widget comprising: <claim-text>a blade;</claim-text> <claim-text>a handle.</claim-text></claim-text></claim>
	  </claims>
	</doc>`
	rec, dis := newTestExtractor().Extract([]byte(doc))
	require.Nil(t, dis)
	assert.Equal(t, "A widget comprising: a blade; a handle.", rec.Claims)
}

func TestExtractMinimalDocumentLeavesFieldsEmpty(t *testing.T) {
	rec, dis := newTestExtractor().Extract([]byte(`<doc id="X" doc-number="7"/>`))
	require.Nil(t, dis)
	assert.Equal(t, int64(7), rec.DocNumber)
	assert.Empty(t, rec.Abstract)
	assert.Empty(t, rec.Description)
	assert.Empty(t, rec.IPCClassifications)
	assert.Empty(t, rec.Proprietors)
	assert.Empty(t, rec.CorrectionDescription)
}

func TestCorrectionDescriptionPrefersEnglish(t *testing.T) {
	doc := `<doc id="X" doc-number="1">
	  <B150>
	    <B155><B1551>fr</B1551><B1552>corrigé</B1552></B155>
	    <B155><B1551>en</B1551><B1552>corrected</B1552></B155>
	  </B150>
	</doc>`
	rec, dis := newTestExtractor().Extract([]byte(doc))
	require.Nil(t, dis)
	assert.Equal(t, "corrected", rec.CorrectionDescription)
}
