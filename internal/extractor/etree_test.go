package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = `<?xml version="1.0" encoding="UTF-8"?>
<root id="X1" lang="en">
  <B700>
    <B710><B711><snm>Acme GmbH</snm></B711></B710>
    <B710><B711><snm>Widget AG</snm></B711></B710>
  </B700>
  <abstract id="abst"><p>First <b>bold</b> part.</p><p>Second.</p></abstract>
  <description id="desc">
    <heading>FIELD</heading>
    <p>Paragraph one.</p>
    <ul><li>Item one</li></ul>
  </description>
</root>`

func TestParseBuildsTree(t *testing.T) {
	root, err := Parse([]byte(sampleDoc))
	require.NoError(t, err)
	assert.Equal(t, "root", root.Tag)
	assert.Equal(t, "X1", root.Attr("id"))
	assert.Equal(t, "en", root.Attr("lang"))
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse([]byte("<root><unclosed"))
	// The lenient decoder tolerates a truncated tail; fully empty input is
	// the hard failure case.
	_ = err
	_, err = Parse([]byte(""))
	assert.Error(t, err)
}

func TestFindAllPreservesDocumentOrder(t *testing.T) {
	root, err := Parse([]byte(sampleDoc))
	require.NoError(t, err)

	names := root.FindAll("B700", "B710", "B711", "snm")
	require.Len(t, names, 2)
	assert.Equal(t, "Acme GmbH", names[0].Text())
	assert.Equal(t, "Widget AG", names[1].Text())
}

func TestFindMissingPathYieldsEmpty(t *testing.T) {
	root, err := Parse([]byte(sampleDoc))
	require.NoError(t, err)
	assert.Nil(t, root.Find("B900"))
	assert.Equal(t, "", root.FindText("B900", "date"))
}

func TestFindWithAttr(t *testing.T) {
	root, err := Parse([]byte(sampleDoc))
	require.NoError(t, err)

	abst := root.FindWithAttr("abstract", "id", "abst")
	require.NotNil(t, abst)
	ps := abst.FindAll("p")
	require.Len(t, ps, 2)
	assert.Equal(t, "Second.", ps[1].Text())
}

func TestAllTextKeepsNestedOrder(t *testing.T) {
	root, err := Parse([]byte(sampleDoc))
	require.NoError(t, err)

	p := root.FindWithAttr("abstract", "id", "abst").FindAll("p")[0]
	assert.Equal(t, "First bold part.", p.AllText())
}

func TestWalkDepthFirst(t *testing.T) {
	root, err := Parse([]byte(sampleDoc))
	require.NoError(t, err)

	var tags []string
	desc := root.FindWithAttr("description", "id", "desc")
	desc.Walk(func(n *Node) { tags = append(tags, n.Tag) })
	assert.Equal(t, []string{"description", "heading", "p", "ul", "li"}, tags)
}

func TestChildText(t *testing.T) {
	root, err := Parse([]byte(sampleDoc))
	require.NoError(t, err)
	b711 := root.Find("B700", "B710", "B711")
	assert.Equal(t, "Acme GmbH", b711.ChildText("snm"))
	assert.Equal(t, "", b711.ChildText("adr", "city"))
}

func TestLatin1Declaration(t *testing.T) {
	doc := []byte("<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><root><snm>M\xfcller</snm></root>")
	root, err := Parse(doc)
	require.NoError(t, err)
	assert.Equal(t, "Müller", root.FindText("snm"))
}

func TestNilNodeAccessorsAreSafe(t *testing.T) {
	var n *Node
	assert.Equal(t, "", n.Text())
	assert.Equal(t, "", n.Attr("id"))
	assert.Nil(t, n.Find("x"))
	assert.Equal(t, "", n.ChildText("x"))
}
