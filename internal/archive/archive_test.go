package archive

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inventohub/patent-etl/internal/infrastructure/monitoring/logging"
	apperrors "github.com/inventohub/patent-etl/pkg/errors"
)

func TestEPOArchiveNameRoundTrip(t *testing.T) {
	name := EPOArchiveName("2025", 1, ".zip")
	assert.Equal(t, "EPRTBJV2025000001001001.zip", name)

	year, week, err := ParseEPOArchiveName(name)
	require.NoError(t, err)
	assert.Equal(t, "2025", year)
	assert.Equal(t, "01", week)

	_, _, err = ParseEPOArchiveName("random.zip")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeValidation))
}

func TestParseUSPTOArchiveName(t *testing.T) {
	year, datePart, err := ParseUSPTOArchiveName("ipg240102.zip")
	require.NoError(t, err)
	assert.Equal(t, "2024", year)
	assert.Equal(t, "240102", datePart)

	// Mirrors gets a suffix between the date and the extension.
	year, datePart, err = ParseUSPTOArchiveName("ipg240102_r1.zip")
	require.NoError(t, err)
	assert.Equal(t, "2024", year)
	assert.Equal(t, "240102", datePart)

	_, _, err = ParseUSPTOArchiveName("grants.zip")
	assert.Error(t, err)
}

func TestKeyLayout(t *testing.T) {
	assert.Equal(t, "2025/EPRTBJV2025000001001001.zip",
		EPORawArchiveKey("2025", "EPRTBJV2025000001001001.zip"))
	assert.Equal(t, "2025/epo-xmls/2025_01/", EPOXMLPrefix("2025", "01"))
	assert.Equal(t, "2025/epo-xmls/2025_01/doc.xml", EPOXMLKey("2025", "01", "DOC/batch/doc.xml"))
	assert.Equal(t, "2025/epo-xmls/2025_01/2025_01.parquet", EPOParquetKey("2025", "01"))
	assert.Equal(t, "2024/zipped/ipg240102.zip", USPTORawZipKey("2024", "ipg240102.zip"))
	assert.Equal(t, "2024/xmls/240102.parquet", USPTOParquetKey("2024", "240102"))
}

func TestIsPatentXML(t *testing.T) {
	assert.True(t, IsPatentXML("EP1234567.xml"))
	assert.False(t, IsPatentXML("TOC.xml"))
	assert.False(t, IsPatentXML("weekTOC.xml"))
	assert.False(t, IsPatentXML("readme.txt"))
}

// buildInnerZip returns a zip holding the given name→content files.
func buildInnerZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func writeTopZip(t *testing.T, dir string, members map[string][]byte) string {
	t.Helper()
	p := filepath.Join(dir, "EPRTBJV2025000001001001.zip")
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, data := range members {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, os.WriteFile(p, buf.Bytes(), 0o644))
	return p
}

func TestWalkArchiveFileZipWithInnerZips(t *testing.T) {
	inner := buildInnerZip(t, map[string]string{
		"DOC/EP001.xml": "<doc/>",
		"DOC/TOC.xml":   "<toc/>",
		"DOC/note.txt":  "skip",
	})
	top := writeTopZip(t, t.TempDir(), map[string][]byte{
		"DOC/batch01.zip": inner,
		"index.html":      []byte("<html/>"),
	})

	var got []string
	u := NewUnpacker(logging.NewNopLogger())
	err := u.WalkArchiveFile(top, func(m Member) error {
		got = append(got, m.Name)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"EP001.xml"}, got)
}

func TestWalkArchiveFileTar(t *testing.T) {
	inner := buildInnerZip(t, map[string]string{"EP002.xml": "<doc/>"})

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name: "DOC/batch01.zip", Mode: 0o644, Size: int64(len(inner)),
	}))
	_, err := tw.Write(inner)
	require.NoError(t, err)
	require.NoError(t, tw.Close())

	p := filepath.Join(t.TempDir(), "EPRTBJV2025000001001001.tar")
	require.NoError(t, os.WriteFile(p, buf.Bytes(), 0o644))

	var got []string
	u := NewUnpacker(logging.NewNopLogger())
	err = u.WalkArchiveFile(p, func(m Member) error {
		got = append(got, m.Name)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"EP002.xml"}, got)
}

func TestWalkArchiveFileUnsupportedExtension(t *testing.T) {
	u := NewUnpacker(logging.NewNopLogger())
	err := u.WalkArchiveFile("/tmp/archive.rar", func(Member) error { return nil })
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeUnsupportedArchive))
}

func TestWalkArchiveFileBareXMLMember(t *testing.T) {
	top := writeTopZip(t, t.TempDir(), map[string][]byte{
		"DOC/EP003.xml": []byte("<doc/>"),
	})

	var got []string
	u := NewUnpacker(logging.NewNopLogger())
	err := u.WalkArchiveFile(top, func(m Member) error {
		got = append(got, m.Name)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"EP003.xml"}, got)
}

func TestListZipMembers(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "ipg240102.zip")
	require.NoError(t, os.WriteFile(p, buildInnerZip(t, map[string]string{
		"ipg240102.xml": "<us-patent-grant/>",
		"checksum.txt":  "x",
	}), 0o644))

	u := NewUnpacker(logging.NewNopLogger())
	members, err := u.ListZipMembers(p)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "ipg240102.xml", members[0].Name)
	assert.Equal(t, "<us-patent-grant/>", string(members[0].Data))
}
