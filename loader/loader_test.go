package loader

import (
	"archive/zip"
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docindex/types"
)

func TestForFile_Dispatch(t *testing.T) {
	assert.IsType(t, TextLoader{}, ForFile("notes.txt"))
	assert.IsType(t, TextLoader{}, ForFile("NOTES.TXT"))
	assert.IsType(t, MarkdownLoader{}, ForFile("readme.md"))
	assert.IsType(t, PDFLoader{}, ForFile("paper.pdf"))
	assert.IsType(t, DocxLoader{}, ForFile("report.docx"))
	assert.IsType(t, DocxLoader{}, ForFile("legacy.doc"))
	assert.IsType(t, FallbackLoader{}, ForFile("data.csv"))
	assert.IsType(t, FallbackLoader{}, ForFile("no-extension"))
}

func TestTextLoader(t *testing.T) {
	doc, err := TextLoader{}.Load([]byte("line one\r\nline two\rend"))
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two\nend", doc.Text)
	assert.Empty(t, doc.PageStarts)
}

func TestTextLoader_RejectsInvalidUTF8(t *testing.T) {
	_, err := TextLoader{}.Load([]byte{0xff, 0xfe, 0xfd})
	assert.ErrorIs(t, err, types.ErrParse)
}

func TestMarkdownLoader_StripsMarkup(t *testing.T) {
	src := "# Title\n\nSome **bold** text with a [link](https://example.com).\n\n```\ncode here\n```\n"
	doc, err := MarkdownLoader{}.Load([]byte(src))
	require.NoError(t, err)
	assert.NotContains(t, doc.Text, "# Title")
	assert.Contains(t, doc.Text, "Title")
	assert.Contains(t, doc.Text, "bold")
	assert.NotContains(t, doc.Text, "**")
	assert.Contains(t, doc.Text, "link")
	assert.NotContains(t, doc.Text, "https://example.com")
	assert.NotContains(t, doc.Text, "```")
}

func TestFallbackLoader_AcceptsText(t *testing.T) {
	doc, err := FallbackLoader{}.Load([]byte("name,value\nfoo,1\n"))
	require.NoError(t, err)
	assert.Contains(t, doc.Text, "foo")
}

func TestFallbackLoader_RejectsBinary(t *testing.T) {
	_, err := FallbackLoader{}.Load([]byte{0x7f, 0x45, 0x4c, 0x46, 0x00, 0x01})
	assert.ErrorIs(t, err, types.ErrUnsupportedFormat)
}

// createTestDOCX builds a minimal in-memory DOCX archive.
func createTestDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)

	contentTypes, err := w.Create("[Content_Types].xml")
	require.NoError(t, err)
	_, err = contentTypes.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="xml" ContentType="application/xml"/>
</Types>`))
	require.NoError(t, err)

	if documentXML != "" {
		doc, err := w.Create("word/document.xml")
		require.NoError(t, err)
		_, err = doc.Write([]byte(documentXML))
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestDocxLoader(t *testing.T) {
	data := createTestDOCX(t, `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>First paragraph.</w:t></w:r></w:p>
<w:p><w:r><w:t>Second </w:t></w:r><w:r><w:t>paragraph.</w:t></w:r></w:p>
</w:body>
</w:document>`)

	doc, err := DocxLoader{}.Load(data)
	require.NoError(t, err)
	assert.Contains(t, doc.Text, "First paragraph.")
	assert.Contains(t, doc.Text, "Second paragraph.")
	assert.Contains(t, doc.Text, "First paragraph.\n")
}

func TestDocxLoader_NotAnArchive(t *testing.T) {
	_, err := DocxLoader{}.Load([]byte("plain text, not a zip"))
	assert.ErrorIs(t, err, types.ErrParse)
}

func TestDocxLoader_MissingDocumentXML(t *testing.T) {
	_, err := DocxLoader{}.Load(createTestDOCX(t, ""))
	assert.ErrorIs(t, err, types.ErrParse)
}

func TestPDFLoader_NotAPDF(t *testing.T) {
	_, err := PDFLoader{}.Load([]byte("definitely not a pdf"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrParse))
}
