package loader

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"docindex/types"
)

// DocxLoader extracts text from OOXML word documents. A .docx file is a zip
// archive; the body text lives in word/document.xml.
type DocxLoader struct{}

func (DocxLoader) Load(data []byte) (*types.ExtractedDoc, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: not a docx archive: %v", types.ErrParse, err)
	}

	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: open document.xml: %v", types.ErrParse, err)
		}
		defer rc.Close()

		text, err := extractDocumentText(rc)
		if err != nil {
			return nil, err
		}
		return &types.ExtractedDoc{Text: text}, nil
	}
	return nil, fmt.Errorf("%w: word/document.xml missing", types.ErrParse)
}

// extractDocumentText walks the XML token stream collecting character data
// from <w:t> runs, with paragraph ends mapped to line breaks.
func extractDocumentText(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)

	var sb strings.Builder
	inText := false
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: decode document.xml: %v", types.ErrParse, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return sb.String(), nil
}
