// Package loader turns raw uploaded bytes into plain text. One loader per
// supported file format, selected by extension, with a generic fallback for
// everything else.
package loader

import (
	"path/filepath"
	"strings"

	"docindex/types"
)

// Loader extracts plain text from one document format.
type Loader interface {
	Load(data []byte) (*types.ExtractedDoc, error)
}

var registry = map[string]Loader{
	".txt":  TextLoader{},
	".md":   MarkdownLoader{},
	".pdf":  PDFLoader{},
	".docx": DocxLoader{},
	".doc":  DocxLoader{},
}

// ForFile picks the loader for a file name by extension. Unknown extensions
// get the fallback loader, which accepts plain UTF-8 text and rejects
// binary payloads.
func ForFile(fileName string) Loader {
	ext := strings.ToLower(filepath.Ext(fileName))
	if l, ok := registry[ext]; ok {
		return l
	}
	return FallbackLoader{}
}
