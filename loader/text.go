package loader

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"docindex/types"
)

// TextLoader handles plain text files.
type TextLoader struct{}

func (TextLoader) Load(data []byte) (*types.ExtractedDoc, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: not valid utf-8 text", types.ErrParse)
	}
	return &types.ExtractedDoc{Text: normalize(string(data))}, nil
}

// FallbackLoader is used for extensions outside the known set. It accepts
// anything that decodes as text and fails on binary content, so a truly
// unknown format surfaces as an unsupported-format error rather than
// garbage chunks.
type FallbackLoader struct{}

func (FallbackLoader) Load(data []byte) (*types.ExtractedDoc, error) {
	if !utf8.Valid(data) || looksBinary(data) {
		return nil, types.ErrUnsupportedFormat
	}
	return &types.ExtractedDoc{Text: normalize(string(data))}, nil
}

// MarkdownLoader strips markdown syntax down to plain text so headings and
// link targets do not pollute the embedded content.
type MarkdownLoader struct{}

var (
	mdCodeFence = regexp.MustCompile("(?m)^```.*$")
	mdHeading   = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	mdLink      = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	mdEmphasis  = regexp.MustCompile(`(\*{1,2}|_{1,2})([^*_]+)(\*{1,2}|_{1,2})`)
)

func (MarkdownLoader) Load(data []byte) (*types.ExtractedDoc, error) {
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w: not valid utf-8 text", types.ErrParse)
	}
	text := normalize(string(data))
	text = mdCodeFence.ReplaceAllString(text, "")
	text = mdHeading.ReplaceAllString(text, "")
	text = mdLink.ReplaceAllString(text, "$1")
	text = mdEmphasis.ReplaceAllString(text, "$2")
	return &types.ExtractedDoc{Text: text}, nil
}

func normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

func looksBinary(data []byte) bool {
	limit := len(data)
	if limit > 1024 {
		limit = 1024
	}
	for _, b := range data[:limit] {
		if b == 0 {
			return true
		}
	}
	return false
}
