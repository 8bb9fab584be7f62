// Package chunker splits extracted document text into bounded, overlapping
// segments suitable for embedding and citation.
package chunker

import "strings"

// separator preference for picking a split point inside a window. Tried in
// order; the hard character cut is the implicit last resort.
var separators = []string{"\n\n", "\n", ".", "!", "?", ",", " "}

// Span is one produced segment together with the rune offset of its window
// start in the source text. The offset lets callers map a chunk back to a
// page boundary.
type Span struct {
	Text  string
	Start int
}

type Splitter struct {
	chunkSize int
	overlap   int
}

func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 500
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = chunkSize / 5
	}
	return &Splitter{
		chunkSize: chunkSize,
		overlap:   overlap,
	}
}

// Split cuts text into windows of at most chunkSize characters with the
// configured overlap between consecutive windows. Within each window the
// split point is the last occurrence of the highest-priority separator, so
// boundaries land on paragraph or sentence ends when the text allows it.
// Whitespace-only segments are dropped.
func (s *Splitter) Split(text string) []Span {
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil
	}

	var spans []Span
	start := 0
	for start < n {
		end := start + s.chunkSize
		if end > n {
			end = n
		} else {
			if cut := splitPoint(runes[start:end]); cut > 0 {
				end = start + cut
			}
		}

		seg := strings.TrimSpace(string(runes[start:end]))
		if seg != "" {
			spans = append(spans, Span{Text: seg, Start: start})
		}

		if end >= n {
			break
		}
		next := end - s.overlap
		if next <= start {
			// window shrank below the overlap, step past it to keep progress
			next = end
		}
		start = next
	}
	return spans
}

// splitPoint returns the rune position just after the last occurrence of
// the highest-priority separator within the window, or 0 when only a hard
// cut is possible.
func splitPoint(window []rune) int {
	text := string(window)
	for _, sep := range separators {
		idx := strings.LastIndex(text, sep)
		if idx <= 0 {
			continue
		}
		return len([]rune(text[:idx])) + len([]rune(sep))
	}
	return 0
}
