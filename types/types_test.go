package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageAt(t *testing.T) {
	doc := &ExtractedDoc{
		Text:       "page one text page two text page three text",
		PageStarts: []int{0, 14, 28},
	}

	assert.Equal(t, 1, doc.PageAt(0))
	assert.Equal(t, 1, doc.PageAt(13))
	assert.Equal(t, 2, doc.PageAt(14))
	assert.Equal(t, 3, doc.PageAt(28))
	assert.Equal(t, 3, doc.PageAt(1000))
}

func TestPageAt_NoPages(t *testing.T) {
	doc := &ExtractedDoc{Text: "plain text"}
	assert.Equal(t, 0, doc.PageAt(0))
	assert.Equal(t, 0, doc.PageAt(500))
}

func TestQueryParamsValidate(t *testing.T) {
	params := &QueryParams{Query: "what is this about", K: 5}
	assert.Nil(t, Validate(params))

	missing := &QueryParams{}
	errs := Validate(missing)
	require.NotNil(t, errs)
	assert.Contains(t, errs, "Query")

	outOfRange := &QueryParams{Query: "q", K: 50}
	errs = Validate(outOfRange)
	require.NotNil(t, errs)
	assert.Contains(t, errs, "K")
}

func TestConfigFromEnv_Defaults(t *testing.T) {
	cfg := ConfigFromEnv()
	assert.Equal(t, 500, cfg.ChunkSize)
	assert.Equal(t, 100, cfg.ChunkOverlap)
	assert.Equal(t, int64(10*1024*1024), cfg.MaxDocBytes)
	assert.Equal(t, 200, cfg.MaxChunks)
	assert.Equal(t, 0.9, cfg.MaxDistance)
}

func TestConfigFromEnv_Overrides(t *testing.T) {
	t.Setenv("CHUNK_SIZE", "1000")
	t.Setenv("MAX_DISTANCE", "0.5")
	cfg := ConfigFromEnv()
	assert.Equal(t, 1000, cfg.ChunkSize)
	assert.Equal(t, 0.5, cfg.MaxDistance)
}
