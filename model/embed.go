// Package model holds the embedding capability used by the vector index
// adapters. The engine never calls an embedder directly.
package model

// Embedder converts text into a normalized vector representation.
type Embedder interface {
	Embed(text string) ([]float32, error)
}
