package types

import "errors"

// Ingestion and retrieval error kinds. Callers match with errors.Is;
// the HTTP layer maps them to status codes.
var (
	ErrUnsupportedFormat      = errors.New("unsupported document format")
	ErrDocumentTooLarge       = errors.New("document exceeds size limit")
	ErrEmptyDocument          = errors.New("document has no extractable text")
	ErrTooManyChunks          = errors.New("document produces too many chunks")
	ErrParse                  = errors.New("failed to parse document")
	ErrMetadataCorrupt        = errors.New("metadata file is corrupt")
	ErrVectorStoreUnavailable = errors.New("vector store unavailable")
	ErrInvalidReference       = errors.New("invalid reference id format")
	ErrReferenceNotFound      = errors.New("reference not found")
	ErrDocumentNotFound       = errors.New("document not found")
)
