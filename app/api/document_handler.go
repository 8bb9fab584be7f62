package api

import (
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2"

	"docindex/engine"
)

type DocumentHandler struct {
	engine *engine.Engine
}

func NewDocumentHandler(e *engine.Engine) *DocumentHandler {
	return &DocumentHandler{
		engine: e,
	}
}

// HandleUpload accepts a multipart upload and runs it through the ingestion
// pipeline.
func (h *DocumentHandler) HandleUpload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return ErrBadRequest()
	}

	file, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	contents, err := io.ReadAll(file)
	if err != nil {
		return err
	}
	if len(contents) == 0 {
		return NewError(fiber.StatusBadRequest, "file is empty")
	}

	fmt.Printf("[UPLOAD] received %s (%d bytes)\n", fileHeader.Filename, len(contents))

	already, err := h.engine.ProcessDocument(c.Context(), contents, fileHeader.Filename)
	if err != nil {
		return err
	}

	message := fmt.Sprintf("Document %s processed successfully", fileHeader.Filename)
	if already {
		message = fmt.Sprintf("Document %s was already processed", fileHeader.Filename)
	}
	return c.JSON(fiber.Map{
		"status":            "success",
		"message":           message,
		"doc_id":            engine.Identify(contents),
		"already_processed": already,
	})
}

func (h *DocumentHandler) HandleList(c *fiber.Ctx) error {
	docs := h.engine.ListDocuments()

	out := make([]fiber.Map, 0, len(docs))
	for _, doc := range docs {
		out = append(out, fiber.Map{
			"doc_id":       doc.DocID,
			"name":         doc.FileName,
			"size":         doc.Size,
			"chunks":       doc.Chunks,
			"processed_at": doc.ProcessedAt,
			"ref_ids":      doc.RefIDs,
		})
	}
	return c.JSON(out)
}

func (h *DocumentHandler) HandleDelete(c *fiber.Ctx) error {
	docID := c.Params("id")
	if err := h.engine.DeleteDocument(c.Context(), docID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "success", "doc_id": docID})
}

// HandleReference dereferences a citation handle back to its chunk.
func (h *DocumentHandler) HandleReference(c *fiber.Ctx) error {
	chunk, err := h.engine.GetReferenceContent(c.Context(), c.Params("ref"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"content": chunk.Content,
		"metadata": fiber.Map{
			"source":       chunk.Source,
			"doc_id":       chunk.DocID,
			"chunk_index":  chunk.ChunkIndex,
			"reference_id": chunk.ReferenceID,
			"page":         chunk.Page,
		},
	})
}
