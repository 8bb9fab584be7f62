package api

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"docindex/app/agent"
	"docindex/engine"
	"docindex/types"
)

type QueryHandler struct {
	engine *engine.Engine
}

func NewQueryHandler(e *engine.Engine) *QueryHandler {
	return &QueryHandler{
		engine: e,
	}
}

// HandleQuery retrieves relevant chunks for a query and, when asked,
// generates an answer grounded on them. Retrieval results are returned even
// if answer generation fails.
func (h *QueryHandler) HandleQuery(c *fiber.Ctx) error {
	var params types.QueryParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}

	if errors := types.Validate(&params); len(errors) > 0 {
		return types.NewValidationError(errors)
	}

	results := h.engine.GetRelevantContext(c.Context(), params.Query, params.K)

	sources := make([]types.Source, len(results))
	for i, sc := range results {
		sources[i] = types.Source{
			ReferenceID: sc.Chunk.ReferenceID,
			Source:      sc.Chunk.Source,
			Page:        sc.Chunk.Page,
			Content:     sc.Chunk.Content,
			Score:       sc.Score,
		}
	}

	resp := &types.QueryResponse{
		Sources:   sources,
		Timestamp: time.Now(),
	}

	if params.Answer {
		answer, err := agent.GenerateAnswer(results, params.Query)
		if err != nil {
			fmt.Println("error generating answer:", err)
		} else {
			resp.Answer = answer
		}
	}

	return c.JSON(resp)
}
