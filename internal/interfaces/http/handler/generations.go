package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/velvet/backend/internal/domain/generation"
	"github.com/velvet/backend/internal/interfaces/http/dto"
)

// GenerationService reads the generation ledger
type GenerationService interface {
	ListGenerations(ctx context.Context, limit int) ([]generation.Record, error)
	GetGeneration(ctx context.Context, taskID string) (*generation.Record, error)
}

// GenerationHandler serves the generation history
type GenerationHandler struct {
	BaseHandler
	svc GenerationService
}

// NewGenerationHandler creates a new GenerationHandler
func NewGenerationHandler(svc GenerationService) *GenerationHandler {
	return &GenerationHandler{svc: svc}
}

// List godoc
// @Summary      Recent generations
// @Tags         generations
// @Produce      json
// @Param        limit query int false "Maximum entries (1-50, default 10)"
// @Success      200 {object} dto.Response{data=[]dto.GenerationResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /generations [get]
func (h *GenerationHandler) List(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.BadRequest(c, "limit must be an integer")
			return
		}
		limit = n
	}

	records, err := h.svc.ListGenerations(c.Request.Context(), limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]dto.GenerationResponse, len(records))
	for i := range records {
		out[i] = dto.NewGenerationResponse(&records[i])
	}
	h.Success(c, out)
}

// Get godoc
// @Summary      Get a generation by task ID
// @Tags         generations
// @Produce      json
// @Param        taskId path string true "Task ID"
// @Success      200 {object} dto.Response{data=dto.GenerationResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /generations/{taskId} [get]
func (h *GenerationHandler) Get(c *gin.Context) {
	record, err := h.svc.GetGeneration(c.Request.Context(), c.Param("taskId"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewGenerationResponse(record))
}
