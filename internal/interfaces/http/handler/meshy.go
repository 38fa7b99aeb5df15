package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/velvet/backend/internal/domain/generation"
	"github.com/velvet/backend/internal/domain/integration"
	"github.com/velvet/backend/internal/interfaces/http/dto"
	"github.com/velvet/backend/internal/interfaces/http/middleware"
)

// MeshService runs image-to-3D jobs
type MeshService interface {
	CreateMeshTask(ctx context.Context, creds integration.Credentials, productID string) (string, error)
	GetMeshTask(ctx context.Context, taskID string) (*generation.MeshTask, error)
}

// MeshHandler serves the image-to-3D task endpoints
type MeshHandler struct {
	BaseHandler
	svc MeshService
}

// NewMeshHandler creates a new MeshHandler
func NewMeshHandler(svc MeshService) *MeshHandler {
	return &MeshHandler{svc: svc}
}

// Create godoc
// @Summary      Start an image-to-3D task
// @Tags         meshy
// @Accept       json
// @Produce      json
// @Param        request body dto.MeshTaskRequest true "Task request"
// @Success      201 {object} dto.Response{data=dto.MeshTaskCreatedResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /meshy/tasks [post]
func (h *MeshHandler) Create(c *gin.Context) {
	var req dto.MeshTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	taskID, err := h.svc.CreateMeshTask(c.Request.Context(), middleware.GetCredentials(c), req.ProductID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.MeshTaskCreatedResponse{TaskID: taskID})
}

// Get godoc
// @Summary      Get an image-to-3D task
// @Tags         meshy
// @Produce      json
// @Param        id path string true "Task ID"
// @Success      200 {object} dto.Response{data=generation.MeshTask}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /meshy/tasks/{id} [get]
func (h *MeshHandler) Get(c *gin.Context) {
	task, err := h.svc.GetMeshTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, task)
}
