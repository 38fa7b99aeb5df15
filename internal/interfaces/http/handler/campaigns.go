package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/velvet/backend/internal/application/studio"
)

// DashboardService reads campaign activity
type DashboardService interface {
	CampaignDashboard(ctx context.Context) *studio.Dashboard
}

// CampaignHandler serves the campaign dashboard
type CampaignHandler struct {
	BaseHandler
	svc DashboardService
}

// NewCampaignHandler creates a new CampaignHandler
func NewCampaignHandler(svc DashboardService) *CampaignHandler {
	return &CampaignHandler{svc: svc}
}

// Dashboard godoc
// @Summary      Campaign dashboard
// @Description  Recent "Generated 3D Model" events with summary counts
// @Tags         campaigns
// @Produce      json
// @Success      200 {object} dto.Response{data=studio.Dashboard}
// @Router       /campaigns/dashboard [get]
func (h *CampaignHandler) Dashboard(c *gin.Context) {
	h.Success(c, h.svc.CampaignDashboard(c.Request.Context()))
}
