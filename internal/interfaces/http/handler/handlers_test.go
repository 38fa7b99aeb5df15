package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/velvet/backend/internal/application/studio"
	"github.com/velvet/backend/internal/domain/generation"
	"github.com/velvet/backend/internal/domain/integration"
	"github.com/velvet/backend/internal/domain/shared"
	"github.com/velvet/backend/internal/infrastructure/config"
	"github.com/velvet/backend/internal/interfaces/http/dto"
	"github.com/velvet/backend/internal/interfaces/http/middleware"
)

func TestStoreHandler(t *testing.T) {
	h := NewStoreHandler(middleware.NewCookies(config.CookieConfig{}))
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Credentials())
	r.POST("/store/connect", h.Connect)
	r.POST("/store/disconnect", h.Disconnect)
	r.GET("/store/status", h.Status)

	t.Run("connect", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/store/connect", `{"domain":"velvet.myshopify.com","token":"shpat_1"}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":true}`, w.Body.String())

		domain, ok := cookieValue(w, middleware.CookieShopDomain)
		require.True(t, ok)
		assert.Equal(t, "velvet.myshopify.com", domain)
	})

	t.Run("connect rejects foreign domain", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/store/connect", `{"domain":"shop.example.com","token":"shpat_1"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		_, ok := cookieValue(w, middleware.CookieShopDomain)
		assert.False(t, ok)
	})

	t.Run("disconnect", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/store/disconnect", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":true}`, w.Body.String())
		_, ok := cookieValue(w, middleware.CookieShopToken)
		assert.True(t, ok)
	})

	t.Run("status", func(t *testing.T) {
		w := doJSON(r, http.MethodGet, "/store/status", "", append(storeCookies,
			&http.Cookie{Name: middleware.CookieKlaviyoToken, Value: "kl"})...)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data dto.StoreStatusResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Data.ShopifyConnected)
		assert.True(t, resp.Data.KlaviyoConnected)
		assert.Equal(t, "velvet.myshopify.com", resp.Data.ShopifyDomain)
	})

	t.Run("status without cookies", func(t *testing.T) {
		w := doJSON(r, http.MethodGet, "/store/status", "")
		assert.JSONEq(t, `{"success":true,"data":{"shopifyConnected":false,"klaviyoConnected":false}}`, w.Body.String())
	})
}

func TestCampaignHandler_Dashboard(t *testing.T) {
	svc := new(MockDashboardService)
	svc.On("CampaignDashboard", mock.Anything).Return(&studio.Dashboard{
		TotalGenerated: 1,
		FlowsTriggered: 1,
		RecoveryRate:   studio.RecoveryRateUnavailable,
		Events: []integration.MarketingEvent{{
			ID:    "evt_1",
			Email: "ada@example.com",
		}},
	})

	h := NewCampaignHandler(svc)
	r := gin.New()
	r.GET("/campaigns/dashboard", h.Dashboard)

	w := doJSON(r, http.MethodGet, "/campaigns/dashboard", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data studio.Dashboard `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Data.TotalGenerated)
	assert.Equal(t, "N/A", resp.Data.RecoveryRate)
	require.Len(t, resp.Data.Events, 1)
	assert.Equal(t, "ada@example.com", resp.Data.Events[0].Email)
}

func TestGenerationHandler(t *testing.T) {
	record := generation.Record{
		ID:           uuid.New(),
		TaskID:       "mock_1718000000000",
		ProductID:    "prod_1",
		ProductTitle: "Velvet Lounge Chair",
		Mode:         generation.ModeMock,
		ModelURL:     "https://models.example.com/chair.glb",
		Email:        "ada@example.com",
		Source:       "demo",
		CreatedAt:    time.Date(2024, 6, 10, 6, 13, 20, 0, time.UTC),
	}

	newRouter := func(svc GenerationService) *gin.Engine {
		h := NewGenerationHandler(svc)
		r := gin.New()
		r.GET("/generations", h.List)
		r.GET("/generations/:taskId", h.Get)
		return r
	}

	t.Run("list passes limit", func(t *testing.T) {
		svc := new(MockGenerationService)
		svc.On("ListGenerations", mock.Anything, 5).Return([]generation.Record{record}, nil)

		w := doJSON(newRouter(svc), http.MethodGet, "/generations?limit=5", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"taskId":"mock_1718000000000"`)
		assert.NotContains(t, w.Body.String(), "ada@example.com")
	})

	t.Run("list default limit", func(t *testing.T) {
		svc := new(MockGenerationService)
		svc.On("ListGenerations", mock.Anything, 0).Return([]generation.Record{}, nil)

		w := doJSON(newRouter(svc), http.MethodGet, "/generations", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success":true,"data":[]}`, w.Body.String())
	})

	t.Run("list bad limit", func(t *testing.T) {
		svc := new(MockGenerationService)
		w := doJSON(newRouter(svc), http.MethodGet, "/generations?limit=ten", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("ledger disabled", func(t *testing.T) {
		svc := new(MockGenerationService)
		svc.On("ListGenerations", mock.Anything, 0).
			Return(nil, shared.ErrNotConfigured.WithMessage("generation ledger is disabled"))

		w := doJSON(newRouter(svc), http.MethodGet, "/generations", "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "generation ledger is disabled")
	})

	t.Run("get", func(t *testing.T) {
		svc := new(MockGenerationService)
		svc.On("GetGeneration", mock.Anything, "mock_1718000000000").Return(&record, nil)

		w := doJSON(newRouter(svc), http.MethodGet, "/generations/mock_1718000000000", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"productTitle":"Velvet Lounge Chair"`)
	})

	t.Run("get not found", func(t *testing.T) {
		svc := new(MockGenerationService)
		svc.On("GetGeneration", mock.Anything, "missing").Return(nil, shared.ErrNotFound)

		w := doJSON(newRouter(svc), http.MethodGet, "/generations/missing", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestMeshHandler(t *testing.T) {
	newRouter := func(svc MeshService) *gin.Engine {
		h := NewMeshHandler(svc)
		r := gin.New()
		r.Use(middleware.Credentials())
		r.POST("/meshy/tasks", h.Create)
		r.GET("/meshy/tasks/:id", h.Get)
		return r
	}

	t.Run("create", func(t *testing.T) {
		svc := new(MockMeshService)
		svc.On("CreateMeshTask", mock.Anything, integration.Credentials{}, "prod_1").Return("task-1", nil)

		w := doJSON(newRouter(svc), http.MethodPost, "/meshy/tasks", `{"productId":"prod_1"}`)
		require.Equal(t, http.StatusCreated, w.Code)
		assert.JSONEq(t, `{"success":true,"data":{"taskId":"task-1"}}`, w.Body.String())
	})

	t.Run("create without key", func(t *testing.T) {
		svc := new(MockMeshService)
		svc.On("CreateMeshTask", mock.Anything, mock.Anything, "prod_1").Return("", integration.ErrPlatformNotConfigured)

		w := doJSON(newRouter(svc), http.MethodPost, "/meshy/tasks", `{"productId":"prod_1"}`)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("get", func(t *testing.T) {
		svc := new(MockMeshService)
		svc.On("GetMeshTask", mock.Anything, "task-1").Return(&generation.MeshTask{
			ID:       "task-1",
			Status:   generation.MeshTaskSucceeded,
			Progress: 100,
			ModelURLs: generation.MeshModelURLs{
				GLB: "https://assets.meshy.ai/task-1/model.glb",
			},
		}, nil)

		w := doJSON(newRouter(svc), http.MethodGet, "/meshy/tasks/task-1", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"SUCCEEDED"`)
		assert.Contains(t, w.Body.String(), `"glb":"https://assets.meshy.ai/task-1/model.glb"`)
	})
}

func TestHealthHandler(t *testing.T) {
	t.Run("no database", func(t *testing.T) {
		r := gin.New()
		r.GET("/health", NewHealthHandler(nil).Check)

		w := doJSON(r, http.MethodGet, "/health", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"healthy"`)
	})

	t.Run("database up", func(t *testing.T) {
		db := new(MockPinger)
		db.On("PingContext", mock.Anything).Return(nil)

		r := gin.New()
		r.GET("/health", NewHealthHandler(db).Check)

		w := doJSON(r, http.MethodGet, "/health", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"database":"healthy"`)
	})

	t.Run("database down", func(t *testing.T) {
		db := new(MockPinger)
		db.On("PingContext", mock.Anything).Return(errors.New("connection refused"))

		r := gin.New()
		r.GET("/health", NewHealthHandler(db).Check)

		w := doJSON(r, http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"unhealthy"`)
	})
}
