package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velvet/backend/internal/interfaces/http/dto"
)

func TestHandleValidationError(t *testing.T) {
	require.NoError(t, SetupValidator())

	r := gin.New()
	r.Use(RequestID())
	r.POST("/connect", func(c *gin.Context) {
		var req dto.ConnectStoreRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
		wantFields []string
	}{
		{
			name:       "valid",
			body:       `{"domain":"velvet.myshopify.com","token":"shpat_1"}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "bad domain",
			body:       `{"domain":"velvet.example.com","token":"shpat_1"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   dto.ErrCodeValidation,
			wantFields: []string{"domain"},
		},
		{
			name:       "missing fields use json names",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   dto.ErrCodeValidation,
			wantFields: []string{"domain", "token"},
		},
		{
			name:       "malformed json",
			body:       `{"domain":`,
			wantStatus: http.StatusBadRequest,
			wantCode:   dto.ErrCodeInvalidJSON,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/connect", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := serve(r, req)

			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode == "" {
				return
			}

			var resp dto.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.NotNil(t, resp.Error)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.NotEmpty(t, resp.Error.RequestID)

			var fields []string
			for _, d := range resp.Error.Details {
				fields = append(fields, d.Field)
			}
			assert.ElementsMatch(t, tt.wantFields, fields)
		})
	}
}

func TestFormatValidationErrors_NonValidatorError(t *testing.T) {
	assert.Nil(t, FormatValidationErrors(assert.AnError))
}
