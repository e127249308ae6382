package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/interfaces/http/dto"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"module not found", shared.NewDomainError("DOCUMENT_NOT_FOUND", "gone"), http.StatusNotFound, "DOCUMENT_NOT_FOUND"},
		{"already exists", shared.ErrAlreadyExists, http.StatusConflict, dto.ErrCodeAlreadyExists},
		{"concurrency", shared.NewDomainError("CONCURRENCY_CONFLICT", "stale"), http.StatusConflict, dto.ErrCodeConcurrencyConflict},
		{"read only", shared.ErrReadOnly, http.StatusForbidden, dto.ErrCodeReadOnly},
		{"wrapped domain error", fmt.Errorf("deploy: %w", shared.ErrInvalidInput), http.StatusBadRequest, dto.ErrCodeInvalidInput},
		{"engine failure", shared.NewDomainError("PROCESS_ENGINE_ERROR", "down"), http.StatusBadGateway, dto.ErrCodeProcessEngine},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Set(middleware.RequestIDKey, "req-1")

			h := &BaseHandler{}
			h.HandleError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, "req-1", resp.Error.RequestID)
		})
	}
}

func TestBaseHandler_HandleErrorKeepsDetails(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	h := &BaseHandler{}
	h.HandleError(c, shared.NewDomainError("DOCUMENT_CONTENT_INVALID", "invalid").
		WithDetails(map[string]any{"path": "/age"}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"path":"/age"}`, mustMarshal(t, decodeResponse(t, w).Error.Details))
}

func TestBaseHandler_UUIDParam(t *testing.T) {
	r := gin.New()
	h := &BaseHandler{}
	r.GET("/things/:id", func(c *gin.Context) {
		id, ok := h.uuidParam(c, "id")
		if !ok {
			return
		}
		h.Success(c, id.String())
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/things/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeBadRequest, decodeResponse(t, w).Error.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/things/6f1c2d0e-1a6b-4f3e-9a55-0a4f5f0e8c11", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "6f1c2d0e-1a6b-4f3e-9a55-0a4f5f0e8c11", decodeResponse(t, w).Data)
}

func TestPaged(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Paged(c, shared.NewPaginated([]string{"a", "b"}, 12, 2, 5))

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(12), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.Page)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}

func TestIntQuery(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/?page=3&size=-1&bad=x", nil)

	assert.Equal(t, 3, intQuery(c, "page", 1))
	assert.Equal(t, 20, intQuery(c, "size", 20))
	assert.Equal(t, 7, intQuery(c, "bad", 7))
	assert.Equal(t, 9, intQuery(c, "missing", 9))
}

func mustMarshal(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}
