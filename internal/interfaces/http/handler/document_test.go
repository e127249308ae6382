package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	docapp "github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/application/document"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/infrastructure/event"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/infrastructure/persistence"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/infrastructure/persistence/models"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const loanSchema = `{
	"$id": "loan.schema",
	"type": "object",
	"properties": {
		"applicant": {"type": "string"},
		"amount": {"type": "number"}
	},
	"required": ["applicant"]
}`

type documentFixture struct {
	router *gin.Engine
}

func newDocumentFixture(t *testing.T) *documentFixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(models.All()...))

	logger := zap.NewNop()
	definitions := persistence.NewGormDocumentDefinitionRepository(db)
	documents := persistence.NewGormDocumentRepository(db)
	searchFields := persistence.NewGormSearchFieldRepository(db)
	resources := persistence.NewGormResourceRepository(db)
	bus := event.NewInMemoryEventBus(logger)

	defHandler := NewDocumentDefinitionHandler(docapp.NewDefinitionService(definitions, documents, searchFields, bus, logger))
	docHandler := NewDocumentHandler(docapp.NewDocumentService(definitions, documents, searchFields, resources, nil, bus, logger))
	fieldHandler := NewSearchFieldHandler(docapp.NewSearchFieldService(definitions, searchFields))

	r := gin.New()
	api := r.Group("/api/v1")
	api.GET("/document-definition", defHandler.List)
	api.POST("/document-definition", defHandler.Deploy)
	api.GET("/document-definition/:name", defHandler.GetLatest)
	api.GET("/document-definition/:name/version/:version", defHandler.GetVersion)
	api.DELETE("/document-definition/:name", defHandler.Delete)
	api.POST("/document", docHandler.Create)
	api.PUT("/document", docHandler.Modify)
	api.GET("/document/:id", docHandler.Get)
	api.DELETE("/document/:id", docHandler.Delete)
	api.POST("/document-search", docHandler.Search)
	api.POST("/document-search/:name", docHandler.AdvancedSearch)
	api.GET("/document-search/:name/fields", fieldHandler.List)
	api.POST("/document-search/:name/fields", fieldHandler.Create)
	return &documentFixture{router: r}
}

func (f *documentFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *documentFixture) deployLoan(t *testing.T) {
	t.Helper()
	w := f.do(t, http.MethodPost, "/api/v1/document-definition", map[string]any{"schema": json.RawMessage(loanSchema)})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func (f *documentFixture) createLoan(t *testing.T, content string) map[string]any {
	t.Helper()
	w := f.do(t, http.MethodPost, "/api/v1/document", map[string]any{
		"definition_name": "loan",
		"content":         json.RawMessage(content),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeResponse(t, w).Data.(map[string]any)
}

func TestDocumentDefinitionHandler_Deploy(t *testing.T) {
	f := newDocumentFixture(t)

	f.deployLoan(t)

	t.Run("identical schema is a no-op", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/v1/document-definition", map[string]any{"schema": json.RawMessage(loanSchema)})
		assert.Equal(t, http.StatusOK, w.Code)
		data := decodeResponse(t, w).Data.(map[string]any)
		assert.Equal(t, false, data["deployed"])
	})

	t.Run("latest and explicit version", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/api/v1/document-definition/loan", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, float64(1), decodeResponse(t, w).Data.(map[string]any)["version"])

		w = f.do(t, http.MethodGet, "/api/v1/document-definition/loan/version/2", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = f.do(t, http.MethodGet, "/api/v1/document-definition/loan/version/zero", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing schema", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/v1/document-definition", map[string]any{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("list", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/api/v1/document-definition?page=1&size=10", nil)
		require.Equal(t, http.StatusOK, w.Code)
		resp := decodeResponse(t, w)
		assert.Len(t, resp.Data, 1)
		assert.Equal(t, int64(1), resp.Meta.Total)
	})
}

func TestDocumentHandler_Lifecycle(t *testing.T) {
	f := newDocumentFixture(t)
	f.deployLoan(t)

	doc := f.createLoan(t, `{"applicant":"Jane","amount":1000}`)
	id := doc["id"].(string)
	assert.Equal(t, float64(1), doc["sequence"])
	assert.Equal(t, float64(1), doc["version"])

	t.Run("content must match the schema", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/v1/document", map[string]any{
			"definition_name": "loan",
			"content":         json.RawMessage(`{"amount":"lots"}`),
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "DOCUMENT_CONTENT_INVALID", decodeResponse(t, w).Error.Code)
	})

	t.Run("unknown definition", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/v1/document", map[string]any{
			"definition_name": "mortgage",
			"content":         json.RawMessage(`{}`),
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("modify then stale modify", func(t *testing.T) {
		w := f.do(t, http.MethodPut, "/api/v1/document", map[string]any{
			"document_id":      id,
			"content":          json.RawMessage(`{"applicant":"Jane","amount":2000}`),
			"version_based_on": 1,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, float64(2), decodeResponse(t, w).Data.(map[string]any)["version"])

		w = f.do(t, http.MethodPut, "/api/v1/document", map[string]any{
			"document_id":      id,
			"content":          json.RawMessage(`{"applicant":"John"}`),
			"version_based_on": 1,
		})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "CONCURRENCY_CONFLICT", decodeResponse(t, w).Error.Code)
	})

	t.Run("definition with documents cannot be deleted", func(t *testing.T) {
		w := f.do(t, http.MethodDelete, "/api/v1/document-definition/loan", nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("get and delete", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/api/v1/document/"+id, nil)
		require.Equal(t, http.StatusOK, w.Code)
		content := decodeResponse(t, w).Data.(map[string]any)["content"].(map[string]any)
		assert.Equal(t, float64(2000), content["amount"])

		w = f.do(t, http.MethodDelete, "/api/v1/document/"+id, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = f.do(t, http.MethodGet, "/api/v1/document/"+id, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestDocumentHandler_Search(t *testing.T) {
	f := newDocumentFixture(t)
	f.deployLoan(t)
	f.createLoan(t, `{"applicant":"Jane Doe","amount":500}`)
	f.createLoan(t, `{"applicant":"John Roe","amount":5000}`)

	t.Run("global filter", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/v1/document-search", map[string]any{
			"definition_name":      "loan",
			"global_search_filter": "jane",
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		resp := decodeResponse(t, w)
		assert.Equal(t, int64(1), resp.Meta.Total)
	})

	t.Run("advanced search through a search field", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/v1/document-search/loan/fields", map[string]any{
			"key":        "amount",
			"path":       "amount",
			"data_type":  "number",
			"field_type": "range",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		w = f.do(t, http.MethodPost, "/api/v1/document-search/loan", map[string]any{
			"search_operator": "and",
			"other_filters":   []map[string]any{{"key": "amount", "range_from": "1000"}},
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		resp := decodeResponse(t, w)
		require.Len(t, resp.Data, 1)
		content := resp.Data.([]any)[0].(map[string]any)["content"].(map[string]any)
		assert.Equal(t, "John Roe", content["applicant"])
	})

	t.Run("unknown search key", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/v1/document-search/loan", map[string]any{
			"other_filters": []map[string]any{{"key": "nope", "values": []string{"x"}}},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
