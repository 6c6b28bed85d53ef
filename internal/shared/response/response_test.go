package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestNewPaginationMeta(t *testing.T) {
	meta := NewPaginationMeta(21, 2, 10)

	assert.Equal(t, int64(21), meta.Total)
	assert.Equal(t, 3, meta.TotalPages)
	assert.Equal(t, 2, meta.Page)
	assert.Equal(t, 10, meta.PageSize)
}

func TestError_Envelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Error(c, http.StatusConflict, "CONFLICT", "busy", nil)

	var env map[string]any
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, false, env["ok"])
	assert.Equal(t, "CONFLICT", env["error"].(map[string]any)["code"])
}

func TestAttachment(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Attachment(c, "fiche_paie_5.pdf", "application/pdf", []byte("%PDF-1.4"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="fiche_paie_5.pdf"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF-1.4", w.Body.String())
}
