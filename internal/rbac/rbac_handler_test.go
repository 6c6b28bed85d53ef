package rbac

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// =========================================
// Mock Service
// =========================================

type mockService struct{}

func (m *mockService) LoadPolicy() error {
	return nil
}

func (m *mockService) Enforce(role, resource, action string) (bool, error) {
	if role == "hr" && resource == "payslip" && action == "read" {
		return true, nil
	}
	return false, nil
}

func (m *mockService) Permissions(role string) ([]string, error) {
	if role == "hr" {
		return []string{"payslip:read"}, nil
	}
	return []string{}, nil
}

type envelope struct {
	Ok   bool            `json:"ok"`
	Data json.RawMessage `json:"data"`
}

func TestHandler_Enforce(t *testing.T) {
	gin.SetMode(gin.TestMode)

	handler := NewHandler(&mockService{})

	router := gin.New()
	router.POST("/rbac/enforce", handler.Enforce)

	t.Run("allowed", func(t *testing.T) {
		jsonBody, _ := json.Marshal(EnforceRequest{Role: "hr", Resource: "payslip", Action: "read"})
		req, _ := http.NewRequest(http.MethodPost, "/rbac/enforce", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var env envelope
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
		var resp EnforceResponse
		assert.NoError(t, json.Unmarshal(env.Data, &resp))
		assert.True(t, resp.Allowed)
	})

	t.Run("missing fields", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, "/rbac/enforce", bytes.NewBufferString(`{"role":"hr"}`))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandler_MyPermissions(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/rbac/me/permissions", nil)
	c.Set("role", "hr")

	NewHandler(&mockService{}).MyPermissions(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"data":{"role":"hr","permissions":["payslip:read"]}}`, w.Body.String())
}
