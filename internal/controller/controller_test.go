package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"todo-demo/internal/models"
	"todo-demo/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func recordError(t *testing.T, err error) (*httptest.ResponseRecorder, map[string]string) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	writeError(c, err)
	body := map[string]string{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		detail string
	}{
		{"not found", &store.NotFoundError{Kind: store.KindItem, ID: 7}, http.StatusNotFound, "item 7 not found"},
		{"wrapped not found", fmt.Errorf("update: %w", &store.NotFoundError{Kind: store.KindList, ID: 3}), http.StatusNotFound, "list 3 not found"},
		{"validation", &models.ValidationError{Field: "title", Message: "must not be empty"}, http.StatusBadRequest, ""},
		{"internal", errors.New("boom"), http.StatusInternalServerError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := recordError(t, tt.err)
			assert.Equal(t, tt.status, w.Code)
			if tt.detail != "" {
				assert.Equal(t, tt.detail, body["detail"])
				assert.NotEmpty(t, body["hint"])
			}
		})
	}
}

func TestWriteError_InternalHidesDetail(t *testing.T) {
	_, body := recordError(t, errors.New("pq: password authentication failed"))
	assert.Equal(t, "Internal error", body["error"])
	assert.NotContains(t, body, "detail")
}

func TestReady(t *testing.T) {
	ok := Check{Name: "ok", Run: func(context.Context) error { return nil }}
	down := Check{Name: "redis", Run: func(context.Context) error { return errors.New("refused") }}

	for _, tt := range []struct {
		checks []Check
		status int
	}{
		{nil, http.StatusOK},
		{[]Check{ok}, http.StatusOK},
		{[]Check{ok, down}, http.StatusServiceUnavailable},
	} {
		h := New(store.New(store.Options{}), nil, nil, tt.checks...)
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)
		h.Ready(c)
		assert.Equal(t, tt.status, w.Code)
	}
}

func TestStats_WithoutProvider(t *testing.T) {
	h := New(store.New(store.Options{}), nil, nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/debug/stats", nil)
	h.Stats(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
