package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestBodyLimit(t *testing.T) {
	router := gin.New()
	router.Use(RequestID(), BodyLimit(16))
	router.POST("/test", func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusCreated)
	})

	t.Run("accepts a small body", func(t *testing.T) {
		w := serve(router, httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"q":1}`)))
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("rejects a declared oversized body", func(t *testing.T) {
		w := serve(router, httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(strings.Repeat("a", 17))))
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_REQUEST_TOO_LARGE")
	})

	t.Run("caps an undeclared body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(strings.Repeat("a", 64)))
		req.ContentLength = -1
		w := serve(router, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})

	t.Run("zero disables the limit", func(t *testing.T) {
		unlimited := newTestRouter(BodyLimit(0))
		w := serve(unlimited, httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(strings.Repeat("a", 1024))))
		assert.Equal(t, http.StatusCreated, w.Code)
	})
}
