package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestErrorHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandler())
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	r.GET("/error", func(c *gin.Context) { _ = c.Error(errors.New("Test error")) })
	r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "fine") })

	tests := []struct {
		path string
		code int
		body string
	}{
		{"/panic", http.StatusInternalServerError, `{"error":"Internal Server Error"}`},
		{"/error", http.StatusInternalServerError, `{"error":"Test error"}`},
		{"/ok", http.StatusOK, "fine"},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
		assert.Equal(t, tt.code, w.Code, tt.path)
		assert.Equal(t, tt.body, w.Body.String(), tt.path)
	}
}
