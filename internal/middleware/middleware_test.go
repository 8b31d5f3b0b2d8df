package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRateLimiterWindow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("1.1.1.1"))
	assert.True(t, rl.Allow("1.1.1.1"))
	assert.False(t, rl.Allow("1.1.1.1"))
	assert.True(t, rl.Allow("2.2.2.2"))

	now = now.Add(61 * time.Second)
	assert.True(t, rl.Allow("1.1.1.1"))
}

func TestBearer(t *testing.T) {
	verify := func(token string) (int64, error) {
		if token == "good" {
			return 42, nil
		}
		return 0, errors.New("bad token")
	}

	r := gin.New()
	r.GET("/me", Bearer(verify), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": UserID(c)})
	})

	cases := []struct {
		header string
		code   int
		body   string
	}{
		{"", http.StatusUnauthorized, `{"detail":"Not authenticated"}`},
		{"Basic abc", http.StatusUnauthorized, `{"detail":"Not authenticated"}`},
		{"Bearer nope", http.StatusUnauthorized, `{"detail":"Could not validate credentials"}`},
		{"Bearer good", http.StatusOK, `{"id":42}`},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		r.ServeHTTP(w, req)
		assert.Equal(t, tc.code, w.Code, tc.header)
		assert.JSONEq(t, tc.body, w.Body.String(), tc.header)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(0, time.Minute))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
