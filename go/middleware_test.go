package marketserver

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func limitedRouter(rl *RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(rl.Middleware())
	router.GET("/healthz", Healthz)
	return router
}

func hit(router *gin.Engine, remoteAddr string) int {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimiterBoundsClientSet(t *testing.T) {
	rl := NewRateLimiter(100, 10, WithMaxClients(64))
	router := limitedRouter(rl)

	for i := 0; i < 5000; i++ {
		require.Equal(t, http.StatusOK, hit(router, fmt.Sprintf("10.%d.%d.%d:4000", i>>16&255, i>>8&255, i&255)))
	}
	assert.Equal(t, 64, rl.size())
}

func TestRateLimiterDropsIdleClients(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(0.001, 1, WithIdleTimeout(time.Minute))
	rl.now = func() time.Time { return now }
	router := limitedRouter(rl)

	require.Equal(t, http.StatusOK, hit(router, "192.0.2.1:1000"))
	require.Equal(t, http.StatusOK, hit(router, "192.0.2.2:1000"))
	require.Equal(t, http.StatusTooManyRequests, hit(router, "192.0.2.1:1000"))
	assert.Equal(t, 2, rl.size())

	now = now.Add(2 * time.Minute)
	require.Equal(t, http.StatusOK, hit(router, "192.0.2.3:1000"))
	assert.Equal(t, 1, rl.size())

	// a returning client starts with a fresh bucket
	require.Equal(t, http.StatusOK, hit(router, "192.0.2.1:1000"))
}

func TestRateLimiterKeepsActiveClientsOnEviction(t *testing.T) {
	rl := NewRateLimiter(0.001, 1, WithMaxClients(2))
	router := limitedRouter(rl)

	require.Equal(t, http.StatusOK, hit(router, "192.0.2.1:1000"))
	require.Equal(t, http.StatusOK, hit(router, "192.0.2.2:1000"))
	require.Equal(t, http.StatusTooManyRequests, hit(router, "192.0.2.1:1000"))
	require.Equal(t, http.StatusOK, hit(router, "192.0.2.3:1000"))

	// 192.0.2.2 was least recently seen and got evicted; 192.0.2.1 is still throttled
	require.Equal(t, http.StatusTooManyRequests, hit(router, "192.0.2.1:1000"))
	assert.Equal(t, 2, rl.size())
}
