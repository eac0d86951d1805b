// middleware/rate_limiter_test.go
package middleware_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"

	platform_errors "github.com/apipatb/earning-sub014/errors"
	logger "github.com/apipatb/earning-sub014/logging"
	"github.com/apipatb/earning-sub014/middleware"
	"github.com/apipatb/earning-sub014/service"
	"github.com/apipatb/earning-sub014/test/mock"
)

func rateLimitedRouter(rateLimitSvc service.IRateLimitService, limit, windowMinutes int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.RateLimiter(rateLimitSvc, limit, windowMinutes))
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

func TestRateLimiter(t *testing.T) {
	logger.InitLogger(t.TempDir())
	defer logger.Sync()

	t.Run("AllowsUpToLimitThenRejects", func(t *testing.T) {
		store := mock.NewMemoryCounterStore()
		router := rateLimitedRouter(service.NewRateLimitService(store), 3, 1)

		for i := 0; i < 3; i++ {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", "/ping", nil)
			router.ServeHTTP(w, req)
			assert.Equal(t, http.StatusOK, w.Code, "request %d should pass", i+1)
		}

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/ping", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "3", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	})

	t.Run("StoreOutageFailsOpenByDefault", func(t *testing.T) {
		viper.Set("authz.failOpen", true)
		defer viper.Set("authz.failOpen", true)

		store := mock.NewMemoryCounterStore()
		store.Err = fmt.Errorf("%w: connection refused", platform_errors.ErrStoreUnavailable)
		router := rateLimitedRouter(service.NewRateLimitService(store), 3, 1)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/ping", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("StoreOutageFailsClosedWhenConfigured", func(t *testing.T) {
		viper.Set("authz.failOpen", false)
		defer viper.Set("authz.failOpen", true)

		store := mock.NewMemoryCounterStore()
		store.Err = fmt.Errorf("%w: connection refused", platform_errors.ErrStoreUnavailable)
		router := rateLimitedRouter(service.NewRateLimitService(store), 3, 1)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/ping", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
