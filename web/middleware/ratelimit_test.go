package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/op/go-logging"
	"github.com/stretchr/testify/assert"

	"github.com/taskwire/taskwire/logger"
)

func newLimitedEngine(limit int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(RateLimitMiddleware(RateLimitConfig{
		RequestsPerMinute: limit,
		KeyFunc: func(c *gin.Context) string {
			return c.GetHeader("X-Key")
		},
	}))
	engine.POST("/login", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return engine
}

func hit(engine *gin.Engine, key string) int {
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.Header.Set("X-Key", key)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimitBlocksAfterThreshold(t *testing.T) {
	os.Setenv("TW_LOG_FOLDER", t.TempDir())
	logger.InitLogger(logging.DEBUG)

	engine := newLimitedEngine(3)

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hit(engine, "1.2.3.4"))
	}
	assert.Equal(t, http.StatusTooManyRequests, hit(engine, "1.2.3.4"))
}

func TestRateLimitKeysAreIndependent(t *testing.T) {
	os.Setenv("TW_LOG_FOLDER", t.TempDir())
	logger.InitLogger(logging.DEBUG)

	engine := newLimitedEngine(1)

	assert.Equal(t, http.StatusOK, hit(engine, "1.2.3.4"))
	assert.Equal(t, http.StatusTooManyRequests, hit(engine, "1.2.3.4"))
	assert.Equal(t, http.StatusOK, hit(engine, "5.6.7.8"))
}
