package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/timeout"
	"github.com/gin-gonic/gin"
)

// 各类接口的处理时限：导出要渲染整表给足60秒，健康探针必须快进快出
const (
	DefaultTimeout = 30 * time.Second
	ExportTimeout  = 60 * time.Second
	HealthTimeout  = 5 * time.Second
)

// WithTimeout 请求级超时中间件，到期统一返回408
func WithTimeout(d time.Duration) gin.HandlerFunc {
	return timeout.New(
		timeout.WithTimeout(d),
		timeout.WithHandler(func(c *gin.Context) { c.Next() }),
		timeout.WithResponse(func(c *gin.Context) {
			c.JSON(http.StatusRequestTimeout, gin.H{"error": "请求处理超时"})
		}),
	)
}
