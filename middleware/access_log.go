package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tieubaoca/docqa/utils"
)

// AccessLog logs one line per request once the handler chain has finished.
func AccessLog(c *gin.Context) {
	start := time.Now()
	c.Next()

	utils.LoggerFrom(c.Request.Context()).Info("http request",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"status", c.Writer.Status(),
		"latency", time.Since(start),
		"client_ip", c.ClientIP(),
	)
}
