package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tieubaoca/docqa/middleware"
	"github.com/tieubaoca/docqa/types"
	"github.com/tieubaoca/docqa/utils"
)

// NewRouter wires the HTTP routes around pipeline.
func NewRouter(pipeline Pipeline, logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.CustomRecovery(recoverPanic))

	corsHandler := NewCorsHandler()
	hackRxHandler := NewHackRxHandler(pipeline)

	// Apply global middleware
	router.Use(corsHandler.CorsMiddleware)
	router.Use(middleware.RequestID(logger))
	router.Use(middleware.AccessLog)

	router.GET("/health", hackRxHandler.HandleHealth)

	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/hackrx/run", hackRxHandler.HandleRun)
	}

	return router
}

// recoverPanic turns a panic in a handler into a 500 {"detail"} response.
func recoverPanic(c *gin.Context, recovered any) {
	utils.LoggerFrom(c.Request.Context()).Error("panic while handling request", "panic", recovered)
	c.AbortWithStatusJSON(http.StatusInternalServerError, types.ErrorResponse{
		Detail: fmt.Sprint(recovered),
	})
}
