package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tieubaoca/docqa/apperror"
	"github.com/tieubaoca/docqa/types"
	"github.com/tieubaoca/docqa/utils"
)

// Pipeline answers the questions of one request against its document
type Pipeline interface {
	Run(ctx context.Context, req types.QARequest) (*types.QAResponse, error)
}

type HackRxHandler struct {
	pipeline Pipeline
}

func NewHackRxHandler(pipeline Pipeline) *HackRxHandler {
	return &HackRxHandler{
		pipeline: pipeline,
	}
}

func (h *HackRxHandler) HandleRun(c *gin.Context) {
	var req types.QARequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, apperror.New(apperror.InvalidInput, "Invalid request body: "+err.Error(), err))
		return
	}

	resp, err := h.pipeline.Run(c.Request.Context(), req)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *HackRxHandler) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, types.HealthResponse{Status: "ok"})
}

// handleError writes err as {"detail": ...} with the status of its kind.
func handleError(c *gin.Context, err error) {
	status := apperror.StatusCode(err)
	logger := utils.LoggerFrom(c.Request.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "kind", apperror.KindOf(err), "error", err)
	} else {
		logger.Warn("request rejected", "kind", apperror.KindOf(err), "error", err)
	}
	c.AbortWithStatusJSON(status, types.ErrorResponse{Detail: apperror.Detail(err)})
}
