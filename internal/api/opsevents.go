package api

import (
	"context"
	"net/http"

	"github.com/OpenClique85/openclique-sub010/internal/model"
	"github.com/OpenClique85/openclique-sub010/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type OpsEventReader interface {
	Recent(ctx context.Context, n int64) ([]model.OpsEvent, error)
}

type opsEventRoutes struct {
	events OpsEventReader
}

func NewOpsEventRoutes(handler *gin.RouterGroup, events OpsEventReader, mw ...gin.HandlerFunc) {
	h := &opsEventRoutes{events: events}

	ops := handler.Group("/admin/ops-events")
	ops.Use(mw...)
	{
		ops.GET("", h.Recent)
	}
}

type opsEventResponse struct {
	EventType   string         `json:"event_type"`
	EntityRefs  map[string]any `json:"entity_refs"`
	BeforeState map[string]any `json:"before_state"`
	AfterState  map[string]any `json:"after_state"`
	Metadata    map[string]any `json:"metadata"`
	CreatedAt   int64          `json:"created_at"`
}

func (h *opsEventRoutes) Recent(c *gin.Context) {
	limit, err := uintQuery(c, "limit", 50)
	if err != nil || limit == 0 || limit > maxListLimit {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}

	events, err := h.events.Recent(c.Request.Context(), int64(limit))
	if err != nil {
		logger.Logger().Error("failed to read ops events", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	response := make([]opsEventResponse, len(events))
	for i, e := range events {
		response[i] = opsEventResponse{
			EventType:   e.EventType,
			EntityRefs:  e.EntityRefs,
			BeforeState: e.BeforeState,
			AfterState:  e.AfterState,
			Metadata:    e.Metadata,
			CreatedAt:   e.CreatedAt.Unix(),
		}
	}
	c.JSON(http.StatusOK, response)
}
