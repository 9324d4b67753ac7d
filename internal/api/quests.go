package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/OpenClique85/openclique-sub010/internal/lifecycle"
	"github.com/OpenClique85/openclique-sub010/internal/middleware"
	"github.com/OpenClique85/openclique-sub010/internal/model"
	"github.com/OpenClique85/openclique-sub010/internal/repository"
	"github.com/OpenClique85/openclique-sub010/internal/service"
	"github.com/OpenClique85/openclique-sub010/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxListLimit = 200

type questRoutes struct {
	qs service.QuestLifecycleServiceI
}

// NewQuestRoutes mounts the admin quest endpoints. mw runs before every
// handler and must authenticate the caller as an admin.
func NewQuestRoutes(handler *gin.RouterGroup, qs service.QuestLifecycleServiceI, mw ...gin.HandlerFunc) {
	h := &questRoutes{qs: qs}

	admin := handler.Group("/admin/quests")
	admin.Use(mw...)
	{
		admin.GET("", h.ListQuests)
		admin.GET("/:quest_id", h.GetQuest)
		admin.POST("/:quest_id/status", h.TransitionStatus)
		admin.POST("/:quest_id/review", h.Review)
		admin.POST("/:quest_id/priority", h.TogglePriority)
		admin.DELETE("/:quest_id", h.SoftDelete)
	}

	transitions := handler.Group("/admin/quest-transitions")
	transitions.Use(mw...)
	transitions.GET("/:status", h.AllowedTransitions)
}

type questResponse struct {
	QuestID         string  `json:"quest_id"`
	Title           string  `json:"title"`
	CreatorID       *string `json:"creator_id"`
	Status          string  `json:"status"`
	PreviousStatus  *string `json:"previous_status"`
	ReviewStatus    string  `json:"review_status"`
	RevisionCount   int     `json:"revision_count"`
	AdminNotes      *string `json:"admin_notes"`
	PausedAt        *int64  `json:"paused_at"`
	PausedReason    *string `json:"paused_reason"`
	RevokedAt       *int64  `json:"revoked_at"`
	RevokedReason   *string `json:"revoked_reason"`
	CancelledReason *string `json:"cancelled_reason"`
	PublishedAt     *int64  `json:"published_at"`
	PriorityFlag    bool    `json:"priority_flag"`
	CreatedAt       int64   `json:"created_at"`
	UpdatedAt       int64   `json:"updated_at"`

	AllowedTransitions []model.QuestStatus `json:"allowed_transitions"`
}

func newQuestResponse(q *model.Quest) questResponse {
	resp := questResponse{
		QuestID:            q.ID.String(),
		Title:              q.Title,
		Status:             string(q.Status),
		ReviewStatus:       string(q.ReviewStatus),
		RevisionCount:      q.RevisionCount,
		AdminNotes:         q.AdminNotes,
		PausedReason:       q.PausedReason,
		RevokedReason:      q.RevokedReason,
		CancelledReason:    q.CancelledReason,
		PriorityFlag:       q.PriorityFlag,
		CreatedAt:          q.CreatedAt.Unix(),
		UpdatedAt:          q.UpdatedAt.Unix(),
		AllowedTransitions: lifecycle.AllowedTransitions(q.Status),
	}
	if q.CreatorID != nil {
		id := q.CreatorID.String()
		resp.CreatorID = &id
	}
	if q.PreviousStatus != nil {
		prev := string(*q.PreviousStatus)
		resp.PreviousStatus = &prev
	}
	if q.PausedAt != nil {
		unix := q.PausedAt.Unix()
		resp.PausedAt = &unix
	}
	if q.RevokedAt != nil {
		unix := q.RevokedAt.Unix()
		resp.RevokedAt = &unix
	}
	if q.PublishedAt != nil {
		unix := q.PublishedAt.Unix()
		resp.PublishedAt = &unix
	}
	return resp
}

func (h *questRoutes) ListQuests(c *gin.Context) {
	var filter repository.QuestFilter

	for _, raw := range c.QueryArray("status") {
		for _, s := range strings.Split(raw, ",") {
			status := model.QuestStatus(strings.TrimSpace(s))
			if !status.IsValid() {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
				return
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}

	if raw := c.Query("priority"); raw != "" {
		priority, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid priority"})
			return
		}
		filter.PriorityOnly = priority
	}

	var err error
	if filter.Limit, err = uintQuery(c, "limit", 50); err != nil || filter.Limit == 0 || filter.Limit > maxListLimit {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}
	if filter.Offset, err = uintQuery(c, "offset", 0); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offset"})
		return
	}

	quests, err := h.qs.ListQuests(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}

	response := make([]questResponse, len(quests))
	for i, q := range quests {
		response[i] = newQuestResponse(q)
	}
	c.JSON(http.StatusOK, response)
}

func (h *questRoutes) GetQuest(c *gin.Context) {
	questID, ok := questIDParam(c)
	if !ok {
		return
	}

	quest, err := h.qs.GetQuest(c.Request.Context(), questID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newQuestResponse(quest))
}

func (h *questRoutes) AllowedTransitions(c *gin.Context) {
	status := model.QuestStatus(c.Param("status"))
	if !status.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":              status,
		"allowed_transitions": lifecycle.AllowedTransitions(status),
		"terminal":            lifecycle.IsTerminal(status),
		"reason_required":     lifecycle.RequiresReason(status),
	})
}

type TransitionStatusRequest struct {
	Status        string `json:"status" binding:"required"`
	Reason        string `json:"reason"`
	AdminNotes    string `json:"admin_notes"`
	NotifyCreator bool   `json:"notify_creator"`
	NotifyUsers   bool   `json:"notify_users"`
}

type lifecycleResponse struct {
	NewStatus string        `json:"new_status"`
	Quest     questResponse `json:"quest"`
}

func (h *questRoutes) TransitionStatus(c *gin.Context) {
	questID, ok := questIDParam(c)
	if !ok {
		return
	}

	var req TransitionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status := model.QuestStatus(req.Status)
	if !status.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	res, err := h.qs.TransitionQuestStatus(c.Request.Context(), questID, status, lifecycle.TransitionOptions{
		Reason:        req.Reason,
		AdminNotes:    req.AdminNotes,
		NotifyCreator: req.NotifyCreator,
		NotifyUsers:   req.NotifyUsers,
		ActorID:       middleware.ActorID(c),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, lifecycleResponse{NewStatus: string(res.NewStatus), Quest: newQuestResponse(res.Quest)})
}

type ReviewRequest struct {
	Action        string `json:"action" binding:"required"`
	AdminNotes    string `json:"admin_notes"`
	ShouldPublish bool   `json:"should_publish"`
}

func (h *questRoutes) Review(c *gin.Context) {
	questID, ok := questIDParam(c)
	if !ok {
		return
	}

	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.qs.PerformReviewAction(c.Request.Context(), questID, model.ReviewAction(req.Action), lifecycle.ReviewOptions{
		AdminNotes:    req.AdminNotes,
		ShouldPublish: req.ShouldPublish,
		ActorID:       middleware.ActorID(c),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, lifecycleResponse{NewStatus: string(res.NewStatus), Quest: newQuestResponse(res.Quest)})
}

func (h *questRoutes) TogglePriority(c *gin.Context) {
	questID, ok := questIDParam(c)
	if !ok {
		return
	}

	flag, err := h.qs.TogglePriorityFlag(c.Request.Context(), questID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"priority_flag": flag})
}

type SoftDeleteRequest struct {
	Reason string `json:"reason"`
}

func (h *questRoutes) SoftDelete(c *gin.Context) {
	questID, ok := questIDParam(c)
	if !ok {
		return
	}

	var req SoftDeleteRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	if err := h.qs.SoftDeleteQuest(c.Request.Context(), questID, req.Reason, middleware.ActorID(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func questIDParam(c *gin.Context) (uuid.UUID, bool) {
	questID, err := uuid.Parse(c.Param("quest_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quest_id"})
		return uuid.Nil, false
	}
	return questID, true
}

func uintQuery(c *gin.Context, key string, def uint64) (uint64, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	return strconv.ParseUint(raw, 10, 64)
}

func writeError(c *gin.Context, err error) {
	kind := service.ErrorKind(err)

	switch {
	case errors.Is(err, lifecycle.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "kind": kind})
	case errors.Is(err, lifecycle.ErrMissingReason),
		errors.Is(err, lifecycle.ErrUnknownReviewAction):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": kind})
	case errors.Is(err, lifecycle.ErrInvalidTransition),
		errors.Is(err, lifecycle.ErrInvalidState),
		errors.Is(err, lifecycle.ErrHasActiveReferences),
		errors.Is(err, lifecycle.ErrConcurrentModification):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "kind": kind})
	default:
		logger.Logger().Error("quest lifecycle request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error", "kind": kind})
	}
}
