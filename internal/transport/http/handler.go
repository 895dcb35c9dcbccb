// Package http exposes the admin endpoints and the producer calls over gin.
package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/richardliu001/ticketing-actions/internal/model"
	"github.com/richardliu001/ticketing-actions/internal/repo"
	"github.com/richardliu001/ticketing-actions/internal/service"
)

type Handler struct {
	actions        *service.ActionService
	broadcasts     *service.BroadcastService
	holds          *service.HoldService
	stuckThreshold time.Duration
}

func NewHandler(actions *service.ActionService, broadcasts *service.BroadcastService, holds *service.HoldService, stuckThreshold time.Duration) *Handler {
	return &Handler{actions: actions, broadcasts: broadcasts, holds: holds, stuckThreshold: stuckThreshold}
}

func RegisterHandlers(r *gin.Engine, h *Handler) {
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	admin := r.Group("/admin")
	{
		admin.GET("/stuck_domain_actions", stuckActionsHandler(h))
		admin.GET("/domain_actions", listActionsHandler(h))
	}
	r.POST("/broadcasts/:id/send", sendBroadcastHandler(h))
	r.POST("/broadcasts/:id/cancel", cancelBroadcastHandler(h))
	r.POST("/holds/:id/schedule_release", scheduleReleaseHandler(h))
}

func stuckActionsHandler(h *Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		stuck, err := h.actions.StuckActions(c, h.stuckThreshold)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"count": len(stuck), "domain_actions": stuck})
	}
}

func listActionsHandler(h *Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		var f repo.ActionFilter
		if v := c.Query("main_table"); v != "" {
			t := model.Table(v)
			f.MainTable = &t
		}
		if v := c.Query("main_table_id"); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid main_table_id"})
				return
			}
			f.MainTableID = &id
		}
		if v := c.Query("action_type"); v != "" {
			t := model.ActionType(v)
			if !t.Valid() {
				c.JSON(http.StatusBadRequest, gin.H{"error": "unknown action_type"})
				return
			}
			f.ActionType = &t
		}
		if v := c.Query("status"); v != "" {
			s := model.ActionStatus(v)
			f.Status = &s
		}
		limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
		if err != nil || limit < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		f.Limit = limit

		out, err := h.actions.FindActions(c, f)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

func sendBroadcastHandler(h *Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		a, err := h.broadcasts.Send(c, id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, a)
	}
}

func cancelBroadcastHandler(h *Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		n, err := h.broadcasts.Cancel(c, id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"cancelled_actions": n})
	}
}

func scheduleReleaseHandler(h *Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		a, err := h.holds.ScheduleRelease(c, id)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, a)
	}
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrBroadcastCancelled),
		errors.Is(err, service.ErrBroadcastAlreadySent),
		errors.Is(err, service.ErrAlreadyScheduled):
		status = http.StatusConflict
	case errors.Is(err, service.ErrHoldHasNoEnd):
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
