package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/suPer8Hu/attackforge/internal/common"
	"github.com/suPer8Hu/attackforge/internal/httpapi/middleware"
	"github.com/suPer8Hu/attackforge/internal/session"
)

func (h *Handler) ListSessions(c *gin.Context) {
	sessions, err := h.Sessions.List(c.Request.Context())
	h.sessionOp("list", err)
	if err != nil {
		h.Log.Error("list sessions failed", "request_id", middleware.RequestIDFrom(c), "err", err)
		common.Fail(c, http.StatusInternalServerError, 50001, "Failed to list sessions")
		return
	}
	common.OK(c, sessions)
}

func (h *Handler) CreateSession(c *gin.Context) {
	var in session.Session
	if err := c.ShouldBindJSON(&in); err != nil {
		common.Fail(c, http.StatusUnprocessableEntity, 42201, err.Error())
		return
	}

	sess, err := h.Sessions.Create(c.Request.Context(), &in)
	h.sessionOp("create", err)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrInvalid):
			common.Fail(c, http.StatusUnprocessableEntity, 42202, err.Error())
		default:
			common.Fail(c, http.StatusInternalServerError, 50002, "Failed to save session")
		}
		return
	}

	h.Log.Info("session created", "session_id", sess.ID, "request_id", middleware.RequestIDFrom(c))
	common.OK(c, sess)
}

func (h *Handler) GetSession(c *gin.Context) {
	sess, err := h.Sessions.Get(c.Request.Context(), c.Param("id"))
	h.sessionOp("get", err)
	if err != nil {
		common.Fail(c, http.StatusNotFound, 40401, "Session not found")
		return
	}
	common.OK(c, sess)
}

func (h *Handler) UpdateSession(c *gin.Context) {
	var in session.Session
	if err := c.ShouldBindJSON(&in); err != nil {
		common.Fail(c, http.StatusUnprocessableEntity, 42201, err.Error())
		return
	}

	sess, err := h.Sessions.Update(c.Request.Context(), c.Param("id"), &in)
	h.sessionOp("update", err)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrInvalid):
			common.Fail(c, http.StatusUnprocessableEntity, 42202, err.Error())
		default:
			common.Fail(c, http.StatusInternalServerError, 50003, "Failed to update session")
		}
		return
	}
	common.OK(c, sess)
}

func (h *Handler) DeleteSession(c *gin.Context) {
	id := c.Param("id")
	err := h.Sessions.Delete(c.Request.Context(), id)
	h.sessionOp("delete", err)
	if err != nil {
		common.Fail(c, http.StatusNotFound, 40401, "Session not found")
		return
	}

	h.Log.Info("session deleted", "session_id", id, "request_id", middleware.RequestIDFrom(c))
	common.OK(c, gin.H{"message": "Session deleted successfully"})
}

type editMessageReq struct {
	Content *string `json:"content" binding:"required"`
}

func (h *Handler) EditMessage(c *gin.Context) {
	var req editMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusUnprocessableEntity, 42201, err.Error())
		return
	}

	sess, err := h.Sessions.EditMessage(c.Request.Context(), c.Param("id"), c.Param("message_id"), *req.Content)
	h.sessionOp("edit_message", err)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrNotFound):
			common.Fail(c, http.StatusNotFound, 40401, "Session not found")
		case errors.Is(err, session.ErrMessageNotFound):
			common.Fail(c, http.StatusNotFound, 40402, "Message not found")
		default:
			common.Fail(c, http.StatusInternalServerError, 50003, "Failed to update session")
		}
		return
	}
	common.OK(c, sess)
}

// ExportSession looks the session up before checking the format, so an
// unknown id is a 404 whatever format was asked for.
func (h *Handler) ExportSession(c *gin.Context) {
	sess, err := h.Sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		common.Fail(c, http.StatusNotFound, 40401, "Session not found")
		return
	}

	format, err := session.ParseFormat(c.DefaultQuery("format", "json"))
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 40001, "Unsupported format. Use 'json' or 'markdown'")
		return
	}
	h.sessionOp("export", nil)

	switch format {
	case session.FormatMarkdown:
		common.OK(c, gin.H{
			"content":     session.RenderMarkdown(sess),
			"format":      string(format),
			"exported_at": h.timestamp(),
		})
	default:
		common.OK(c, gin.H{
			"session":     sess,
			"format":      string(format),
			"exported_at": h.timestamp(),
		})
	}
}
