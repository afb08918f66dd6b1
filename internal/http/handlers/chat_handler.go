// README: Chat handler: session lifecycle and free-text turns.
package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"tripflow/internal/modules/trip"
)

// collaboratorTimeout bounds turns that may call out to the AI collaborator.
const collaboratorTimeout = 10 * time.Second

type ChatHandler struct {
	svc *trip.Service
}

func NewChatHandler(svc *trip.Service) *ChatHandler {
	return &ChatHandler{svc: svc}
}

type identityReq struct {
	UID string `json:"uid"`
}

type messageReq struct {
	UID     string `json:"uid"`
	Message string `json:"message"`
}

// Start handles POST /api/chat/start.
func (h *ChatHandler) Start(c *gin.Context) {
	var req identityReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	req.UID = strings.TrimSpace(req.UID)
	if req.UID == "" {
		writeError(c, http.StatusBadRequest, "missing uid")
		return
	}

	reply, err := h.svc.Start(c.Request.Context(), req.UID)
	if err != nil {
		writeTurnError(c, err)
		return
	}
	writeReply(c, reply)
}

// Message handles POST /api/chat/message.
func (h *ChatHandler) Message(c *gin.Context) {
	var req messageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	req.UID = strings.TrimSpace(req.UID)
	req.Message = strings.TrimSpace(req.Message)
	if req.UID == "" || req.Message == "" {
		writeError(c, http.StatusBadRequest, "missing uid or message")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), collaboratorTimeout)
	defer cancel()

	reply, err := h.svc.Message(ctx, req.UID, req.Message)
	if err != nil {
		writeTurnError(c, err)
		return
	}
	writeReply(c, reply)
}

// Status handles GET /api/chat/status.
func (h *ChatHandler) Status(c *gin.Context) {
	uid := strings.TrimSpace(c.Query("uid"))
	if uid == "" {
		writeError(c, http.StatusBadRequest, "missing uid")
		return
	}

	reply, err := h.svc.Status(c.Request.Context(), uid)
	if err != nil {
		writeTurnError(c, err)
		return
	}
	writeReply(c, reply)
}

// Cancel handles POST /api/chat/cancel.
func (h *ChatHandler) Cancel(c *gin.Context) {
	var req identityReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	req.UID = strings.TrimSpace(req.UID)
	if req.UID == "" {
		writeError(c, http.StatusBadRequest, "missing uid")
		return
	}

	reply, err := h.svc.Cancel(c.Request.Context(), req.UID)
	if err != nil {
		writeTurnError(c, err)
		return
	}
	writeReply(c, reply)
}

// Help handles GET /api/chat/help.
func (h *ChatHandler) Help(c *gin.Context) {
	uid := strings.TrimSpace(c.Query("uid"))
	if uid == "" {
		writeError(c, http.StatusBadRequest, "missing uid")
		return
	}

	reply, err := h.svc.Help(c.Request.Context(), uid)
	if err != nil {
		writeTurnError(c, err)
		return
	}
	writeReply(c, reply)
}
