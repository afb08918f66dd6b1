// README: Quick-tips handler.
package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"tripflow/internal/modules/trip"
)

type TipsHandler struct {
	svc *trip.Service
}

func NewTipsHandler(svc *trip.Service) *TipsHandler {
	return &TipsHandler{svc: svc}
}

// QuickTips handles GET /api/tips.
func (h *TipsHandler) QuickTips(c *gin.Context) {
	uid := strings.TrimSpace(c.Query("uid"))
	if uid == "" {
		writeError(c, http.StatusBadRequest, "missing uid")
		return
	}
	destination := strings.TrimSpace(c.Query("destination"))

	ctx, cancel := context.WithTimeout(c.Request.Context(), collaboratorTimeout)
	defer cancel()

	reply, err := h.svc.QuickTips(ctx, uid, destination)
	if err != nil {
		writeTurnError(c, err)
		return
	}
	writeReply(c, reply)
}
