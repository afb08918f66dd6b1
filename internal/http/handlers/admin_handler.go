// README: Administrative handler: quota reset and system info.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"tripflow/internal/modules/trip"
)

type AdminHandler struct {
	svc *trip.Service
}

func NewAdminHandler(svc *trip.Service) *AdminHandler {
	return &AdminHandler{svc: svc}
}

// ResetQuota handles POST /api/admin/reset.
func (h *AdminHandler) ResetQuota(c *gin.Context) {
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

	reply, err := h.svc.ResetQuota(c.Request.Context(), req.UID)
	if err != nil {
		writeTurnError(c, err)
		return
	}
	writeReply(c, reply)
}

// Info handles GET /api/admin/info.
func (h *AdminHandler) Info(c *gin.Context) {
	uid := strings.TrimSpace(c.Query("uid"))
	if uid == "" {
		writeError(c, http.StatusBadRequest, "missing uid")
		return
	}

	reply, err := h.svc.AdminInfo(c.Request.Context(), uid)
	if err != nil {
		writeTurnError(c, err)
		return
	}
	writeReply(c, reply)
}
