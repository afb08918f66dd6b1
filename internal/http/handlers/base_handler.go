// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tripflow/internal/modules/trip"
)

type errorResponse struct {
	Error string `json:"error"`
}

type replyResponse struct {
	Reply string `json:"reply"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

func writeReply(c *gin.Context, reply string) {
	writeJSON(c, http.StatusOK, replyResponse{Reply: reply})
}

// writeTurnError maps orchestrator denials to HTTP statuses. Anything that is
// not an explicit denial is an internal fault: collaborator failures never
// surface here, the orchestrator degrades them to normal replies.
func writeTurnError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, trip.ErrUnauthorized):
		writeError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, trip.ErrQuotaExceeded):
		writeError(c, http.StatusTooManyRequests, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}
