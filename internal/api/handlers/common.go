package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/meetscribe/meetscribe/internal/utils"
)

// APIError is the error body every endpoint returns. RequestID ties the
// response to its request log line.
type APIError struct {
	Code      utils.Code `json:"code"`
	Message   string     `json:"message"`
	RequestID string     `json:"request_id,omitempty"`
}

func writeError(c *gin.Context, err error) {
	status := utils.HTTPStatus(err)
	out := APIError{
		Code:      utils.CodeInternal,
		Message:   http.StatusText(status),
		RequestID: c.GetString("request_id"),
	}

	var ae *utils.AppError
	if errors.As(err, &ae) {
		out.Code = ae.Code
		if ae.Message != "" {
			out.Message = ae.Message
		}
	}
	c.JSON(status, out)
}

func requireUserID(c *gin.Context) (string, bool) {
	if v, ok := c.Get("user_id"); ok {
		if id, _ := v.(string); id != "" {
			return id, true
		}
	}

	writeError(c, utils.E(utils.CodeUnauthorized, "Auth", "unauthorized", nil))
	return "", false
}
