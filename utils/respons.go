package utils

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type JSONResponse struct {
	Status    bool        `json:"status"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Retryable bool        `json:"retryable,omitempty"`
}

func RespondJSON(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, JSONResponse{
		Status:  code >= 200 && code < 300,
		Message: message,
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, err error) {
	c.JSON(code, JSONResponse{
		Status:  false,
		Message: err.Error(),
		Data:    nil,
	})
}

// RespondAppError maps err onto its HTTP status. Internal failures are logged
// in full and reported with a generic message.
func RespondAppError(c *gin.Context, err error) {
	appErr := AsAppError(err)

	message := appErr.Message
	if appErr.Kind == KindInternal {
		ErrorLogger.WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"retryable":  appErr.Retryable,
		}).WithError(appErr.Err).Error("request failed")
		message = "internal server error"
		if appErr.Retryable {
			message = "the request could not be completed in time, please retry"
		}
	}

	c.AbortWithStatusJSON(appErr.Kind.HTTPStatus(), JSONResponse{
		Status:    false,
		Message:   message,
		Retryable: appErr.Retryable,
	})
}
