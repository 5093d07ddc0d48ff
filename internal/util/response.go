package util

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/snapline/backend/internal/errors"
	"github.com/snapline/backend/internal/logger"
	"go.uber.org/zap"
)

// Envelope is the single response shape for every API call, success or
// failure. Handlers never write ad-hoc JSON bodies.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Status  int         `json:"status"`
	Data    interface{} `json:"data"`
}

// RespondSuccess writes a success envelope with the given status code.
func RespondSuccess(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Envelope{
		Success: true,
		Message: message,
		Status:  status,
		Data:    data,
	})
}

// RespondCreated writes a 201 success envelope.
func RespondCreated(c *gin.Context, message string, data interface{}) {
	RespondSuccess(c, http.StatusCreated, message, data)
}

// RespondOK writes a 200 success envelope.
func RespondOK(c *gin.Context, message string, data interface{}) {
	RespondSuccess(c, http.StatusOK, message, data)
}

// RespondWithAPIError writes an error envelope and logs it at a level
// matching its severity.
func RespondWithAPIError(c *gin.Context, apiErr *errors.APIError) {
	if apiErr.Status >= http.StatusInternalServerError {
		logger.Log.Error("API error",
			zap.String("code", string(apiErr.Code)),
			zap.String("message", apiErr.Message),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", apiErr.Status),
		)
	} else {
		logger.Log.Warn("API error",
			zap.String("code", string(apiErr.Code)),
			zap.String("message", apiErr.Message),
			zap.String("path", c.Request.URL.Path),
		)
	}

	c.JSON(apiErr.Status, Envelope{
		Success: false,
		Message: apiErr.Message,
		Status:  apiErr.Status,
		Data:    nil,
	})
}

// RespondUnauthorized sends a 401 envelope
func RespondUnauthorized(c *gin.Context, message string) {
	RespondWithAPIError(c, errors.Unauthorized(message))
}

// RespondNotFound sends a 404 envelope
func RespondNotFound(c *gin.Context, resource string) {
	RespondWithAPIError(c, errors.NotFound(resource))
}

// RespondBadRequest sends a 400 envelope
func RespondBadRequest(c *gin.Context, message string) {
	RespondWithAPIError(c, errors.BadRequest(message))
}

// RespondConflict sends a 409 envelope
func RespondConflict(c *gin.Context, message string) {
	RespondWithAPIError(c, errors.Conflict(message))
}

// RespondValidationError sends a 400 envelope naming the field
func RespondValidationError(c *gin.Context, field, message string) {
	RespondWithAPIError(c, errors.ValidationError(field, message))
}

// RespondInternalError sends a sanitized 500 envelope. err goes to the
// log only; the caller gets a generic message.
func RespondInternalError(c *gin.Context, err error) {
	if err != nil {
		logger.Log.Error("internal error",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
	}
	RespondWithAPIError(c, errors.InternalError("something went wrong, please try again later"))
}
