package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/syssam/schemaflow"
	"github.com/syssam/schemaflow/compiler/gen"
)

// APIResponse is the envelope of every JSON response.
type APIResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Success writes a success envelope.
func Success(c *gin.Context, statusCode int, data any, message string) {
	c.JSON(statusCode, APIResponse{
		Status:  "success",
		Message: message,
		Data:    data,
	})
}

// Fail writes an error envelope.
func Fail(c *gin.Context, statusCode int, err error, message string) {
	resp := APIResponse{
		Status:  "error",
		Message: message,
	}
	if err != nil {
		resp.Error = err.Error()
	}
	c.AbortWithStatusJSON(statusCode, resp)
}

// statusOf maps an error to its HTTP status code.
func statusOf(err error) int {
	switch {
	case schemaflow.IsNotFound(err):
		return http.StatusNotFound
	case gen.IsValidationError(err):
		return http.StatusBadRequest
	case gen.IsSchemaError(err):
		return http.StatusConflict
	case schemaflow.IsParseError(err), gen.IsGenerationError(err), gen.IsConfigError(err):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
