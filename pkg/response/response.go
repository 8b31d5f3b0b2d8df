// Package response writes the JSON bodies of the stand-in service.
// Failures always use the {"detail": ...} shape the client decodes.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorBody represents a failure response
type ErrorBody struct {
	Detail interface{} `json:"detail"`
}

// FieldError is one entry of a request validation failure
type FieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// Success sends data with 200
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Created sends data with 201
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// NoContent sends an empty 204
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error aborts with a string detail
func Error(c *gin.Context, code int, detail string) {
	c.AbortWithStatusJSON(code, ErrorBody{Detail: detail})
}

// BadRequest sends a 400 bad request response
func BadRequest(c *gin.Context, detail string) {
	Error(c, http.StatusBadRequest, detail)
}

// Unauthorized sends a 401 response with the bearer challenge
func Unauthorized(c *gin.Context, detail string) {
	c.Header("WWW-Authenticate", "Bearer")
	Error(c, http.StatusUnauthorized, detail)
}

// Forbidden sends a 403 response
func Forbidden(c *gin.Context, detail string) {
	Error(c, http.StatusForbidden, detail)
}

// NotFound sends a 404 not found response
func NotFound(c *gin.Context, detail string) {
	Error(c, http.StatusNotFound, detail)
}

// InternalError sends a 500 internal server error response
func InternalError(c *gin.Context, detail string) {
	Error(c, http.StatusInternalServerError, detail)
}

// ValidationError sends a 422 with a single field error
func ValidationError(c *gin.Context, field, msg string) {
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, ErrorBody{
		Detail: []FieldError{{Loc: []string{"body", field}, Msg: msg, Type: "value_error"}},
	})
}
