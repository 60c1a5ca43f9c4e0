package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/urbanfix/service-dispatch/internal/platform/domain"
)

// envelope is the standard success response shape.
type envelope struct {
	Data interface{} `json:"data"`
}

// paginatedEnvelope is the success response shape for paginated lists.
type paginatedEnvelope struct {
	Data  interface{} `json:"data"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}

// errorEnvelope is the standard error response shape.
type errorEnvelope struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Success writes a 200 response with the given payload.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, envelope{Data: data})
}

// Created writes a 201 response with the given payload.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, envelope{Data: data})
}

// Paginated writes a 200 response with paging metadata.
func Paginated(c *gin.Context, items interface{}, total int64, page, limit int) {
	c.JSON(http.StatusOK, paginatedEnvelope{Data: items, Total: total, Page: page, Limit: limit})
}

// BadRequest writes a 400 response with the given message.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, errorEnvelope{Error: message, Code: string(domain.CodeValidation)})
}

// Error maps a domain error to the appropriate HTTP status. Unrecognized
// errors become 500 without leaking internals.
func Error(c *gin.Context, err error) {
	var de *domain.DomainError
	if !errors.As(err, &de) {
		c.JSON(http.StatusInternalServerError, errorEnvelope{Error: "internal server error"})
		return
	}

	status := http.StatusInternalServerError
	switch de.Code {
	case domain.CodeValidation, domain.CodeInvalidCoordinate:
		status = http.StatusBadRequest
	case domain.CodeNotFound:
		status = http.StatusNotFound
	case domain.CodeInvalidState, domain.CodeConflict, domain.CodeSessionClosed:
		status = http.StatusConflict
	case domain.CodeNoActiveSession:
		status = http.StatusUnprocessableEntity
	case domain.CodeForbidden:
		status = http.StatusForbidden
	}

	c.JSON(status, errorEnvelope{Error: de.Message, Code: string(de.Code)})
}
