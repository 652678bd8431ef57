package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/suitableit/smmdoc-sub003/internal/application/ordersync"
	"github.com/suitableit/smmdoc-sub003/internal/domain/provider"
	"github.com/suitableit/smmdoc-sub003/internal/domain/shared"
	"github.com/suitableit/smmdoc-sub003/internal/interfaces/http/dto"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response with an explicit status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponse(code, message))
}

// ErrorWithCode sends an error response, deriving the status from the error code
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	h.Error(c, dto.GetHTTPStatus(code), code, message)
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// HandleError maps domain and application errors onto the response envelope
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	var domainErr *shared.DomainError
	switch {
	case errors.Is(err, provider.ErrFetchFailed):
		h.ErrorWithCode(c, dto.ErrCodeProviderFetchFailed, "Failed to fetch services from provider")
	case errors.Is(err, provider.ErrNoServiceTypes):
		h.ErrorWithCode(c, dto.ErrCodeInvalidState, "No service types configured")
	case errors.Is(err, provider.ErrTerminalStatus), errors.Is(err, provider.ErrInvalidTransition):
		h.ErrorWithCode(c, dto.ErrCodeInvalidState, err.Error())
	case errors.Is(err, ordersync.ErrSyncInProgress):
		h.ErrorWithCode(c, dto.ErrCodeSyncInProgress, err.Error())
	case errors.Is(err, ordersync.ErrSchedulerNotRunning):
		h.ErrorWithCode(c, dto.ErrCodeSyncDisabled, err.Error())
	case errors.Is(err, ordersync.ErrNotResendable):
		h.ErrorWithCode(c, dto.ErrCodeNotResendable, err.Error())
	case errors.As(err, &domainErr):
		h.ErrorWithCode(c, domainErr.Code, domainErr.Message)
	default:
		h.InternalError(c, "An unexpected error occurred")
	}
}
