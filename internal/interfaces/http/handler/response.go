package handler

import "github.com/erp/progress-billing/internal/interfaces/http/dto"

// SuccessEnvelope documents the body of a 2xx response. Handlers write it through
// BaseHandler.Success; the type exists for the swagger annotations.
type SuccessEnvelope[T any] struct {
	Success bool `json:"success" example:"true"`
	Data    T    `json:"data,omitempty"`
}

// ErrorResponse documents the body written by BaseHandler.HandleError and the middleware
type ErrorResponse struct {
	Success bool           `json:"success" example:"false"`
	Error   *dto.ErrorInfo `json:"error"`
}
