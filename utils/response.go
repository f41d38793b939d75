package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Respond writes data as JSON with the given status code.
func Respond(ctx *gin.Context, status int, data interface{}) {
	ctx.JSON(status, data)
}

// Success returns a 200 response.
func Success(ctx *gin.Context, data interface{}) {
	Respond(ctx, http.StatusOK, data)
}

// Created returns a 201 response.
func Created(ctx *gin.Context, data interface{}) {
	Respond(ctx, http.StatusCreated, data)
}

// NoContent returns an empty 204 response.
func NoContent(ctx *gin.Context) {
	ctx.Status(http.StatusNoContent)
}

// Error aborts the request with a structured error response.
// Errors that are not *APIError are recorded on the context for logging and reported as a generic 500.
func Error(ctx *gin.Context, err error) {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		_ = ctx.Error(err)
		apiErr = ErrInternal
	}
	ctx.AbortWithStatusJSON(apiErr.Status, apiErr)
}
