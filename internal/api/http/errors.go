package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/sunwatch/suntimes-service/internal/suntimes"
)

// apiError carries the HTTP status and machine-readable code rendered in
// every error body as {"error":{"message","code"}}.
type apiError struct {
	Status  int
	Code    string
	Message string
}

func (e *apiError) Error() string {
	return e.Message
}

func newAPIError(status int, code, message string) *apiError {
	return &apiError{Status: status, Code: code, Message: message}
}

// mapDomainError translates domain errors into API errors. Classification
// order matters: ErrRateLimited wraps ErrProviderUnavailable, and the
// provider taxonomy all collapses to EXTERNAL_API_ERROR for callers.
func mapDomainError(err error) *apiError {
	switch {
	case errors.Is(err, suntimes.ErrMissingParameter):
		return newAPIError(fiber.StatusBadRequest, "MISSING_PARAMETER", err.Error())
	case errors.Is(err, suntimes.ErrInvalidDateRange):
		return newAPIError(fiber.StatusBadRequest, "INVALID_DATE_RANGE", err.Error())
	case errors.Is(err, suntimes.ErrLocationNotFound):
		return newAPIError(fiber.StatusUnprocessableEntity, "LOCATION_NOT_FOUND", err.Error())
	case errors.Is(err, suntimes.ErrResolverUnavailable):
		return newAPIError(fiber.StatusUnprocessableEntity, "GEOCODING_ERROR", err.Error())
	case errors.Is(err, suntimes.ErrValidation):
		return newAPIError(fiber.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, suntimes.ErrProviderUnavailable),
		errors.Is(err, suntimes.ErrInvalidQuery),
		errors.Is(err, suntimes.ErrMalformedResponse),
		errors.Is(err, suntimes.ErrProvider):
		return newAPIError(fiber.StatusBadGateway, "EXTERNAL_API_ERROR", err.Error())
	case errors.Is(err, suntimes.ErrNotFound):
		return newAPIError(fiber.StatusNotFound, "NOT_FOUND", "Record not found")
	default:
		return newAPIError(fiber.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred")
	}
}

// ErrorHandler is the centralized fiber error handler. Every error response
// uses the {"error":{"message","code"}} envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var apiErr *apiError
	if !errors.As(err, &apiErr) {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			apiErr = newAPIError(fiberErr.Code, codeForStatus(fiberErr.Code), fiberErr.Message)
		} else {
			apiErr = mapDomainError(err)
		}
	}

	return c.Status(apiErr.Status).JSON(fiber.Map{
		"error": fiber.Map{
			"message": apiErr.Message,
			"code":    apiErr.Code,
		},
	})
}

func codeForStatus(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusBadRequest:
		return "BAD_REQUEST"
	case fiber.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	default:
		return "INTERNAL_ERROR"
	}
}
