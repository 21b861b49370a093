package http

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// NotImplementedMessage is returned by route groups that have no handlers yet.
const NotImplementedMessage = "Not implemented yet"

// ErrorResponse is the error body of every API response.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// Error allows ErrorResponse to satisfy the error interface.
func (e ErrorResponse) Error() string {
	return e.Message
}

// Respond sends status with a JSON body.
func Respond(c *fiber.Ctx, status int, body any) error {
	return c.Status(status).JSON(body)
}

// RespondError sends status with an ErrorResponse body.
func RespondError(c *fiber.Ctx, status int, title, message string) error {
	return Respond(c, status, ErrorResponse{
		Code:    status,
		Title:   title,
		Message: message,
	})
}

// NotImplementedEndpoint returns HTTP 501 with not implemented message.
func NotImplementedEndpoint(c *fiber.Ctx) error {
	return RespondError(c, fiber.StatusNotImplemented, "not_implemented", NotImplementedMessage)
}

// ServiceUnavailableError writes a 503 without leaking internal details.
func ServiceUnavailableError(c *fiber.Ctx) error {
	return RespondError(c, fiber.StatusServiceUnavailable, "service_unavailable", "service unavailable")
}

// RenderError writes all transport errors through a single, stable contract.
func RenderError(c *fiber.Ctx, err error) error {
	if err == nil {
		return nil
	}

	var responseErr ErrorResponse
	if errors.As(err, &responseErr) {
		status := fiber.StatusInternalServerError

		if responseErr.Code >= http.StatusContinue && responseErr.Code <= 599 {
			status = responseErr.Code
		}

		title := responseErr.Title
		if title == "" {
			title = "request_failed"
		}

		message := responseErr.Message
		if message == "" {
			message = http.StatusText(status)
		}

		return RespondError(c, status, title, message)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return RespondError(c, fiberErr.Code, "request_failed", fiberErr.Message)
	}

	return RespondError(c, fiber.StatusInternalServerError, "request_failed", "An internal error occurred")
}
