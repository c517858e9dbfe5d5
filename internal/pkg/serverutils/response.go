package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

type ResponseEnvelope struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func SuccessResponse(message string, data interface{}) ResponseEnvelope {
	return ResponseEnvelope{
		Status:  "success",
		Message: message,
		Data:    data,
	}
}

// AppError carries an HTTP status alongside a user-presentable message.
type AppError struct {
	Code    int
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

func NewAppError(code int, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// ErrorHandlerMiddleware converts errors bubbling out of handlers into the
// JSON envelope. Unknown errors become a 500 without leaking internals.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var appErr *AppError
		if errors.As(err, &appErr) {
			return ctx.Status(appErr.Code).JSON(ResponseEnvelope{
				Status:  "error",
				Message: appErr.Message,
			})
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ResponseEnvelope{
				Status:  "error",
				Message: fiberErr.Message,
			})
		}

		return ctx.Status(fiber.StatusInternalServerError).JSON(ResponseEnvelope{
			Status:  "error",
			Message: "Internal server error",
		})
	}
}
