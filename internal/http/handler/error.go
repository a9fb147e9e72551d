package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"digilocker/internal/auth"
	"digilocker/internal/gateway"
	"digilocker/internal/http/middleware"
	"digilocker/internal/model"
	"digilocker/internal/navigator"
	"digilocker/internal/service"
	"digilocker/internal/workflow"
)

// errorPayload is the body of every non-2xx answer.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func requestIDFromCtx(c *fiber.Ctx) string {
	id, _ := c.Locals(middleware.RequestIDLocalKey).(string)
	return id
}

// writeError answers with the envelope. message must be safe to show a patient.
func writeError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(errorPayload{
		RequestID: requestIDFromCtx(c),
		Error:     errorEnvelope{Code: code, Message: message},
	})
}

// respondError maps domain errors onto the standard envelope.
func respondError(c *fiber.Ctx, err error) error {
	var (
		ve *model.ValidationError
		pe *workflow.PreconditionError
		cw *gateway.ConsistencyWarning
		re *gateway.RemoteError
	)
	switch {
	case errors.As(err, &ve):
		return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", ve.Error())
	case errors.As(err, &pe):
		return writeError(c, fiber.StatusBadRequest, "PRECONDITION_FAILED", pe.Error())
	case errors.Is(err, service.ErrIDRequired):
		return writeError(c, fiber.StatusBadRequest, "ID_REQUIRED", "health id and document id are required")
	case errors.Is(err, service.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
	case errors.Is(err, auth.ErrEmailTaken):
		return writeError(c, fiber.StatusConflict, "EMAIL_TAKEN", "email already registered")
	case errors.Is(err, auth.ErrInvalidCredentials):
		return writeError(c, fiber.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid email or password")
	case errors.Is(err, auth.ErrInvalidToken):
		return writeError(c, fiber.StatusUnauthorized, "INVALID_TOKEN", "invalid or expired token")
	case errors.Is(err, navigator.ErrInvalidTransition), errors.Is(err, workflow.ErrBusy):
		return writeError(c, fiber.StatusConflict, "CONFLICT", "action not allowed now")
	case errors.As(err, &cw):
		return writeError(c, fiber.StatusInternalServerError, "INCONSISTENT_STATE", "storage and metadata are out of sync; contact an operator")
	case errors.As(err, &re):
		msg := re.Message
		if msg == "" {
			msg = "document backend unavailable"
		}
		return writeError(c, fiber.StatusBadGateway, "REMOTE_ERROR", msg)
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// frameworkErrors covers statuses raised by fiber itself (routing, body limit).
var frameworkErrors = map[int]errorEnvelope{
	fiber.StatusBadRequest:            {Code: "BAD_REQUEST", Message: "bad request"},
	fiber.StatusNotFound:              {Code: "NOT_FOUND", Message: "resource not found"},
	fiber.StatusMethodNotAllowed:      {Code: "METHOD_NOT_ALLOWED", Message: "method not allowed"},
	fiber.StatusRequestEntityTooLarge: {Code: "PAYLOAD_TOO_LARGE", Message: "request body too large"},
	fiber.StatusUnsupportedMediaType:  {Code: "UNSUPPORTED_MEDIA_TYPE", Message: "unsupported content type"},
}

// ErrorHandler is the app-wide fiber error handler. Domain errors that escape a
// handler get the same mapping as respondError.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if !errors.As(err, &fe) {
			return respondError(c, err)
		}
		if env, ok := frameworkErrors[fe.Code]; ok {
			return writeError(c, fe.Code, env.Code, env.Message)
		}
		return writeError(c, fe.Code, "INTERNAL_ERROR", "internal server error")
	}
}
