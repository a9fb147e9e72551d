package handler

import (
	"github.com/gofiber/fiber/v2"

	"digilocker/internal/http/middleware"
	"digilocker/internal/identity"
	"digilocker/internal/model"
)

type identityResponse struct {
	HealthID model.Identifier `json:"health_id"`
}

type adoptRequest struct {
	HealthID string `json:"health_id"`
}

func deviceStore(c *fiber.Ctx, slots identity.Slots) identity.IdentityStore {
	return identity.New(slots.Slot(middleware.DeviceID(c)), nil)
}

// GetIdentity godoc
// @Summary  Health ID remembered for this device
// @Tags     identity
// @Produce  json
// @Success  200  {object}  identityResponse
// @Failure  404  {object}  errorPayload
// @Router   /identity [get]
func GetIdentity(slots identity.Slots) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok, err := deviceStore(c, slots).Resolve(c.UserContext())
		if err != nil {
			return respondError(c, err)
		}
		if !ok {
			return writeError(c, fiber.StatusNotFound, "IDENTITY_NOT_SET", "no health id stored for this device")
		}
		return c.JSON(identityResponse{HealthID: id})
	}
}

// GenerateIdentity godoc
// @Summary  Generate a new health ID for this device
// @Tags     identity
// @Produce  json
// @Success  201  {object}  identityResponse
// @Router   /identity [post]
func GenerateIdentity(slots identity.Slots) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := deviceStore(c, slots).Generate(c.UserContext())
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(identityResponse{HealthID: id})
	}
}

// AdoptIdentity godoc
// @Summary  Use an existing health ID on this device
// @Tags     identity
// @Accept   json
// @Produce  json
// @Param    body  body      adoptRequest  true  "Health ID"
// @Success  200   {object}  identityResponse
// @Failure  400   {object}  errorPayload
// @Router   /identity [put]
func AdoptIdentity(slots identity.Slots) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req adoptRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "body must be JSON with health_id")
		}
		id, err := deviceStore(c, slots).Adopt(c.UserContext(), req.HealthID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(identityResponse{HealthID: id})
	}
}
