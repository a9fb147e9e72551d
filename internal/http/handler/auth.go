package handler

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"digilocker/internal/auth"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionInfo struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SignUp godoc
// @Summary  Register with email and password
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    body     body      credentials  true  "Credentials"
// @Success  201      {object}  auth.Session
// @Failure  400,409  {object}  errorPayload
// @Router   /auth/signup [post]
func SignUp(svc auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req credentials
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "body must be JSON with email and password")
		}
		sess, err := svc.SignUp(c.UserContext(), req.Email, req.Password)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(sess)
	}
}

// SignIn godoc
// @Summary  Sign in with email and password
// @Tags     auth
// @Accept   json
// @Produce  json
// @Param    body  body      credentials  true  "Credentials"
// @Success  200   {object}  auth.Session
// @Failure  401   {object}  errorPayload
// @Router   /auth/signin [post]
func SignIn(svc auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req credentials
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "body must be JSON with email and password")
		}
		sess, err := svc.SignIn(c.UserContext(), req.Email, req.Password)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(sess)
	}
}

// CurrentSession godoc
// @Summary   Validate the bearer token
// @Tags      auth
// @Produce   json
// @Security  BearerAuth
// @Success   200  {object}  sessionInfo
// @Failure   401  {object}  errorPayload
// @Router    /auth/session [get]
func CurrentSession(svc auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		if !ok || token == "" {
			return writeError(c, fiber.StatusUnauthorized, "INVALID_TOKEN", "missing bearer token")
		}
		claims, err := svc.Verify(token)
		if err != nil {
			return respondError(c, err)
		}
		info := sessionInfo{UserID: claims.UserID, Email: claims.Email}
		if claims.ExpiresAt != nil {
			info.ExpiresAt = claims.ExpiresAt.Time
		}
		return c.JSON(info)
	}
}
