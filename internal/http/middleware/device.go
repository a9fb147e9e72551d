package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	// DeviceIDHeader lets non-browser clients name their device explicitly.
	DeviceIDHeader = "X-Device-ID"
	// DeviceCookie carries the device ID for browsers.
	DeviceCookie = "device_id"
	// DeviceLocalKey is the key used to store the device ID in Fiber's context locals.
	DeviceLocalKey = "device_id"
)

// Device resolves which device the request comes from. Each device keeps its
// own identity slot, the way a browser keeps its own local storage.
//
// Behavior:
// - Reads X-Device-ID, then the device_id cookie.
// - If both are missing, generates a new UUID and sets the cookie.
// - Stores the value in Fiber context locals under DeviceLocalKey.
func Device() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(DeviceIDHeader)
		if id == "" {
			id = c.Cookies(DeviceCookie)
		}
		if id == "" {
			id = uuid.NewString()
			c.Cookie(&fiber.Cookie{
				Name:     DeviceCookie,
				Value:    id,
				Path:     "/",
				Expires:  time.Now().AddDate(1, 0, 0),
				HTTPOnly: true,
				SameSite: fiber.CookieSameSiteLaxMode,
			})
		}
		c.Locals(DeviceLocalKey, id)
		return c.Next()
	}
}

// DeviceID returns the device resolved by Device.
func DeviceID(c *fiber.Ctx) string {
	id, _ := c.Locals(DeviceLocalKey).(string)
	return id
}
