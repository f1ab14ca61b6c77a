package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	localsRequestID = "requestid"
	maxRequestIDLen = 128
)

// requestID tags every request with an X-Request-ID, keeping a caller
// supplied one when it is reasonably sized.
func requestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(fiber.HeaderXRequestID)
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}
		c.Set(fiber.HeaderXRequestID, id)
		c.Locals(localsRequestID, id)
		return c.Next()
	}
}

func getRequestID(c *fiber.Ctx) string {
	id, _ := c.Locals(localsRequestID).(string)
	return id
}
