package http

import (
	"github.com/gofiber/fiber/v2"
)

func (h *Handler) GetSession(c *fiber.Ctx) error {
	u := h.Session.User()
	if u == nil {
		return c.JSON(fiber.Map{"signedIn": false})
	}
	return c.JSON(fiber.Map{"signedIn": true, "user": u, "initials": u.Initials()})
}

func (h *Handler) SignIn(c *fiber.Ctx) error {
	u, err := h.Session.SignIn(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"signedIn": true, "user": u})
}

// SignOut ends the session; the document is erased with it.
func (h *Handler) SignOut(c *fiber.Ctx) error {
	if err := h.Session.SignOut(c.UserContext()); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"signedIn": false})
}
