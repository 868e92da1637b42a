package helper

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// LocActorID diisi middleware ActorJWT (claim id/sub/user_id).
const LocActorID = "user_id"

// GetActorID: id aktor dari c.Locals("user_id").
// 401 kalau belum login. Tidak harus UUID (bisa id service / "system:*").
func GetActorID(c *fiber.Ctx) (string, error) {
	switch t := c.Locals(LocActorID).(type) {
	case uuid.UUID:
		if t != uuid.Nil {
			return t.String(), nil
		}
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return s, nil
		}
	case []byte:
		if s := strings.TrimSpace(string(t)); s != "" {
			return s, nil
		}
	}
	return "", fiber.NewError(fiber.StatusUnauthorized, "User belum login")
}

func ParseUUIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Params(name)))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, name+" tidak valid")
	}
	return id, nil
}
