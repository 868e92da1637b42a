package helper

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// FromFiberError mengubah error (biasanya *fiber.Error) menjadi response JSON konsisten.
// Dipakai juga sebagai fiber ErrorHandler.
func FromFiberError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return JsonError(c, fe.Code, fe.Message)
	}
	return JsonError(c, fiber.StatusInternalServerError, err.Error())
}
