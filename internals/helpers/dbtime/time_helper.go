// file: internals/helpers/dbtime/time_helper.go
package dbtime

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Nama locals mengikuti yg di-set di middleware InstitutionTimezone
const (
	LocInstitutionTimezone = "institution_timezone" // string, misal "Asia/Jakarta"
	LocInstitutionLoc      = "institution_loc"      // *time.Location

	FallbackTimezone = "Asia/Jakarta"
)

// GetInstitutionLocation:
// 1) Prioritas: c.Locals("institution_loc")
// 2) Kalau belum ada: baca "institution_timezone" (string) lalu LoadLocation
// 3) Fallback: Asia/Jakarta, terakhir time.UTC
func GetInstitutionLocation(c *fiber.Ctx) *time.Location {
	if c == nil {
		return time.UTC
	}

	if v := c.Locals(LocInstitutionLoc); v != nil {
		if loc, ok := v.(*time.Location); ok && loc != nil {
			return loc
		}
	}

	if v := c.Locals(LocInstitutionTimezone); v != nil {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			if loc, err := time.LoadLocation(strings.TrimSpace(s)); err == nil {
				// cache ke locals biar next call lebih murah
				c.Locals(LocInstitutionLoc, loc)
				return loc
			}
		}
	}

	if loc, err := time.LoadLocation(FallbackTimezone); err == nil {
		c.Locals(LocInstitutionLoc, loc)
		return loc
	}
	return time.UTC
}

// ToInstitutionTime mengonversi waktu (biasanya dari DB = UTC) ke timezone institusi.
func ToInstitutionTime(c *fiber.Ctx, t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.In(GetInstitutionLocation(c))
}

// Helper kecil untuk "sekarang di timezone institusi"
func NowInInstitution(c *fiber.Ctx) time.Time {
	return time.Now().In(GetInstitutionLocation(c))
}

// TodayWeekday: hari ini (zona institusi) sebagai Weekday, dipakai default ?day= kosong.
func TodayWeekday(c *fiber.Ctx) Weekday {
	wd := NowInInstitution(c).Weekday() // 0=Sunday..6=Saturday
	if wd == time.Sunday {
		return Sunday
	}
	return Weekday(wd - 1)
}
