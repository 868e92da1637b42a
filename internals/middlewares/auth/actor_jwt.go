// internals/middlewares/auth/actor_jwt.go
package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"

	helper "jadwalku_backend/internals/helpers"
)

// Locals yang diisi ActorJWT
const (
	LocJWTClaims = "jwt_claims"
	LocRoles     = "roles_global"
)

type ActorJWTOpts struct {
	Secret              string
	BlacklistChecker    func(c *fiber.Ctx, rawToken string) (bool, error) // true = token sudah di-revoke
	AllowCookieFallback bool                                               // pakai cookie access_token jika tidak ada Bearer
}

// ActorJWT memverifikasi JWT (HMAC) lalu mengisi c.Locals("user_id") dari claim id/sub/user_id.
// Setiap mutasi jadwal tercatat atas nama actor ini.
func ActorJWT(o ActorJWTOpts) fiber.Handler {
	secret := strings.TrimSpace(o.Secret)
	if secret == "" {
		panic("ActorJWT: Secret wajib diisi")
	}

	return func(c *fiber.Ctx) error {
		// 1) Ambil token: Authorization: Bearer xxx (atau cookie jika diizinkan)
		raw := ""
		if authz := strings.TrimSpace(c.Get(fiber.HeaderAuthorization)); strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			raw = strings.TrimSpace(authz[7:])
		} else if o.AllowCookieFallback {
			raw = strings.TrimSpace(c.Cookies("access_token"))
		}
		if raw == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
		}

		// 2) Cek blacklist (opsional). Checker error → token tetap diterima.
		if o.BlacklistChecker != nil {
			if black, err := o.BlacklistChecker(c, raw); err == nil && black {
				return fiber.NewError(fiber.StatusUnauthorized, "Token revoked")
			}
		}

		// 3) Parse + verifikasi algoritma
		tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !tok.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
		}
		claims, ok := tok.Claims.(jwt.MapClaims)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid token claims")
		}

		c.Locals(LocJWTClaims, claims)

		// user_id: ambil id/sub/user_id dalam urutan preferensi
		actor := firstClaim(claims, "id", "sub", "user_id")
		if actor == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Token tanpa identitas user")
		}
		c.Locals(helper.LocActorID, actor)
		c.Locals(LocRoles, readStringSlice(claims["roles_global"]))

		return c.Next()
	}
}

// util kecil untuk ambil string claim pertama yang terisi
func firstClaim(m jwt.MapClaims, keys ...string) string {
	for _, key := range keys {
		if s, ok := m[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// util: ubah nilai interface{} → []string (robust untuk []string atau []any)
func readStringSlice(v any) []string {
	out := make([]string, 0)
	switch t := v.(type) {
	case []string:
		for _, s := range t {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	case []any:
		for _, it := range t {
			if s, ok := it.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
		}
	case string:
		if s := strings.TrimSpace(t); s != "" {
			out = append(out, s)
		}
	}
	return out
}
