// middlewares/cors.go

package middlewares

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"jadwalku_backend/internals/configs"
)

var defaultOrigins = []string{
	"http://localhost:5173",
	"http://localhost:5177",
	"http://127.0.0.1:5500",
}

// CorsMiddleware membuat middleware CORS. Origin tambahan dari CORS_ALLOW_ORIGINS (pisah koma).
func CorsMiddleware() fiber.Handler {
	origins := append([]string(nil), defaultOrigins...)
	for _, o := range strings.Split(configs.GetEnv("CORS_ALLOW_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return cors.New(cors.Config{
		AllowOrigins:     strings.Join(origins, ", "),
		AllowMethods:     "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, If-Match, X-Request-ID",
		ExposeHeaders:    "ETag, X-Request-ID",
		AllowCredentials: true,
	})
}
