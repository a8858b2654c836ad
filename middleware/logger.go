package middleware

import (
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

// Logger emits one access-log line per request. Chunk uploads are frequent
// and small, so the line stays short; body sizes show up in the service logs
// instead.
func Logger() fiber.Handler {
	if os.Getenv("APP_ENV") == "prod" {
		return logger.New(logger.Config{
			Format:     `{"time":"${time}","ip":"${ip}","method":"${method}","path":"${path}","status":${status},"latency":"${latency}"}` + "\n",
			TimeFormat: time.RFC3339,
			TimeZone:   "UTC",
			Output:     os.Stdout,
		})
	}
	return logger.New(logger.Config{
		Format:     "[${time}] ${status} ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
		Output:     os.Stdout,
	})
}
