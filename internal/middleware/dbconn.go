package middleware

import (
	"errors"

	"carlist/internal/infrastructure/database"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const dbConnLocal = "db_conn"

// ErrNoDBConn is returned when a handler runs without the DBConn middleware.
var ErrNoDBConn = errors.New("request has no database connection")

// DBConn gives every request its own lazily acquired storage handle and releases
// it when the request finishes, whether the handler returned an error or panicked.
func DBConn(pool *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		conn := database.NewConn(c.UserContext(), pool)
		c.Locals(dbConnLocal, conn)
		defer func() {
			if err := conn.Release(); err != nil {
				log.Warn().Err(err).Str("trace_id", GetTraceID(c)).Msg("release db connection")
			}
		}()
		return c.Next()
	}
}

// GetConn returns the request's storage handle.
func GetConn(c *fiber.Ctx) (*database.Conn, error) {
	conn, ok := c.Locals(dbConnLocal).(*database.Conn)
	if !ok || conn == nil {
		return nil, ErrNoDBConn
	}
	return conn, nil
}
