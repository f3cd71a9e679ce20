package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"carlist/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const errorLogSize = 50

// ErrorHandler is the global error handler. *fiber.Error keeps its code and message;
// anything else is a 500. Server errors are logged and, with Redis, appended to the
// health error log.
func ErrorHandler(rdb *redis.Client) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal Server Error"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		}

		if code >= fiber.StatusInternalServerError {
			log.Error().Err(err).
				Str("trace_id", GetTraceID(c)).
				Str("method", c.Method()).
				Str("path", c.Path()).
				Msg("request failed")
			recordError(rdb, c, err)
		}
		return response.Text(c, code, message)
	}
}

func recordError(rdb *redis.Client, c *fiber.Ctx, err error) {
	if rdb == nil {
		return
	}
	b, _ := json.Marshal(map[string]interface{}{
		"time":     time.Now().UTC(),
		"trace_id": GetTraceID(c),
		"path":     c.OriginalURL(),
		"method":   c.Method(),
		"message":  err.Error(),
	})
	ctx := context.Background()
	pipe := rdb.TxPipeline()
	pipe.LPush(ctx, KeyErrorLog, b)
	pipe.LTrim(ctx, KeyErrorLog, 0, errorLogSize-1)
	if _, perr := pipe.Exec(ctx); perr != nil {
		log.Warn().Err(perr).Msg("record error log")
	}
}
