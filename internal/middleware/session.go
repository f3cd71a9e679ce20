package middleware

import (
	"context"
	"encoding/base64"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/encryptcookie"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/redis/go-redis/v9"
)

// SessionConfig for the server-side session; Redis-backed when RedisURL is set,
// in-process memory otherwise.
type SessionConfig struct {
	RedisURL     string
	IsProduction bool
}

const (
	SessionCookieName  = "carlist.sid"
	SessionRedisPrefix = "session:"
	sessionMaxAge      = 24 * time.Hour
	sessionStoreLocal  = "session_store"
)

// ErrNoSessionStore is returned when a handler runs without the Session middleware.
var ErrNoSessionStore = errors.New("session store not installed")

// Session returns a Fiber middleware that exposes the session store to handlers.
// The Redis client (nil without RedisURL) is returned for reuse by health tracking.
func Session(cfg SessionConfig) (fiber.Handler, *redis.Client, error) {
	var (
		rdb     *redis.Client
		storage fiber.Storage
	)
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		rdb = redis.NewClient(opt)
		storage = NewRedisStorage(rdb, SessionRedisPrefix)
	}
	store := NewSessionStore(cfg, storage)
	return func(c *fiber.Ctx) error {
		c.Locals(sessionStoreLocal, store)
		return c.Next()
	}, rdb, nil
}

// NewSessionStore builds the cookie-keyed session store. A nil storage keeps
// sessions in memory.
func NewSessionStore(cfg SessionConfig, storage fiber.Storage) *session.Store {
	return session.New(session.Config{
		Storage:        storage,
		Expiration:     sessionMaxAge,
		KeyLookup:      "cookie:" + SessionCookieName,
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSecure:   cfg.IsProduction,
		CookieSameSite: "Lax",
	})
}

func sessionStore(c *fiber.Ctx) (*session.Store, error) {
	store, ok := c.Locals(sessionStoreLocal).(*session.Store)
	if !ok || store == nil {
		return nil, ErrNoSessionStore
	}
	return store, nil
}

// RedisStorage implements fiber.Storage on a go-redis client so the session
// middleware can keep its data in Redis.
type RedisStorage struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisStorage(rdb *redis.Client, prefix string) *RedisStorage {
	return &RedisStorage{rdb: rdb, prefix: prefix}
}

// Get returns nil, nil for a missing key, as fiber.Storage requires.
func (s *RedisStorage) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	b, err := s.rdb.Get(context.Background(), s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return b, err
}

func (s *RedisStorage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	return s.rdb.Set(context.Background(), s.prefix+key, val, exp).Err()
}

func (s *RedisStorage) Delete(key string) error {
	if key == "" {
		return nil
	}
	return s.rdb.Del(context.Background(), s.prefix+key).Err()
}

// Reset removes every key under the storage prefix.
func (s *RedisStorage) Reset() error {
	ctx := context.Background()
	iter := s.rdb.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func (s *RedisStorage) Close() error {
	return s.rdb.Close()
}

// ErrInvalidSessionSecret is returned when SESSION_SECRET is not a base64 AES key.
var ErrInvalidSessionSecret = errors.New("SESSION_SECRET must be a base64-encoded 16, 24 or 32 byte key")

// EncryptCookies encrypts every cookie, the session id included, with the given key.
// An empty secret leaves cookies as they are.
func EncryptCookies(secret string) (fiber.Handler, error) {
	if secret == "" {
		return nil, nil
	}
	key, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return nil, ErrInvalidSessionSecret
	}
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, ErrInvalidSessionSecret
	}
	return encryptcookie.New(encryptcookie.Config{Key: secret}), nil
}
