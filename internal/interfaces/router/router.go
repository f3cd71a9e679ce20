package router

import (
	"context"
	"net/http"

	listsvc "carlist/internal/application/listings"
	"carlist/internal/config"
	"carlist/internal/infrastructure/database"
	healthhandler "carlist/internal/interfaces/handlers/health"
	listhandler "carlist/internal/interfaces/handlers/listings"
	"carlist/internal/interfaces/views"
	"carlist/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) Ping(ctx context.Context) error {
	if g == nil || g.db == nil {
		return nil
	}
	return database.Ping(ctx, g.db)
}

// CreateApp opens the store (creating it on first start), then wires middleware and
// routes. The caller owns the returned pool and Redis client.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	db, err := database.Open(database.Options{
		DSN:   cfg.DatabaseURL,
		Path:  cfg.DatabasePath,
		Debug: cfg.Debug,
	})
	if err != nil {
		return nil, nil, nil, err
	}
	created, err := database.Bootstrap(db)
	if err != nil {
		_ = database.Close(db)
		return nil, nil, nil, err
	}
	if created {
		log.Info().Msg("Created the database.")
	}

	renderer, err := views.New()
	if err != nil {
		_ = database.Close(db)
		return nil, nil, nil, err
	}
	encrypt, err := middleware.EncryptCookies(cfg.SessionSecret)
	if err != nil {
		_ = database.Close(db)
		return nil, nil, nil, err
	}
	sessionHandler, rdb, err := middleware.Session(middleware.SessionConfig{
		RedisURL:     cfg.RedisURL,
		IsProduction: cfg.IsProduction(),
	})
	if err != nil {
		_ = database.Close(db)
		return nil, nil, nil, err
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler(rdb),
	})

	app.Use(recover.New())
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())
	if encrypt != nil {
		app.Use(encrypt)
	}
	app.Use(sessionHandler)
	app.Use(middleware.HealthMarker(rdb))

	hh := &healthhandler.Handlers{
		Rdb:            rdb,
		DB:             &gormDBPinger{db: db},
		HealthAdminKey: cfg.HealthAdminKey,
	}
	app.Get("/health", hh.Dashboard)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)
	app.Get("/health/reset", hh.Reset)

	lh := &listhandler.Handlers{
		Service: &listsvc.Service{},
		Views:   renderer,
	}
	// Static paths before /listing/:id.
	app.Get(listhandler.IndexPath, middleware.DBConn(db), lh.Index)
	app.Get(listhandler.CreatePath, lh.NewForm)
	app.Post(listhandler.CreatePath, middleware.DBConn(db), lh.Create)
	app.Get("/search", middleware.DBConn(db), lh.Search)
	app.Get("/listing/:id", middleware.DBConn(db), lh.Show)
	app.Post("/listing/:id/delete", middleware.DBConn(db), lh.Delete)

	return app, db, rdb, nil
}

func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}
