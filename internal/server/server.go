package server

import (
	"time"

	"backend-rallynotes/internal/archive"
	"backend-rallynotes/internal/config"
	"backend-rallynotes/internal/export"
	"backend-rallynotes/internal/stage"
	"backend-rallynotes/internal/stream"
	"backend-rallynotes/internal/voice"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App      *fiber.App
	Cfg      config.Config
	DB       *pgxpool.Pool
	Redis    *redis.Client
	Stream   *stream.Hub
	Recorder *stage.Recorder
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	interval := time.Duration(cfg.TrackingIntervalSec) * time.Second
	if interval > 0 {
		export.TrackingInterval = interval
	}

	hub := stream.NewHub(redisClient)
	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     db,
		Redis:  redisClient,
		Stream: hub,
		Recorder: stage.NewRecorder(stage.Options{
			RouteName:        cfg.RouteName,
			DayNumber:        cfg.DayNumber,
			TrackingInterval: interval,
		}, hub),
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	var finisher stage.Finisher
	if s.DB != nil {
		store := archive.NewStore(s.DB)
		finisher = store
		archive.RegisterRoutes(s.App.Group("/archive"), store)
	}

	stageGroup := s.App.Group("/stage")
	stage.RegisterRoutes(stageGroup, s.Recorder, finisher)
	voice.RegisterRoutes(stageGroup, s.Recorder, finisher)
	export.RegisterRoutes(s.App.Group("/stage/export"), s.Recorder)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}
