package server

import (
	"backend-ridetrack/internal/config"
	"backend-ridetrack/internal/db"
	"backend-ridetrack/internal/export"
	"backend-ridetrack/internal/navigation"
	"backend-ridetrack/internal/recovery"
	"backend-ridetrack/internal/stream"
	"backend-ridetrack/internal/telemetry"
	"backend-ridetrack/internal/weather"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	App     *fiber.App
	Cfg     config.Config
	DB      *pgxpool.Pool
	Redis   *redis.Client
	Stream  *stream.Hub
	Weather *weather.Service
	Rides   *telemetry.Service
}

func NewServer(cfg config.Config, pool *pgxpool.Pool, redisClient *redis.Client, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	var blobs db.BlobStore
	var rec telemetry.RecoveryStore
	if redisClient != nil {
		blobs = db.NewBlobStore(redisClient)
		rec = recovery.NewStore(blobs, cfg.RecoveryWindow, log)
	}

	var querier db.Querier
	if pool != nil {
		querier = pool
	}

	hub := stream.NewHub(redisClient, log)

	rides := telemetry.NewService(
		querier,
		rec,
		hub,
		log,
		telemetry.Config{
			CaloriesPerKm:    cfg.CaloriesPerKm,
			SnapshotInterval: cfg.SnapshotInterval,
		},
	)

	nav := navigation.NewService(
		navigation.NewDirectionsClient(cfg.RoutingAPIURL, cfg.RoutingAPIKey),
		navigation.NewDeviationMonitor(cfg.DeviationThresholdM),
		log,
	)

	forecast := weather.NewService(
		weather.NewCache(blobs, cfg.WeatherFreshTTL, cfg.WeatherStaleTTL, log),
		weather.NewClient(cfg.WeatherAPIURL, cfg.WeatherAPIKey),
		log,
	)

	s := &Server{
		App:     app,
		Cfg:     cfg,
		DB:      pool,
		Redis:   redisClient,
		Stream:  hub,
		Weather: forecast,
		Rides:   rides,
	}

	registerRoutes(s, rides, nav, forecast)
	return s
}

func registerRoutes(s *Server, rides *telemetry.Service, nav *navigation.Service, forecast *weather.Service) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	ridesGroup := s.App.Group("/rides")
	telemetry.RegisterRoutes(ridesGroup, rides)
	export.RegisterRoutes(ridesGroup, rides)
	navigation.RegisterRoutes(s.App.Group("/navigation"), nav)
	weather.RegisterRoutes(s.App.Group("/weather"), forecast)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}
