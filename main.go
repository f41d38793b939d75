package main

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Winter-Krimmert/Advanced-Blog-API/config"
	"github.com/Winter-Krimmert/Advanced-Blog-API/events"
	"github.com/Winter-Krimmert/Advanced-Blog-API/routes"
	"github.com/Winter-Krimmert/Advanced-Blog-API/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := utils.NewLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := config.OpenDatabase(cfg)
	if err != nil {
		log.Fatal("open database", zap.Error(err))
	}
	if err := config.Migrate(db); err != nil {
		log.Fatal("migrate database", zap.Error(err))
	}

	var cache utils.Cache
	redisClient, err := utils.NewRedisClient(cfg)
	switch {
	case err == nil:
		defer redisClient.Close()
		cache = utils.NewRedisCache(redisClient, log)
		log.Info("response cache backed by redis", zap.String("host", cfg.RedisHost))
	case errors.Is(err, utils.ErrRedisDisabled):
		cache = utils.NewMemoryCache()
	default:
		log.Warn("redis unavailable, falling back to in-process cache", zap.Error(err))
		cache = utils.NewMemoryCache()
	}

	var pub events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		pub = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		log.Info("publishing domain events", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	}
	defer pub.Close()

	r := routes.SetupRouter(routes.Dependencies{
		Config: cfg,
		DB:     db,
		Logger: log,
		Cache:  cache,
		Events: pub,
	})

	log.Info("starting server (graceful)", zap.String("port", cfg.AppPort))
	if err := utils.GraceServer(":"+cfg.AppPort, r, log); err != nil {
		log.Error("server stopped with error", zap.Error(err))
	}
}
