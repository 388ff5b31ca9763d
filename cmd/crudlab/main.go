package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/davicafu/crudlab/internal/config"
	pickupApp "github.com/davicafu/crudlab/internal/pickup/application"
	pickupDomain "github.com/davicafu/crudlab/internal/pickup/domain"
	pickupHttp "github.com/davicafu/crudlab/internal/pickup/infra/inbound/http"
	pickupRepo "github.com/davicafu/crudlab/internal/pickup/infra/outbound/db"
	pickupMongo "github.com/davicafu/crudlab/internal/pickup/infra/outbound/db/mongodb"
	sharedApp "github.com/davicafu/crudlab/internal/shared/application"
	sharedDomain "github.com/davicafu/crudlab/internal/shared/domain"
	infraCache "github.com/davicafu/crudlab/internal/shared/infra/cache"
	"github.com/davicafu/crudlab/internal/shared/infra/db/sqlrepo"
	infraEvents "github.com/davicafu/crudlab/internal/shared/infra/events"
	sharedBus "github.com/davicafu/crudlab/internal/shared/infra/platform/bus"
	sharedCache "github.com/davicafu/crudlab/internal/shared/infra/platform/cache"
	userApp "github.com/davicafu/crudlab/internal/user/application"
	userDomain "github.com/davicafu/crudlab/internal/user/domain"
	userHttp "github.com/davicafu/crudlab/internal/user/infra/inbound/http"
	userRepo "github.com/davicafu/crudlab/internal/user/infra/outbound/db"
	userMongo "github.com/davicafu/crudlab/internal/user/infra/outbound/db/mongodb"
	"github.com/davicafu/crudlab/pkg/logger"
)

// ---------------- Main ----------------

func main() {
	logger.Init()
	log := logger.Logger()
	defer log.Sync()

	ctx := context.Background()
	cfg := config.LoadConfig()

	// ---------------- DB ----------------
	var (
		users   sharedDomain.Repository[userDomain.User, uuid.UUID]
		pickups sharedDomain.Repository[pickupDomain.Pickup, uuid.UUID]
	)
	if cfg.DBDriver == "mongo" {
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			log.Fatal("failed to connect to mongoDB", zap.Error(err))
		}
		defer client.Disconnect(ctx)

		users, err = userMongo.NewUserRepository(ctx, client, cfg.MongoDB, log)
		if err != nil {
			log.Fatal("failed to initialize users collection", zap.Error(err))
		}
		pickups = pickupMongo.NewPickupRepository(client, cfg.MongoDB, log)
	} else {
		dsn := cfg.SQLitePath
		if cfg.DBDriver == "postgres" {
			dsn = cfg.PostgresDSN
		}
		pool, dialect, err := sqlrepo.Open(cfg.DBDriver, dsn)
		if err != nil {
			log.Fatal("failed to open database", zap.Error(err))
		}
		defer pool.Close()

		if err := userRepo.Init(pool); err != nil {
			log.Fatal("failed to initialize users table", zap.Error(err))
		}
		if err := pickupRepo.Init(pool); err != nil {
			log.Fatal("failed to initialize pickups table", zap.Error(err))
		}

		users = userRepo.NewUserRepository(pool, dialect, log)
		pickups = pickupRepo.NewPickupRepository(pool, dialect, log)
	}

	// ---------------- Cache ----------------
	var cacheInstance sharedCache.Cache
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("Redis unavailable, falling back to in-memory cache", zap.Error(err))
		cacheInstance = infraCache.NewInMemoryCache(cfg.CacheTTL, 3*cfg.CacheTTL)
	} else {
		cacheInstance = infraCache.NewRedisCache(rdb, cfg.CacheTTL)
		log.Info("Redis connected, cache enabled")
	}

	// ---------------- Events ----------------
	var publisher sharedBus.EventBus
	if cfg.UseKafka {
		log.Info("Using Kafka as event bus")
		writer := kafka.NewWriter(kafka.WriterConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
		})
		defer writer.Close()
		publisher = infraEvents.NewKafkaPublisher(writer, log)
	} else {
		log.Info("Using in-memory event bus")
		publisher = infraEvents.NewInMemoryBus()
	}

	// ---------------- Facades ----------------
	facadeCfg := sharedApp.Config{
		DefaultLimit: cfg.DefaultLimit,
		Cache:        cacheInstance,
		CacheTTL:     int(cfg.CacheTTL.Seconds()),
		Bus:          publisher,
	}
	userFacade := userApp.NewUserFacade(users, log, facadeCfg)
	pickupFacade := pickupApp.NewPickupFacade(pickups, log, facadeCfg)

	// ---------------- HTTP ----------------
	r := gin.Default()
	userHttp.RegisterUserRoutes(r, userHttp.NewUserHandler(userFacade))
	pickupHttp.RegisterPickupRoutes(r, pickupHttp.NewPickupHandler(pickupFacade))

	log.Info("Starting HTTP server", zap.String("port", cfg.HTTPPort))
	if err := r.Run(":" + cfg.HTTPPort); err != nil {
		log.Fatal("HTTP server stopped", zap.Error(err))
	}
}
