package bootstrap

import (
	"time"

	"go_lecture_backend/config"
	"go_lecture_backend/pkg/logging"
	"go_lecture_backend/platform/cache"
	"go_lecture_backend/platform/database"
	"go_lecture_backend/platform/events"
	"go_lecture_backend/platform/queue"
	"go_lecture_backend/platform/redis"
	"go_lecture_backend/platform/sessions"
	"go_lecture_backend/platform/storage"
	"go_lecture_backend/utils"
)

type Infrastructure struct {
	DB             *database.DB
	Redis          *redis.Service
	Storage        *storage.Service
	Queue          queue.JobQueue
	Sessions       sessions.Store
	Scratch        *utils.ScratchManager
	Cache          cache.CacheService
	EventPublisher *events.EventPublisher
}

func NewInfrastructure(cfg *config.Config) (*Infrastructure, error) {
	infra := &Infrastructure{}

	db, err := database.InitPostgres(cfg)
	if err != nil {
		return nil, err
	}
	infra.DB = db
	if err := infra.DB.AutoMigrate(); err != nil {
		return nil, err
	}

	redisService, err := redis.InitRedis(cfg)
	if err != nil {
		logging.Logger.Error("fail Initializing Redis", "error", err)
		return nil, err
	}
	infra.Redis = redisService

	storageService, err := storage.InitStorageService(cfg)
	if err != nil {
		logging.Logger.Error("fail Initializing Bucket", "error", err)
		return nil, err
	}
	infra.Storage = storageService

	infra.Queue = queue.NewRedisQueue(redisService.Rdb, cfg.QueueName)
	infra.Sessions = sessions.NewRedisStore(redisService.Rdb, cfg.SessionTTL)

	scratch, err := utils.NewScratchManager(cfg.ScratchRoot)
	if err != nil {
		logging.Logger.Error("fail Initializing scratch storage", "error", err)
		return nil, err
	}
	infra.Scratch = scratch

	l1 := cache.InitL1Cache(5*time.Minute, 10*time.Minute)
	infra.Cache = cache.NewCacheService(l1, redisService)

	infra.EventPublisher = events.NewEventPublisher(redisService.Rdb)

	return infra, nil
}

func (infra *Infrastructure) Shutdown() error {
	if err := infra.DB.Close(); err != nil {
		logging.Logger.Error("fail closing database", "error", err)
		return err
	}
	if err := infra.Redis.Rdb.Close(); err != nil {
		logging.Logger.Error("fail closing redis", "error", err)
		return err
	}
	return nil
}
