package di

import (
	"messenger-bot-demo/backend/internal/bot"
	"messenger-bot-demo/backend/internal/messenger"
	"messenger-bot-demo/backend/internal/repository"
	"messenger-bot-demo/backend/internal/service"
	"messenger-bot-demo/backend/pkg/config"
	"messenger-bot-demo/backend/pkg/logger"
	sharedredis "messenger-bot-demo/backend/shared/redis"

	"gorm.io/gorm"
)

// Container holds all the dependencies for the application
type Container struct {
	DB         *gorm.DB
	Logger     *logger.Logger
	Client     *messenger.Client
	Users      repository.UserRepository
	Messages   repository.MessageRepository
	Directory  *service.Directory
	MessageLog *service.MessageLog
	Bot        *bot.Bot
}

// New creates a new dependency injection container
func New(db *gorm.DB, cfg *config.Config, log *logger.Logger) *Container {
	client := messenger.NewClient(
		cfg.Messenger.GraphBaseURL,
		cfg.Messenger.AccessToken,
		cfg.Messenger.HTTPTimeout,
		log,
	)

	users := repository.NewGormUserRepository(db)
	messages := repository.NewGormMessageRepository(db)

	var cache service.ProfileCache
	if cfg.Cache.Enabled {
		cache = sharedredis.NewRedisClient(cfg.Cache.RedisURL)
	}

	directory := service.NewDirectory(users, client, cache, cfg.Cache.ProfileTTL, log)
	messageLog := service.NewMessageLog(messages, log)
	b := bot.New(directory, client, messageLog, log)

	return &Container{
		DB:         db,
		Logger:     log,
		Client:     client,
		Users:      users,
		Messages:   messages,
		Directory:  directory,
		MessageLog: messageLog,
		Bot:        b,
	}
}
