package wire

import (
	"Ripple/internal/api"
	"Ripple/internal/api/config"
	"Ripple/internal/api/dto"
	"Ripple/internal/api/handler"
	"Ripple/internal/gateway"
	"Ripple/internal/job"
	"Ripple/internal/pkg/cron"
	"Ripple/internal/pkg/kafka"
	mongoPkg "Ripple/internal/pkg/mongo"
	"Ripple/internal/repository"
	"Ripple/internal/service"
	"Ripple/internal/stream"
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router       *gin.Engine
	DB           *gorm.DB
	KafkaManager *kafka.ConsumerManager
	CronMgr      *cron.Manager
	NotifyRelay  *stream.NotifyRelay
}

func BuildApplication(db *gorm.DB, mongoDB *mongo.Database, cfg *config.Config) (*ApplicationContainer, error) {
	channelRepo := repository.NewChannelRepo(db)
	messageRepo := repository.NewMessageRepo(db)
	presenceRepo := repository.NewPresenceRepo(db)
	cursorRepo := repository.NewCursorRepo(db)
	userDirectory := repository.NewUserDirectory(db)
	contentDirectory := repository.NewContentDirectory(db)

	notificationRepo := mongoPkg.NewNotificationRepo(mongoDB)
	indexCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := notificationRepo.EnsureIndexes(indexCtx); err != nil {
		return nil, errors.Wrap(err, "ensure notification indexes failed")
	}

	pushStream := stream.NewBroadcaster[*dto.NotificationPushDTO]()

	chatService := service.NewChatService(channelRepo, messageRepo, presenceRepo, userDirectory)
	notificationService := service.NewNotificationService(
		notificationRepo, cursorRepo, userDirectory, contentDirectory, pushStream,
	)

	hub := gateway.NewHub()

	handlers := &api.HandlersGroup{
		ChatHandler:         handler.NewChatHandler(chatService),
		NotificationHandler: handler.NewNotificationHandler(notificationService),
		WSHandler:           handler.NewWsHandler(hub, chatService),
	}

	router := api.SetupRouter(handlers)

	kafkaMgr, err := kafka.NewConsumerManager(cfg, notificationService)
	if err != nil {
		return nil, err
	}

	pruneJob := job.NewNotificationPruneJob(notificationRepo, cfg.Notification.RetentionDays)
	cronMgr := cron.NewCronManager(pruneJob)

	relay := stream.NewNotifyRelay(pushStream)

	return &ApplicationContainer{
		Router:       router,
		DB:           db,
		KafkaManager: kafkaMgr,
		CronMgr:      cronMgr,
		NotifyRelay:  relay,
	}, nil
}
