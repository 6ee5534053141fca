package api

import (
	"Ripple/internal/api/middleware"
	"Ripple/internal/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRouter(group *HandlersGroup) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	// TraceId & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.AuditMiddleware())
	r.Use(middleware.CORSMiddleware())
	logger.SetupGin(r)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"Code":    200,
				"Message": "pong",
				"Data":    nil,
			})
		})

		chatGroup := apiGroup.Group("/chat")
		{
			chatGroup.Use(middleware.AuthMiddleware())
			{
				chatGroup.POST("/channel", group.ChatHandler.CreateChannel)
				chatGroup.GET("", group.ChatHandler.ListChannels)
				chatGroup.GET("/:channel_id", group.ChatHandler.GetChannel)
				chatGroup.GET("/:channel_id/messages", group.ChatHandler.GetMessages)
				chatGroup.DELETE("/:channel_id", group.ChatHandler.DeleteChannel)
			}
		}

		imGroup := apiGroup.Group("/im")
		{
			// 长连接通过 token 查询参数自行鉴权
			imGroup.GET("", group.WSHandler.Connect)
		}

		notificationGroup := apiGroup.Group("/notification")
		{
			// SSE 推送流同样通过 token 查询参数鉴权
			notificationGroup.GET("/stream", group.NotificationHandler.Stream)

			authGroup := notificationGroup.Group("")
			authGroup.Use(middleware.AuthMiddleware())
			{
				authGroup.GET("", group.NotificationHandler.List)
				authGroup.GET("/count", group.NotificationHandler.Count)
			}
		}
	}

	return r
}
