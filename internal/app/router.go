package app

import (
	"quiz_nft_backend/docs"
	"quiz_nft_backend/internal/middleware"
	"quiz_nft_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	api := router.Group("/api")
	{
		api.GET("/health", c.health.HealthCheck)

		// bot 后端内网调用的核心接口
		api.POST("/users", c.user.RegisterUser)
		api.GET("/users/:id", c.user.GetUser)
		api.GET("/users/:id/results", c.quiz.GetUserResults)
		api.GET("/users/:id/payments", c.payment.GetUserPayments)
		api.GET("/users/:id/nfts", c.nft.GetUserNFTs)

		api.GET("/quizzes", c.quiz.GetQuizzes)
		api.GET("/quizzes/:id", c.quiz.GetQuiz)
		api.POST("/quizzes/:id/submit", c.quiz.SubmitAnswers)

		nft := api.Group("/nft")
		{
			nft.POST("/payments", c.payment.CreatePayment)
			nft.POST("/payments/pre-checkout", c.payment.PreCheckout)
			nft.POST("/payments/confirm", c.payment.ConfirmPayment)

			nft.POST("/mint", c.nft.StartMint)
			nft.POST("/mint/:id/retry", c.nft.RetryMint)
			nft.GET("/mint/:id", c.nft.GetMintStatus)
			nft.GET("/metadata/:id", c.nft.GetMetadata)
		}

		api.POST("/admin/login", c.auth.AdminLogin)

		admin := api.Group("/admin")
		admin.Use(middleware.AuthMiddleware(), middleware.AdminMiddleware())
		{
			admin.POST("/payments/:id/refund", c.payment.RefundPayment)
		}
	}
}
