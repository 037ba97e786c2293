package routes

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ayursutra-server/internal/config"
	"ayursutra-server/internal/handlers"
	"ayursutra-server/internal/metrics"
	"ayursutra-server/internal/middleware"
	"ayursutra-server/internal/models"
)

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config, log *zap.Logger, collector *metrics.Collector) {
	// Initialize handlers
	authHandler := handlers.NewAuthHandler(db, cfg)
	userHandler := handlers.NewUserHandler(db)
	appointmentHandler := handlers.NewAppointmentHandler(db, log, collector)
	therapyHandler := handlers.NewTherapyHandler(db, log, collector)
	notificationHandler := handlers.NewNotificationHandler(db, log)
	chatHandler := handlers.NewChatHandler(db, log, collector)

	// Public routes (no authentication required)
	public := router.Group("/api")
	{
		authRoutes := public.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/refresh-token", authHandler.RefreshToken)
		}
	}

	// Authenticated routes
	private := router.Group("/api")
	private.Use(middleware.AuthMiddleware(cfg))
	{
		authRoutesPrivate := private.Group("/auth")
		{
			authRoutesPrivate.POST("/logout", authHandler.Logout)
			authRoutesPrivate.GET("/profile", authHandler.GetProfile)
			authRoutesPrivate.PUT("/profile", authHandler.UpdateProfile)
		}

		// User management routes
		userRoutes := private.Group("/users")
		{
			// Accessible by all authenticated users for booking
			userRoutes.GET("/practitioners", userHandler.GetPractitioners)

			// Accessible by practitioners and admins
			userRoutes.GET("/patients", userHandler.GetPractitionerPatients)

			// Admin-only routes
			adminRoutes := userRoutes.Group("")
			adminRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
			{
				adminRoutes.POST("", userHandler.CreateUser)
				adminRoutes.GET("", userHandler.GetUsers)
				adminRoutes.GET("/:id", userHandler.GetUserByID)
				adminRoutes.PUT("/:id", userHandler.UpdateUser)
				adminRoutes.DELETE("/:id", userHandler.DeleteUser)
			}
		}

		// Appointment lifecycle routes
		appointmentRoutes := private.Group("/appointments")
		{
			appointmentRoutes.POST("", appointmentHandler.CreateAppointment)
			appointmentRoutes.GET("", appointmentHandler.GetAppointmentsForUser)
			appointmentRoutes.GET("/:id", appointmentHandler.GetAppointmentByID)

			// Transitions; legality enforced by the appointment state machine
			appointmentRoutes.POST("/:id/confirm",
				middleware.RoleAuthMiddleware(models.RolePractitioner, models.RoleAdmin),
				appointmentHandler.ConfirmAppointment)
			appointmentRoutes.POST("/:id/complete",
				middleware.RoleAuthMiddleware(models.RolePractitioner, models.RoleAdmin),
				appointmentHandler.CompleteAppointment)
			appointmentRoutes.POST("/:id/cancel", appointmentHandler.CancelAppointment)
		}

		// Day view of a practitioner's confirmed and requested slots
		private.GET("/practitioner/schedule",
			middleware.RoleAuthMiddleware(models.RolePractitioner, models.RoleAdmin),
			appointmentHandler.GetPractitionerSchedule)

		// Therapy program and procedure sequencing routes
		therapyRoutes := private.Group("/therapy/programs")
		{
			therapyRoutes.POST("",
				middleware.RoleAuthMiddleware(models.RolePractitioner, models.RoleAdmin),
				therapyHandler.CreateProgram)
			therapyRoutes.GET("", therapyHandler.GetPrograms)
			therapyRoutes.GET("/:id", therapyHandler.GetProgram)
			therapyRoutes.PUT("/:id",
				middleware.RoleAuthMiddleware(models.RolePractitioner, models.RoleAdmin),
				therapyHandler.UpdateProgram)
			therapyRoutes.PATCH("/:id/status",
				middleware.RoleAuthMiddleware(models.RolePractitioner, models.RoleAdmin),
				therapyHandler.UpdateProgramStatus)

			procedureRoutes := therapyRoutes.Group("/:id/procedures/:type")
			{
				procedureRoutes.POST("/start",
					middleware.RoleAuthMiddleware(models.RolePractitioner, models.RoleAdmin),
					therapyHandler.StartProcedure)
				procedureRoutes.POST("/finish",
					middleware.RoleAuthMiddleware(models.RolePractitioner, models.RoleAdmin),
					therapyHandler.FinishProcedure)
				procedureRoutes.POST("/cancel",
					middleware.RoleAuthMiddleware(models.RolePractitioner, models.RoleAdmin),
					therapyHandler.CancelProcedure)
				procedureRoutes.POST("/patient-feedback", therapyHandler.SubmitFeedback)
			}
		}

		// Notification routes
		notificationRoutes := private.Group("/notifications")
		{
			notificationRoutes.GET("", notificationHandler.GetNotifications)
			notificationRoutes.POST("",
				middleware.RoleAuthMiddleware(models.RolePractitioner, models.RoleAdmin),
				notificationHandler.CreateNotification)
			notificationRoutes.PATCH("/read-all", notificationHandler.MarkAllNotificationsRead)
			notificationRoutes.PATCH("/:id/read", notificationHandler.MarkNotificationRead)
		}

		// Chat routes
		chatRoutes := private.Group("/chats")
		{
			chatRoutes.GET("", chatHandler.GetChats)
			chatRoutes.GET("/appointment/:id", chatHandler.GetChatByAppointment)
			chatRoutes.POST("/:id/messages", chatHandler.SendMessage)
			chatRoutes.PUT("/:id/read", chatHandler.MarkChatRead)
		}
	}

	// Operational endpoints
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})
	router.GET("/metrics", metrics.Handler())
}
