package main

import (
	"log"
	"time"

	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/team17/gbase-api/internal/config"
	"github.com/team17/gbase-api/internal/constants"
	"github.com/team17/gbase-api/internal/database"
	"github.com/team17/gbase-api/internal/handlers"
	"github.com/team17/gbase-api/internal/middleware"
	"github.com/team17/gbase-api/internal/services"
)

func main() {
	// Load .env if present; real environment variables win
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := config.Load()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalf("Invalid timezone %q: %v", cfg.Timezone, err)
	}

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize Gin router
	r := gin.Default()

	// Setup session middleware with Redis
	redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
	store, err := redisStore.NewStore(
		10,        // Redis pool size
		"tcp",     // network type
		redisAddr, // Redis address from config
		"",        // password (empty = no password)
		[]byte(cfg.SessionSecret), // authentication key
	)
	if err != nil {
		log.Fatalf("Failed to create Redis store: %v", err)
	}
	// Configure session options based on environment
	isProduction := cfg.GinMode == "release"
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   isProduction, // true in production (HTTPS), false in development
		SameSite: 2,            // SameSite=Lax (1=Strict, 2=Lax, 3=None)
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	// Initialize AI service
	var aiService *services.AIService
	if cfg.OpenAIAPIKey != "" {
		aiService = services.NewAIService(cfg.OpenAIAPIKey)
	}

	// Initialize services
	db := database.GetDB()
	authService := services.NewAuthService(db)
	notificationService := services.NewNotificationService(db)
	teamService := services.NewTeamService(db, notificationService)
	questService := services.NewQuestService(db, teamService, notificationService, aiService, loc)

	if _, err := questService.SeedCatalog(); err != nil {
		log.Fatalf("Failed to seed quest catalog: %v", err)
	}

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	teamHandler := handlers.NewTeamHandler(teamService)
	questHandler := handlers.NewQuestHandler(questService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "G-BASE API is running",
		})
	})

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
		}

		// Team routes (protected)
		teams := api.Group("/teams")
		teams.Use(middleware.RequireAuth())
		{
			teams.POST("", teamHandler.CreateTeam)
			teams.POST("/join", teamHandler.JoinTeam)
			teams.POST("/leave", teamHandler.LeaveTeam)
			teams.GET("/me", teamHandler.GetMyTeam)
			teams.GET("/:id", middleware.RequireTeamAccess(), teamHandler.GetTeam)
			teams.DELETE("/:id", middleware.RequireTeamAccess(), middleware.RequireTeamOwner(), teamHandler.DissolveTeam)
			teams.GET("/:id/invite", middleware.RequireTeamAccess(), teamHandler.GetInvite)
			teams.POST("/:id/invite/regenerate", middleware.RequireTeamAccess(), middleware.RequireTeamOwner(), teamHandler.RegenerateInviteCode)
			teams.DELETE("/:id/invite", middleware.RequireTeamAccess(), middleware.RequireTeamOwner(), teamHandler.DeactivateInvite)

			// Team feed
			teams.GET("/:id/notifications", middleware.RequireTeamAccess(), notificationHandler.GetFeed)
			teams.GET("/:id/notifications/unread", middleware.RequireTeamAccess(), notificationHandler.GetUnread)
			teams.POST("/:id/notifications/read-all", middleware.RequireTeamAccess(), notificationHandler.MarkAllRead)
		}

		// Quest routes (protected)
		quests := api.Group("/quests")
		quests.Use(middleware.RequireAuth())
		{
			quests.GET("/today", questHandler.GetTodaySet)
			quests.GET("/today/progress", questHandler.GetTodayProgress)
			quests.GET("/today/mvp", questHandler.GetTodayMVP)
			quests.POST("/items/:item_id/complete", questHandler.CompleteItem)
		}

		// Notification read markers (protected)
		notifications := api.Group("/notifications")
		notifications.Use(middleware.RequireAuth())
		{
			notifications.POST("/:notification_id/read", notificationHandler.MarkRead)
		}
	}

	// Background jobs: warm daily sets after midnight, reconcile aggregates
	scheduler, err := services.NewScheduler(teamService, questService, loc)
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}
	if err := scheduler.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer scheduler.Stop()

	// Start server
	log.Println("Server starting on :8080")
	if err := r.Run(":8080"); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
