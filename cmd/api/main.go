package main

import (
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"gumble-backend/internal/config"
	"gumble-backend/internal/handlers"
	"gumble-backend/internal/middleware"
	"gumble-backend/internal/services"
	"gumble-backend/internal/table"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Env == "production" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		gin.SetMode(gin.ReleaseMode)
	}

	redisService, err := services.NewRedisService(cfg)
	if err != nil {
		logrus.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisService.Close()

	jwtService := services.NewJWTService(cfg)
	ledger := services.NewLedger(redisService)

	authService, err := services.NewAuthService(redisService, jwtService, cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize auth: %v", err)
	}

	engine, err := services.NewSoloEngine(redisService, ledger, cfg.BlackjackNaturalPayout)
	if err != nil {
		logrus.Fatalf("Failed to initialize game engine: %v", err)
	}

	manager := table.NewManager(ledger, nil, table.Defaults{
		MinSeats:        cfg.TableMinSeats,
		MaxSeats:        cfg.TableMaxSeats,
		SmallBlind:      cfg.SmallBlind,
		BigBlind:        cfg.BigBlind,
		TurnTimeout:     cfg.TurnTimeout,
		DisconnectGrace: cfg.DisconnectGrace,
	})

	wsHandler := handlers.NewWebSocketHandler(manager, engine, redisService)
	// The hub is the delivery path for table and balance events; wire it
	// in after construction since it needs the manager itself.
	manager.SetNotifier(wsHandler)
	engine.SetNotifier(wsHandler)

	// The lobby always has house tables open.
	manager.Create("Main Floor")
	manager.Create("High Rollers")

	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(redisService)
	walletHandler := handlers.NewWalletHandler(redisService, ledger)
	gameHandler := handlers.NewGameHandler(engine, redisService)

	router := gin.Default()

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.POST("/auth/register", authHandler.Register)
	router.POST("/auth/login", authHandler.Login)
	router.POST("/auth/federated", authHandler.Federated)

	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(jwtService))
	{
		protected.GET("/me", userHandler.GetCurrentUser)
		protected.POST("/logout", userHandler.Logout)

		protected.GET("/ws", wsHandler.HandleWebSocket)

		protected.POST("/wallet", walletHandler.Transfer)
		wallet := protected.Group("/wallet")
		{
			wallet.GET("/balance", walletHandler.GetBalance)
			wallet.GET("/transactions", walletHandler.GetTransactions)
			wallet.POST("/client-seed", walletHandler.UpdateClientSeed)
		}

		blackjack := protected.Group("/blackjack")
		{
			blackjack.POST("/deal", gameHandler.BlackjackDeal)
			blackjack.POST("/action", gameHandler.BlackjackAction)
		}

		mines := protected.Group("/mines")
		{
			mines.POST("/start", gameHandler.MinesStart)
			mines.POST("/reveal", gameHandler.MinesReveal)
			mines.POST("/cashout", gameHandler.MinesCashout)
		}

		dragon := protected.Group("/dragon")
		{
			dragon.POST("/start", gameHandler.DragonStart)
			dragon.POST("/step", gameHandler.DragonStep)
			dragon.POST("/cashout", gameHandler.DragonCashout)
		}

		keno := protected.Group("/keno")
		{
			keno.POST("/play", gameHandler.KenoPlay)
		}

		games := protected.Group("/games")
		{
			games.GET("/active", gameHandler.GetActiveSessions)
			games.GET("/history", gameHandler.GetHistory)
			games.GET("/verification", gameHandler.GetFairness)
			games.POST("/verify", gameHandler.Verify)
		}
	}

	logrus.Infof("Server starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		logrus.Fatalf("Failed to start server: %v", err)
	}
}
