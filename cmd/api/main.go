package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go-agritrace/internal/handler"
	"go-agritrace/internal/ledger"
	"go-agritrace/internal/middleware"
	"go-agritrace/internal/model"
	"go-agritrace/internal/repository"
	"go-agritrace/internal/service"
	"go-agritrace/internal/ws"
	"go-agritrace/pkg/database"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// 2. Setup Database (the mirror store)
	db := database.ConnectDB()
	db.AutoMigrate(&model.User{}, &model.Product{}, &model.Notification{}, &model.ActionLog{})

	// 3. Seed default admin
	seedAdmin(db)

	// 4. Connect the ledger. A missing relayer key is fatal by design.
	gateway, err := ledger.NewGateway(context.Background(), ledger.Config{
		RPCURL:          envOr("RPC_URL", "https://rpc.zeroscan.org"),
		PrivateKey:      os.Getenv("PRIVATE_KEY"),
		ContractAddress: os.Getenv("CONTRACT_ADDRESS"),
	})
	if err != nil {
		log.Fatal("Failed to connect to ledger: ", err)
	}
	defer gateway.Close()

	// 5. Setup WebSocket Hub
	wsHub := ws.NewHub()
	go wsHub.Run()

	// 6. Dependency Injection (Wiring Layers)
	userRepo := repository.NewUserRepo(db)
	productRepo := repository.NewProductRepo(db)
	notifRepo := repository.NewNotificationRepo(db)
	logRepo := repository.NewActionLogRepo(db)

	notifyService := service.NewNotifyService(userRepo, notifRepo, wsHub, nil)
	actionService := service.NewActionService(gateway, productRepo, logRepo, notifyService)
	productService := service.NewProductService(gateway, productRepo, userRepo, service.ScanConfig{
		Delay: envDuration("SCAN_DELAY_MS", 200*time.Millisecond),
		Limit: envInt("SCAN_LIMIT", 10),
	})
	authService := service.NewAuthService(userRepo)
	userService := service.NewUserService(userRepo)

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService, notifyService)
	actionHandler := handler.NewActionHandler(actionService)
	productHandler := handler.NewProductHandler(productService)
	dashHandler := handler.NewDashboardHandler(logRepo)

	// 7. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "AgriTrace Relayer v1.0",
	})

	app.Use(logger.New())  // Logging request
	app.Use(recover.New()) // Panic recovery
	app.Use(cors.New())    // CORS

	// 8. Routes
	api := app.Group("/api/v1")
	requireAuth := middleware.RequireAuth(userRepo)

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/farmers", userHandler.Farmers)

	products := api.Group("/products")
	products.Get("/on-shelf", productHandler.OnShelf)
	products.Get("/by-farmer/:phone", productHandler.ByFarmer)

	// ============ PROTECTED ROUTES ============
	auth.Get("/me", requireAuth, authHandler.Me)
	auth.Post("/update-wallet", requireAuth, userHandler.UpdateWallet)
	auth.Post("/update-profile", requireAuth, userHandler.UpdateProfile)
	auth.Post("/fcm-token", requireAuth, userHandler.UpdateFCMToken)
	auth.Get("/notifications", requireAuth, userHandler.Notifications)

	products.Get("/my-products", requireAuth, productHandler.MyProducts)
	products.Get("/pending-requests", requireAuth,
		middleware.RequireRole(model.RoleModerator, model.RoleAdmin), productHandler.PendingRequests)
	products.Get("/moderated-requests", requireAuth,
		middleware.RequireRole(model.RoleModerator, model.RoleAdmin), productHandler.ModeratedRequests)
	products.Get("/my-shipments", requireAuth,
		middleware.RequireRole(model.RoleTransporter), productHandler.MyShipments)
	products.Get("/retailer-products", requireAuth,
		middleware.RequireRole(model.RoleManager, model.RoleAdmin), productHandler.RetailerProducts)
	products.Post("/:id/reconcile", requireAuth,
		middleware.RequireRole(model.RoleAdmin), productHandler.Reconcile)

	// Action relay endpoint: one ledger write per request
	api.Post("/transactions", requireAuth, actionHandler.Submit)
	api.Get("/transactions", requireAuth,
		middleware.RequireRole(model.RoleModerator, model.RoleAdmin), actionHandler.History)

	api.Get("/dashboard/stats", requireAuth,
		middleware.RequireRole(model.RoleModerator, model.RoleAdmin), dashHandler.Stats)

	// Detail route goes last so it doesn't shadow the named product routes
	products.Get("/:id", productHandler.Detail)

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHub.Register <- c
		defer func() { wsHub.Unregister <- c }()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 9. Graceful Shutdown. Dispatch confirms transactions inside the
	// request lifetime (durable mode), so draining requests drains all
	// ledger work; only in-flight ws broadcasts are abandoned.
	go func() {
		port := os.Getenv("PORT")
		if port == "" {
			port = "3000"
		}
		if err := app.Listen(":" + port); err != nil {
			log.Panic(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return fallback
}

// seedAdmin creates the default admin account if it doesn't exist. Admin is
// never registrable through the API.
func seedAdmin(db *gorm.DB) {
	userRepo := repository.NewUserRepo(db)

	email := envOr("ADMIN_EMAIL", "admin@example.com")
	if _, err := userRepo.FindByEmail(email); err == nil {
		return
	}

	admin := &model.User{
		Email:    email,
		FullName: "System Administrator",
		Phone:    "0900000000",
		Role:     model.RoleAdmin,
	}
	if err := admin.SetPassword(envOr("ADMIN_PASSWORD", "admin123")); err != nil {
		log.Printf("Warning: Failed to hash admin password: %v", err)
		return
	}

	if err := userRepo.Create(admin); err != nil {
		log.Printf("Warning: Failed to create admin user: %v", err)
	} else {
		log.Printf("Admin user created: %s", email)
	}
}
