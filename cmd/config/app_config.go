package config

import (
	"nutriscan/internal/api/handlers"
	"nutriscan/internal/api/routes"
	"nutriscan/internal/middleware"
	"nutriscan/internal/utils"
	"nutriscan/internal/utils/storage"
	"nutriscan/pkg/chat"
	"nutriscan/pkg/inference"
	"nutriscan/pkg/jwt"
	"nutriscan/pkg/midtrans"
	"nutriscan/pkg/scan"
	"nutriscan/pkg/user"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"
)

func NewApp(db *gorm.DB) (*fiber.App, error) {
	utils.InitValidator()
	app := fiber.New(fiber.Config{
		EnablePrintRoutes: true,
		BodyLimit:         12 * 1024 * 1024,
	})
	middlewares := middleware.NewMiddleware()
	validator := utils.Validate

	// setting up logging and limiter
	err := os.MkdirAll("./logs", os.ModePerm)
	if err != nil {
		log.Fatalf("error creating logs directory: %v", err)
	}
	file, err := os.OpenFile(
		"./logs/app.log",
		os.O_RDWR|os.O_CREATE|os.O_APPEND,
		0666,
	)
	if err != nil {
		log.Fatalf("error opening file: %v", err)
	}
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "UTC",
		Output:     file,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        10,
		Expiration: 1 * time.Second,
	}))

	// utils
	s3 := storage.NewAwsS3()
	orchestrator := newOrchestrator()

	// Repository
	userRepository := user.NewUserRepository(db)
	scanRepository := scan.NewScanRepository(db)
	midtransRepository := midtrans.NewMidtransRepository(db)

	// Service
	jwtService := jwt.NewJWTService()
	userService := user.NewUserService(userRepository, jwtService)
	scanService := scan.NewScanService(scanRepository, orchestrator, s3)
	chatService := chat.NewChatService(scanRepository, orchestrator)
	midtransService := midtrans.NewMidtransService(
		midtransRepository,
		userRepository,
	)

	// Handler
	userHandler := handlers.NewUserHandler(userService, validator)
	scanHandler := handlers.NewScanHandler(scanService, validator)
	chatHandler := handlers.NewChatHandler(chatService, validator)
	midtransHandler := handlers.NewMidtransHandler(midtransService, validator)

	// routes
	routesConfig := routes.Config{
		App:             app,
		UserHandler:     userHandler,
		ScanHandler:     scanHandler,
		ChatHandler:     chatHandler,
		MidtransHandler: midtransHandler,
		Middleware:      middlewares,
		JWTService:      jwtService,
	}
	routesConfig.Setup()
	return app, nil
}

// newOrchestrator assembles the backend chains in priority order. The
// hosted model comes first, the local model service second, and chat
// additionally gets a canned reply when one is configured.
func newOrchestrator() *inference.Orchestrator {
	apiKey := utils.GetConfig("GEMINI_API_KEY")
	model := utils.GetConfig("GEMINI_MODEL")
	if apiKey == "" || model == "" {
		log.Fatal("GEMINI_API_KEY and GEMINI_MODEL must be configured")
	}

	gemini := inference.NewGeminiAdapter(apiKey, model)
	local := inference.NewLocalAdapter(utils.GetConfig("LOCAL_AI_URL"))

	recognizers := []inference.TextRecognizer{gemini, local}
	classifiers := []inference.ImageClassifier{gemini, local}
	generators := []inference.ReplyGenerator{gemini, local}

	if reply := utils.GetConfig("CHAT_FALLBACK_REPLY"); reply != "" {
		generators = append(generators, inference.NewStaticReplyAdapter(reply))
	}

	return inference.NewOrchestrator(recognizers, classifiers, generators)
}
