package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/grillwerk/printgate/internal/application/service"
	"github.com/grillwerk/printgate/internal/config"
	"github.com/grillwerk/printgate/internal/presentation/http/handler"
	"github.com/grillwerk/printgate/internal/presentation/http/routes"
	"github.com/grillwerk/printgate/pkg/fetch"
	"github.com/grillwerk/printgate/pkg/printer"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Outbound client for logo and remote order lookups
	fetcher := fetch.New(cfg.Fetch.Client())

	// Initialize thermal printer transport
	thermalPrinter, err := printer.New(cfg.Printer.Transport())
	if err != nil {
		logger.Warn("failed to initialize printer, falling back to null printer", zap.Error(err))
		thermalPrinter = printer.NewNullPrinter()
	}

	printService := service.NewPrintService(thermalPrinter, fetcher, cfg, logger)

	handlers := &routes.Handlers{
		Print: handler.NewPrintHandler(printService),
	}

	router := routes.Setup(handlers, &routes.Deps{
		Cfg: cfg,
		Log: logger,
	})

	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}

	logger.Info("starting server",
		zap.String("service", cfg.App.Name),
		zap.String("port", port),
		zap.String("env", cfg.App.Env),
		zap.String("printer_type", cfg.Printer.Type),
		zap.String("printer_address", cfg.Printer.Address),
	)

	if err := router.Run(":" + port); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.App.Env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
