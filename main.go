package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go_lecture_backend/bootstrap"
	"go_lecture_backend/config"
	"go_lecture_backend/middleware"
	"go_lecture_backend/pkg/logging"
	"go_lecture_backend/routes"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logging.Logger.Warn("no .env file loaded", "error", err)
	}
	logging.Init()

	cfg := config.LoadConfig()
	app, err := bootstrap.NewApp(cfg)
	if err != nil {
		logging.Logger.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// abandoned-upload scratch cleanup; the session TTL in redis is the
	// authoritative expiry, this releases the disk behind it
	go app.Infrastructure.Scratch.RunSweeper(ctx, 10*time.Minute, cfg.SessionTTL,
		app.Services.UploadService.SessionLive)

	// workers publish terminal render states; drop the cached status so
	// pollers on this instance see the transition immediately
	go func() {
		events, err := app.Infrastructure.EventPublisher.SubscribeRenderEvents(ctx)
		if err != nil {
			logging.Logger.Error("render event subscription failed", "error", err)
			return
		}
		for ev := range events {
			app.Services.AssetService.InvalidateStatus(ev.AssetID)
			logging.Logger.Info("render event",
				"asset_id", ev.AssetID, "status", ev.Status, "pages", ev.PageCount)
		}
	}()

	server := fiber.New(fiber.Config{
		BodyLimit: int(cfg.ChunkSize) + 1024*1024,
	})
	server.Use(middleware.Logger())
	server.Use(middleware.CORS())

	routes.RegisterUploadRoutes(server, app.Handlers.UploadHandler)
	routes.RegisterAssetRoutes(server, app.Handlers.AssetHandler)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		cancel()
		if err := server.Shutdown(); err != nil {
			logging.Logger.Error("server shutdown", "error", err)
		}
		if err := app.Shutdown(); err != nil {
			logging.Logger.Error("app shutdown", "error", err)
		}
	}()

	port := cfg.HttpPort
	if port == "" {
		port = "3000"
	}
	logging.Logger.Info("Server running", "port", port)
	if err := server.Listen(":" + port); err != nil {
		logging.Logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
