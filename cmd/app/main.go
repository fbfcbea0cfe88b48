package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dispatch/cmd"
	"dispatch/internal/adapters/out/postgres/ackrepo"
	"dispatch/internal/adapters/out/postgres/deliveryrepo"
	"dispatch/internal/adapters/out/postgres/unitrepo"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	configs := getConfigs()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	gormDB := mustOpenDatabase(configs)

	app, err := cmd.NewCompositionRoot(configs, gormDB, logger)
	if err != nil {
		log.Fatalf("Failed to build composition root: %v", err)
	}

	ctx := context.Background()

	// Inbound frames flow into the router before the link comes up so no
	// early frame is lost.
	app.Transport().SetHandler(app.Router().Enqueue)
	app.Messenger().Start()

	if err := app.Transport().Connect(ctx); err != nil {
		log.Fatalf("Failed to connect to mesh bridge: %v", err)
	}

	// Re-arm retry timers for commands that were awaiting acknowledgement
	// when the previous process stopped.
	if err := app.Messenger().Recover(ctx); err != nil {
		log.Fatalf("Failed to recover pending commands: %v", err)
	}

	app.Router().Start()

	jobManager := app.CreateJobManager()
	if err := jobManager.StartAll(); err != nil {
		log.Fatalf("Failed to start jobs: %v", err)
	}

	e := echo.New()
	app.CreateHTTPServer().RegisterRoutes(e)

	go func() {
		if err := e.Start(fmt.Sprintf("0.0.0.0:%s", configs.HTTPPort)); err != nil {
			logger.Info("HTTP server stopped", "error", err)
		}
	}()

	waitForShutdown()

	// Stop order: no new work first, then drain what is in flight.
	jobManager.StopAll()
	app.Router().Stop()
	app.Messenger().Stop()
	if err := app.Transport().Close(); err != nil {
		logger.Warn("Mesh bridge close failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown failed", "error", err)
	}
}

func waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
}

func mustOpenDatabase(configs cmd.Config) *gorm.DB {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		configs.DBHost,
		configs.DBPort,
		configs.DBUser,
		configs.DBPassword,
		configs.DBName,
		configs.DBSslMode,
	)

	gormDB, err := gorm.Open(postgresdriver.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	err = gormDB.AutoMigrate(
		&deliveryrepo.DeliveryDTO{},
		&unitrepo.UnitDTO{},
		&ackrepo.PendingAckDTO{},
	)
	if err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	return gormDB
}

func getConfigs() cmd.Config {
	config := cmd.Config{
		HTTPPort:            goDotEnvVariable("HTTP_PORT"),
		DBHost:              goDotEnvVariable("DB_HOST"),
		DBPort:              goDotEnvVariable("DB_PORT"),
		DBUser:              goDotEnvVariable("DB_USER"),
		DBPassword:          goDotEnvVariable("DB_PASSWORD"),
		DBName:              goDotEnvVariable("DB_NAME"),
		DBSslMode:           goDotEnvVariable("DB_SSLMODE"),
		MeshBridgeAddr:      goDotEnvVariable("MESH_BRIDGE_ADDR"),
		MeshReconnectDelay:  goDotEnvVariable("MESH_RECONNECT_DELAY"),
		GeocoderURL:         goDotEnvVariable("GEOCODER_URL"),
		GeocoderMaxAttempts: goDotEnvVariable("GEOCODER_MAX_ATTEMPTS"),
		GeocoderBackoff:     goDotEnvVariable("GEOCODER_BACKOFF"),
		AckBaseWindow:       goDotEnvVariable("ACK_BASE_WINDOW"),
		AckMaxRetries:       goDotEnvVariable("ACK_MAX_RETRIES"),
		UnitSilenceWindow:   goDotEnvVariable("UNIT_SILENCE_WINDOW"),
		RouterQueueSize:     goDotEnvVariable("ROUTER_QUEUE_SIZE"),
		RouterWorkers:       goDotEnvVariable("ROUTER_WORKERS"),
	}
	return config
}

func goDotEnvVariable(key string) string {
	err := godotenv.Load(".env")
	if err != nil {
		log.Fatalf("Error loading .env file")
	}
	return os.Getenv(key)
}
