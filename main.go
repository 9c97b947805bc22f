package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coursedelivery/cache"
	"coursedelivery/config"
	"coursedelivery/database"
	"coursedelivery/logger"
	"coursedelivery/routers"
	"coursedelivery/utils"
	"coursedelivery/utils/email"
)

func main() {
	config.LoadConfig()
	cfg := config.AppConfig

	appLog, err := logger.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer appLog.Sync()

	database.ConnectDb(appLog)

	srv := routers.New(routers.Deps{
		Config: cfg,
		DB:     database.Database.Db,
		Log:    appLog,
		Mailer: email.New(cfg, appLog),
		Cache:  cache.New(cfg, appLog),
	})

	scheduler, err := utils.InitializeMaintenanceScheduler(cfg.PurgeSchedule, appLog, utils.Job{
		Name: "purge-expired",
		Run: func(ctx context.Context) error {
			report, err := srv.Auth.PurgeExpired(ctx)
			if err != nil {
				return err
			}
			appLog.Info("Purged expired auth rows", "sessions", report.Sessions, "otps", report.OTPs)
			return nil
		},
	})
	if err != nil {
		appLog.Fatal("Invalid PURGE_SCHEDULE", "schedule", cfg.PurgeSchedule, "error", err)
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		appLog.Info("Shutting down...")
		<-scheduler.Stop().Done()
		if err := srv.App.ShutdownWithTimeout(10 * time.Second); err != nil {
			appLog.Error("Shutdown failed", "error", err)
		}
	}()

	appLog.Info("Server is running", "port", cfg.Port, "env", cfg.AppEnv)
	if err := srv.App.Listen(":" + cfg.Port); err != nil {
		appLog.Fatal("Server stopped", "error", err)
	}
}
