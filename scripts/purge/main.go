// Command purge removes expired sessions and passcodes once, for deployments
// that run maintenance outside the server process.
package main

import (
	"context"
	"log"

	"coursedelivery/config"
	"coursedelivery/database"
	"coursedelivery/logger"
	"coursedelivery/services/auth"
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
	svc := auth.New(database.Database.Db, email.New(cfg, appLog), appLog, cfg)

	utils.RunJob(context.Background(), appLog, utils.Job{
		Name: "purge-expired",
		Run: func(ctx context.Context) error {
			report, err := svc.PurgeExpired(ctx)
			if err != nil {
				return err
			}
			appLog.Info("Purged expired auth rows", "sessions", report.Sessions, "otps", report.OTPs)
			return nil
		},
	})
}
