// Command admintoken promotes a user to admin, creating the account when
// needed, and prints an admin JWT for the /admin routes.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"coursedelivery/config"
	"coursedelivery/database"
	"coursedelivery/logger"
	"coursedelivery/middleware"
	"coursedelivery/models"
	"coursedelivery/services/auth"

	"gorm.io/gorm/clause"
)

func main() {
	addr := flag.String("email", "", "admin email address")
	flag.Parse()

	config.LoadConfig()
	cfg := config.AppConfig

	appLog, err := logger.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer appLog.Sync()

	normalized := models.NormalizeEmail(*addr)
	if !auth.ValidEmail(normalized) {
		appLog.Fatal("A valid -email is required")
	}

	database.ConnectDb(appLog)
	db := database.Database.Db

	user := models.User{Email: normalized, Role: models.RoleAdmin}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"role": models.RoleAdmin}),
	}).Create(&user).Error; err != nil {
		appLog.Fatal("Failed to save admin", "email", normalized, "error", err)
	}
	if err := db.Where("email = ?", normalized).Take(&user).Error; err != nil {
		appLog.Fatal("Failed to load admin", "email", normalized, "error", err)
	}

	token, err := middleware.GenerateAdminJWT(cfg.JWTKey, user.ID, user.Email, time.Now())
	if err != nil {
		appLog.Fatal("Failed to sign token", "error", err)
	}
	appLog.Info("Admin token issued", "user_id", user.ID, "expires_in", middleware.AdminTokenTTL.String())
	fmt.Println(token)
}
