// Command importcourses loads a course sheet (CSV) into the catalog.
//
//	go run ./scripts/importcourses -file courses.csv
//
// Columns: course_title, course_type, course_tag, module_title, module_order,
// topic_title, topic_order, class_title, class_order, content_type, content,
// duration. Rows are matched to existing content by title.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"

	"coursedelivery/cache"
	"coursedelivery/config"
	"coursedelivery/database"
	"coursedelivery/logger"
	"coursedelivery/services/catalog"
)

func main() {
	file := flag.String("file", "courses.csv", "path to the course sheet")
	flag.Parse()

	config.LoadConfig()
	cfg := config.AppConfig

	appLog, err := logger.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer appLog.Sync()

	database.ConnectDb(appLog)

	f, err := os.Open(*file)
	if err != nil {
		appLog.Fatal("Failed to open CSV file", "file", *file, "error", err)
	}
	defer f.Close()

	ctx := context.Background()
	report, err := catalog.New(database.Database.Db, appLog).ImportCSV(ctx, f)
	if err != nil {
		appLog.Fatal("Import failed", "file", *file, "error", err)
	}

	// Running servers keep a cached tree until it is dropped or expires.
	keys := make([]string, 0, len(report.CourseIDs))
	for _, id := range report.CourseIDs {
		keys = append(keys, cache.CourseTreeKey(id))
	}
	if err := cache.New(cfg, appLog).Invalidate(ctx, keys...); err != nil {
		appLog.Warn("Failed to invalidate course cache", "error", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(report)
}
