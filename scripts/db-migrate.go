package main

import (
	"github.com/formulab-api/config"
	"github.com/formulab-api/database"
	"github.com/formulab-api/lib/logger"
	"go.uber.org/zap"
)

// Migrates the schema and seeds the demo projects. Seeding skips projects
// that already exist by name, so the script can be run repeatedly.
func main() {
	config.LoadEnv()

	cfg, err := config.Load(config.GetEnv("CONFIG_FILE", "config.yaml"))
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	log.Info("Starting database migration...")

	db, err := database.Initialize(cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}

	if config.GetEnv("SKIP_SEED", "") != "" {
		log.Info("Database migration completed, seeding skipped")
		return
	}

	created, err := database.SeedDemoData(db, log)
	if err != nil {
		log.Fatal("Seeding demo projects failed", zap.Error(err))
	}

	log.Info("Database migration completed successfully", zap.Int("projects_seeded", created))
}
