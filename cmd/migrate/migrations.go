package main

import (
	"gorm.io/gorm"

	"github.com/shipgate/engine/internal/models"
)

// registerModels returns all models that need migration. Order matters:
// referenced tables must exist before the tables holding their foreign keys.
func registerModels() []interface{} {
	return []interface{}{
		// Identity
		&models.User{},
		&models.Workspace{},
		&models.WorkspaceMember{},
		&models.Invitation{},

		// Team scope
		&models.Team{},
		&models.Environment{},

		// Release pipeline
		&models.Release{},
		&models.Stage{},
		&models.Task{},
		&models.Blocker{},

		// Layouts and audit
		&models.Diagram{},
		&models.TaskDiagram{},
		&models.ActivityLog{},
	}
}

// runMigrations executes all database migrations
func runMigrations(db *gorm.DB) error {
	models := registerModels()

	if err := db.AutoMigrate(models...); err != nil {
		return err
	}

	return runCustomMigrations(db)
}

// runCustomMigrations handles schema changes AutoMigrate can't handle
func runCustomMigrations(db *gorm.DB) error {
	migrations := []func(*gorm.DB) error{
		enableUUIDExtension,
		addActivityFeedIndex,
	}

	for _, migration := range migrations {
		if err := migration(db); err != nil {
			return err
		}
	}

	return nil
}

// enableUUIDExtension ensures UUID generation is available
func enableUUIDExtension(db *gorm.DB) error {
	return db.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`).Error
}

// addActivityFeedIndex serves the newest-first activity feed queries.
func addActivityFeedIndex(db *gorm.DB) error {
	return db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_activity_logs_release_created
		ON activity_logs(release_id, created_at DESC)
	`).Error
}
