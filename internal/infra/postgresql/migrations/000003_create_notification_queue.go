package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/usmankhan045/blood-donation-notifier/internal/repository"
	"gorm.io/gorm"
)

func createNotificationQueueTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000003_create_notification_queue",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.QueuedNotificationModel{}); err != nil {
				return err
			}
			// The retention sweep selects on (processed, created_at).
			return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_queue_processed_created ON notification_queue (processed, created_at)`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.QueuedNotificationModel{})
		},
	}
}
