package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/usmankhan045/blood-donation-notifier/internal/repository"
	"gorm.io/gorm"
)

func createDonationRequestsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000001_create_donation_requests",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.RequestModel{}); err != nil {
				return err
			}
			indexes := []string{
				// The expiry sweep selects on (status, expires_at).
				`CREATE INDEX IF NOT EXISTS idx_requests_status_expires ON donation_requests (status, expires_at)`,
				`CREATE INDEX IF NOT EXISTS idx_requests_requester_id ON donation_requests (requester_id)`,
			}
			for _, sql := range indexes {
				if err := tx.Exec(sql).Error; err != nil {
					return err
				}
			}
			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.RequestModel{})
		},
	}
}
