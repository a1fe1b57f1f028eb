package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/usmankhan045/blood-donation-notifier/internal/repository"
	"gorm.io/gorm"
)

func createUserProfilesTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000002_create_user_profiles",
		Migrate: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&repository.ProfileModel{})
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.ProfileModel{})
		},
	}
}
