package db

import (
	"fmt"

	"github.com/meinhoongagan/clinic-server/models"
	"gorm.io/gorm"
)

// Models lists every table in creation order.
var Models = []interface{}{
	&models.User{},
	&models.Patient{},
	&models.Doctor{},
	&models.Appointment{},
	&models.Review{},
	&models.MedicalDocument{},
	&models.DoctorPatient{},
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}
