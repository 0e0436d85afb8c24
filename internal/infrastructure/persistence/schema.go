package persistence

import (
	"github.com/erp/progress-billing/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// AllModels lists every persistence model, parents before children
func AllModels() []any {
	return []any{
		&models.ProjectModel{},
		&models.BoQLineModel{},
		&models.ProgressPaymentModel{},
		&models.ProgressPaymentDetailModel{},
		&models.SalesInvoiceModel{},
		&models.AccountReceivableModel{},
		&models.ExchangeRateModel{},
		&models.OutboxEntryModel{},
	}
}

// AutoMigrate creates the schema from the models. Production schemas come from the SQL
// migrations; this is used for throwaway databases.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(AllModels()...)
}
