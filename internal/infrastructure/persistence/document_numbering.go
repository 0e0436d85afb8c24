package persistence

import (
	"context"
	"fmt"

	"github.com/erp/progress-billing/internal/domain/finance"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// nextDocumentNumber returns max+1 for the (tenant, day prefix) sequence stored in column.
//
// On PostgreSQL the read is serialized with a transaction-scoped advisory lock keyed on
// the tenant and prefix, so concurrent approvals inside their own transactions cannot
// read the same maximum. The lock is released at commit or rollback.
// Sequences are ordered by length before value so that 100000 sorts above 99999.
func nextDocumentNumber(ctx context.Context, db *gorm.DB, model any, column string, tenantID uuid.UUID, dayPrefix string) (string, error) {
	db = db.WithContext(ctx)
	if db.Dialector.Name() == "postgres" {
		key := fmt.Sprintf("%s:%s:%s", column, tenantID, dayPrefix)
		if err := db.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", key).Error; err != nil {
			return "", err
		}
	}

	var numbers []string
	if err := db.
		Model(model).
		Where("tenant_id = ? AND "+column+" LIKE ?", tenantID, dayPrefix+"%").
		Order("LENGTH(" + column + ") DESC, " + column + " DESC").
		Limit(1).
		Pluck(column, &numbers).Error; err != nil {
		return "", err
	}

	next := 1
	if len(numbers) > 0 {
		next = finance.ParseDocumentSequence(dayPrefix, numbers[0]) + 1
	}
	return finance.FormatDocumentNumber(dayPrefix, next), nil
}
