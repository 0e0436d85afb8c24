package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/progress-billing/internal/domain/project"
	"github.com/erp/progress-billing/internal/domain/shared"
	"github.com/erp/progress-billing/internal/infrastructure/event"
	"github.com/erp/progress-billing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormProjectRepository_SaveAndFind(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormProjectRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	proj := newTestProject(t, tenantID, "PRJ-1")
	require.NoError(t, repo.Save(ctx, proj))

	t.Run("loads project with lines in insertion order", func(t *testing.T) {
		found, err := repo.FindByID(ctx, tenantID, proj.ID)
		require.NoError(t, err)

		assert.Equal(t, "PRJ-1", found.Code)
		assert.Equal(t, proj.Version, found.Version)
		assert.True(t, found.HasCustomer())
		assert.True(t, found.RetentionRate.Equal(decimal.RequireFromString("0.10")))
		require.Len(t, found.Lines, 3)
		assert.Equal(t, "A", found.Lines[0].ItemCode)
		assert.Equal(t, "A.1", found.Lines[1].ItemCode)
		assert.Equal(t, "A.2", found.Lines[2].ItemCode)
		require.NotNil(t, found.Lines[1].ParentID)
		assert.Equal(t, found.Lines[0].ID, *found.Lines[1].ParentID)
		assert.True(t, found.TotalContractValue().Equal(decimal.RequireFromString("1225")))
	})

	t.Run("other tenant cannot see the project", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New(), proj.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("for update returns the same aggregate", func(t *testing.T) {
		found, err := repo.FindByIDForUpdate(ctx, tenantID, proj.ID)
		require.NoError(t, err)
		assert.Len(t, found.Lines, 3)

		_, err = repo.FindByIDForUpdate(ctx, tenantID, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("code existence is tenant scoped", func(t *testing.T) {
		exists, err := repo.ExistsByCode(ctx, tenantID, "PRJ-1")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.ExistsByCode(ctx, uuid.New(), "PRJ-1")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("saving again appends new lines", func(t *testing.T) {
		found, err := repo.FindByID(ctx, tenantID, proj.ID)
		require.NoError(t, err)
		_, err = found.AddLine(nil, project.LineSpec{ItemCode: "B", Description: "Drainage", Unit: "m"})
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, found))

		reloaded, err := repo.FindByID(ctx, tenantID, proj.ID)
		require.NoError(t, err)
		assert.Len(t, reloaded.Lines, 4)
		assert.Equal(t, found.Version, reloaded.Version)
	})
}

func TestGormProjectRepository_OutboxEvents(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormProjectRepository(db)
	repo.SetOutboxEventSaver(event.NewOutboxPublisher(event.NewBillingEventSerializer()))
	ctx := context.Background()

	proj := newTestProject(t, uuid.New(), "PRJ-EV")
	require.NoError(t, repo.Save(ctx, proj))

	var entries []models.OutboxEntryModel
	require.NoError(t, db.Where("aggregate_id = ?", proj.ID).Find(&entries).Error)
	types := make([]string, len(entries))
	for i, e := range entries {
		types[i] = e.EventType
	}
	assert.Contains(t, types, project.EventTypeProjectCreated)
	assert.Empty(t, proj.GetDomainEvents(), "events are cleared once stored")
}

func TestGormProjectRepository_FindByIDForUpdate_LocksRow(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()
	repo := NewGormProjectRepository(db.DB)

	tenantID := uuid.New()
	projectID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "projects" WHERE tenant_id = \$1 AND id = \$2 ORDER BY .* FOR UPDATE`).
		WithArgs(tenantID, projectID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "code", "name", "currency", "status", "version"}).
			AddRow(projectID.String(), tenantID.String(), "PRJ-1", "Ring road", "TRY", "OPEN", 3))
	mock.ExpectQuery(`SELECT \* FROM "boq_lines" WHERE project_id = \$1 ORDER BY sort_order ASC`).
		WithArgs(projectID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "project_id", "item_code", "sort_order"}))

	found, err := repo.FindByIDForUpdate(context.Background(), tenantID, projectID)

	require.NoError(t, err)
	assert.Equal(t, 3, found.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}
