package persistence

import (
	"context"
	"errors"

	"github.com/erp/progress-billing/internal/domain/project"
	"github.com/erp/progress-billing/internal/domain/shared"
	"github.com/erp/progress-billing/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProjectRepository implements ProjectRepository using GORM
type GormProjectRepository struct {
	db          *gorm.DB
	outboxSaver shared.OutboxEventSaver // optional, for transactional outbox pattern
}

// NewGormProjectRepository creates a new GormProjectRepository
func NewGormProjectRepository(db *gorm.DB) *GormProjectRepository {
	return &GormProjectRepository{db: db}
}

// SetOutboxEventSaver sets the outbox event saver for transactional event publishing
func (r *GormProjectRepository) SetOutboxEventSaver(saver shared.OutboxEventSaver) {
	r.outboxSaver = saver
}

// FindByID finds a project for a tenant, with its BoQ lines in insertion order
func (r *GormProjectRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*project.Project, error) {
	var model models.ProjectModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("project")
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate locks the project row (SELECT ... FOR UPDATE) and loads its lines.
// Only meaningful inside a transaction.
func (r *GormProjectRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*project.Project, error) {
	db := r.db.WithContext(ctx)

	var model models.ProjectModel
	if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewNotFoundError("project")
		}
		return nil, err
	}
	if err := db.Where("project_id = ?", model.ID).
		Order("sort_order ASC").
		Find(&model.Lines).Error; err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// ExistsByCode checks whether a project code is taken within the tenant
func (r *GormProjectRepository) ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ProjectModel{}).
		Where("tenant_id = ? AND code = ?", tenantID, code).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save upserts the project and its BoQ lines, then writes pending events to the outbox.
// Lines are append-only, so no line is ever removed here.
func (r *GormProjectRepository) Save(ctx context.Context, p *project.Project) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := models.ProjectModelFromDomain(p)
		if err := tx.Omit(clause.Associations).Save(model).Error; err != nil {
			return translateWriteError(err)
		}
		for i := range p.Lines {
			p.Lines[i].ProjectID = p.ID
			if err := tx.Save(models.BoQLineModelFromDomain(&p.Lines[i])).Error; err != nil {
				return translateWriteError(err)
			}
		}
		return persistEvents(ctx, tx, r.outboxSaver, p)
	})
}

// Ensure GormProjectRepository implements ProjectRepository
var _ project.ProjectRepository = (*GormProjectRepository)(nil)
