package project

import (
	"context"

	"github.com/google/uuid"
)

// ProjectRepository defines persistence for the Project aggregate.
// Loaded projects always carry their BoQ lines.
type ProjectRepository interface {
	// FindByID finds a project for a tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Project, error)

	// FindByIDForUpdate finds a project and locks its row until the transaction ends
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Project, error)

	// ExistsByCode checks whether a project code is taken within the tenant
	ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error)

	// Save creates or updates a project together with its BoQ lines
	Save(ctx context.Context, project *Project) error
}
