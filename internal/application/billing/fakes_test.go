package billing

import (
	"context"
	"sort"
	"sync"

	"github.com/erp/progress-billing/internal/domain/billing"
	"github.com/erp/progress-billing/internal/domain/project"
	"github.com/erp/progress-billing/internal/domain/shared"
	"github.com/google/uuid"
)

type fakeProjectRepo struct {
	mu       sync.Mutex
	projects map[uuid.UUID]project.Project
}

func newFakeProjectRepo(projects ...*project.Project) *fakeProjectRepo {
	r := &fakeProjectRepo{projects: make(map[uuid.UUID]project.Project)}
	for _, p := range projects {
		r.projects[p.ID] = cloneProject(p)
	}
	return r
}

func cloneProject(p *project.Project) project.Project {
	c := *p
	c.Lines = append([]project.BoQLine(nil), p.Lines...)
	c.ClearDomainEvents()
	return c
}

func (r *fakeProjectRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*project.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok || p.TenantID != tenantID {
		return nil, shared.NewNotFoundError("project")
	}
	c := cloneProject(&p)
	return &c, nil
}

func (r *fakeProjectRepo) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*project.Project, error) {
	return r.FindByID(ctx, tenantID, id)
}

func (r *fakeProjectRepo) ExistsByCode(_ context.Context, tenantID uuid.UUID, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.projects {
		if p.TenantID == tenantID && p.Code == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeProjectRepo) Save(_ context.Context, p *project.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.projects[p.ID] = cloneProject(p)
	return nil
}

type fakePaymentRepo struct {
	mu        sync.Mutex
	payments  map[uuid.UUID]billing.ProgressPayment
	conflicts int // number of Create calls to reject with ErrAlreadyExists
	creates   int
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: make(map[uuid.UUID]billing.ProgressPayment)}
}

func clonePayment(p *billing.ProgressPayment) billing.ProgressPayment {
	c := *p
	c.Details = append([]billing.PaymentDetail(nil), p.Details...)
	c.ClearDomainEvents()
	return c
}

func (r *fakePaymentRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*billing.ProgressPayment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok || p.TenantID != tenantID {
		return nil, shared.NewNotFoundError("progress payment")
	}
	c := clonePayment(&p)
	return &c, nil
}

func (r *fakePaymentRepo) FindByProject(_ context.Context, tenantID, projectID uuid.UUID) ([]billing.ProgressPayment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []billing.ProgressPayment
	for _, p := range r.payments {
		if p.TenantID == tenantID && p.ProjectID == projectID {
			out = append(out, clonePayment(&p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PaymentNo < out[j].PaymentNo })
	return out, nil
}

func (r *fakePaymentRepo) MaxPaymentNo(_ context.Context, tenantID, projectID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	maxNo := 0
	for _, p := range r.payments {
		if p.TenantID == tenantID && p.ProjectID == projectID && p.PaymentNo > maxNo {
			maxNo = p.PaymentNo
		}
	}
	return maxNo, nil
}

func (r *fakePaymentRepo) FindLastApproved(_ context.Context, tenantID, projectID uuid.UUID) (*billing.ProgressPayment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var best *billing.ProgressPayment
	for _, p := range r.payments {
		if p.TenantID != tenantID || p.ProjectID != projectID || p.Status != billing.PaymentStatusApproved {
			continue
		}
		if best == nil || p.PaymentNo > best.PaymentNo {
			c := clonePayment(&p)
			best = &c
		}
	}
	return best, nil
}

func (r *fakePaymentRepo) Create(_ context.Context, p *billing.ProgressPayment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	if r.conflicts > 0 {
		r.conflicts--
		return shared.NewDomainError(shared.CodeAlreadyExists, "payment number taken")
	}
	for _, existing := range r.payments {
		if existing.ProjectID == p.ProjectID && existing.PaymentNo == p.PaymentNo {
			return shared.NewDomainError(shared.CodeAlreadyExists, "payment number taken")
		}
	}
	r.payments[p.ID] = clonePayment(p)
	return nil
}

func (r *fakePaymentRepo) SaveWithLock(_ context.Context, p *billing.ProgressPayment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.payments[p.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if stored.Version != p.Version {
		return shared.ErrConcurrencyConflict
	}
	p.Version++
	r.payments[p.ID] = clonePayment(p)
	return nil
}

var _ project.ProjectRepository = (*fakeProjectRepo)(nil)
var _ billing.ProgressPaymentRepository = (*fakePaymentRepo)(nil)
