package repository

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/junsantilla/cvalley/internal/domain"
)

// ExportsRepo keeps the most recent export jobs in memory. Nothing about an
// export outlives the process.
type ExportsRepo struct {
	mu    sync.RWMutex
	limit int
	jobs  []domain.ExportJob
}

func NewExportsRepo(limit int) *ExportsRepo {
	if limit <= 0 {
		limit = 50
	}
	return &ExportsRepo{limit: limit}
}

// Save inserts the job or replaces the one with the same id. The oldest job
// is dropped once the limit is reached.
func (r *ExportsRepo) Save(ctx context.Context, j *domain.ExportJob) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cp := *j
	if j.Metadata != nil {
		cp.Metadata = make(map[string]interface{}, len(j.Metadata))
		for k, v := range j.Metadata {
			cp.Metadata[k] = v
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.jobs {
		if r.jobs[i].ID == j.ID {
			r.jobs[i] = cp
			return nil
		}
	}
	r.jobs = append(r.jobs, cp)
	if over := len(r.jobs) - r.limit; over > 0 {
		r.jobs = append(r.jobs[:0:0], r.jobs[over:]...)
	}
	return nil
}

// Recent returns saved jobs, newest first.
func (r *ExportsRepo) Recent(ctx context.Context) ([]domain.ExportJob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.ExportJob, 0, len(r.jobs))
	for i := len(r.jobs) - 1; i >= 0; i-- {
		out = append(out, r.jobs[i])
	}
	return out, nil
}

// Get returns the job with id, or false.
func (r *ExportsRepo) Get(ctx context.Context, id uuid.UUID) (domain.ExportJob, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, j := range r.jobs {
		if j.ID == id {
			return j, true
		}
	}
	return domain.ExportJob{}, false
}
