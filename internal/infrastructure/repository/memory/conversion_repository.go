package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/kirillkom/pdf-to-excel/internal/core/domain"
)

const defaultCapacity = 1000

// ConversionRepository keeps the most recent jobs in process memory. It is
// used when no database is configured; the oldest job is evicted once the
// capacity is reached.
type ConversionRepository struct {
	mu       sync.RWMutex
	capacity int
	jobs     map[string]domain.ConversionJob
	order    []string
}

func NewConversionRepository(capacity int) *ConversionRepository {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &ConversionRepository{
		capacity: capacity,
		jobs:     make(map[string]domain.ConversionJob),
	}
}

func (r *ConversionRepository) Create(_ context.Context, job *domain.ConversionJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.jobs[job.ID]; !ok {
		r.order = append(r.order, job.ID)
	}
	r.jobs[job.ID] = *job
	for len(r.order) > r.capacity {
		delete(r.jobs, r.order[0])
		r.order = r.order[1:]
	}
	return nil
}

func (r *ConversionRepository) UpdateOutcome(_ context.Context, job *domain.ConversionJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.jobs[job.ID]; !ok {
		return domain.WrapError(domain.ErrJobNotFound, "update conversion job", fmt.Errorf("id=%s", job.ID))
	}
	r.jobs[job.ID] = *job
	return nil
}

func (r *ConversionRepository) GetByID(_ context.Context, id string) (*domain.ConversionJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrJobNotFound, "get conversion job", fmt.Errorf("id=%s", id))
	}
	return &job, nil
}
