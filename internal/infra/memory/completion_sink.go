package memory

import (
	"context"
	"sync"

	"onboarding-service/internal/domain"
)

// CompletionRecorder keeps every submission in memory (useful for tests/demos).
type CompletionRecorder struct {
	mu          sync.Mutex
	submissions []domain.Submission
	notify      chan domain.Submission
}

func NewCompletionRecorder() *CompletionRecorder {
	return &CompletionRecorder{notify: make(chan domain.Submission, 16)}
}

func (r *CompletionRecorder) Complete(_ context.Context, submission domain.Submission) error {
	r.mu.Lock()
	r.submissions = append(r.submissions, submission)
	r.mu.Unlock()

	select {
	case r.notify <- submission:
	default:
	}
	return nil
}

// Submissions returns the recorded submissions in arrival order.
func (r *CompletionRecorder) Submissions() []domain.Submission {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Submission(nil), r.submissions...)
}

// Completed delivers submissions as they arrive; buffered, drops when full.
func (r *CompletionRecorder) Completed() <-chan domain.Submission {
	return r.notify
}
