package services

import (
	"errors"
	"sync"

	apperrors "wealthbook/internal/errors"
	"wealthbook/internal/logger"
	"wealthbook/internal/pricing"
)

// Issue outcomes.
const (
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// Issue explains why one item of a batch was not written.
type Issue struct {
	Key     string `json:"key"`
	Code    string `json:"code"`
	Reason  string `json:"reason"`
	Outcome string `json:"outcome"`
}

// BatchResult is the outcome of a batch operation. Partial success is the
// normal case; callers inspect the counts and issues rather than a single error.
type BatchResult struct {
	Succeeded int     `json:"succeeded"`
	Skipped   int     `json:"skipped"`
	Failed    int     `json:"failed"`
	Issues    []Issue `json:"issues"`

	mu sync.Mutex
}

// NewBatchResult returns an empty result with a non-nil issue list.
func NewBatchResult() *BatchResult {
	return &BatchResult{Issues: []Issue{}}
}

// Succeed counts one written item.
func (r *BatchResult) Succeed() {
	r.mu.Lock()
	r.Succeeded++
	r.mu.Unlock()
}

// Record classifies err for key. Missing market data is a skip; everything
// else is a failure.
func (r *BatchResult) Record(key string, err error) {
	outcome := OutcomeFailed
	if isSkippable(err) {
		outcome = OutcomeSkipped
	}
	code := apperrors.Code(err)
	if code == "" {
		code = apperrors.ErrInternalServer.Code
	}

	issue := Issue{Key: key, Code: code, Reason: err.Error(), Outcome: outcome}

	log := logger.Get()
	if outcome == OutcomeSkipped {
		log.Warnw("batch item skipped", "key", key, "code", code, "reason", issue.Reason)
	} else {
		log.Errorw("batch item failed", "key", key, "code", code, "reason", issue.Reason, "error", errors.Unwrap(err))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if outcome == OutcomeSkipped {
		r.Skipped++
	} else {
		r.Failed++
	}
	r.Issues = append(r.Issues, issue)
}

// Skip counts an item that was deliberately not written, with its reason.
func (r *BatchResult) Skip(key, code, reason string) {
	logger.Get().Infow("batch item skipped", "key", key, "code", code, "reason", reason)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.Skipped++
	r.Issues = append(r.Issues, Issue{Key: key, Code: code, Reason: reason, Outcome: OutcomeSkipped})
}

// Merge adds other's counts and issues into r.
func (r *BatchResult) Merge(other *BatchResult) {
	if other == nil {
		return
	}
	other.mu.Lock()
	succeeded, skipped, failed := other.Succeeded, other.Skipped, other.Failed
	issues := append([]Issue(nil), other.Issues...)
	other.mu.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.Succeeded += succeeded
	r.Skipped += skipped
	r.Failed += failed
	r.Issues = append(r.Issues, issues...)
}

// Total is the number of items the batch looked at.
func (r *BatchResult) Total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Succeeded + r.Skipped + r.Failed
}

func isSkippable(err error) bool {
	return errors.Is(err, apperrors.ErrMissingPrice) ||
		errors.Is(err, apperrors.ErrMissingFXRate) ||
		errors.Is(err, pricing.ErrNoPrice) ||
		errors.Is(err, pricing.ErrNoRate)
}
