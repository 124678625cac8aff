package domain

import "sync/atomic"

// BatchReport accumulates per-item results. It is appended to by the
// orchestrator only and becomes immutable after Finalize.
type BatchReport struct {
	Results   []ImportResult `json:"results"`
	Total     int            `json:"total"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`

	// FirstError is the message of the first failed item, set by Finalize.
	FirstError string `json:"first_error,omitempty"`
	Finalized  bool   `json:"-"`
}

// NewBatchReport starts a report for total items.
func NewBatchReport(total int) *BatchReport {
	return &BatchReport{
		Results: make([]ImportResult, 0, total),
		Total:   total,
	}
}

// Append records one completed item. Calls after Finalize are ignored.
func (r *BatchReport) Append(res ImportResult) {
	if r == nil || r.Finalized {
		return
	}
	r.Results = append(r.Results, res)
	if res.Success {
		r.Succeeded++
	} else {
		r.Failed++
	}
}

// Finalize records the first failure message and freezes the report.
func (r *BatchReport) Finalize() {
	if r == nil || r.Finalized {
		return
	}
	for _, res := range r.Results {
		if !res.Success {
			r.FirstError = res.Error
			break
		}
	}
	r.Finalized = true
}

// Progress exposes completed/total counters to readers on other goroutines.
type Progress struct {
	completed atomic.Int64
	total     atomic.Int64
}

// Reset starts a new run of total items.
func (p *Progress) Reset(total int) {
	p.completed.Store(0)
	p.total.Store(int64(total))
}

// Set stores the completed counter.
func (p *Progress) Set(completed int) {
	p.completed.Store(int64(completed))
}

// Snapshot returns completed and total.
func (p *Progress) Snapshot() (int, int) {
	return int(p.completed.Load()), int(p.total.Load())
}
