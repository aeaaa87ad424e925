package sync

import "time"

// Result is the uniform outcome contract shared by all orchestrators.
// Success is true exactly when no item failed; phase-level failures never
// produce a Result at all, they propagate as errors.
type Result struct {
	ItemsProcessed int
	ItemsCreated   int
	ItemsUpdated   int
	ItemsFailed    int
	// Kinds breaks the counters down per entity kind, for runs that sync
	// several kinds in one pass. Nil when the run handles a single kind.
	Kinds    map[string]KindCounts
	Errors   []string
	Duration time.Duration
}

// KindCounts is one entity kind's slice of a result's counters.
type KindCounts struct {
	Processed int
	Failed    int
}

// NewResult returns an empty result.
func NewResult() *Result {
	return &Result{Errors: make([]string, 0)}
}

// Success reports whether the run finished without item failures.
func (r *Result) Success() bool {
	return r.ItemsFailed == 0
}

// RecordCreated counts one created item.
func (r *Result) RecordCreated() {
	r.ItemsProcessed++
	r.ItemsCreated++
}

// RecordUpdated counts one updated item.
func (r *Result) RecordUpdated() {
	r.ItemsProcessed++
	r.ItemsUpdated++
}

// RecordSkipped counts one item that was processed but not written.
func (r *Result) RecordSkipped() {
	r.ItemsProcessed++
}

// RecordFailure counts one failed item and keeps its error message.
func (r *Result) RecordFailure(msg string) {
	r.ItemsProcessed++
	r.ItemsFailed++
	r.Errors = append(r.Errors, msg)
}

// RecordKind files one kind's share of the counters.
func (r *Result) RecordKind(kind string, processed, failed int) {
	if r.Kinds == nil {
		r.Kinds = make(map[string]KindCounts)
	}
	c := r.Kinds[kind]
	c.Processed += processed
	c.Failed += failed
	r.Kinds[kind] = c
}

// Merge folds the counters of a nested run (e.g. a staleness-triggered config
// sync inside a product sync) into this result.
func (r *Result) Merge(other *Result) {
	if other == nil {
		return
	}
	r.ItemsProcessed += other.ItemsProcessed
	r.ItemsCreated += other.ItemsCreated
	r.ItemsUpdated += other.ItemsUpdated
	r.ItemsFailed += other.ItemsFailed
	for kind, c := range other.Kinds {
		r.RecordKind(kind, c.Processed, c.Failed)
	}
	r.Errors = append(r.Errors, other.Errors...)
}
