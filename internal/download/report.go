package download

import (
	"sync"
	"sync/atomic"
)

// Failure is one itemized batch failure.
type Failure struct {
	Label string
	Err   error
}

// Report accumulates per-item outcomes across one batch run. The
// failure list and counters are the only state shared between workers;
// both support concurrent mutation.
type Report struct {
	mu       sync.Mutex
	failures []Failure

	done  atomic.Int64
	total int64
	bytes atomic.Int64
}

func newReport(total int) *Report {
	return &Report{total: int64(total)}
}

func (r *Report) fail(label string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, Failure{Label: label, Err: err})
}

// advance bumps the overall item counter. Called exactly once per
// item, as the task's last action, regardless of outcome.
func (r *Report) advance() {
	r.done.Add(1)
}

func (r *Report) addBytes(delta int64) {
	r.bytes.Add(delta)
}

// OK reports whether the batch completed without any item failure.
func (r *Report) OK() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.failures) == 0
}

// Failures returns a copy of the itemized failure list.
func (r *Report) Failures() []Failure {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Failure, len(r.failures))
	copy(out, r.failures)
	return out
}

// Progress returns the items completed so far and the batch total.
func (r *Report) Progress() (done, total int64) {
	return r.done.Load(), r.total
}

// Bytes returns the number of payload bytes received so far.
func (r *Report) Bytes() int64 {
	return r.bytes.Load()
}
