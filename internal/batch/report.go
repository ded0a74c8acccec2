package batch

// Report lists the messages that must be redelivered, in input order and
// without duplicates. Everything not listed is acknowledged.
type Report struct {
	failed []string
	seen   map[string]struct{}
}

func NewReport() *Report {
	return &Report{seen: make(map[string]struct{})}
}

// Add records a failed message id. Repeated ids are kept once.
func (r *Report) Add(id string) {
	if _, ok := r.seen[id]; ok {
		return
	}
	r.seen[id] = struct{}{}
	r.failed = append(r.failed, id)
}

func (r *Report) Contains(id string) bool {
	_, ok := r.seen[id]
	return ok
}

// FailedIDs returns a copy of the failed ids.
func (r *Report) FailedIDs() []string {
	out := make([]string, len(r.failed))
	copy(out, r.failed)
	return out
}

func (r *Report) Len() int {
	return len(r.failed)
}
