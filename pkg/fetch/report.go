package fetch

import (
	"github.com/Sternrassler/docbatch/pkg/document"
)

// Status describes what happened to one requested identifier.
type Status string

const (
	// StatusFound means the store returned a document for the identifier.
	StatusFound Status = "found"

	// StatusNotFound means the identifier's chunk succeeded without a match.
	StatusNotFound Status = "not_found"

	// StatusFailed means the identifier's chunk lookup failed.
	StatusFailed Status = "failed"
)

// Report is the diagnostic form of a batch fetch. Records is identical to
// what Fetch returns; Status additionally separates "not found" from
// "fetch failed" for every unique requested identifier.
type Report struct {
	Records      document.Result
	Status       map[string]Status
	Chunks       int
	FailedChunks int

	order []string
}

// Failed returns the identifiers whose chunk failed, in first-request order.
func (r Report) Failed() []string {
	return r.withStatus(StatusFailed)
}

// NotFound returns the identifiers that were looked up but had no document.
func (r Report) NotFound() []string {
	return r.withStatus(StatusNotFound)
}

func (r Report) withStatus(want Status) []string {
	var ids []string
	for _, id := range r.order {
		if r.Status[id] == want {
			ids = append(ids, id)
		}
	}
	return ids
}

// merge folds one chunk into the report. Chunk key sets are disjoint, so
// no entry is ever overwritten.
func (r *Report) merge(res chunkResult) {
	r.order = append(r.order, res.keys...)

	if res.err != nil {
		r.FailedChunks++
		for _, k := range res.keys {
			r.Status[k] = StatusFailed
		}
		return
	}

	for _, k := range res.keys {
		if rec, ok := res.records[k]; ok {
			r.Records[k] = rec
			r.Status[k] = StatusFound
		} else {
			r.Status[k] = StatusNotFound
		}
	}
}

func (r Report) failedCount() int {
	n := 0
	for _, s := range r.Status {
		if s == StatusFailed {
			n++
		}
	}
	return n
}
