package extract

import "time"

// LibraryReport summarizes the pass over one library.
type LibraryReport struct {
	Library string
	Modules int
	Nodes   int
	Written []string
	Skipped []string
	RunID   string
}

// Report summarizes one full extraction run.
type Report struct {
	Libraries []LibraryReport
	Duration  time.Duration
}

// Nodes returns the total node count across all libraries.
func (r *Report) Nodes() int {
	total := 0
	for _, lib := range r.Libraries {
		total += lib.Nodes
	}
	return total
}
