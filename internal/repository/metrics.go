package repository

import "time"

// QueryObserver receives per-query timing from the repositories. The
// metrics service satisfies it; a nil observer disables instrumentation.
type QueryObserver interface {
	ObserveDBQuery(label string, duration time.Duration)
}

func observe(obs QueryObserver, label string, start time.Time) {
	if obs == nil {
		return
	}
	obs.ObserveDBQuery(label, time.Since(start))
}
