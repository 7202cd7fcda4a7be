// Package upstream tracks the health of the single upstream service the
// gateway forwards to.
//
// A Tracker probes a configured path on a fixed interval. The upstream
// starts out unknown, the first probe classifies it, and afterwards a
// run of consecutive failures equal to the failure threshold marks it
// unhealthy while any successful probe marks it healthy again.
//
// Snapshots are published through an atomic pointer, so request handlers
// read health without taking a lock.
//
// Usage:
//
//	target, _ := upstream.ParseTarget("http://127.0.0.1:11434")
//	tracker := upstream.NewTracker(target, upstream.TrackerConfig{
//	    ProbePath:        "/api/tags",
//	    Interval:         10 * time.Second,
//	    Timeout:          5 * time.Second,
//	    FailureThreshold: 3,
//	}, nil, logger, collector)
//	tracker.Start(ctx)
//	defer tracker.Stop()
package upstream
