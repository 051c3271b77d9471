// Package monitor orchestrates the check cycle: it walks the active
// watchlist on an interval, fetches both provider views per item, merges
// them, runs deal detection, persists the results and pushes notifications
// through dedup. Item failures are isolated; one bad item never aborts the
// batch.
package monitor
