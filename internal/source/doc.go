// Package source provides clients for the two external data providers and
// the rate-limited wrapper the pipeline fetches through.
//
// The live-price provider returns current price/availability for one item;
// the historical-stats provider returns trailing averages and all-time
// extremes. Both are REST APIs with independent request quotas, so each
// wrapper carries its own token bucket.
//
// Failure taxonomy: RateLimited (local budget exhausted), Transient
// (network/5xx, retried with backoff), NotFound (item unknown to the
// provider, negative-cached), Fatal (auth/config, never retried).
package source
