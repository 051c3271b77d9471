// Package model defines shared data types used across the dealwatch pipeline.
//
// Conventions:
//   - Prices: float64 dollars; deal signatures round to whole cents
//   - Timestamps: time.Time in UTC
//   - IDs: opaque catalog strings for items, uuid.UUID for deal candidates
//
// Optional fields sourced from the providers (list price, trailing averages,
// all-time extremes) are pointers; nil means the provider had no data.
package model
