// Package storage persists the watchlist, price history, detected deals
// and alert audit rows in PostgreSQL via pgx connection pools.
package storage
