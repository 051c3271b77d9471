// Package httpapi exposes the watchlist, price history and detected deals
// over a small REST API, plus an endpoint to trigger an immediate scan.
package httpapi
