package source

import (
	"context"
	"net/url"
)

// HistoryClient fetches trailing averages and all-time extremes from the
// historical-stats provider.
type HistoryClient struct {
	rest restClient
}

// NewHistoryClient creates a historical-stats provider client.
func NewHistoryClient(baseURL, apiKey string, opts ...Option) *HistoryClient {
	return &HistoryClient{
		rest: newRESTClient("history", baseURL, apiKey, opts...),
	}
}

// FetchStats fetches trailing statistics for one item.
func (c *HistoryClient) FetchStats(ctx context.Context, itemID string) (Stats, error) {
	var wire statsWire
	if err := c.rest.getJSON(ctx, "/stats/"+url.PathEscape(itemID), nil, &wire); err != nil {
		return Stats{}, err
	}
	return wire.toStats(itemID), nil
}

// statsWire is the provider's wire format for one stats lookup. The
// provider reports -1 for windows it has no data on.
type statsWire struct {
	Stats struct {
		Avg30       *float64 `json:"avg_30d"`
		Avg90       *float64 `json:"avg_90d"`
		Avg180      *float64 `json:"avg_180d"`
		AllTimeLow  *float64 `json:"all_time_low"`
		AllTimeHigh *float64 `json:"all_time_high"`
	} `json:"stats"`
}

func (w statsWire) toStats(itemID string) Stats {
	return Stats{
		ItemID:      itemID,
		Avg30:       positiveOrNil(w.Stats.Avg30),
		Avg90:       positiveOrNil(w.Stats.Avg90),
		Avg180:      positiveOrNil(w.Stats.Avg180),
		AllTimeLow:  positiveOrNil(w.Stats.AllTimeLow),
		AllTimeHigh: positiveOrNil(w.Stats.AllTimeHigh),
	}
}

// positiveOrNil drops the provider's -1 "no data" sentinel and any other
// malformed non-positive value.
func positiveOrNil(v *float64) *float64 {
	if v == nil || *v <= 0 {
		return nil
	}
	return v
}
