package source

import (
	"context"
	"net/url"
)

// LiveClient fetches current price and availability from the live-price
// provider.
type LiveClient struct {
	rest restClient
}

// NewLiveClient creates a live-price provider client.
func NewLiveClient(baseURL, apiKey string, opts ...Option) *LiveClient {
	return &LiveClient{
		rest: newRESTClient("live", baseURL, apiKey, opts...),
	}
}

// FetchQuote fetches the current quote for one item.
func (c *LiveClient) FetchQuote(ctx context.Context, itemID string) (Quote, error) {
	var wire quoteWire
	if err := c.rest.getJSON(ctx, "/items/"+url.PathEscape(itemID), nil, &wire); err != nil {
		return Quote{}, err
	}
	return wire.toQuote(itemID), nil
}

// quoteWire is the provider's wire format for one item lookup.
type quoteWire struct {
	Item struct {
		ID             string   `json:"id"`
		Title          string   `json:"title"`
		Brand          string   `json:"brand"`
		Category       string   `json:"category"`
		ImageURL       string   `json:"image_url"`
		Price          *float64 `json:"price"`
		Currency       string   `json:"currency"`
		Availability   string   `json:"availability"`
		ListPrice      *float64 `json:"list_price"`
		BuyBoxPrice    *float64 `json:"buy_box_price"`
		SavingsPercent *float64 `json:"savings_percent"`
		SalesRank      *int     `json:"sales_rank"`
	} `json:"item"`
}

func (w quoteWire) toQuote(itemID string) Quote {
	q := Quote{
		ItemID:         itemID,
		Title:          w.Item.Title,
		Brand:          w.Item.Brand,
		Category:       w.Item.Category,
		ImageURL:       w.Item.ImageURL,
		Currency:       w.Item.Currency,
		Available:      w.Item.Availability == "IN_STOCK",
		ListPrice:      w.Item.ListPrice,
		BuyBoxPrice:    w.Item.BuyBoxPrice,
		SavingsPercent: w.Item.SavingsPercent,
		SalesRank:      w.Item.SalesRank,
	}
	if w.Item.Price != nil {
		q.Price = *w.Item.Price
	}
	return q
}
