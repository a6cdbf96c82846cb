// Package pricing defines the canonical market price record and the
// normalization of raw SteamApis payloads into it.
package pricing

import "github.com/shopspring/decimal"

// PriceRecord is the canonical per-item price entity. A record only
// exists with both sides resolved; there are no partial records.
type PriceRecord struct {
	// AppID identifies the parent Steam application (collection).
	AppID string `json:"app_id"`

	// MarketHashName identifies the item within the collection.
	MarketHashName string `json:"market_hash_name"`

	// HighestBuyOrder is the best standing buy price. Zero is a valid price.
	HighestBuyOrder decimal.Decimal `json:"highest_buy_order"`

	// LowestSellOrder is the best standing sell price. Zero is a valid price.
	LowestSellOrder decimal.Decimal `json:"lowest_sell_order"`
}

// Key returns the composite lookup identity of the record.
func (r *PriceRecord) Key() (appID, marketHashName string) {
	return r.AppID, r.MarketHashName
}
