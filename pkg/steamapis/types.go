package steamapis

import "encoding/json"

// ItemResponse is the decoded SteamApis market/item payload, reduced to
// the histogram section this service consumes. Raw keeps the full body
// for error reporting.
type ItemResponse struct {
	Histogram Histogram `json:"histogram"`

	Raw json.RawMessage `json:"-"`
}

// Histogram is the order-book summary of an item. The fields are kept
// as json.Number so the upstream's literal digits survive into the
// decimal conversion without a float round trip.
type Histogram struct {
	HighestBuyOrder json.Number `json:"highest_buy_order"`
	LowestSellOrder json.Number `json:"lowest_sell_order"`
}

// upstreamError is the error body shape SteamApis sends on non-2xx
// responses.
type upstreamError struct {
	Error    string          `json:"error"`
	Type     string          `json:"type"`
	Requests json.RawMessage `json:"requests"`
}
