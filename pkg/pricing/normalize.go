package pricing

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/steamtools/price-service/pkg/logging"
	"github.com/steamtools/price-service/pkg/steamapis"
)

// Normalize extracts the two histogram price fields from a SteamApis
// payload and converts them to exact decimals. A payload with either
// side absent or null is invalid, not partially valid.
//
// Conversion goes through the number's literal string form
// (json.Number -> decimal.NewFromString), never through float64, so no
// binary representation error is introduced.
func Normalize(resp *steamapis.ItemResponse, appID, marketHashName string) (*PriceRecord, error) {
	logger := logging.NewLogger("normalizer")

	buy := resp.Histogram.HighestBuyOrder
	sell := resp.Histogram.LowestSellOrder

	if buy == "" || sell == "" {
		logger.Error().
			Str("app_id", appID).
			Str("market_hash_name", marketHashName).
			RawJSON("response", nonEmptyJSON(resp)).
			Msg("Missing market data in response")
		return nil, missingMarketData(resp)
	}

	highestBuyOrder, err := decimal.NewFromString(buy.String())
	if err != nil {
		return nil, missingMarketData(resp)
	}
	lowestSellOrder, err := decimal.NewFromString(sell.String())
	if err != nil {
		return nil, missingMarketData(resp)
	}

	return &PriceRecord{
		AppID:           appID,
		MarketHashName:  marketHashName,
		HighestBuyOrder: highestBuyOrder,
		LowestSellOrder: lowestSellOrder,
	}, nil
}

func missingMarketData(resp *steamapis.ItemResponse) *steamapis.Error {
	return &steamapis.Error{
		Kind:       steamapis.KindMissingMarketData,
		StatusCode: http.StatusInternalServerError,
		Message:    "Missing market data in SteamApis response",
		Details: &steamapis.Details{
			UpstreamResponse: resp.Raw,
		},
	}
}

func nonEmptyJSON(resp *steamapis.ItemResponse) []byte {
	if len(resp.Raw) == 0 {
		return []byte("{}")
	}
	return resp.Raw
}
