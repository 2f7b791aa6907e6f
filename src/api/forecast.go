package api

import "context"

type VolatilityForecast struct {
	PredictedVolatility float64
	ForecastPeriod      string
}

type forecastPayload struct {
	PredictedVolatility *float64 `json:"predicted_volatility"`
	ForecastPeriod      *string  `json:"forecast_period"`
}

func (c *Client) FetchVolatilityForecast(ctx context.Context) (*VolatilityForecast, error) {
	var payload forecastPayload
	if err := c.getJSON(ctx, VolatilityForecastPath, &payload); err != nil {
		return nil, err
	}
	if payload.PredictedVolatility == nil || payload.ForecastPeriod == nil {
		return nil, malformed(VolatilityForecastPath, "missing predicted_volatility or forecast_period")
	}
	return &VolatilityForecast{
		PredictedVolatility: *payload.PredictedVolatility,
		ForecastPeriod:      *payload.ForecastPeriod,
	}, nil
}
