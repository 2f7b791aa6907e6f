package api

import (
	"context"
	"time"
)

// TimestampLayout is the wire format of historical timestamps (yyyy-MM-dd HH:mm:ss).
const TimestampLayout = "2006-01-02 15:04:05"

// HistoricalSeries holds parallel observations: index i of every slice is one point.
type HistoricalSeries struct {
	Timestamps []string
	Times      []time.Time
	Prices     []float64
	Sentiments []float64
}

func (h *HistoricalSeries) Len() int {
	return len(h.Timestamps)
}

type historicalPayload struct {
	Timestamp *[]string   `json:"timestamp"`
	Price     *[]*float64 `json:"price"`
	Sentiment *[]*float64 `json:"sentiment"`
}

func (c *Client) FetchHistoricalData(ctx context.Context) (*HistoricalSeries, error) {
	var payload historicalPayload
	if err := c.getJSON(ctx, HistoricalDataPath, &payload); err != nil {
		return nil, err
	}
	return payload.series()
}

func (p *historicalPayload) series() (*HistoricalSeries, error) {
	if p.Timestamp == nil || p.Price == nil || p.Sentiment == nil {
		return nil, malformed(HistoricalDataPath, "missing timestamp, price or sentiment")
	}
	n := len(*p.Timestamp)
	if len(*p.Price) != n || len(*p.Sentiment) != n {
		return nil, malformed(HistoricalDataPath, "length mismatch: timestamp=%d price=%d sentiment=%d",
			n, len(*p.Price), len(*p.Sentiment))
	}
	series := &HistoricalSeries{
		Timestamps: make([]string, 0, n),
		Times:      make([]time.Time, 0, n),
		Prices:     make([]float64, 0, n),
		Sentiments: make([]float64, 0, n),
	}
	for i := 0; i < n; i++ {
		ts := (*p.Timestamp)[i]
		t, err := time.Parse(TimestampLayout, ts)
		if err != nil {
			return nil, malformed(HistoricalDataPath, "timestamp[%d] %q: %v", i, ts, err)
		}
		price, sentiment := (*p.Price)[i], (*p.Sentiment)[i]
		if price == nil || sentiment == nil {
			return nil, malformed(HistoricalDataPath, "null value at index %d", i)
		}
		series.Timestamps = append(series.Timestamps, ts)
		series.Times = append(series.Times, t)
		series.Prices = append(series.Prices, *price)
		series.Sentiments = append(series.Sentiments, *sentiment)
	}
	return series, nil
}
