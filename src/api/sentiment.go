package api

import "context"

type SentimentSummary struct {
	SentimentScore float64
	AnalysisPeriod string
}

type sentimentPayload struct {
	SentimentScore *float64 `json:"sentiment_score"`
	AnalysisPeriod *string  `json:"analysis_period"`
}

func (c *Client) FetchSentimentAnalysis(ctx context.Context) (*SentimentSummary, error) {
	var payload sentimentPayload
	if err := c.getJSON(ctx, SentimentAnalysisPath, &payload); err != nil {
		return nil, err
	}
	if payload.SentimentScore == nil || payload.AnalysisPeriod == nil {
		return nil, malformed(SentimentAnalysisPath, "missing sentiment_score or analysis_period")
	}
	return &SentimentSummary{
		SentimentScore: *payload.SentimentScore,
		AnalysisPeriod: *payload.AnalysisPeriod,
	}, nil
}
