package render

import (
	"fmt"
	"html/template"
	"math/big"
	"pulse/src/api"

	"github.com/shopspring/decimal"
)

const (
	VolatilityPlaces = 4
	SentimentPlaces  = 2
)

// ErrorParagraph is the static message a region shows when its fetch cycle fails.
func ErrorParagraph(what string) template.HTML {
	return template.HTML("<p>Error loading " + template.HTMLEscapeString(what) + ". Please try again later.</p>")
}

// Fixed formats v with exactly places decimals. Rounding works on the exact binary
// value of v, half away from zero, so 1.005 (stored just below) gives "1.00".
func Fixed(v float64, places int32) string {
	exact := new(big.Float).SetFloat64(v).Text('f', 1100)
	return decimal.RequireFromString(exact).StringFixed(places)
}

func ForecastPanel(f *api.VolatilityForecast) template.HTML {
	return lines(
		fmt.Sprintf("Predicted Volatility: %s", Fixed(f.PredictedVolatility, VolatilityPlaces)),
		fmt.Sprintf("Forecast Period: %s", f.ForecastPeriod),
	)
}

func SentimentPanel(s *api.SentimentSummary) template.HTML {
	return lines(
		fmt.Sprintf("Sentiment Score: %s", Fixed(s.SentimentScore, SentimentPlaces)),
		fmt.Sprintf("Analysis Period: %s", s.AnalysisPeriod),
	)
}

func lines(texts ...string) template.HTML {
	var out string
	for i, text := range texts {
		if i > 0 {
			out += "\n"
		}
		out += "<p>" + template.HTMLEscapeString(text) + "</p>"
	}
	return template.HTML(out)
}
