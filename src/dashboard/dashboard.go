package dashboard

import (
	"context"
	"fmt"
	"pulse/src/api"
	"pulse/src/common"
	"pulse/src/page"
	"pulse/src/render"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const DefaultInterval = 5 * time.Minute

// Fetcher is the API the dashboard polls.
type Fetcher interface {
	FetchHistoricalData(ctx context.Context) (*api.HistoricalSeries, error)
	FetchVolatilityForecast(ctx context.Context) (*api.VolatilityForecast, error)
	FetchSentimentAnalysis(ctx context.Context) (*api.SentimentSummary, error)
}

type Dashboard struct {
	fetcher  Fetcher
	doc      *page.Document
	chart    *render.ChartRenderer
	interval time.Duration

	historical *cycle
	forecast   *cycle
	sentiment  *cycle
}

func NewDashboard(fetcher Fetcher, doc *page.Document, interval time.Duration) *Dashboard {
	if interval <= 0 {
		interval = DefaultInterval
	}
	d := &Dashboard{
		fetcher:  fetcher,
		doc:      doc,
		chart:    render.NewChartRenderer(doc),
		interval: interval,
	}
	d.historical = &cycle{
		what:     "historical data",
		regionID: page.HistoricalChartID,
		doc:      doc,
		fetch: func(ctx context.Context) (func() error, error) {
			series, err := d.fetcher.FetchHistoricalData(ctx)
			if err != nil {
				return nil, err
			}
			return func() error { return d.chart.Render(series) }, nil
		},
		// The error paragraph replaces the canvas content, so the chart goes with it.
		onError: d.chart.Release,
	}
	d.forecast = &cycle{
		what:     "volatility forecast",
		regionID: page.ForecastResultID,
		doc:      doc,
		fetch: func(ctx context.Context) (func() error, error) {
			forecast, err := d.fetcher.FetchVolatilityForecast(ctx)
			if err != nil {
				return nil, err
			}
			return setPanel(doc, page.ForecastResultID, render.ForecastPanel(forecast)), nil
		},
	}
	d.sentiment = &cycle{
		what:     "sentiment analysis",
		regionID: page.SentimentResultID,
		doc:      doc,
		fetch: func(ctx context.Context) (func() error, error) {
			summary, err := d.fetcher.FetchSentimentAnalysis(ctx)
			if err != nil {
				return nil, err
			}
			return setPanel(doc, page.SentimentResultID, render.SentimentPanel(summary)), nil
		},
	}
	return d
}

func (d *Dashboard) Name() string {
	return "Dashboard"
}

func (d *Dashboard) Chart() *render.ChartRenderer {
	return d.chart
}

func (d *Dashboard) RefreshHistoricalData(ctx context.Context) {
	d.historical.run(ctx)
}

func (d *Dashboard) RefreshVolatilityForecast(ctx context.Context) {
	d.forecast.run(ctx)
}

func (d *Dashboard) RefreshSentimentAnalysis(ctx context.Context) {
	d.sentiment.run(ctx)
}

// Run fetches every region once, then re-fetches each on its own fixed interval
// until ctx is done. Firings are neither skipped nor coalesced.
func (d *Dashboard) Run(ctx context.Context) error {
	c := cron.New(cron.WithLogger(cron.PrintfLogger(zap.NewStdLog(common.Logger))))
	spec := fmt.Sprintf("@every %s", d.interval)
	refreshers := []func(context.Context){
		d.RefreshHistoricalData,
		d.RefreshVolatilityForecast,
		d.RefreshSentimentAnalysis,
	}
	for _, refresh := range refreshers {
		if _, err := c.AddFunc(spec, func() {
			defer common.HandlePanic()
			refresh(ctx)
		}); err != nil {
			return fmt.Errorf("register refresh %s: %w", spec, err)
		}
	}

	common.Logger.Sugar().Infof("Dashboard Run every %s", d.interval)
	c.Start()
	for _, refresh := range refreshers {
		common.Go(func() { refresh(ctx) })
	}

	<-ctx.Done()
	<-c.Stop().Done()
	common.Logger.Sugar().Info("Dashboard stopped")
	return nil
}
