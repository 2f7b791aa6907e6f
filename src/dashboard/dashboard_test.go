package dashboard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"pulse/src/api"
	"pulse/src/page"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	historicalBody = `{
		"timestamp": ["2024-07-01 00:00:00", "2024-07-02 00:00:00", "2024-07-03 00:00:00"],
		"price": [62000.5, 62500.25, 61800],
		"sentiment": [0.12, -0.05, 0.3]
	}`
	forecastBody  = `{"predicted_volatility": 0.12345, "forecast_period": "7d"}`
	sentimentBody = `{"sentiment_score": 0.5, "analysis_period": "30d"}`
)

type fakeAPI struct {
	mu     sync.Mutex
	status map[string]int
	hits   map[string]*atomic.Int64
}

func newFakeAPI(t *testing.T) (*fakeAPI, *api.Client) {
	f := &fakeAPI{
		status: map[string]int{},
		hits: map[string]*atomic.Int64{
			api.HistoricalDataPath:     {},
			api.VolatilityForecastPath: {},
			api.SentimentAnalysisPath:  {},
		},
	}
	bodies := map[string]string{
		api.HistoricalDataPath:     historicalBody,
		api.VolatilityForecastPath: forecastBody,
		api.SentimentAnalysisPath:  sentimentBody,
	}
	mux := http.NewServeMux()
	for path, body := range bodies {
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			f.hits[path].Add(1)
			f.mu.Lock()
			status, ok := f.status[path]
			f.mu.Unlock()
			if !ok {
				status = http.StatusOK
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			if status != http.StatusOK {
				_, _ = w.Write([]byte(`{"error": "unavailable"}`))
				return
			}
			_, _ = w.Write([]byte(body))
		})
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return f, api.NewClient(srv.URL, time.Second)
}

func (f *fakeAPI) fail(path string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status[path] = status
}

func region(t *testing.T, doc *page.Document, id string) string {
	html, err := doc.InnerHTML(id)
	require.NoError(t, err)
	return string(html)
}

func peek(doc *page.Document, id string) string {
	html, _ := doc.InnerHTML(id)
	return string(html)
}

func TestDashboard(t *testing.T) {
	t.Run("Refresh", func(t *testing.T) {
		testRefresh(t)
	})
	t.Run("ServerErrorIsolated", func(t *testing.T) {
		testServerErrorIsolated(t)
	})
	t.Run("HistoricalErrorReleasesChart", func(t *testing.T) {
		testHistoricalErrorReleasesChart(t)
	})
	t.Run("MissingCanvas", func(t *testing.T) {
		testMissingCanvas(t)
	})
	t.Run("StaleResponseDropped", func(t *testing.T) {
		testStaleResponseDropped(t)
	})
	t.Run("Run", func(t *testing.T) {
		testRun(t)
	})
}

func testRefresh(t *testing.T) {
	_, cli := newFakeAPI(t)
	doc := page.NewDocument("Pulse", page.DefaultIDs()...)
	d := NewDashboard(cli, doc, time.Minute)
	ctx := context.Background()

	d.RefreshHistoricalData(ctx)
	d.RefreshVolatilityForecast(ctx)
	d.RefreshSentimentAnalysis(ctx)

	require.Equal(t, "<p>Predicted Volatility: 0.1235</p>\n<p>Forecast Period: 7d</p>", region(t, doc, page.ForecastResultID))
	require.Equal(t, "<p>Sentiment Score: 0.50</p>\n<p>Analysis Period: 30d</p>", region(t, doc, page.SentimentResultID))
	require.Equal(t, 1, d.Chart().Live())
	require.Len(t, d.Chart().Current().Labels, 3)
	require.Equal(t, string(d.Chart().Current().HTML()), region(t, doc, page.HistoricalChartID))
}

func testServerErrorIsolated(t *testing.T) {
	cases := map[string]struct {
		path    string
		region  string
		message string
	}{
		"historical": {api.HistoricalDataPath, page.HistoricalChartID, "<p>Error loading historical data. Please try again later.</p>"},
		"forecast":   {api.VolatilityForecastPath, page.ForecastResultID, "<p>Error loading volatility forecast. Please try again later.</p>"},
		"sentiment":  {api.SentimentAnalysisPath, page.SentimentResultID, "<p>Error loading sentiment analysis. Please try again later.</p>"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			fake, cli := newFakeAPI(t)
			doc := page.NewDocument("Pulse", page.DefaultIDs()...)
			d := NewDashboard(cli, doc, time.Minute)
			ctx := context.Background()

			d.RefreshHistoricalData(ctx)
			d.RefreshVolatilityForecast(ctx)
			d.RefreshSentimentAnalysis(ctx)
			before := doc.Snapshot()

			fake.fail(tc.path, http.StatusInternalServerError)
			d.RefreshHistoricalData(ctx)
			d.RefreshVolatilityForecast(ctx)
			d.RefreshSentimentAnalysis(ctx)

			for _, u := range before {
				if u.ID == tc.region {
					require.Equal(t, tc.message, region(t, doc, u.ID))
					continue
				}
				if u.ID == page.HistoricalChartID {
					// a fresh chart was rendered from the same payload
					require.Equal(t, 1, d.Chart().Live())
					continue
				}
				require.Equal(t, u.HTML, region(t, doc, u.ID))
			}
		})
	}
}

func testHistoricalErrorReleasesChart(t *testing.T) {
	fake, cli := newFakeAPI(t)
	doc := page.NewDocument("Pulse", page.DefaultIDs()...)
	d := NewDashboard(cli, doc, time.Minute)

	d.RefreshHistoricalData(context.Background())
	require.Equal(t, 1, d.Chart().Live())

	fake.fail(api.HistoricalDataPath, http.StatusNotFound)
	d.RefreshHistoricalData(context.Background())
	require.Equal(t, 0, d.Chart().Live())
	require.Nil(t, d.Chart().Current())
}

func testMissingCanvas(t *testing.T) {
	_, cli := newFakeAPI(t)
	doc := page.NewDocument("Pulse", page.ForecastResultID, page.SentimentResultID)
	d := NewDashboard(cli, doc, time.Minute)

	require.NotPanics(t, func() {
		d.RefreshHistoricalData(context.Background())
	})
	require.Equal(t, 0, d.Chart().Live())
	require.Empty(t, region(t, doc, page.ForecastResultID))
	require.Empty(t, region(t, doc, page.SentimentResultID))
}

type blockingFetcher struct {
	Fetcher
	calls   atomic.Int64
	release chan struct{}
	started chan struct{}
}

func (b *blockingFetcher) FetchVolatilityForecast(ctx context.Context) (*api.VolatilityForecast, error) {
	if b.calls.Add(1) == 1 {
		close(b.started)
		<-b.release
		return &api.VolatilityForecast{PredictedVolatility: 0.1, ForecastPeriod: "first"}, nil
	}
	return &api.VolatilityForecast{PredictedVolatility: 0.2, ForecastPeriod: "second"}, nil
}

func testStaleResponseDropped(t *testing.T) {
	f := &blockingFetcher{release: make(chan struct{}), started: make(chan struct{})}
	doc := page.NewDocument("Pulse", page.DefaultIDs()...)
	d := NewDashboard(f, doc, time.Minute)

	done := make(chan struct{})
	go func() {
		defer close(done)
		d.RefreshVolatilityForecast(context.Background())
	}()
	<-f.started
	d.RefreshVolatilityForecast(context.Background())
	require.Contains(t, region(t, doc, page.ForecastResultID), "Forecast Period: second")

	close(f.release)
	<-done
	require.Contains(t, region(t, doc, page.ForecastResultID), "Forecast Period: second")
}

func testRun(t *testing.T) {
	fake, cli := newFakeAPI(t)
	doc := page.NewDocument("Pulse", page.DefaultIDs()...)
	d := NewDashboard(cli, doc, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- d.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		return peek(doc, page.SentimentResultID) != "" &&
			peek(doc, page.ForecastResultID) != "" &&
			d.Chart().Live() == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		for _, hits := range fake.hits {
			if hits.Load() < 2 {
				return false
			}
		}
		return true
	}, 4*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
