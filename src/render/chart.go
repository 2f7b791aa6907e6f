package render

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"pulse/src/api"
	"pulse/src/common"
	"pulse/src/page"
	"sync"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

const (
	PriceAxisName     = "Price (USD)"
	SentimentAxisName = "Sentiment"

	priceColor     = "rgb(75, 192, 192)"
	sentimentColor = "rgb(255, 99, 132)"
)

type ChartSeries struct {
	Name       string
	YAxisIndex int
	Values     []float64
}

// ChartHandle is one rendered chart bound to the canvas region.
type ChartHandle struct {
	Labels   []string
	Series   []ChartSeries
	line     *charts.Line
	html     template.HTML
	released bool
}

func (h *ChartHandle) Chart() *charts.Line {
	return h.line
}

func (h *ChartHandle) HTML() template.HTML {
	return h.html
}

func (h *ChartHandle) Released() bool {
	return h.released
}

// ChartRenderer owns the single chart slot of the canvas region.
type ChartRenderer struct {
	doc      *page.Document
	canvasID string

	mu      sync.Mutex
	current *ChartHandle
	live    int
}

func NewChartRenderer(doc *page.Document) *ChartRenderer {
	return &ChartRenderer{
		doc:      doc,
		canvasID: page.HistoricalChartID,
	}
}

// Render replaces the bound chart with one built from series. A missing canvas is
// logged and reported, nothing else changes.
func (r *ChartRenderer) Render(series *api.HistoricalSeries) error {
	if !r.doc.Has(r.canvasID) {
		err := fmt.Errorf("%w: canvas %q", page.ErrMissingElement, r.canvasID)
		common.Logger.Sugar().Errorf("ChartRenderer Render error: %v", err)
		return err
	}

	handle, err := r.build(series)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.releaseLocked()
	r.current = handle
	r.live++
	common.Logger.Sugar().Debugf("ChartRenderer Render %d points", len(handle.Labels))
	return r.doc.SetInnerHTML(r.canvasID, handle.html)
}

// Release tears down the bound chart, if any.
func (r *ChartRenderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.releaseLocked()
}

func (r *ChartRenderer) releaseLocked() {
	if r.current == nil {
		return
	}
	r.current.released = true
	r.current.line = nil
	r.current = nil
	r.live--
}

func (r *ChartRenderer) Current() *ChartHandle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Live is the number of chart instances bound to the canvas, zero or one.
func (r *ChartRenderer) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.live
}

func (r *ChartRenderer) build(series *api.HistoricalSeries) (*ChartHandle, error) {
	labels := append([]string(nil), series.Timestamps...)
	handle := &ChartHandle{
		Labels: labels,
		Series: []ChartSeries{
			{Name: PriceAxisName, YAxisIndex: 0, Values: append([]float64(nil), series.Prices...)},
			{Name: SentimentAxisName, YAxisIndex: 1, Values: append([]float64(nil), series.Sentiments...)},
		},
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Historical Data",
			ChartID:   r.canvasID,
			Width:     "100%",
			Height:    "480px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title: "BTC Price & Sentiment",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(true),
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Type: "time",
			AxisLabel: &opts.AxisLabel{
				Formatter: "{yyyy}-{MM}-{dd}",
			},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:  PriceAxisName,
			Type:  "value",
			Show:  opts.Bool(true),
			Scale: opts.Bool(true),
		}),
	)
	// The second y axis of a grid is placed on the right.
	line.ExtendYAxis(opts.YAxis{
		Name:  SentimentAxisName,
		Type:  "value",
		Show:  opts.Bool(true),
		Scale: opts.Bool(true),
		SplitLine: &opts.SplitLine{
			Show: opts.Bool(false),
		},
	})
	line.SetXAxis(labels)

	colors := []string{priceColor, sentimentColor}
	for i, s := range handle.Series {
		data := make([]opts.LineData, 0, len(s.Values))
		for j, v := range s.Values {
			data = append(data, opts.LineData{Value: []interface{}{labels[j], v}})
		}
		line.AddSeries(s.Name, data,
			charts.WithLineChartOpts(opts.LineChart{YAxisIndex: s.YAxisIndex}),
			charts.WithLineStyleOpts(opts.LineStyle{Color: colors[i]}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: colors[i]}),
		)
	}

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	handle.line = line
	handle.html = template.HTML(`<iframe title="Historical Data" srcdoc="` + html.EscapeString(buf.String()) + `"></iframe>`)
	return handle, nil
}
