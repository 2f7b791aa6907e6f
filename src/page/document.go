package page

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io"
	"sync"
)

// Region ids the page provides.
const (
	HistoricalChartID = "historicalChart"
	ForecastResultID  = "forecast-result"
	SentimentResultID = "sentiment-result"
)

var ErrMissingElement = errors.New("missing element")

func DefaultIDs() []string {
	return []string{HistoricalChartID, ForecastResultID, SentimentResultID}
}

// Update is the new inner HTML of one region.
type Update struct {
	ID   string `json:"id"`
	HTML string `json:"html"`
}

// Document is the server-side page: a fixed set of regions, each holding HTML.
type Document struct {
	title string

	mu        sync.RWMutex
	order     []string
	elements  map[string]template.HTML
	listeners map[int]func(Update)
	nextID    int
}

func NewDocument(title string, ids ...string) *Document {
	d := &Document{
		title:     title,
		elements:  make(map[string]template.HTML, len(ids)),
		listeners: make(map[int]func(Update)),
	}
	for _, id := range ids {
		if _, ok := d.elements[id]; ok {
			continue
		}
		d.order = append(d.order, id)
		d.elements[id] = ""
	}
	return d
}

func (d *Document) Has(id string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.elements[id]
	return ok
}

func (d *Document) InnerHTML(id string) (template.HTML, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	html, ok := d.elements[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingElement, id)
	}
	return html, nil
}

// SetInnerHTML replaces the content of region id and notifies listeners.
func (d *Document) SetInnerHTML(id string, html template.HTML) error {
	d.mu.Lock()
	if _, ok := d.elements[id]; !ok {
		d.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrMissingElement, id)
	}
	d.elements[id] = html
	listeners := make([]func(Update), 0, len(d.listeners))
	for _, fn := range d.listeners {
		listeners = append(listeners, fn)
	}
	d.mu.Unlock()

	update := Update{ID: id, HTML: string(html)}
	for _, fn := range listeners {
		fn(update)
	}
	return nil
}

// Subscribe registers fn for every region change. The returned func removes it.
// fn runs on the writer's goroutine and must not block.
func (d *Document) Subscribe(fn func(Update)) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.nextID
	d.nextID++
	d.listeners[id] = fn
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.listeners, id)
	}
}

// Snapshot returns every region in page order.
func (d *Document) Snapshot() []Update {
	d.mu.RLock()
	defer d.mu.RUnlock()
	updates := make([]Update, 0, len(d.order))
	for _, id := range d.order {
		updates = append(updates, Update{ID: id, HTML: string(d.elements[id])})
	}
	return updates
}

type region struct {
	ID   string
	HTML template.HTML
}

func (d *Document) Render(w io.Writer) error {
	snapshot := d.Snapshot()
	regions := make([]region, 0, len(snapshot))
	for _, u := range snapshot {
		regions = append(regions, region{ID: u.ID, HTML: template.HTML(u.HTML)})
	}
	return pageTemplate.Execute(w, struct {
		Title   string
		Regions []region
	}{
		Title:   d.title,
		Regions: regions,
	})
}

func (d *Document) RenderBytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
section { margin-bottom: 2em; }
iframe { border: 0; width: 100%; height: 520px; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{range .Regions}}<section><div id="{{.ID}}">{{.HTML}}</div></section>
{{end}}<script>
(function () {
  if (!window.WebSocket || location.protocol === "file:") { return; }
  var scheme = location.protocol === "https:" ? "wss://" : "ws://";
  function connect() {
    var ws = new WebSocket(scheme + location.host + "/ws");
    ws.onmessage = function (ev) {
      var u = JSON.parse(ev.data);
      var el = document.getElementById(u.id);
      if (el) { el.innerHTML = u.html; }
    };
    ws.onclose = function () { setTimeout(connect, 5000); };
  }
  connect();
})();
</script>
</body>
</html>
`))
