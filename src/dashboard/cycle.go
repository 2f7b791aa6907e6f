package dashboard

import (
	"context"
	"errors"
	"html/template"
	"pulse/src/common"
	"pulse/src/page"
	"pulse/src/render"
	"sync"
	"sync/atomic"
)

// cycle is one endpoint's fetch-and-render loop. Cycles of the same endpoint may
// overlap; a result is applied only if no later-issued cycle has applied first.
type cycle struct {
	what     string
	regionID string
	doc      *page.Document
	fetch    func(ctx context.Context) (apply func() error, err error)
	onError  func()

	issued  atomic.Uint64
	mu      sync.Mutex
	applied uint64
}

func (c *cycle) run(ctx context.Context) {
	seq := c.issued.Add(1)
	apply, err := c.fetch(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq < c.applied {
		common.Logger.Sugar().Infof("Dashboard %s cycle %d dropped, cycle %d already applied", c.what, seq, c.applied)
		return
	}
	c.applied = seq

	if err == nil {
		err = apply()
		if err == nil {
			return
		}
	}
	common.Logger.Sugar().Errorf("Dashboard %s cycle %d error: %v", c.what, seq, err)
	if errors.Is(err, page.ErrMissingElement) {
		return
	}
	if c.onError != nil {
		c.onError()
	}
	c.showError()
}

func (c *cycle) showError() {
	if err := c.doc.SetInnerHTML(c.regionID, render.ErrorParagraph(c.what)); err != nil {
		common.Logger.Sugar().Errorf("Dashboard %s showError error: %v", c.what, err)
	}
}

func setPanel(doc *page.Document, id string, html template.HTML) func() error {
	return func() error {
		return doc.SetInnerHTML(id, html)
	}
}
