package page

import (
	"pulse/src/common"
	"sync"
)

// SnapshotWriter rewrites the whole page to a file after every region change.
type SnapshotWriter struct {
	doc  *Document
	path string

	// held over render and rename so the file never goes back to an older page
	mu sync.Mutex
}

func NewSnapshotWriter(doc *Document, path string) *SnapshotWriter {
	return &SnapshotWriter{doc: doc, path: path}
}

// Attach subscribes the writer and returns the unsubscribe func.
func (s *SnapshotWriter) Attach() func() {
	return s.doc.Subscribe(func(Update) {
		if err := s.Write(); err != nil {
			common.Logger.Sugar().Errorf("SnapshotWriter Write %s error: %v", s.path, err)
		}
	})
}

func (s *SnapshotWriter) Write() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := s.doc.RenderBytes()
	if err != nil {
		return err
	}
	return common.WriteFileAtomic(s.path, data)
}
