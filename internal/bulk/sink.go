package bulk

import (
	"github.com/aleksaelezovic/quadstream/pkg/rdf"
	"github.com/aleksaelezovic/quadstream/pkg/store"
)

// batchSink buffers parsed statements and hands them to the destination in
// batches. A failed write stops the parse; the error is kept in err.
type batchSink struct {
	rdf.Nodes

	dest  store.QuadWriter
	size  int
	batch []*rdf.Quad
	count int
	err   error
}

func newBatchSink(dest store.QuadWriter, size int) *batchSink {
	return &batchSink{dest: dest, size: size, batch: make([]*rdf.Quad, 0, size)}
}

func (s *batchSink) Start() {}

func (s *batchSink) HandleTriple(t *rdf.Triple) bool {
	return s.HandleQuad(t.InGraph(nil))
}

func (s *batchSink) HandleQuad(q *rdf.Quad) bool {
	s.batch = append(s.batch, q)
	if len(s.batch) >= s.size {
		return s.flush()
	}
	return true
}

// End writes whatever is left when the parse succeeded. Statements of a
// failed document that were not flushed yet are dropped.
func (s *batchSink) End(ok bool) {
	if ok && s.err == nil {
		s.flush()
	}
	s.batch = s.batch[:0]
}

func (s *batchSink) flush() bool {
	if len(s.batch) == 0 {
		return true
	}
	if err := s.dest.InsertQuadsBatch(s.batch); err != nil {
		s.err = err
		return false
	}
	s.count += len(s.batch)
	// the destination may keep the slice
	s.batch = make([]*rdf.Quad, 0, s.size)
	return true
}
