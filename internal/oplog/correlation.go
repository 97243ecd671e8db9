package oplog

import (
	"sync"

	"github.com/GoPolymarket/oplog/internal/model"
)

// Correlation links the pre- and post-invocation phases of one request. It is
// owned by the goroutine running Around and recycled once released.
type Correlation struct {
	Request   *model.RequestInfo
	Operation *model.OperationInfo
	pending   string
	released  bool
}

var correlationPool = sync.Pool{
	New: func() any { return new(Correlation) },
}

func acquireCorrelation() *Correlation {
	c := correlationPool.Get().(*Correlation)
	c.released = false
	return c
}

func (c *Correlation) SetPending(text string) {
	c.pending = text
}

func (c *Correlation) Pending() string {
	return c.pending
}

// release clears the correlation and returns it to the pool. Calling it more
// than once is a no-op.
func (c *Correlation) release() {
	if c.released {
		return
	}
	c.Request = nil
	c.Operation = nil
	c.pending = ""
	c.released = true
	correlationPool.Put(c)
}
