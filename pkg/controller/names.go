package controller

import (
	"strconv"
	"sync/atomic"
)

// NameGenerator hands out unique form names.
type NameGenerator interface {
	Next() string
}

// Counter generates prefix1, prefix2, ... and is safe for concurrent use.
type Counter struct {
	prefix string
	n      atomic.Uint64
}

// NewCounter returns a Counter starting at 1.
func NewCounter(prefix string) *Counter {
	return &Counter{prefix: prefix}
}

// Next returns the next name.
func (c *Counter) Next() string {
	return c.prefix + strconv.FormatUint(c.n.Add(1), 10)
}

// defaultNames backs controllers constructed without WithNameGenerator so
// names stay unique across every such controller in the process.
var defaultNames = NewCounter("form")
