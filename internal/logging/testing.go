package logging

import (
	"bytes"
	"context"
)

// NewTestContext returns a context carrying a logger configured with flags,
// plus the buffer the logger writes to so tests can assert on output.
func NewTestContext(flags Flags) (context.Context, *bytes.Buffer) {
	var buf bytes.Buffer
	l := NewLogger(&buf)
	Configure(l, flags)
	return WithLogger(context.Background(), l), &buf
}
