// Package log provides slog construction for the summary tools.
//
// Every record is stamped with the run context (IFO and GPS span) so
// that interleaved logs from parallel fetches remain attributable to a
// run, and warnings are collected so the generated report can list what
// was downgraded under a "warn" error policy.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// Collector wraps an slog.Handler and retains a copy of every record at
// Warn level or above.
//
// A handler wrapper is used rather than a custom logger so collection
// works through slog.SetDefault and any sub-loggers components derive
// with With or WithGroup.
type Collector struct {
	handler slog.Handler

	mu      sync.Mutex
	records []string
}

// NewCollector wraps handler. If handler is nil, slog.Default's handler
// is used.
func NewCollector(handler slog.Handler) *Collector {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &Collector{handler: handler}
}

// Enabled delegates to the underlying handler.
func (c *Collector) Enabled(ctx context.Context, level slog.Level) bool {
	return c.handler.Enabled(ctx, level)
}

// Handle retains Warn+ records and forwards everything.
func (c *Collector) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelWarn {
		line := r.Message
		r.Attrs(func(a slog.Attr) bool {
			line += fmt.Sprintf(" %s=%v", a.Key, a.Value)
			return true
		})
		c.mu.Lock()
		c.records = append(c.records, line)
		c.mu.Unlock()
	}
	return c.handler.Handle(ctx, r)
}

// WithAttrs returns a handler sharing this collector's record store.
func (c *Collector) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &child{parent: c, handler: c.handler.WithAttrs(attrs)}
}

// WithGroup returns a handler sharing this collector's record store.
func (c *Collector) WithGroup(name string) slog.Handler {
	return &child{parent: c, handler: c.handler.WithGroup(name)}
}

// Warnings returns a copy of the collected Warn+ records, in order.
func (c *Collector) Warnings() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.records))
	copy(out, c.records)
	return out
}

// child is a derived handler that still records into its parent.
type child struct {
	parent  *Collector
	handler slog.Handler
}

func (h *child) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *child) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelWarn {
		line := r.Message
		r.Attrs(func(a slog.Attr) bool {
			line += fmt.Sprintf(" %s=%v", a.Key, a.Value)
			return true
		})
		h.parent.mu.Lock()
		h.parent.records = append(h.parent.records, line)
		h.parent.mu.Unlock()
	}
	return h.handler.Handle(ctx, r)
}

func (h *child) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &child{parent: h.parent, handler: h.handler.WithAttrs(attrs)}
}

func (h *child) WithGroup(name string) slog.Handler {
	return &child{parent: h.parent, handler: h.handler.WithGroup(name)}
}

// New creates a text logger writing to w, with a Collector retaining
// warnings. Verbose selects Debug level, otherwise Info. The attrs,
// typically the IFO and span of the run, are stamped onto every record
// beneath any groups a component may open later.
func New(w io.Writer, verbose bool, attrs ...slog.Attr) (*slog.Logger, *Collector) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	var handler slog.Handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	if len(attrs) > 0 {
		handler = handler.WithAttrs(attrs)
	}
	collector := NewCollector(handler)
	return slog.New(collector), collector
}
