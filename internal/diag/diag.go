// Package diag holds the conversion error taxonomy and the diagnostics
// channel through which sub-element failures are reported.
package diag

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// FormatError reports that an input package could not be parsed at all.
type FormatError struct {
	Op  string
	Err error
}

func (e *FormatError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("format error during %s", e.Op)
	}
	return fmt.Sprintf("format error during %s: %v", e.Op, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// Format wraps err as a *FormatError.
func Format(op string, err error) error {
	return &FormatError{Op: op, Err: err}
}

// IOError reports a stream open, read or write failure.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("io error during %s", e.Op)
	}
	return fmt.Sprintf("io error during %s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// IO wraps err as an *IOError.
func IO(op string, err error) error {
	return &IOError{Op: op, Err: err}
}

// IsFormat reports whether err carries a *FormatError.
func IsFormat(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

// IsIO reports whether err carries an *IOError.
func IsIO(err error) bool {
	var ie *IOError
	return errors.As(err, &ie)
}

// Warning is a partial-content failure: one picture, declaration, run or
// cell could not be converted and a fallback was used instead.
type Warning struct {
	Component string // importer, renderer, markup, exporter
	Element   string // what was being converted, e.g. "picture rId7"
	Err       error
}

func (w Warning) String() string {
	if w.Err == nil {
		return fmt.Sprintf("%s: %s", w.Component, w.Element)
	}
	return fmt.Sprintf("%s: %s: %v", w.Component, w.Element, w.Err)
}

// Sink receives warnings. A nil Sink discards them.
type Sink func(Warning)

// Emit sends a warning to s when s is non-nil.
func (s Sink) Emit(component, element string, err error) {
	if s == nil {
		return
	}
	s(Warning{Component: component, Element: element, Err: err})
}

// Collector accumulates warnings from one conversion.
type Collector struct {
	mu       sync.Mutex
	warnings []Warning
}

// Sink returns a Sink that appends to the collector.
func (c *Collector) Sink() Sink {
	return func(w Warning) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.warnings = append(c.warnings, w)
	}
}

// Warnings returns a copy of the collected warnings.
func (c *Collector) Warnings() []Warning {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Warning, len(c.warnings))
	copy(out, c.warnings)
	return out
}

// Strings renders the collected warnings for JSON responses.
func (c *Collector) Strings() []string {
	ws := c.Warnings()
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.String()
	}
	return out
}

// SlogSink logs each warning at Warn level.
func SlogSink(log *slog.Logger) Sink {
	return func(w Warning) {
		args := []any{"component", w.Component, "element", w.Element}
		if w.Err != nil {
			args = append(args, "error", w.Err)
		}
		log.Warn("partial content", args...)
	}
}

// Tee fans a warning out to every non-nil sink.
func Tee(sinks ...Sink) Sink {
	return func(w Warning) {
		for _, s := range sinks {
			if s != nil {
				s(w)
			}
		}
	}
}
