// Package revalidate forwards "path is stale" signals to the consumers that
// cache rendered views. Paths are opaque tokens supplied by the caller.
package revalidate

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/yigit/bojio/internal/pkg/metrics"
)

// Notifier receives one signal per successful mutation
type Notifier interface {
	PathStale(ctx context.Context, path string) error
}

// Func adapts a function to Notifier
type Func func(ctx context.Context, path string) error

func (f Func) PathStale(ctx context.Context, path string) error {
	return f(ctx, path)
}

// Nop discards signals
var Nop Notifier = Func(func(context.Context, string) error { return nil })

// Log writes each signal to the logger
type Log struct {
	Logger zerolog.Logger
}

func (l Log) PathStale(_ context.Context, path string) error {
	l.Logger.Debug().Str("path", path).Msg("Path revalidated")
	return nil
}

type named struct {
	name string
	Notifier
}

// Named labels a sink for metrics
func Named(name string, n Notifier) Notifier {
	return named{name: name, Notifier: n}
}

type multi []Notifier

// Multi fans a signal out to every sink. All sinks are tried; their errors
// are joined.
func Multi(sinks ...Notifier) Notifier {
	return multi(sinks)
}

func (m multi) PathStale(ctx context.Context, path string) error {
	var errs []error
	for _, n := range m {
		sink := "unnamed"
		if nn, ok := n.(named); ok {
			sink = nn.name
		}

		if err := n.PathStale(ctx, path); err != nil {
			metrics.Revalidations.WithLabelValues(sink, "error").Inc()
			errs = append(errs, err)
			continue
		}
		metrics.Revalidations.WithLabelValues(sink, "ok").Inc()
	}
	return errors.Join(errs...)
}
