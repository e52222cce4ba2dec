// Package observability brings up tracing, continuous profiling and the pprof
// listener for the API process and tears them down in reverse order.
package observability

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/riskibarqy/competition-engine/internal/config"
	"github.com/riskibarqy/competition-engine/internal/platform/logging"
)

type stopFunc func(context.Context) error

// Runtime holds whatever Start enabled.
type Runtime struct {
	logger *logging.Logger
	names  []string
	stops  []stopFunc
}

// Start enables each component its config switch allows. On error every
// component already started is stopped before returning.
func Start(ctx context.Context, cfg config.Config, logger *logging.Logger) (*Runtime, error) {
	if logger == nil {
		logger = logging.Default()
	}
	rt := &Runtime{logger: logger}

	steps := []struct {
		name  string
		start func(config.Config, *logging.Logger) (stopFunc, error)
	}{
		{"uptrace", startTracing},
		{"pyroscope", startProfiling},
		{"pprof", startPprof},
	}
	for _, step := range steps {
		stop, err := step.start(cfg, logger)
		if err != nil {
			_ = rt.Shutdown(ctx)
			return nil, errors.Wrapf(err, "start %s", step.name)
		}
		if stop != nil {
			rt.names = append(rt.names, step.name)
			rt.stops = append(rt.stops, stop)
		}
	}
	return rt, nil
}

// Enabled lists started components in start order.
func (rt *Runtime) Enabled() []string {
	if rt == nil {
		return nil
	}
	return append([]string(nil), rt.names...)
}

// Shutdown stops components newest first and reports every failure.
func (rt *Runtime) Shutdown(ctx context.Context) error {
	if rt == nil {
		return nil
	}
	var errs error
	for i := len(rt.stops) - 1; i >= 0; i-- {
		if err := rt.stops[i](ctx); err != nil {
			rt.logger.WarnContext(ctx, "observability shutdown failed", "component", rt.names[i], "error", err)
			errs = errors.CombineErrors(errs, errors.Wrapf(err, "stop %s", rt.names[i]))
		}
	}
	rt.names, rt.stops = nil, nil
	return errs
}
