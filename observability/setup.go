package observability

import (
	"context"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/multierr"

	"github.com/kbukum/wirekit/config"
)

// Providers holds the initialized OpenTelemetry providers. Sections disabled
// in the configuration leave their provider nil.
type Providers struct {
	Tracer *sdktrace.TracerProvider
	Meter  *sdkmetric.MeterProvider
}

// Shutdown flushes and stops every initialized provider.
func (p *Providers) Shutdown(ctx context.Context) error {
	var errs error
	if p.Tracer != nil {
		errs = multierr.Append(errs, p.Tracer.Shutdown(ctx))
	}
	if p.Meter != nil {
		errs = multierr.Append(errs, p.Meter.Shutdown(ctx))
	}
	return errs
}

// Init initializes tracing and metrics from the loaded configuration.
// Disabled sections are skipped. If the meter fails after the tracer was
// initialized, the tracer is shut down before returning.
func Init(ctx context.Context, cfg *config.Config) (*Providers, error) {
	p := &Providers{}

	if cfg.Tracing.Enabled {
		tp, err := InitTracer(ctx, TracerConfig{
			ServiceName:    cfg.Name,
			ServiceVersion: "1.0.0",
			Environment:    cfg.Environment,
			Endpoint:       cfg.Tracing.Endpoint,
			Insecure:       cfg.Tracing.Insecure,
			SampleRate:     cfg.Tracing.SampleRate,
		})
		if err != nil {
			return nil, err
		}
		p.Tracer = tp
	}

	if cfg.Metrics.Enabled {
		mp, err := InitMeter(ctx, &MeterConfig{
			ServiceName:    cfg.Name,
			ServiceVersion: "1.0.0",
			Environment:    cfg.Environment,
			Endpoint:       cfg.Metrics.Endpoint,
			Insecure:       cfg.Metrics.Insecure,
			Interval:       cfg.Metrics.Interval,
		})
		if err != nil {
			return nil, multierr.Append(err, p.Shutdown(ctx))
		}
		p.Meter = mp
	}

	return p, nil
}
