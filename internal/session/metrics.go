package session

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/plumeview/plumeview/internal/session"

// Metrics holds the render pipeline's OpenTelemetry instruments.
type Metrics struct {
	renderDuration metric.Float64Histogram
	pointsRendered metric.Int64Counter
	timestepsShown metric.Int64Counter
}

// NewMetrics creates render pipeline metrics instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)

	renderDuration, err := meter.Float64Histogram(
		"render.timestep.duration",
		metric.WithDescription("Duration of a full timestep render fan-out in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	pointsRendered, err := meter.Int64Counter(
		"render.points.total",
		metric.WithDescription("Total forecast sample points handed to layers"),
		metric.WithUnit("{point}"),
	)
	if err != nil {
		return nil, err
	}

	timestepsShown, err := meter.Int64Counter(
		"render.timesteps.total",
		metric.WithDescription("Total timestep transitions rendered"),
		metric.WithUnit("{timestep}"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		renderDuration: renderDuration,
		pointsRendered: pointsRendered,
		timestepsShown: timestepsShown,
	}, nil
}

func (m *Metrics) recordRender(index int, points int, d time.Duration) {
	if m == nil {
		return
	}
	ctx := context.Background()
	attrs := metric.WithAttributes(attribute.Int("timestep", index))
	m.renderDuration.Record(ctx, d.Seconds(), attrs)
	m.pointsRendered.Add(ctx, int64(points))
	m.timestepsShown.Add(ctx, 1)
}
