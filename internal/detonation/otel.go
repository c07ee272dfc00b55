package detonation

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/bombtrucks/extension/internal/detonation"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
