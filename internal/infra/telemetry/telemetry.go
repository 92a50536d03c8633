package telemetry

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/infra/config"
)

// Provider represents a telemetry provider handle. Request-level metrics
// live in the HTTP middleware; this covers the business counters only.
type Provider struct {
	readingsSubmitted prometheus.Counter
	sessionsActive    prometheus.Gauge
}

// Attach configures telemetry exporters and returns a provider handle.
func Attach(_ context.Context, cfg *config.AppConfig) (*Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	return &Provider{
		readingsSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "monitoring",
			Name:      "readings_submitted_total",
			Help:      "Total number of accepted reading submissions",
		}),
		sessionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: "monitoring",
			Name:      "sessions_active",
			Help:      "Number of users currently logged in",
		}),
	}, nil
}

// ReadingSubmitted increments the accepted-submission counter.
func (p *Provider) ReadingSubmitted() {
	if p == nil {
		return
	}
	p.readingsSubmitted.Inc()
}

// SessionOpened increments the active-session gauge.
func (p *Provider) SessionOpened() {
	if p == nil {
		return
	}
	p.sessionsActive.Inc()
}

// SessionClosed decrements the active-session gauge.
func (p *Provider) SessionClosed() {
	if p == nil {
		return
	}
	p.sessionsActive.Dec()
}
