package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	claimTransitions   metric.Int64Counter
	claimNumberRetries metric.Int64Counter
	riskAssessments    metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "claims"
	}
	meter := provider.Meter(name)

	claimTransitions, err := meter.Int64Counter("claims_lifecycle_transitions_total")
	if err != nil {
		return nil, err
	}
	claimNumberRetries, err := meter.Int64Counter("claims_number_allocation_retries_total")
	if err != nil {
		return nil, err
	}
	riskAssessments, err := meter.Int64Counter("claims_risk_assessments_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		claimTransitions:   claimTransitions,
		claimNumberRetries: claimNumberRetries,
		riskAssessments:    riskAssessments,
	}, nil
}

// RecordTransition increments lifecycle transition counts.
func (m *Metrics) RecordTransition(ctx context.Context, operation string) {
	if m == nil {
		return
	}
	m.claimTransitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", strings.TrimSpace(operation)),
	))
}

// RecordNumberRetry increments claim-number allocation retry counts.
func (m *Metrics) RecordNumberRetry(ctx context.Context) {
	if m == nil {
		return
	}
	m.claimNumberRetries.Add(ctx, 1)
}

// RecordRiskAssessment increments risk assessment counts.
func (m *Metrics) RecordRiskAssessment(ctx context.Context, overall string) {
	if m == nil {
		return
	}
	m.riskAssessments.Add(ctx, 1, metric.WithAttributes(
		attribute.String("overall_risk", strings.TrimSpace(overall)),
	))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}
