package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "verigate"

// Metrics holds all metric instruments for the verification pipeline.
type Metrics struct {
	CasesIngested      metric.Int64Counter
	CasesAutoApproved  metric.Int64Counter
	CasesAutoRejected  metric.Int64Counter
	CasesQueued        metric.Int64Counter
	DecisionsApplied   metric.Int64Counter
	DecisionConflicts  metric.Int64Counter
	ScoringDuration    metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.CasesIngested, err = meter.Int64Counter("verigate.cases.ingested",
		metric.WithDescription("Number of documents ingested"))
	if err != nil {
		return nil, err
	}

	m.CasesAutoApproved, err = meter.Int64Counter("verigate.cases.auto_approved",
		metric.WithDescription("Number of cases auto-approved by the router"))
	if err != nil {
		return nil, err
	}

	m.CasesAutoRejected, err = meter.Int64Counter("verigate.cases.auto_rejected",
		metric.WithDescription("Number of cases auto-rejected by the router"))
	if err != nil {
		return nil, err
	}

	m.CasesQueued, err = meter.Int64Counter("verigate.cases.queued",
		metric.WithDescription("Number of cases placed in the review queue"))
	if err != nil {
		return nil, err
	}

	m.DecisionsApplied, err = meter.Int64Counter("verigate.decisions.applied",
		metric.WithDescription("Number of human decisions finalized"))
	if err != nil {
		return nil, err
	}

	m.DecisionConflicts, err = meter.Int64Counter("verigate.decisions.conflicts",
		metric.WithDescription("Number of decisions rejected because the case was already resolved"))
	if err != nil {
		return nil, err
	}

	m.ScoringDuration, err = meter.Float64Histogram("verigate.scoring.duration_seconds",
		metric.WithDescription("Scoring engine call duration in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
