package service

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Stage is a step of a single order mutation.
type Stage string

const (
	StageStarted             Stage = "started"
	StageValidated           Stage = "validated"
	StageReconciled          Stage = "reconciled"
	StageCommitted           Stage = "committed"
	StagePropagated          Stage = "propagated"
	StagePartiallyPropagated Stage = "partially_propagated"
	StageFailed              Stage = "failed"
	// StageUnchanged ends an update that asked for no change, nothing is committed or propagated
	StageUnchanged Stage = "unchanged"
)

// mutation records the stages one create/update/delete passes through on its span and log.
type mutation struct {
	op     string
	span   trace.Span
	logger *zap.Logger
	stage  Stage
}

func newMutation(op string, span trace.Span, logger *zap.Logger) *mutation {
	m := &mutation{
		op:     op,
		span:   span,
		logger: logger.With(zap.String("operation", op)),
	}
	m.advance(StageStarted)
	return m
}

func (m *mutation) advance(stage Stage, fields ...zap.Field) {
	m.stage = stage
	m.span.AddEvent(string(stage))
	m.logger.Debug("order mutation", append(fields, zap.String("stage", string(stage)))...)
}

// fail moves the mutation to StageFailed, nothing was committed.
func (m *mutation) fail(err error) error {
	failedAt := m.stage
	m.stage = StageFailed

	m.span.RecordError(err)
	m.span.SetStatus(codes.Error, err.Error())
	m.span.SetAttributes(
		attribute.String("order.stage", string(StageFailed)),
		attribute.String("order.failed_at", string(failedAt)),
	)

	m.logger.Info("order mutation failed",
		zap.String("stage", string(StageFailed)),
		zap.String("failed_at", string(failedAt)),
		zap.Error(err),
	)

	return err
}

// finish closes a committed mutation with its propagation outcome.
func (m *mutation) finish(failures int) {
	stage := StagePropagated
	if failures > 0 {
		stage = StagePartiallyPropagated
	}

	m.span.SetAttributes(
		attribute.String("order.stage", string(stage)),
		attribute.Int("order.propagation_failures", failures),
	)
	m.span.SetStatus(codes.Ok, "")

	m.advance(stage, zap.Int("propagation_failures", failures))
}

// unchanged closes a mutation that had nothing to write.
func (m *mutation) unchanged() {
	m.span.SetAttributes(attribute.String("order.stage", string(StageUnchanged)))
	m.span.SetStatus(codes.Ok, "")

	m.advance(StageUnchanged)
}
