package core

import (
	"context"
	"time"

	"registrar/internal/infra/persistence/memory"
)

// Service owns the Entity Store and exposes the report catalogue. Every
// catalogue call is traced, timed, logged and, for writes, audited.
type Service struct {
	store     PersistentStore
	mutations *Mutations
	clock     Clock
	logger    Logger
	metrics   MetricsRecorder
	tracer    Tracer
	audit     AuditRecorder
}

// NewService constructs a service backed by the supplied store.
func NewService(store PersistentStore, opts ...ServiceOption) *Service {
	o := defaultServiceOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Service{
		store:     store,
		mutations: NewMutations(store, o.logger),
		clock:     o.clock,
		logger:    o.logger,
		metrics:   o.metrics,
		tracer:    o.tracer,
		audit:     o.audit,
	}
}

// NewInMemoryService creates a service and in-memory store with the given rules engine.
func NewInMemoryService(engine *RulesEngine, opts ...ServiceOption) *Service {
	return NewService(memory.NewStore(engine), opts...)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore {
	return s.store
}

// Mutations returns the identity-based write API sharing the service store.
func (s *Service) Mutations() *Mutations {
	return s.mutations
}

// outcome describes what a write touched, for the audit trail.
type outcome struct {
	id       int64
	affected int
}

func (s *Service) run(ctx context.Context, op string, fn func(context.Context) (outcome, error)) error {
	ctx, span := s.tracer.Start(ctx, op)
	start := time.Now()
	out, err := fn(ctx)
	duration := time.Since(start)
	span.End(err)
	s.metrics.Observe(ctx, op, err == nil, duration)
	s.recordAudit(ctx, op, out, duration, err)
	if err != nil {
		s.logger.Error("operation failed", "operation", op, "error", err)
		return err
	}
	s.logger.Debug("operation completed", "operation", op, "duration", duration)
	return nil
}

type auditTarget struct {
	entity EntityType
	action Action
}

var auditOperations = map[string]auditTarget{
	"add_student":                   {EntityStudent, ActionCreate},
	"add_course":                    {EntityCourse, ActionCreate},
	"enroll_student":                {EntityEnrollment, ActionCreate},
	"update_student_age":            {EntityStudent, ActionUpdate},
	"delete_course":                 {EntityCourse, ActionDelete},
	"delete_student":                {EntityStudent, ActionDelete},
	"update_grade":                  {EntityEnrollment, ActionUpdate},
	"delete_enrollments_for_course": {EntityEnrollment, ActionDelete},
}

// recordAudit writes an entry for write operations; reads are not audited.
func (s *Service) recordAudit(ctx context.Context, op string, out outcome, duration time.Duration, err error) {
	target, ok := auditOperations[op]
	if !ok {
		return
	}
	status := AuditStatusSuccess
	if err != nil {
		status = AuditStatusError
	}
	s.audit.Record(ctx, AuditEntry{
		Operation: op,
		Entity:    target.entity,
		Action:    target.action,
		EntityID:  out.id,
		Affected:  out.affected,
		Status:    status,
		Duration:  duration,
		Timestamp: s.clock.Now(),
	})
}
