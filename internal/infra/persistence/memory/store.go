// Package memory provides the in-memory implementation of the registrar
// Entity Store. The sqlite and postgres backends embed it and snapshot its
// state after every commit.
package memory

import (
	"context"
	"iter"
	"slices"
	"sync"

	"registrar/pkg/domain"
)

// Compile-time contract assertions ensuring memory.Store adheres to the domain persistence interfaces.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Student aliases domain.Student for in-memory persistence operations.
	Student = domain.Student
	// Course aliases domain.Course.
	Course = domain.Course
	// Enrollment aliases domain.Enrollment.
	Enrollment = domain.Enrollment
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
)

// Store provides an in-memory transactional store for the registrar domain.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	policy domain.DeletePolicy
}

// Option configures a Store.
type Option func(*Store)

// WithDeletePolicy selects how deletes treat dependent enrollments.
func WithDeletePolicy(p domain.DeletePolicy) Option {
	return func(s *Store) {
		if p != "" {
			s.policy = p
		}
	}
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine, opts ...Option) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	s := &Store{
		state:  newMemoryState(),
		engine: engine,
		policy: domain.DeleteCascade,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(migrateSnapshot(snapshot))
}

// RulesEngine exposes the currently configured engine.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// DeletePolicy reports the configured delete policy.
func (s *Store) DeletePolicy() domain.DeletePolicy {
	return s.policy
}

// RunInTransaction executes fn within a transactional copy of the store state.
// The copy replaces the live state only when fn and every blocking rule pass.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	res, _, err := s.RunInTransactionWithChanges(ctx, fn)
	return res, err
}

// RunInTransactionWithChanges is RunInTransaction that also returns the
// changes the committed transaction recorded, cascaded deletes included.
// Durable backends use them to rewrite only the touched buckets.
func (s *Store) RunInTransactionWithChanges(ctx context.Context, fn func(tx Transaction) error) (Result, []Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		state:  s.state.clone(),
		policy: s.policy,
	}

	if err := fn(tx); err != nil {
		return Result{}, nil, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, nil, err
		}
		result = res
		if res.HasBlocking() {
			return res, nil, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, slices.Clone(tx.changes), nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	snapshot := s.state.clone()
	s.mu.RUnlock()
	return fn(newTransactionView(&snapshot))
}

// GetStudent returns the student with the given identity.
func (s *Store) GetStudent(id int64) (Student, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.students.get(id)
}

// GetCourse returns the course with the given identity.
func (s *Store) GetCourse(id int64) (Course, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.courses.get(id)
}

// GetEnrollment returns the enrollment with the given identity.
func (s *Store) GetEnrollment(id int64) (Enrollment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.enrollments.get(id)
}

// Students iterates a snapshot of all students in insertion order.
func (s *Store) Students() iter.Seq[Student] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.students.values()
}

// Courses iterates a snapshot of all courses in insertion order.
func (s *Store) Courses() iter.Seq[Course] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.courses.values()
}

// Enrollments iterates a snapshot of all enrollments in insertion order.
func (s *Store) Enrollments() iter.Seq[Enrollment] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.enrollments.values()
}

// values freezes the current row order so the returned sequence is unaffected
// by later commits.
func (t table[T]) values() iter.Seq[T] {
	return slices.Values(slices.Collect(t.all()))
}
