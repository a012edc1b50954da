package core

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"registrar/internal/infra/persistence/memory"
	"registrar/pkg/domain"
)

// newSeededService returns a service over a memory store holding the
// reference data set: three students, three courses, six enrollments.
func newSeededService(t *testing.T, policy domain.DeletePolicy, opts ...ServiceOption) (*Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore(NewDefaultRulesEngine(), memory.WithDeletePolicy(policy))
	svc := NewService(store, opts...)
	seedReference(t, svc.Mutations())
	return svc, store
}

func seedReference(t *testing.T, m *Mutations) {
	t.Helper()
	ctx := context.Background()
	students := map[string]int64{}
	for _, s := range []struct {
		name string
		age  int
	}{{"Ali", 20}, {"Sara", 22}, {"Ahmed", 19}} {
		created, err := m.AddStudent(ctx, s.name, s.age)
		if err != nil {
			t.Fatalf("add student %s: %v", s.name, err)
		}
		students[s.name] = created.ID
	}
	courses := map[string]int64{}
	for _, c := range []struct {
		title   string
		credits int
	}{{"Programming", 3}, {"Database Systems", 4}, {"Web Development", 3}} {
		created, err := m.AddCourse(ctx, c.title, c.credits)
		if err != nil {
			t.Fatalf("add course %s: %v", c.title, err)
		}
		courses[c.title] = created.ID
	}
	for _, e := range []struct{ student, course, grade string }{
		{"Ali", "Programming", "A"},
		{"Ali", "Database Systems", "B"},
		{"Sara", "Database Systems", "A"},
		{"Sara", "Web Development", "B"},
		{"Ahmed", "Programming", "C"},
		{"Ahmed", "Web Development", "A"},
	} {
		if _, err := m.Enroll(ctx, students[e.student], courses[e.course], e.grade); err != nil {
			t.Fatalf("enroll %s in %s: %v", e.student, e.course, err)
		}
	}
}

func studentNames(students []Student) []string {
	out := make([]string, 0, len(students))
	for _, s := range students {
		out = append(out, s.Name)
	}
	return out
}

func courseTitles(courses []Course) []string {
	out := make([]string, 0, len(courses))
	for _, c := range courses {
		out = append(out, c.Title)
	}
	return out
}

func assertNames(t *testing.T, label string, got, want []string) {
	t.Helper()
	if !slices.Equal(got, want) {
		t.Fatalf("%s: expected %v, got %v", label, want, got)
	}
}

// assertReferentialIntegrity fails when any enrollment references a missing
// student or course.
func assertReferentialIntegrity(t *testing.T, store PersistentStore) {
	t.Helper()
	for e := range store.Enrollments() {
		if _, ok := store.GetStudent(e.StudentID); !ok {
			t.Fatalf("enrollment %d references missing student %d", e.ID, e.StudentID)
		}
		if _, ok := store.GetCourse(e.CourseID); !ok {
			t.Fatalf("enrollment %d references missing course %d", e.ID, e.CourseID)
		}
	}
}

type logEntry struct {
	level string
	msg   string
	args  []any
}

type captureLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *captureLogger) add(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, args: args})
}

func (l *captureLogger) Debug(msg string, args ...any) { l.add("debug", msg, args) }
func (l *captureLogger) Info(msg string, args ...any)  { l.add("info", msg, args) }
func (l *captureLogger) Warn(msg string, args ...any)  { l.add("warn", msg, args) }
func (l *captureLogger) Error(msg string, args ...any) { l.add("error", msg, args) }

func (l *captureLogger) count(level, msg string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.entries {
		if e.level == level && e.msg == msg {
			n++
		}
	}
	return n
}

type auditRecorderStub struct {
	entries []AuditEntry
}

func (a *auditRecorderStub) Record(_ context.Context, entry AuditEntry) {
	a.entries = append(a.entries, entry)
}

type observation struct {
	operation string
	success   bool
}

type metricsStub struct {
	observations []observation
}

func (m *metricsStub) Observe(_ context.Context, operation string, success bool, _ time.Duration) {
	m.observations = append(m.observations, observation{operation, success})
}

type tracerStub struct {
	started []string
	ended   []error
}

func (t *tracerStub) Start(ctx context.Context, operation string) (context.Context, TraceSpan) {
	t.started = append(t.started, operation)
	return ctx, spanStub{tracer: t}
}

type spanStub struct{ tracer *tracerStub }

func (s spanStub) End(err error) { s.tracer.ended = append(s.tracer.ended, err) }
