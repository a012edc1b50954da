package memory

import (
	"iter"
	"maps"
	"slices"
)

// table keeps rows keyed by identity together with their insertion order and
// the identity sequence of the collection.
type table[T any] struct {
	rows  map[int64]T
	order []int64
	seq   int64
}

func newTable[T any]() table[T] {
	return table[T]{rows: make(map[int64]T)}
}

func (t table[T]) clone() table[T] {
	return table[T]{
		rows:  maps.Clone(t.rows),
		order: slices.Clone(t.order),
		seq:   t.seq,
	}
}

func (t *table[T]) nextID() int64 {
	t.seq++
	return t.seq
}

func (t *table[T]) insert(id int64, v T) {
	if _, exists := t.rows[id]; !exists {
		t.order = append(t.order, id)
	}
	t.rows[id] = v
	if id > t.seq {
		t.seq = id
	}
}

func (t *table[T]) replace(id int64, v T) {
	t.rows[id] = v
}

func (t *table[T]) remove(id int64) {
	if _, ok := t.rows[id]; !ok {
		return
	}
	delete(t.rows, id)
	if i := slices.Index(t.order, id); i >= 0 {
		t.order = slices.Delete(t.order, i, i+1)
	}
}

func (t table[T]) get(id int64) (T, bool) {
	v, ok := t.rows[id]
	return v, ok
}

func (t table[T]) size() int { return len(t.order) }

// all yields rows in insertion order.
func (t table[T]) all() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, id := range t.order {
			if !yield(t.rows[id]) {
				return
			}
		}
	}
}

type memoryState struct {
	students    table[Student]
	courses     table[Course]
	enrollments table[Enrollment]
}

func newMemoryState() memoryState {
	return memoryState{
		students:    newTable[Student](),
		courses:     newTable[Course](),
		enrollments: newTable[Enrollment](),
	}
}

func (s memoryState) clone() memoryState {
	return memoryState{
		students:    s.students.clone(),
		courses:     s.courses.clone(),
		enrollments: s.enrollments.clone(),
	}
}

// Snapshot captures a point-in-time copy of the store state, including the
// identity sequences so a reloaded store never hands out a used identity.
type Snapshot struct {
	Students    []Student    `json:"students"`
	Courses     []Course     `json:"courses"`
	Enrollments []Enrollment `json:"enrollments"`
	Sequences   Sequences    `json:"sequences"`
}

// Sequences records the last identity issued per collection.
type Sequences struct {
	Students    int64 `json:"students"`
	Courses     int64 `json:"courses"`
	Enrollments int64 `json:"enrollments"`
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	return Snapshot{
		Students:    slices.Collect(state.students.all()),
		Courses:     slices.Collect(state.courses.all()),
		Enrollments: slices.Collect(state.enrollments.all()),
		Sequences: Sequences{
			Students:    state.students.seq,
			Courses:     state.courses.seq,
			Enrollments: state.enrollments.seq,
		},
	}
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	for _, v := range s.Students {
		state.students.insert(v.ID, v)
	}
	for _, v := range s.Courses {
		state.courses.insert(v.ID, v)
	}
	for _, v := range s.Enrollments {
		state.enrollments.insert(v.ID, v)
	}
	state.students.seq = max(state.students.seq, s.Sequences.Students)
	state.courses.seq = max(state.courses.seq, s.Sequences.Courses)
	state.enrollments.seq = max(state.enrollments.seq, s.Sequences.Enrollments)
	return state
}

// migrateSnapshot normalises snapshots written by older builds: rows without
// a positive identity are dropped, the first row wins on duplicate identities
// and sequences are raised to at least the largest identity present.
func migrateSnapshot(snapshot Snapshot) Snapshot {
	snapshot.Students = dedupeByID(snapshot.Students, func(v Student) int64 { return v.ID })
	snapshot.Courses = dedupeByID(snapshot.Courses, func(v Course) int64 { return v.ID })
	snapshot.Enrollments = dedupeByID(snapshot.Enrollments, func(v Enrollment) int64 { return v.ID })
	snapshot.Sequences.Students = max(snapshot.Sequences.Students, maxID(snapshot.Students, func(v Student) int64 { return v.ID }))
	snapshot.Sequences.Courses = max(snapshot.Sequences.Courses, maxID(snapshot.Courses, func(v Course) int64 { return v.ID }))
	snapshot.Sequences.Enrollments = max(snapshot.Sequences.Enrollments, maxID(snapshot.Enrollments, func(v Enrollment) int64 { return v.ID }))
	return snapshot
}

func dedupeByID[T any](values []T, id func(T) int64) []T {
	out := make([]T, 0, len(values))
	seen := make(map[int64]struct{}, len(values))
	for _, v := range values {
		k := id(v)
		if k <= 0 {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out
}

func maxID[T any](values []T, id func(T) int64) int64 {
	var hi int64
	for _, v := range values {
		hi = max(hi, id(v))
	}
	return hi
}
