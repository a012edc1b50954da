// Package domain defines the academic records entities, typed errors,
// persistence contracts and rule evaluation primitives used by registrar.
package domain

// EntityType identifies the type of record stored in the registrar domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityStudent identifies a student record.
	EntityStudent EntityType = "student"
	// EntityCourse identifies a course record.
	EntityCourse EntityType = "course"
	// EntityEnrollment identifies the link between a student and a course.
	EntityEnrollment EntityType = "enrollment"
)

// EntityTypes lists every entity kind in store order.
func EntityTypes() []EntityType {
	return []EntityType{EntityStudent, EntityCourse, EntityEnrollment}
}

// Valid reports whether the entity type is one of the known kinds.
func (t EntityType) Valid() bool {
	switch t {
	case EntityStudent, EntityCourse, EntityEnrollment:
		return true
	default:
		return false
	}
}

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Student is a person who may enroll in courses. An empty Name means the
// name is absent.
type Student struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Age  int    `json:"age" validate:"gte=0"`
}

// Course is a unit of study. Titles are not required to be unique.
type Course struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Credits int    `json:"credits" validate:"gte=0"`
}

// Enrollment links one student to one course with an optional free-form grade.
type Enrollment struct {
	ID        int64  `json:"id"`
	StudentID int64  `json:"student_id"`
	CourseID  int64  `json:"course_id"`
	Grade     string `json:"grade"`
}

// HasGrade reports whether a grade has been recorded.
func (e Enrollment) HasGrade() bool { return e.Grade != "" }

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported CRUD operations captured in audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID int64
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// DeletePolicy decides what happens to enrollments when the student or
// course they reference is deleted.
type DeletePolicy string

const (
	// DeleteCascade removes dependent enrollments in the same transaction.
	DeleteCascade DeletePolicy = "cascade"
	// DeleteRestrict refuses the delete while dependents exist.
	DeleteRestrict DeletePolicy = "restrict"
	// DeleteOrphan keeps dependents; their reference stops resolving.
	DeleteOrphan DeletePolicy = "orphan"
)

// ParseDeletePolicy maps a configuration value onto a DeletePolicy. The empty
// string selects DeleteCascade.
func ParseDeletePolicy(v string) (DeletePolicy, error) {
	switch DeletePolicy(v) {
	case "":
		return DeleteCascade, nil
	case DeleteCascade, DeleteRestrict, DeleteOrphan:
		return DeletePolicy(v), nil
	default:
		return "", ValidationError{Field: "delete_policy", Value: v, Reason: "must be one of cascade, restrict, orphan"}
	}
}
