package core

import "registrar/pkg/domain"

type (
	EntityType           = domain.EntityType
	Severity             = domain.Severity
	Student              = domain.Student
	Course               = domain.Course
	Enrollment           = domain.Enrollment
	Change               = domain.Change
	Action               = domain.Action
	Violation            = domain.Violation
	Result               = domain.Result
	RulesEngine          = domain.RulesEngine
	RuleViolationError   = domain.RuleViolationError
	ReferenceError       = domain.ReferenceError
	NotFoundError        = domain.NotFoundError
	AmbiguousLookupError = domain.AmbiguousLookupError
	ValidationError      = domain.ValidationError
	ConflictError        = domain.ConflictError
	Transaction          = domain.Transaction
	TransactionView      = domain.TransactionView
	PersistentStore      = domain.PersistentStore
)

const (
	EntityStudent    = domain.EntityStudent
	EntityCourse     = domain.EntityCourse
	EntityEnrollment = domain.EntityEnrollment
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)

// NewRulesEngine constructs an empty rules engine.
func NewRulesEngine() *RulesEngine { return domain.NewRulesEngine() }
