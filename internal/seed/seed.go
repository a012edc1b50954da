// Package seed loads fixture data into an empty store. Fixtures are YAML
// documents whose enrollments reference students by name and courses by
// title.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"registrar/pkg/domain"
)

//go:embed default.yaml
var defaultFixture []byte

// Fixture is the decoded seed document.
type Fixture struct {
	Students    []StudentRow    `yaml:"students" validate:"dive"`
	Courses     []CourseRow     `yaml:"courses" validate:"dive"`
	Enrollments []EnrollmentRow `yaml:"enrollments" validate:"dive"`
}

type StudentRow struct {
	Name string `yaml:"name" validate:"required"`
	Age  int    `yaml:"age" validate:"gte=0"`
}

type CourseRow struct {
	Title   string `yaml:"title" validate:"required"`
	Credits int    `yaml:"credits" validate:"gte=0"`
}

type EnrollmentRow struct {
	Student string `yaml:"student" validate:"required"`
	Course  string `yaml:"course" validate:"required"`
	Grade   string `yaml:"grade"`
}

// Summary reports what Apply inserted.
type Summary struct {
	Applied     bool
	Students    int
	Courses     int
	Enrollments int
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Default returns the built-in fixture.
func Default() Fixture {
	fx, err := Decode(bytes.NewReader(defaultFixture))
	if err != nil {
		panic(fmt.Sprintf("seed: embedded fixture: %v", err))
	}
	return fx
}

// Decode parses a fixture, rejecting unknown keys.
func Decode(r io.Reader) (Fixture, error) {
	var fx Fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fx); err != nil && !errors.Is(err, io.EOF) {
		return Fixture{}, fmt.Errorf("decode fixture: %w", err)
	}
	if err := fx.Validate(); err != nil {
		return Fixture{}, err
	}
	return fx, nil
}

// LoadFile reads and decodes the fixture at path.
func LoadFile(path string) (Fixture, error) {
	f, err := os.Open(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("open fixture: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Decode(f)
}

// Validate checks field constraints and that names and titles are unique
// within the fixture, so enrollment references are unambiguous.
func (fx Fixture) Validate() error {
	if err := validate.Struct(fx); err != nil {
		return fmt.Errorf("invalid fixture: %w", err)
	}
	names := make(map[string]struct{}, len(fx.Students))
	for _, s := range fx.Students {
		if _, dup := names[s.Name]; dup {
			return domain.ValidationError{Entity: domain.EntityStudent, Field: "name", Value: s.Name, Reason: "duplicated in fixture"}
		}
		names[s.Name] = struct{}{}
	}
	titles := make(map[string]struct{}, len(fx.Courses))
	for _, c := range fx.Courses {
		if _, dup := titles[c.Title]; dup {
			return domain.ValidationError{Entity: domain.EntityCourse, Field: "title", Value: c.Title, Reason: "duplicated in fixture"}
		}
		titles[c.Title] = struct{}{}
	}
	return nil
}

// Apply inserts fx in a single transaction when the store holds no students.
// A store that already has students is left untouched.
func Apply(ctx context.Context, store domain.PersistentStore, fx Fixture) (Summary, error) {
	for range store.Students() {
		return Summary{}, nil
	}
	var sum Summary
	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		sum = Summary{}
		students := make(map[string]int64, len(fx.Students))
		for _, row := range fx.Students {
			s, err := tx.CreateStudent(domain.Student{Name: row.Name, Age: row.Age})
			if err != nil {
				return err
			}
			students[row.Name] = s.ID
			sum.Students++
		}
		courses := make(map[string]int64, len(fx.Courses))
		for _, row := range fx.Courses {
			c, err := tx.CreateCourse(domain.Course{Title: row.Title, Credits: row.Credits})
			if err != nil {
				return err
			}
			courses[row.Title] = c.ID
			sum.Courses++
		}
		for _, row := range fx.Enrollments {
			sid, ok := students[row.Student]
			if !ok {
				return domain.ReferenceError{Entity: domain.EntityStudent, Field: "name", Key: row.Student}
			}
			cid, ok := courses[row.Course]
			if !ok {
				return domain.ReferenceError{Entity: domain.EntityCourse, Field: "title", Key: row.Course}
			}
			if _, err := tx.CreateEnrollment(domain.Enrollment{StudentID: sid, CourseID: cid, Grade: row.Grade}); err != nil {
				return err
			}
			sum.Enrollments++
		}
		return nil
	})
	if err != nil {
		return Summary{}, fmt.Errorf("apply seed: %w", err)
	}
	sum.Applied = true
	return sum, nil
}
