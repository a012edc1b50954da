package memory

import (
	"encoding/json"
	"fmt"
)

// Buckets lists the snapshot sections persisted by the durable backends, one
// row per bucket.
var Buckets = []string{"students", "courses", "enrollments", "sequences"}

// EncodeBucket marshals one snapshot section.
func (s Snapshot) EncodeBucket(bucket string) ([]byte, error) {
	switch bucket {
	case "students":
		return json.Marshal(nonNil(s.Students))
	case "courses":
		return json.Marshal(nonNil(s.Courses))
	case "enrollments":
		return json.Marshal(nonNil(s.Enrollments))
	case "sequences":
		return json.Marshal(s.Sequences)
	default:
		return nil, fmt.Errorf("unknown bucket %q", bucket)
	}
}

// DecodeBucket unmarshals one snapshot section into s. Unknown buckets are
// ignored so newer databases stay readable.
func (s *Snapshot) DecodeBucket(bucket string, payload []byte) error {
	if len(payload) == 0 {
		return nil
	}
	var target any
	switch bucket {
	case "students":
		target = &s.Students
	case "courses":
		target = &s.Courses
	case "enrollments":
		target = &s.Enrollments
	case "sequences":
		target = &s.Sequences
	default:
		return nil
	}
	if err := json.Unmarshal(payload, target); err != nil {
		return fmt.Errorf("decode %s: %w", bucket, err)
	}
	return nil
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}
