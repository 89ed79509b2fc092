// Package id defines the prefixed identity types used by lanes.
//
// Every entity carries an ID made of a short prefix naming the entity type
// and a UUIDv7 suffix, rendered as "prefix_suffix". IDs are K-sortable,
// globally unique, comparable (usable as map keys) and URL-safe.
package id

import (
	"bytes"
	"database/sql/driver"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Prefix identifies the entity type encoded in an ID.
type Prefix string

// Prefix constants for lanes entity types.
const (
	PrefixJob    Prefix = "job"
	PrefixWorker Prefix = "wkr"
)

// ID is the primary identifier type for lanes entities.
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receivers for UnmarshalText/Scan.
type ID struct {
	prefix Prefix
	uuid   uuid.UUID
}

// Nil is the zero-value ID.
var Nil ID

// New generates a new time-ordered ID with the given prefix.
// It panics if the prefix is not a valid identifier (programming error).
func New(prefix Prefix) ID {
	if !validPrefix(prefix) {
		panic(fmt.Sprintf("id: invalid prefix %q", prefix))
	}

	u, err := uuid.NewV7()
	if err != nil {
		panic(fmt.Sprintf("id: generate: %v", err))
	}

	return ID{prefix: prefix, uuid: u}
}

// Parse parses an ID string (e.g. "job_0190c4e5a1b27c3d8e9f0a1b2c3d4e5f").
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse %q: empty string", s)
	}

	idx := strings.LastIndexByte(s, '_')
	if idx <= 0 || idx == len(s)-1 {
		return Nil, fmt.Errorf("id: parse %q: missing prefix separator", s)
	}

	prefix := Prefix(s[:idx])
	if !validPrefix(prefix) {
		return Nil, fmt.Errorf("id: parse %q: invalid prefix", s)
	}

	suffix := s[idx+1:]
	if len(suffix) != 32 {
		return Nil, fmt.Errorf("id: parse %q: suffix must be 32 hex characters", s)
	}

	u, err := uuid.Parse(suffix)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}

	return ID{prefix: prefix, uuid: u}, nil
}

// ParseWithPrefix parses an ID string and validates that its prefix
// matches the expected value.
func ParseWithPrefix(s string, expected Prefix) (ID, error) {
	parsed, err := Parse(s)
	if err != nil {
		return Nil, err
	}

	if parsed.Prefix() != expected {
		return Nil, fmt.Errorf("id: expected prefix %q, got %q", expected, parsed.Prefix())
	}

	return parsed, nil
}

// MustParse is like Parse but panics on error. Use for hardcoded ID values.
func MustParse(s string) ID {
	parsed, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("id: must parse %q: %v", s, err))
	}

	return parsed
}

// JobID is a type-safe identifier for jobs (prefix: "job").
type JobID = ID

// WorkerID is a type-safe identifier for workers (prefix: "wkr").
type WorkerID = ID

// NewJobID generates a new unique job ID.
func NewJobID() ID { return New(PrefixJob) }

// NewWorkerID generates a new unique worker ID.
func NewWorkerID() ID { return New(PrefixWorker) }

// ParseJobID parses a string and validates the "job" prefix.
func ParseJobID(s string) (ID, error) { return ParseWithPrefix(s, PrefixJob) }

// ParseWorkerID parses a string and validates the "wkr" prefix.
func ParseWorkerID(s string) (ID, error) { return ParseWithPrefix(s, PrefixWorker) }

// String returns "prefix_suffix", or an empty string for the Nil ID.
func (i ID) String() string {
	if i.IsNil() {
		return ""
	}

	return string(i.prefix) + "_" + hex.EncodeToString(i.uuid[:])
}

// Prefix returns the prefix component of this ID.
func (i ID) Prefix() Prefix { return i.prefix }

// IsNil reports whether this ID is the zero value.
func (i ID) IsNil() bool { return i.prefix == "" }

// Compare orders IDs by prefix, then by suffix. IDs minted by New sort by
// creation time within a prefix.
func (i ID) Compare(other ID) int {
	if c := strings.Compare(string(i.prefix), string(other.prefix)); c != 0 {
		return c
	}
	return bytes.Compare(i.uuid[:], other.uuid[:])
}

// MarshalText implements encoding.TextMarshaler.
func (i ID) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil

		return nil
	}

	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}

	*i = parsed

	return nil
}

// Value implements driver.Valuer for database storage.
// Returns nil for the Nil ID so that optional columns store NULL.
func (i ID) Value() (driver.Value, error) {
	if i.IsNil() {
		return nil, nil //nolint:nilnil // nil is the canonical NULL for driver.Valuer
	}

	return i.String(), nil
}

// Scan implements sql.Scanner for database retrieval.
func (i *ID) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*i = Nil

		return nil
	case string:
		return i.UnmarshalText([]byte(v))
	case []byte:
		return i.UnmarshalText(v)
	default:
		return fmt.Errorf("id: cannot scan %T into ID", src)
	}
}

func validPrefix(p Prefix) bool {
	if p == "" || len(p) > 32 {
		return false
	}
	for _, r := range p {
		if (r < 'a' || r > 'z') && r != '_' {
			return false
		}
	}
	return p[0] != '_' && p[len(p)-1] != '_'
}
