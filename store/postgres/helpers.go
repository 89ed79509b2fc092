package postgres

import (
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/xraph/lanes/id"
)

// isNoRows returns true when err indicates no rows were found.
func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// nonNil returns s, or an empty slice when s is nil, so NOT NULL array
// columns receive '{}'.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func idStrings(ids []id.JobID) []string {
	out := make([]string, len(ids))
	for i, v := range ids {
		out[i] = v.String()
	}
	return out
}

func parseJobIDs(raw []string) ([]id.JobID, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]id.JobID, len(raw))
	for i, s := range raw {
		v, err := id.ParseJobID(s)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// utcPtr normalises a nullable timestamp read back from the pool.
func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
