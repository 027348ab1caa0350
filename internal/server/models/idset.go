package models

import (
	"database/sql/driver"
	"fmt"
	"slices"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// IDSet is an unordered set of ids. It is stored as a JSON array column.
type IDSet []uuid.UUID

func (s IDSet) Has(id uuid.UUID) bool {
	return slices.Contains(s, id)
}

// Add inserts id and reports whether the set changed.
func (s *IDSet) Add(id uuid.UUID) bool {
	if s.Has(id) {
		return false
	}
	*s = append(*s, id)
	return true
}

// Remove deletes id and reports whether the set changed.
func (s *IDSet) Remove(id uuid.UUID) bool {
	i := slices.Index(*s, id)
	if i < 0 {
		return false
	}
	*s = slices.Delete(*s, i, i+1)
	return true
}

// Clone returns an independent copy of the set.
func (s IDSet) Clone() IDSet {
	if s == nil {
		return nil
	}
	return slices.Clone(s)
}

// Value implements driver.Valuer. A nil set is stored as an empty array.
func (s IDSet) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]uuid.UUID(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (s *IDSet) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*s = IDSet{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("idset: unsupported source type %T", src)
	}

	var ids []uuid.UUID
	if err := json.Unmarshal(raw, &ids); err != nil {
		return fmt.Errorf("idset: %w", err)
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}
	*s = IDSet(ids)
	return nil
}
