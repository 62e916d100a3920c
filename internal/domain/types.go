// JSON-backed collection column types.
//
// The hosted-store heritage of this schema keeps the cart and purchased
// fields as ordered arrays on the user row, and device attributes as an
// array of free-text strings. SQLite has no native array type, so these
// types serialize to a JSON text column via database/sql interfaces.
package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// IDList is an ordered sequence of device identifiers stored as a JSON
// array. Duplicates are meaningful: the multiplicity of an ID equals the
// unit count of that device.
type IDList []int64

// Value implements driver.Valuer. A nil list is stored as "[]" so reads
// never observe SQL NULL.
func (l IDList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner, accepting JSON text or bytes. NULL scans
// to an empty list.
func (l *IDList) Scan(src any) error {
	return scanJSON(src, (*[]int64)(l))
}

// CountOf returns the multiplicity of id in the list.
func (l IDList) CountOf(id int64) int {
	n := 0
	for _, v := range l {
		if v == id {
			n++
		}
	}
	return n
}

// Counts returns the per-ID multiplicity map, preserving nothing about
// order; use the list itself when order matters.
func (l IDList) Counts() map[int64]int {
	m := make(map[int64]int, len(l))
	for _, v := range l {
		m[v]++
	}
	return m
}

// RemoveFirst returns a copy of the list with the first occurrence of id
// removed. The second result reports whether id was present. Order and
// remaining duplicates are preserved.
func (l IDList) RemoveFirst(id int64) (IDList, bool) {
	for i, v := range l {
		if v == id {
			out := make(IDList, 0, len(l)-1)
			out = append(out, l[:i]...)
			out = append(out, l[i+1:]...)
			return out, true
		}
	}
	return l, false
}

// Unique returns the distinct IDs in first-occurrence order.
func (l IDList) Unique() []int64 {
	seen := make(map[int64]struct{}, len(l))
	out := make([]int64, 0, len(l))
	for _, v := range l {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// StringList is a sequence of free-text strings stored as a JSON array.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src any) error {
	return scanJSON(src, (*[]string)(l))
}

// scanJSON decodes a JSON column value into dst. Empty input yields the
// zero value of dst.
func scanJSON[T any](src any, dst *T) error {
	if src == nil {
		var zero T
		*dst = zero
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported column type %T", src)
	}
	if len(data) == 0 {
		var zero T
		*dst = zero
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return errors.Join(errors.New("malformed list column"), err)
	}
	return nil
}
