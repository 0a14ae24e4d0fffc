package model

import (
	"database/sql/driver"
	"fmt"

	"github.com/goccy/go-json"
)

// StringArray stores an ordered string set as a JSON text column.
type StringArray []string

func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		a = StringArray{}
	}
	data, err := json.Marshal(a)
	return string(data), err
}

func (a *StringArray) Scan(value any) error {
	return scanJSON(value, a)
}

// Contains reports whether s is already in the array.
func (a StringArray) Contains(s string) bool {
	for _, v := range a {
		if v == s {
			return true
		}
	}
	return false
}

// Remove returns the array without s, preserving order.
func (a StringArray) Remove(s string) StringArray {
	out := make(StringArray, 0, len(a))
	for _, v := range a {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}

// IntArray stores an integer set as a JSON text column.
type IntArray []int

func (a IntArray) Value() (driver.Value, error) {
	if a == nil {
		a = IntArray{}
	}
	data, err := json.Marshal(a)
	return string(data), err
}

func (a *IntArray) Scan(value any) error {
	return scanJSON(value, a)
}

func (a IntArray) Contains(n int) bool {
	for _, v := range a {
		if v == n {
			return true
		}
	}
	return false
}

func (a IntArray) Remove(n int) IntArray {
	out := make(IntArray, 0, len(a))
	for _, v := range a {
		if v != n {
			out = append(out, v)
		}
	}
	return out
}

func scanJSON(value any, dest any) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dest)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("unsupported column type %T", value)
	}
}
