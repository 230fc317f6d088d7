// Package model contains domain models passed between layers.
package model

import (
	"encoding/json"
	"strconv"
)

// RawRecord is one placement event as delivered by a data source. Key spelling
// varies between sources; values are strings, numbers, booleans or nil.
type RawRecord map[string]any

// CellKind tags the variant held by a Cell.
type CellKind uint8

// Cell kinds.
const (
	CellEmpty CellKind = iota
	CellString
	CellNumber
	CellOther
)

// Cell is a normalized cell value. The zero value is the empty sentinel.
type Cell struct {
	Kind   CellKind
	Text   string  // set for CellString
	Number float64 // set for CellNumber
	Raw    any     // set for CellOther
}

// IsEmpty reports whether c is the empty sentinel.
func (c Cell) IsEmpty() bool { return c.Kind == CellEmpty }

// String renders the cell as text. Numbers use the shortest decimal form
// ("2020", not "2020.000000").
func (c Cell) String() string {
	switch c.Kind {
	case CellString:
		return c.Text
	case CellNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	case CellOther:
		switch v := c.Raw.(type) {
		case bool:
			return strconv.FormatBool(v)
		case string:
			return v
		}
		b, err := json.Marshal(c.Raw)
		if err != nil {
			return ""
		}
		return string(b)
	default:
		return ""
	}
}

// MarshalJSON keeps the cell's original JSON type.
func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case CellString:
		return json.Marshal(c.Text)
	case CellNumber:
		return json.Marshal(c.Number)
	case CellOther:
		return json.Marshal(c.Raw)
	default:
		return []byte(`""`), nil
	}
}
