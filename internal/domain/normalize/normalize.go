// Package normalize canonicalizes raw cell values and derives folded name keys
// used for grouping and joining competitors.
package normalize

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/okian/podium/internal/domain/model"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// combiningDiacritics is the Combining Diacritical Marks block. Marks outside
// it, such as Hebrew or Indic vowel signs, are part of the name.
var combiningDiacritics = &unicode.RangeTable{
	R16: []unicode.Range16{{Lo: 0x0300, Hi: 0x036f, Stride: 1}},
}

var stripMarks = runes.Remove(runes.In(combiningDiacritics))

var yearPattern = regexp.MustCompile(`[0-9]{4}`)

// Value normalizes a raw value into a Cell: nil becomes the empty sentinel,
// strings are trimmed, numbers are widened to float64 and anything else is
// carried as-is. A string that trims to "" is the empty sentinel.
func Value(v any) model.Cell {
	switch x := v.(type) {
	case nil:
		return model.Cell{}
	case model.Cell:
		return x
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return model.Cell{}
		}
		return model.Cell{Kind: model.CellString, Text: s}
	case float64:
		return number(x)
	case float32:
		return number(float64(x))
	case int:
		return number(float64(x))
	case int8:
		return number(float64(x))
	case int16:
		return number(float64(x))
	case int32:
		return number(float64(x))
	case int64:
		return number(float64(x))
	case uint:
		return number(float64(x))
	case uint8:
		return number(float64(x))
	case uint16:
		return number(float64(x))
	case uint32:
		return number(float64(x))
	case uint64:
		return number(float64(x))
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return model.Cell{Kind: model.CellString, Text: x.String()}
		}
		return number(f)
	default:
		return model.Cell{Kind: model.CellOther, Raw: v}
	}
}

func number(f float64) model.Cell {
	return model.Cell{Kind: model.CellNumber, Number: f}
}

// Field normalizes rec[key]. A missing key yields the empty sentinel.
func Field(rec model.RawRecord, key string) model.Cell {
	if key == "" {
		return model.Cell{}
	}
	return Value(rec[key])
}

// FoldName derives the grouping key of a display name: accents stripped,
// lowercased, whitespace runs collapsed, trimmed. "" means no usable key.
func FoldName(v any) string {
	c := Value(v)
	if c.IsEmpty() {
		return ""
	}
	folded, _, err := transform.String(transform.Chain(norm.NFD, stripMarks), c.String())
	if err != nil {
		return ""
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

// Int parses the leading base-10 integer of a cell: optional sign then digits,
// trailing text ignored ("1°" is 1, "2nd" is 2). Numbers are parsed from their
// decimal text so 2.7 yields 2. ok is false when no digits lead the value.
func Int(c model.Cell) (n int, ok bool) {
	if c.IsEmpty() {
		return 0, false
	}
	s := strings.TrimLeftFunc(c.String(), unicode.IsSpace)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Year extracts a season year. Non-zero numeric cells are their own year; text cells
// use the first four consecutive digits ("2021/22" is 2021). Anything else is
// negative infinity so it sorts after every real season.
func Year(c model.Cell) float64 {
	switch c.Kind {
	case model.CellNumber:
		if c.Number == 0 || math.IsNaN(c.Number) {
			return math.Inf(-1)
		}
		return c.Number
	case model.CellEmpty:
		return math.Inf(-1)
	}
	m := yearPattern.FindString(c.String())
	if m == "" {
		return math.Inf(-1)
	}
	y, err := strconv.Atoi(m)
	if err != nil {
		return math.Inf(-1)
	}
	return float64(y)
}
