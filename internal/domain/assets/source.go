// Package assets normalizes heterogeneous name→image datasets into a folded
// name index and joins it onto leaderboard entries.
package assets

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/okian/podium/internal/domain/model"
)

// ErrDecode is returned when an asset payload is not valid JSON.
var ErrDecode = errors.New("decode assets")

// Shape tags the layout of an asset Source.
type Shape uint8

// Source shapes.
const (
	ShapeEmpty Shape = iota
	ShapeList        // sequence of loosely typed objects
	ShapeMap         // name → URL string or name → object
)

func (s Shape) String() string {
	switch s {
	case ShapeList:
		return "list"
	case ShapeMap:
		return "map"
	default:
		return "empty"
	}
}

// Pair is one member of a map-shaped source, in source order.
type Pair struct {
	Name  string
	Value any
}

// Source is an asset dataset in one of the accepted shapes.
type Source struct {
	shape Shape
	items []any
	pairs []Pair
}

// Empty returns a source with no assets. Used when the dataset is missing or
// could not be fetched.
func Empty() Source { return Source{} }

// List wraps a sequence of records. Non-object items are ignored at index time.
func List(items []any) Source {
	return Source{shape: ShapeList, items: items}
}

// Records wraps tabular rows as a list-shaped source.
func Records(rows []model.RawRecord) Source {
	items := make([]any, len(rows))
	for i, r := range rows {
		items[i] = map[string]any(r)
	}
	return List(items)
}

// Map wraps name-keyed pairs; later pairs win on folded-name collisions.
func Map(pairs []Pair) Source {
	return Source{shape: ShapeMap, pairs: pairs}
}

// FromMap wraps a Go map. Keys are visited in sorted order since map order
// is unspecified.
func FromMap(m map[string]any) Source {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	pairs := make([]Pair, len(names))
	for i, k := range names {
		pairs[i] = Pair{Name: k, Value: m[k]}
	}
	return Map(pairs)
}

// FromValue classifies an already decoded JSON value.
func FromValue(v any) Source {
	switch x := v.(type) {
	case []any:
		return List(x)
	case map[string]any:
		return FromMap(x)
	default:
		return Empty()
	}
}

// Shape returns the source layout.
func (s Source) Shape() Shape { return s.shape }

// Len returns the number of raw items or pairs.
func (s Source) Len() int { return len(s.items) + len(s.pairs) }

// DecodeJSON reads an array or object payload, keeping object member order.
// Scalars and null decode to an empty source.
func DecodeJSON(r io.Reader) (Source, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err == io.EOF {
		return Empty(), nil
	}
	if err != nil {
		return Empty(), fmt.Errorf("%w: %w", ErrDecode, err)
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return Empty(), nil
	}

	switch delim {
	case '[':
		var items []any
		for dec.More() {
			var v any
			if err := dec.Decode(&v); err != nil {
				return Empty(), fmt.Errorf("%w: item %d: %w", ErrDecode, len(items), err)
			}
			items = append(items, v)
		}
		if _, err := dec.Token(); err != nil {
			return Empty(), fmt.Errorf("%w: %w", ErrDecode, err)
		}
		return List(items), nil
	case '{':
		var pairs []Pair
		for dec.More() {
			kt, err := dec.Token()
			if err != nil {
				return Empty(), fmt.Errorf("%w: %w", ErrDecode, err)
			}
			name, _ := kt.(string)
			var v any
			if err := dec.Decode(&v); err != nil {
				return Empty(), fmt.Errorf("%w: member %q: %w", ErrDecode, name, err)
			}
			pairs = append(pairs, Pair{Name: name, Value: v})
		}
		if _, err := dec.Token(); err != nil {
			return Empty(), fmt.Errorf("%w: %w", ErrDecode, err)
		}
		return Map(pairs), nil
	default:
		return Empty(), nil
	}
}
