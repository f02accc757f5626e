package zone

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ID identifies one game zone.
type ID int

// MatchAll is the reserved id for descriptors that apply to every zone. It is
// a valid index key but never has a canonical name.
const MatchAll ID = -1

// String returns the decimal form used for index keys.
func (id ID) String() string {
	return strconv.Itoa(int(id))
}

// Association binds a descriptor to a single zone or to an ordered list of
// zones sharing one timeline. The zero value associates with nothing.
type Association struct {
	ids  []ID
	list bool
}

// Single associates with exactly one zone.
func Single(id ID) Association {
	return Association{ids: []ID{id}}
}

// List associates with every id in order. The list form is kept even for one
// element so the key and JSON shape follow the declaration.
func List(ids ...ID) Association {
	return Association{ids: append([]ID(nil), ids...), list: true}
}

// IsZero reports whether the association names no zone.
func (a Association) IsZero() bool {
	return len(a.ids) == 0
}

// IsList reports whether the association was declared as a list.
func (a Association) IsList() bool {
	return a.list
}

// IDs returns a copy of the associated ids in declaration order.
func (a Association) IDs() []ID {
	return append([]ID(nil), a.ids...)
}

// Key returns the index key: the decimal id, or the ids joined with commas.
func (a Association) Key() string {
	parts := make([]string, 0, len(a.ids))
	for _, id := range a.ids {
		parts = append(parts, id.String())
	}
	return strings.Join(parts, ",")
}

func (a Association) String() string {
	return a.Key()
}

// MarshalJSON encodes a single id as a number and a list as an array.
func (a Association) MarshalJSON() ([]byte, error) {
	if a.IsZero() && !a.list {
		return []byte("null"), nil
	}
	if a.list {
		return json.Marshal(a.ids)
	}
	return json.Marshal(a.ids[0])
}

// UnmarshalJSON accepts the forms produced by MarshalJSON.
func (a *Association) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	switch {
	case trimmed == "null":
		*a = Association{}
		return nil
	case strings.HasPrefix(trimmed, "["):
		var ids []ID
		if err := json.Unmarshal(data, &ids); err != nil {
			return fmt.Errorf("decode zone list: %w", err)
		}
		*a = List(ids...)
		return nil
	default:
		var id ID
		if err := json.Unmarshal(data, &id); err != nil {
			return fmt.Errorf("decode zone id: %w", err)
		}
		*a = Single(id)
		return nil
	}
}
