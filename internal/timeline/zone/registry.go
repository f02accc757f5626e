package zone

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/Shopify/go-lua"
)

// matchAllName is the registry key of the MatchAll sentinel.
const matchAllName = "MatchAll"

//go:embed zone_id.lua
var embeddedRegistry string

// Registry maps canonical zone names to ids and back.
type Registry struct {
	ids   map[string]ID
	names map[ID]string
}

// NewRegistry builds a registry from name/id pairs. MatchAll is added when
// missing and must map to the sentinel when present. When several names share
// one id, the lexicographically smallest name is canonical: a Lua table has no
// declaration order, so "last declared wins" cannot be observed once the
// registry file has been evaluated.
func NewRegistry(entries map[string]ID) (*Registry, error) {
	r := &Registry{
		ids:   make(map[string]ID, len(entries)+1),
		names: make(map[ID]string, len(entries)),
	}
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			return nil, errors.New("zone name is required")
		}
		id := entries[name]
		if trimmed == matchAllName && id != MatchAll {
			return nil, fmt.Errorf("zone %s must be %d, got %d", matchAllName, MatchAll, id)
		}
		r.ids[trimmed] = id
		if id == MatchAll {
			continue
		}
		if _, exists := r.names[id]; !exists {
			r.names[id] = trimmed
		}
	}
	r.ids[matchAllName] = MatchAll
	return r, nil
}

// DefaultRegistry parses the registry embedded in this package.
func DefaultRegistry() (*Registry, error) {
	return ParseRegistry("zone_id.lua", embeddedRegistry)
}

// LoadRegistry evaluates a Lua registry file.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read zone registry: %w", err)
	}
	return ParseRegistry(path, string(data))
}

// ParseRegistry evaluates a Lua chunk returning a { Name = id } table.
func ParseRegistry(name, source string) (*Registry, error) {
	state := lua.NewState()
	lua.OpenLibraries(state)

	if err := lua.LoadBuffer(state, source, "@"+name, ""); err != nil {
		return nil, fmt.Errorf("load zone registry %s: %w", name, err)
	}
	if err := state.ProtectedCall(0, 1, 0); err != nil {
		return nil, fmt.Errorf("run zone registry %s: %w", name, err)
	}
	defer state.Pop(1)
	if state.TypeOf(-1) != lua.TypeTable {
		return nil, fmt.Errorf("zone registry %s must return a table", name)
	}

	entries := map[string]ID{}
	index := state.AbsIndex(-1)
	state.PushNil()
	for state.Next(index) {
		if state.TypeOf(-2) != lua.TypeString {
			state.Pop(2)
			return nil, fmt.Errorf("zone registry %s: keys must be names", name)
		}
		key, _ := state.ToString(-2)
		value, ok := state.ToNumber(-1)
		if state.TypeOf(-1) != lua.TypeNumber || !ok || math.Trunc(value) != value {
			state.Pop(2)
			return nil, fmt.Errorf("zone registry %s: %s must be an integer id", name, key)
		}
		entries[key] = ID(value)
		state.Pop(1)
	}
	return NewRegistry(entries)
}

// Lookup returns the id registered under name.
func (r *Registry) Lookup(name string) (ID, bool) {
	if r == nil {
		return 0, false
	}
	id, ok := r.ids[name]
	return id, ok
}

// Name returns the canonical name for id. MatchAll has no canonical name.
func (r *Registry) Name(id ID) (string, bool) {
	if r == nil {
		return "", false
	}
	name, ok := r.names[id]
	return name, ok
}

// Len returns the number of registered names, MatchAll included.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.ids)
}

// PushLuaTable pushes a read-only ZoneId table onto the Lua stack. Reading a
// name the registry does not know raises an error, so a misspelt zone fails
// the script instead of evaluating to nil.
func (r *Registry) PushLuaTable(state *lua.State) {
	state.NewTable()
	state.NewTable()
	state.PushGoFunction(func(l *lua.State) int {
		name, _ := l.ToString(2)
		id, ok := r.Lookup(name)
		if !ok {
			lua.Errorf(l, "unknown zone %s", name)
			return 0
		}
		l.PushInteger(int(id))
		return 1
	})
	state.SetField(-2, "__index")
	state.PushGoFunction(func(l *lua.State) int {
		name, _ := l.ToString(2)
		lua.Errorf(l, "zone table is read-only, cannot set %s", name)
		return 0
	})
	state.SetField(-2, "__newindex")
	state.SetMetaTable(-2)
}
