// Package descriptor loads encounter descriptor modules.
//
// A descriptor module is a Lua chunk returning a table. Only the zone
// association and the companion timeline file name are read; every other field
// belongs to other consumers of the module.
package descriptor

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/Shopify/go-lua"

	"github.com/louisbranch/raidboss-timelines/internal/timeline/zone"
)

const (
	fieldZoneID       = "zoneId"
	fieldTimelineFile = "timelineFile"
	zoneGlobal        = "ZoneId"
)

// Descriptor is the part of a descriptor module the compiler reads.
type Descriptor struct {
	Path         string
	Zone         zone.Association
	TimelineFile string
}

// HasTimeline reports whether the descriptor names a companion timeline and a
// zone to file it under.
func (d Descriptor) HasTimeline() bool {
	return strings.TrimSpace(d.TimelineFile) != "" && !d.Zone.IsZero()
}

// TimelinePath resolves the companion timeline relative to the descriptor's
// own directory.
func (d Descriptor) TimelinePath() string {
	return filepath.Join(filepath.Dir(d.Path), filepath.FromSlash(d.TimelineFile))
}

// LoadError reports a descriptor module that could not be evaluated.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load descriptor %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Loader evaluates descriptor modules with the zone registry in scope.
type Loader struct {
	registry *zone.Registry
}

// NewLoader returns a loader exposing registry as the ZoneId global.
func NewLoader(registry *zone.Registry) *Loader {
	return &Loader{registry: registry}
}

// Load evaluates the module at path in a fresh interpreter.
func (l *Loader) Load(path string) (Descriptor, error) {
	state := lua.NewState()
	lua.OpenLibraries(state)
	l.registry.PushLuaTable(state)
	state.SetGlobal(zoneGlobal)

	if err := lua.LoadFile(state, path, ""); err != nil {
		return Descriptor{}, &LoadError{Path: path, Err: err}
	}
	if err := state.ProtectedCall(0, 1, 0); err != nil {
		return Descriptor{}, &LoadError{Path: path, Err: err}
	}
	defer state.Pop(1)

	if state.TypeOf(-1) != lua.TypeTable {
		return Descriptor{}, &LoadError{Path: path, Err: fmt.Errorf("module must return a table, got %s", lua.TypeNameOf(state, -1))}
	}

	desc := Descriptor{Path: path}

	state.Field(-1, fieldZoneID)
	assoc, err := readZone(state, -1)
	state.Pop(1)
	if err != nil {
		return Descriptor{}, &LoadError{Path: path, Err: err}
	}
	desc.Zone = assoc

	state.Field(-1, fieldTimelineFile)
	switch state.TypeOf(-1) {
	case lua.TypeNil:
	case lua.TypeString:
		desc.TimelineFile, _ = state.ToString(-1)
	default:
		typeName := lua.TypeNameOf(state, -1)
		state.Pop(1)
		return Descriptor{}, &LoadError{Path: path, Err: fmt.Errorf("%s must be a string, got %s", fieldTimelineFile, typeName)}
	}
	state.Pop(1)

	return desc, nil
}

func readZone(state *lua.State, index int) (zone.Association, error) {
	switch state.TypeOf(index) {
	case lua.TypeNil:
		return zone.Association{}, nil
	case lua.TypeNumber:
		id, err := readID(state, index)
		if err != nil {
			return zone.Association{}, err
		}
		return zone.Single(id), nil
	case lua.TypeTable:
		ids, err := readIDList(state, index)
		if err != nil {
			return zone.Association{}, err
		}
		if len(ids) == 0 {
			return zone.Association{}, nil
		}
		return zone.List(ids...), nil
	default:
		return zone.Association{}, fmt.Errorf("%s must be a number or a list of numbers, got %s", fieldZoneID, lua.TypeNameOf(state, index))
	}
}

func readID(state *lua.State, index int) (zone.ID, error) {
	value, _ := state.ToNumber(index)
	if math.Trunc(value) != value {
		return 0, fmt.Errorf("%s %v is not an integer", fieldZoneID, value)
	}
	if value < math.MinInt32 || value > math.MaxInt32 {
		return 0, fmt.Errorf("%s %v is out of range", fieldZoneID, value)
	}
	return zone.ID(value), nil
}

// readIDList reads a sequence table; holes and non-numeric entries are errors.
func readIDList(state *lua.State, index int) ([]zone.ID, error) {
	index = state.AbsIndex(index)
	count := 0
	state.PushNil()
	for state.Next(index) {
		count++
		state.Pop(1)
	}

	ids := make([]zone.ID, 0, count)
	for i := 1; i <= count; i++ {
		state.RawGetInt(index, i)
		if state.TypeOf(-1) != lua.TypeNumber {
			state.Pop(1)
			return nil, fmt.Errorf("%s[%d] must be a number", fieldZoneID, i)
		}
		id, err := readID(state, -1)
		state.Pop(1)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
