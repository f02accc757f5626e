// Package record flattens parsed timelines into the compiled JSON schema.
//
// The event list owns the graph: an event names its sync by id and every sync
// names its event by id. Patterns are kept as source text only.
package record

import (
	"github.com/louisbranch/raidboss-timelines/internal/timeline/parser"
	"github.com/louisbranch/raidboss-timelines/internal/timeline/zone"
)

// Record is one compiled timeline document.
type Record struct {
	ZoneID    zone.Association `json:"zoneId"`
	Events    []Event          `json:"events"`
	SyncStart []Sync           `json:"syncStart"`
	SyncEnd   []Sync           `json:"syncEnd"`
	ForceJump []Sync           `json:"forceJump"`
	Texts     []Text           `json:"texts"`
	Ignores   map[string]bool  `json:"ignores"`
}

// Event is the serialized form of parser.Event.
type Event struct {
	ID         int      `json:"id"`
	Time       float64  `json:"time"`
	Name       string   `json:"name"`
	Text       string   `json:"text"`
	ActiveTime float64  `json:"activeTime"`
	LineNumber int      `json:"lineNumber"`
	Duration   *float64 `json:"duration,omitempty"`
	SortKey    *int     `json:"sortKey,omitempty"`
	IsDur      *bool    `json:"isDur,omitempty"`
	SyncID     *int     `json:"syncId,omitempty"`
}

// Sync is the serialized form of parser.Sync, used for sync starts, sync ends
// and force jumps alike.
type Sync struct {
	ID         int      `json:"id"`
	RegexType  string   `json:"regexType,omitempty"`
	Regex      string   `json:"regex,omitempty"`
	Start      float64  `json:"start"`
	End        float64  `json:"end"`
	Time       float64  `json:"time"`
	LineNumber int      `json:"lineNumber"`
	EventID    *int     `json:"eventId,omitempty"`
	Jump       *float64 `json:"jump,omitempty"`
	JumpType   string   `json:"jumpType,omitempty"`
}

// Text is the serialized form of parser.Text.
type Text struct {
	Type          string  `json:"type"`
	SecondsBefore float64 `json:"secondsBefore"`
	Text          string  `json:"text"`
	Time          float64 `json:"time"`
}

// Project flattens doc for the given zone association.
func Project(assoc zone.Association, doc *parser.Document) Record {
	rec := Record{
		ZoneID:    assoc,
		Events:    []Event{},
		SyncStart: []Sync{},
		SyncEnd:   []Sync{},
		ForceJump: []Sync{},
		Texts:     []Text{},
		Ignores:   map[string]bool{},
	}
	if doc == nil {
		return rec
	}

	for _, event := range doc.Events {
		if event == nil {
			continue
		}
		rec.Events = append(rec.Events, projectEvent(event))
	}
	rec.SyncStart = projectSyncs(doc.SyncStarts)
	rec.SyncEnd = projectSyncs(doc.SyncEnds)
	rec.ForceJump = projectSyncs(doc.ForceJumps)
	for _, text := range doc.Texts {
		rec.Texts = append(rec.Texts, Text{
			Type:          string(text.Type),
			SecondsBefore: text.SecondsBefore,
			Text:          text.Text,
			Time:          text.Time,
		})
	}
	for name, ignored := range doc.Ignores {
		rec.Ignores[name] = ignored
	}
	return rec
}

// SyncCount returns the number of distinct directives in the record.
func (r Record) SyncCount() int {
	seen := map[int]struct{}{}
	for _, sync := range r.SyncStart {
		seen[sync.ID] = struct{}{}
	}
	return len(seen) + len(r.ForceJump)
}

func projectEvent(event *parser.Event) Event {
	out := Event{
		ID:         event.ID,
		Time:       event.Time,
		Name:       event.Name,
		Text:       event.Text,
		ActiveTime: event.ActiveTime,
		LineNumber: event.LineNumber,
		Duration:   copyPtr(event.Duration),
		SortKey:    copyPtr(event.SortKey),
		IsDur:      copyPtr(event.IsDur),
	}
	if event.Sync != nil {
		id := event.Sync.ID
		out.SyncID = &id
	}
	return out
}

func projectSyncs(syncs []*parser.Sync) []Sync {
	out := make([]Sync, 0, len(syncs))
	for _, sync := range syncs {
		if sync == nil {
			continue
		}
		projected := Sync{
			ID:         sync.ID,
			RegexType:  string(sync.RegexType),
			Start:      sync.Start,
			End:        sync.End,
			Time:       sync.Time,
			LineNumber: sync.LineNumber,
			Jump:       copyPtr(sync.Jump),
			JumpType:   string(sync.JumpType),
		}
		if sync.Regex != nil {
			projected.Regex = sync.Regex.String()
		}
		if sync.Event != nil {
			id := sync.Event.ID
			projected.EventID = &id
		}
		out = append(out, projected)
	}
	return out
}

func copyPtr[T any](value *T) *T {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}
