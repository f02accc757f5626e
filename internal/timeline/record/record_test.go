package record

import (
	"encoding/json"
	"regexp"
	"strings"
	"testing"

	"github.com/louisbranch/raidboss-timelines/internal/timeline/parser"
	"github.com/louisbranch/raidboss-timelines/internal/timeline/zone"
)

const script = `hideall "--sync--"
0 "--sync--" sync /^Engage (?:now|soon)$/ window 0,5
12 "Cleave" duration 3
40 "Loop" forcejump 12
`

func projectScript(t *testing.T) Record {
	t.Helper()

	doc, err := parser.Parse(script, parser.StaticInput())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return Project(zone.Single(1234), doc)
}

func TestProjectKeepsEventOrderAndReferences(t *testing.T) {
	t.Parallel()

	rec := projectScript(t)
	if len(rec.Events) != 3 {
		t.Fatalf("events = %d, want 3", len(rec.Events))
	}
	engage := rec.Events[0]
	if engage.SyncID == nil || *engage.SyncID != engage.ID {
		t.Fatalf("engage syncId = %v, want %d", engage.SyncID, engage.ID)
	}
	if rec.Events[1].SyncID != nil {
		t.Fatal("event without sync must not carry a syncId")
	}
	if rec.Events[1].Duration == nil || *rec.Events[1].Duration != 3 {
		t.Fatalf("duration = %v", rec.Events[1].Duration)
	}
	if len(rec.SyncStart) != 1 || rec.SyncStart[0].EventID == nil || *rec.SyncStart[0].EventID != engage.ID {
		t.Fatalf("sync start = %+v", rec.SyncStart)
	}
	if len(rec.ForceJump) != 1 || rec.ForceJump[0].JumpType != "force" || *rec.ForceJump[0].Jump != 12 {
		t.Fatalf("force jump = %+v", rec.ForceJump)
	}
	if rec.SyncCount() != 2 {
		t.Fatalf("sync count = %d, want 2", rec.SyncCount())
	}
	if len(rec.Ignores) != 1 || !rec.Ignores["--sync--"] {
		t.Fatalf("ignores = %v, want only --sync--", rec.Ignores)
	}
}

func TestProjectedPatternRecompilesToSameMatches(t *testing.T) {
	t.Parallel()

	doc, err := parser.Parse(script, parser.StaticInput())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	rec := Project(zone.Single(1), doc)
	original := doc.SyncStarts[0].Regex
	recompiled := regexp.MustCompile(rec.SyncStart[0].Regex)

	for _, input := range []string{"Engage now", "Engage soon", "Engage later", "xEngage now", ""} {
		if original.MatchString(input) != recompiled.MatchString(input) {
			t.Fatalf("match mismatch for %q", input)
		}
	}
}

func TestRecordJSONShape(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(projectScript(t))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var generic map[string]any
	if err := json.Unmarshal(data, &generic); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"zoneId", "events", "syncStart", "syncEnd", "forceJump", "texts", "ignores"} {
		if _, ok := generic[key]; !ok {
			t.Fatalf("missing key %q in %s", key, data)
		}
	}
	if generic["zoneId"] != float64(1234) {
		t.Fatalf("zoneId = %v, want 1234", generic["zoneId"])
	}
	if strings.Contains(string(data), `"sortKey"`) || strings.Contains(string(data), `"isDur"`) {
		t.Fatalf("unset optional fields must be omitted: %s", data)
	}
	events := generic["events"].([]any)
	cleave := events[1].(map[string]any)
	if _, ok := cleave["syncId"]; ok {
		t.Fatalf("cleave should not have syncId: %v", cleave)
	}
}

func TestProjectNilDocumentYieldsEmptyCollections(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(Project(zone.List(1, 2), nil))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"zoneId":[1,2],"events":[],"syncStart":[],"syncEnd":[],"forceJump":[],"texts":[],"ignores":{}}`
	if string(data) != want {
		t.Fatalf("json = %s, want %s", data, want)
	}
}
