package parser

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// netLineType describes one log line: its type ids and the fields that follow
// the timestamp, in log order.
type netLineType struct {
	ids    string
	fields []string
}

var netLineTypes = map[string]netLineType{
	"GameLog":          {ids: "00", fields: []string{"code", "name", "line"}},
	"ChangeZone":       {ids: "01", fields: []string{"id", "name"}},
	"AddedCombatant":   {ids: "03", fields: []string{"id", "name", "job", "level", "ownerId", "worldId", "world", "npcNameId", "npcBaseId", "currentHp", "hp", "currentMp", "mp"}},
	"RemovedCombatant": {ids: "04", fields: []string{"id", "name", "job", "level", "owner", "world", "npcNameId", "npcBaseId", "currentHp", "hp", "currentMp", "mp"}},
	"StartsUsing":      {ids: "20", fields: []string{"sourceId", "source", "id", "ability", "targetId", "target", "castTime"}},
	"Ability":          {ids: "2[12]", fields: []string{"sourceId", "source", "id", "ability", "targetId", "target"}},
	"GainsEffect":      {ids: "26", fields: []string{"effectId", "effect", "duration", "sourceId", "source", "targetId", "target", "count"}},
	"HeadMarker":       {ids: "27", fields: []string{"targetId", "target", "id"}},
	"ActorControl":     {ids: "33", fields: []string{"instance", "command", "data0", "data1", "data2", "data3"}},
	"SystemLogMessage": {ids: "41", fields: []string{"instance", "id", "param0", "param1", "param2"}},
	"MapEffect":        {ids: "257", fields: []string{"instance", "flags", "location"}},
	"InCombat":         {ids: "260", fields: []string{"inACTCombat", "inGameCombat", "isACTChanged", "isGameChanged"}},
}

var (
	netParam       = regexp.MustCompile(`^\s*([A-Za-z][A-Za-z0-9]*)\s*:\s*("(?:[^"\\]|\\.)*"|\[[^\]]*\])\s*(?:,|$)`)
	netArrayString = regexp.MustCompile(`"(?:[^"\\]|\\.)*"`)
)

// buildNetRegex turns `Type { key: "value", other: ["a", "b"] }` parameters
// into a pattern over pipe-delimited log lines. Values are pattern fragments.
func buildNetRegex(typeName, params string) (string, error) {
	lineType, ok := netLineTypes[typeName]
	if !ok {
		return "", fmt.Errorf("unknown log line type %s", typeName)
	}
	values, err := parseNetParams(params)
	if err != nil {
		return "", err
	}

	position := make(map[string]int, len(lineType.fields))
	for i, field := range lineType.fields {
		position[field] = i
	}
	last := -1
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		idx, ok := position[key]
		if !ok {
			return "", fmt.Errorf("%s has no field %s", typeName, key)
		}
		if idx > last {
			last = idx
		}
	}

	var b strings.Builder
	b.WriteString(`^(?:` + lineType.ids + `)\|[^|]*`)
	for i := 0; i <= last; i++ {
		b.WriteString(`\|`)
		if value, ok := values[lineType.fields[i]]; ok {
			b.WriteString(value)
		} else {
			b.WriteString(`[^|]*`)
		}
	}
	b.WriteString(`(?:$|\|)`)
	return b.String(), nil
}

func parseNetParams(params string) (map[string]string, error) {
	values := map[string]string{}
	rest := params
	for strings.TrimSpace(rest) != "" {
		match := netParam.FindStringSubmatch(rest)
		if match == nil {
			return nil, fmt.Errorf("invalid parameters %q", strings.TrimSpace(rest))
		}
		key := match[1]
		if _, dup := values[key]; dup {
			return nil, fmt.Errorf("duplicate parameter %s", key)
		}
		value, err := netParamValue(match[2])
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", key, err)
		}
		values[key] = value
		rest = rest[len(match[0]):]
	}
	return values, nil
}

// netParamValue returns the field pattern as a group so an alternation in the
// value stays inside its field.
func netParamValue(raw string) (string, error) {
	if !strings.HasPrefix(raw, "[") {
		value, err := strconv.Unquote(raw)
		if err != nil {
			return "", err
		}
		return "(?:" + value + ")", nil
	}
	items := netArrayString.FindAllString(raw, -1)
	if len(items) == 0 {
		return "", fmt.Errorf("empty list")
	}
	alternatives := make([]string, 0, len(items))
	for _, item := range items {
		value, err := strconv.Unquote(item)
		if err != nil {
			return "", err
		}
		alternatives = append(alternatives, value)
	}
	return "(?:" + strings.Join(alternatives, "|") + ")", nil
}
