// Package parser reads timeline scripts.
//
// A script is line oriented. Each line is one of:
//
//	<time> "<name>" [sync /re/ | <Type> { key: "v" }] [duration <s>]
//	                [window <before>[,<after>]] [jump <time|"label">]
//	                [forcejump <time|"label">]
//	<time> label "<name>"
//	hideall "<name>"
//	infotext|alerttext|alarmtext "<name>" before <s> ["<text>"]
//
// A # outside double quotes and outside a /pattern/ starts a comment.
package parser

import (
	"bufio"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const number = `-?[0-9]+(?:\.[0-9]+)?`

var (
	eventLine       = regexp.MustCompile(`^(` + number + `)\s+"([^"]*)"(.*)$`)
	labelLine       = regexp.MustCompile(`^(` + number + `)\s+label\s+"([^"]*)"\s*$`)
	hideallLine     = regexp.MustCompile(`^hideall\s+"([^"]*)"\s*$`)
	textLine        = regexp.MustCompile(`^(infotext|alerttext|alarmtext)\s+"([^"]*)"\s+before\s+(` + number + `)(?:\s+"([^"]*)")?\s*$`)
	syncCommand     = regexp.MustCompile(`(?:^|\s)sync\s*/(.*)/(?:\s|$)`)
	netCommand      = regexp.MustCompile(`(?:^|\s)([A-Z][A-Za-z]+)\s*\{([^}]*)\}(?:\s|$)`)
	durationCommand = regexp.MustCompile(`(?:^|\s)duration\s+([0-9]+(?:\.[0-9]+)?)(?:\s|$)`)
	windowCommand   = regexp.MustCompile(`(?:^|\s)window\s+([0-9]+(?:\.[0-9]+)?)(?:,([0-9]+(?:\.[0-9]+)?))?(?:\s|$)`)
	jumpCommand     = regexp.MustCompile(`(?:^|\s)(forcejump|jump)\s+("[^"]*"|` + number + `)(?:\s|$)`)
)

var textTypes = map[string]TextType{
	"infotext":  TextInfo,
	"alerttext": TextAlert,
	"alarmtext": TextAlarm,
}

type textCommand struct {
	kind   TextType
	name   string
	before float64
	text   string
}

type pendingJump struct {
	sync  *Sync
	label string
	line  int
	raw   string
}

type parseState struct {
	in       Input
	doc      *Document
	nextID   int
	syncs    []*Sync
	labels   map[string]float64
	pending  []pendingJump
	textCmds []textCommand
}

// Parse reads a timeline script. Unusable lines are reported in
// Document.Errors; an error is returned only when a sync pattern does not
// compile.
func Parse(text string, in Input) (*Document, error) {
	p := &parseState{
		in: in,
		doc: &Document{
			Events:     []*Event{},
			SyncStarts: []*Sync{},
			SyncEnds:   []*Sync{},
			ForceJumps: []*Sync{},
			Texts:      []Text{},
			Ignores:    map[string]bool{},
		},
		labels: map[string]float64{},
	}

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		if err := p.parseLine(lineNumber, scanner.Text()); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read timeline: %w", err)
	}

	p.resolveJumps()
	p.finish()
	return p.doc, nil
}

func (p *parseState) parseLine(lineNumber int, raw string) error {
	line := strings.TrimSpace(stripComment(raw))
	if line == "" {
		return nil
	}

	if m := hideallLine.FindStringSubmatch(line); m != nil {
		p.doc.Ignores[m[1]] = true
		return nil
	}
	if m := textLine.FindStringSubmatch(line); m != nil {
		before, _ := strconv.ParseFloat(m[3], 64)
		p.textCmds = append(p.textCmds, textCommand{kind: textTypes[m[1]], name: m[2], before: before, text: m[4]})
		return nil
	}
	if m := labelLine.FindStringSubmatch(line); m != nil {
		at, _ := strconv.ParseFloat(m[1], 64)
		p.labels[m[2]] = at
		return nil
	}
	if m := eventLine.FindStringSubmatch(line); m != nil {
		return p.parseEvent(lineNumber, raw, m[1], m[2], m[3])
	}

	p.lineError(lineNumber, raw, "unrecognized line")
	return nil
}

func (p *parseState) parseEvent(lineNumber int, raw, timeText, name, rest string) error {
	at, _ := strconv.ParseFloat(timeText, 64)
	for _, offset := range p.in.Offsets {
		if offset.Match != nil && offset.Match.MatchString(name) {
			at += offset.Seconds
		}
	}

	display := name
	for _, entity := range p.in.Entities {
		if entity.Match != nil {
			display = entity.Match.ReplaceAllString(display, entity.Replace)
		}
	}

	p.nextID++
	event := &Event{
		ID:         p.nextID,
		Time:       at,
		Name:       name,
		Text:       display,
		LineNumber: lineNumber,
	}
	p.doc.Events = append(p.doc.Events, event)

	var (
		pattern   string
		regexType RegexType
	)
	if loc := syncCommand.FindStringSubmatchIndex(rest); loc != nil {
		pattern = rest[loc[2]:loc[3]]
		regexType = RegexParsed
		rest = cut(rest, loc)
	} else if loc := netCommand.FindStringSubmatchIndex(rest); loc != nil {
		built, err := buildNetRegex(rest[loc[2]:loc[3]], rest[loc[4]:loc[5]])
		rest = cut(rest, loc)
		if err != nil {
			p.lineError(lineNumber, raw, err.Error())
		} else {
			pattern = built
			regexType = RegexNet
		}
	}

	if loc := durationCommand.FindStringSubmatchIndex(rest); loc != nil {
		duration, _ := strconv.ParseFloat(rest[loc[2]:loc[3]], 64)
		event.Duration = &duration
		rest = cut(rest, loc)
	}

	before, after := p.in.Options.WindowBefore, p.in.Options.WindowAfter
	hasWindow := false
	if loc := windowCommand.FindStringSubmatchIndex(rest); loc != nil {
		hasWindow = true
		before, _ = strconv.ParseFloat(rest[loc[2]:loc[3]], 64)
		after = before
		if loc[4] >= 0 {
			after, _ = strconv.ParseFloat(rest[loc[4]:loc[5]], 64)
		}
		rest = cut(rest, loc)
	}

	var (
		jumpKind   string
		jumpTarget string
	)
	if loc := jumpCommand.FindStringSubmatchIndex(rest); loc != nil {
		jumpKind = rest[loc[2]:loc[3]]
		jumpTarget = rest[loc[4]:loc[5]]
		rest = cut(rest, loc)
	}

	if strings.TrimSpace(rest) != "" {
		p.lineError(lineNumber, raw, fmt.Sprintf("unexpected %q", strings.TrimSpace(rest)))
	}
	if hasWindow && regexType == "" {
		p.lineError(lineNumber, raw, "window without sync")
	}

	if regexType != "" {
		compiled, err := regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("line %d: compile sync pattern: %w", lineNumber, err)
		}
		sync := &Sync{
			ID:         event.ID,
			RegexType:  regexType,
			Regex:      compiled,
			Start:      at - before,
			End:        at + after,
			Time:       at,
			LineNumber: lineNumber,
			Event:      event,
		}
		event.Sync = sync
		p.syncs = append(p.syncs, sync)
		if jumpKind == "jump" {
			p.setJump(sync, JumpNormal, jumpTarget, lineNumber, raw)
		}
	} else if jumpKind == "jump" {
		p.lineError(lineNumber, raw, "jump without sync")
	}

	if jumpKind == "forcejump" {
		if regexType != "" {
			p.lineError(lineNumber, raw, "forcejump on a line with sync")
			return nil
		}
		force := &Sync{
			ID:         event.ID,
			Start:      at,
			End:        at,
			Time:       at,
			LineNumber: lineNumber,
			Event:      event,
		}
		p.doc.ForceJumps = append(p.doc.ForceJumps, force)
		p.setJump(force, JumpForce, jumpTarget, lineNumber, raw)
	}
	return nil
}

func (p *parseState) setJump(sync *Sync, kind JumpType, target string, lineNumber int, raw string) {
	sync.JumpType = kind
	if strings.HasPrefix(target, `"`) {
		p.pending = append(p.pending, pendingJump{sync: sync, label: strings.Trim(target, `"`), line: lineNumber, raw: raw})
		return
	}
	value, _ := strconv.ParseFloat(target, 64)
	sync.Jump = &value
}

// resolveJumps binds label jumps once every label is known. A jump to an
// unknown label is dropped; a force jump without a target is removed.
func (p *parseState) resolveJumps() {
	dropped := map[*Sync]bool{}
	for _, jump := range p.pending {
		at, ok := p.labels[jump.label]
		if !ok {
			p.lineError(jump.line, jump.raw, fmt.Sprintf("unknown label %q", jump.label))
			jump.sync.JumpType = ""
			dropped[jump.sync] = true
			continue
		}
		value := at
		jump.sync.Jump = &value
	}
	if len(dropped) == 0 {
		return
	}
	kept := p.doc.ForceJumps[:0]
	for _, force := range p.doc.ForceJumps {
		if !dropped[force] {
			kept = append(kept, force)
		}
	}
	p.doc.ForceJumps = kept
}

func (p *parseState) finish() {
	doc := p.doc
	sort.SliceStable(doc.Events, func(i, j int) bool { return doc.Events[i].Time < doc.Events[j].Time })

	doc.SyncStarts = append(doc.SyncStarts, p.syncs...)
	sort.SliceStable(doc.SyncStarts, func(i, j int) bool { return doc.SyncStarts[i].Start < doc.SyncStarts[j].Start })
	doc.SyncEnds = append(doc.SyncEnds, p.syncs...)
	sort.SliceStable(doc.SyncEnds, func(i, j int) bool { return doc.SyncEnds[i].End < doc.SyncEnds[j].End })
	sort.SliceStable(doc.ForceJumps, func(i, j int) bool { return doc.ForceJumps[i].Time < doc.ForceJumps[j].Time })

	for _, cmd := range p.textCmds {
		for _, event := range doc.Events {
			if event.Name != cmd.name {
				continue
			}
			text := cmd.text
			if text == "" {
				text = event.Text
			}
			doc.Texts = append(doc.Texts, Text{Type: cmd.kind, SecondsBefore: cmd.before, Text: text, Time: event.Time - cmd.before})
		}
	}
	for _, trigger := range p.in.Triggers {
		if trigger.Match == nil {
			continue
		}
		for _, event := range doc.Events {
			if !trigger.Match.MatchString(event.Name) {
				continue
			}
			text := trigger.Text
			if text == "" {
				text = event.Text
			}
			kind := trigger.Type
			if kind == "" {
				kind = TextInfo
			}
			doc.Texts = append(doc.Texts, Text{Type: kind, SecondsBefore: trigger.SecondsBefore, Text: text, Time: event.Time - trigger.SecondsBefore})
		}
	}
	sort.SliceStable(doc.Texts, func(i, j int) bool { return doc.Texts[i].Time < doc.Texts[j].Time })
}

func (p *parseState) lineError(lineNumber int, raw, message string) {
	p.doc.Errors = append(p.doc.Errors, LineError{LineNumber: lineNumber, Line: raw, Message: message})
}

// cut removes the match at loc, leaving a space so neighbouring commands stay
// separated.
func cut(s string, loc []int) string {
	return s[:loc[0]] + " " + s[loc[1]:]
}

// stripComment drops everything from the first # that is neither inside
// double quotes nor inside a /pattern/ body.
func stripComment(line string) string {
	inQuote, inPattern, escaped := false, false, false
	for i, r := range line {
		switch {
		case inPattern:
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '/':
				inPattern = false
			}
		case inQuote:
			if r == '"' {
				inQuote = false
			}
		case r == '"':
			inQuote = true
		case r == '/':
			inPattern = true
		case r == '#':
			return line[:i]
		}
	}
	return line
}
