package parser

import (
	"fmt"
	"regexp"
)

// RegexType names how a sync pattern was declared.
type RegexType string

const (
	// RegexParsed is a raw pattern written as sync /.../.
	RegexParsed RegexType = "parsed"
	// RegexNet is a pattern built from a typed log-line declaration.
	RegexNet RegexType = "net"
)

// JumpType distinguishes conditional jumps from unconditional ones.
type JumpType string

const (
	JumpNormal JumpType = "normal"
	JumpForce  JumpType = "force"
)

// TextType is the display category of a text cue.
type TextType string

const (
	TextInfo  TextType = "info"
	TextAlert TextType = "alert"
	TextAlarm TextType = "alarm"
	TextTTS   TextType = "tts"
)

// Event is one timed entry of a timeline.
type Event struct {
	ID         int
	Time       float64
	Name       string
	Text       string
	ActiveTime float64
	LineNumber int
	Duration   *float64
	SortKey    *int
	IsDur      *bool
	// Sync is the directive declared on the same line, if any.
	Sync *Sync
}

// Sync repositions the timeline when Regex matches between Start and End.
// Force jumps share this shape with no pattern and a zero-width window.
type Sync struct {
	ID         int
	RegexType  RegexType
	Regex      *regexp.Regexp
	Start      float64
	End        float64
	Time       float64
	LineNumber int
	Event      *Event
	Jump       *float64
	JumpType   JumpType
}

// Text is a cue shown SecondsBefore an event.
type Text struct {
	Type          TextType
	SecondsBefore float64
	Text          string
	Time          float64
}

// LineError records a line the parser could not use. Line errors do not stop
// parsing.
type LineError struct {
	LineNumber int
	Line       string
	Message    string
}

func (e LineError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.LineNumber, e.Message, e.Line)
}

// Document is the parsed form of one timeline script.
type Document struct {
	Events     []*Event
	SyncStarts []*Sync
	SyncEnds   []*Sync
	ForceJumps []*Sync
	Texts      []Text
	Ignores    map[string]bool
	Errors     []LineError
}
