package parser

import "regexp"

const (
	defaultWindowBefore = 2.5
	defaultWindowAfter  = 2.5
)

// Options tune parsing independently of any encounter.
type Options struct {
	// WindowBefore and WindowAfter bound a sync without an explicit window.
	WindowBefore float64
	WindowAfter  float64
}

// DefaultOptions returns a fresh copy of the default options.
func DefaultOptions() Options {
	return Options{
		WindowBefore: defaultWindowBefore,
		WindowAfter:  defaultWindowAfter,
	}
}

// Replacement rewrites the display text of events whose text matches.
type Replacement struct {
	Match   *regexp.Regexp
	Replace string
}

// TimeOffset shifts every event whose name matches by Seconds.
type TimeOffset struct {
	Match   *regexp.Regexp
	Seconds float64
}

// Trigger adds a text cue before every event whose name matches. An empty
// Text shows the event's display text.
type Trigger struct {
	Match         *regexp.Regexp
	Type          TextType
	Text          string
	SecondsBefore float64
}

// Input carries everything a parse may depend on besides the script. The zero
// value except for Options describes a context-free parse.
type Input struct {
	Entities []Replacement
	Offsets  []TimeOffset
	Triggers []Trigger
	Options  Options
}

// StaticInput is the context-free input used for ahead-of-time compilation.
func StaticInput() Input {
	return Input{Options: DefaultOptions()}
}
