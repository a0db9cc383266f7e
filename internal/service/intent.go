package service

import "strings"

// IntentKind is what a piece of text asks for.
type IntentKind string

const (
	IntentNone     IntentKind = "none"
	IntentDelegate IntentKind = "delegate"
	IntentDraw     IntentKind = "draw"
	IntentMermaid  IntentKind = "mermaid"
)

// Intent is a classification result. Target names the agent for
// IntentDelegate.
type Intent struct {
	Kind   IntentKind
	Target string
}

// Classifier decides what a text asks for.
type Classifier interface {
	Classify(text string) Intent
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(text string) Intent

// Classify calls f.
func (f ClassifierFunc) Classify(text string) Intent { return f(text) }

// DefaultDelegationTrigger is the tool call a reasoning step emits when it
// wants to hand work to another agent.
const DefaultDelegationTrigger = "send_task"

// DelegationClassifier detects a delegation trigger and the agent name
// mentioned next to it. Matching is case-insensitive substring search.
type DelegationClassifier struct {
	Trigger string
	Names   func() []string
}

// NewDelegationClassifier matches against the names returned by names at
// classification time.
func NewDelegationClassifier(names func() []string) *DelegationClassifier {
	return &DelegationClassifier{Trigger: DefaultDelegationTrigger, Names: names}
}

// Classify returns IntentDelegate for the earliest mentioned known name,
// preferring the longer name when two start at the same position.
func (c *DelegationClassifier) Classify(text string) Intent {
	lower := strings.ToLower(text)
	trigger := c.Trigger
	if trigger == "" {
		trigger = DefaultDelegationTrigger
	}
	if !strings.Contains(lower, strings.ToLower(trigger)) || c.Names == nil {
		return Intent{Kind: IntentNone}
	}

	best, bestAt := "", -1
	for _, name := range c.Names() {
		if strings.TrimSpace(name) == "" {
			continue
		}
		at := strings.Index(lower, strings.ToLower(name))
		if at < 0 {
			continue
		}
		if bestAt < 0 || at < bestAt || (at == bestAt && len(name) > len(best)) {
			best, bestAt = name, at
		}
	}
	if bestAt < 0 {
		return Intent{Kind: IntentNone}
	}
	return Intent{Kind: IntentDelegate, Target: best}
}

// Keyword lists used by CanvasClassifier.
var (
	DrawKeywords    = []string{"draw", "circle", "rectangle", "square", "triangle", "line"}
	MermaidKeywords = []string{"mermaid", "diagram", "flowchart", "process flow"}
)

// CanvasClassifier picks a drawing or a diagram from keywords. Drawing
// keywords win when both kinds appear.
type CanvasClassifier struct {
	Draw    []string
	Mermaid []string
}

// NewCanvasClassifier uses the default keyword lists.
func NewCanvasClassifier() *CanvasClassifier {
	return &CanvasClassifier{Draw: DrawKeywords, Mermaid: MermaidKeywords}
}

// Classify implements Classifier.
func (c *CanvasClassifier) Classify(text string) Intent {
	lower := strings.ToLower(text)
	if containsAny(lower, c.Draw) {
		return Intent{Kind: IntentDraw}
	}
	if containsAny(lower, c.Mermaid) {
		return Intent{Kind: IntentMermaid}
	}
	return Intent{Kind: IntentNone}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
