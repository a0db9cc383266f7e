package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Strob0t/AgentCanvas/internal/domain/agent"
	"github.com/Strob0t/AgentCanvas/internal/domain/canvas"
	"github.com/Strob0t/AgentCanvas/internal/domain/task"
	"github.com/Strob0t/AgentCanvas/internal/port/a2a"
	"github.com/Strob0t/AgentCanvas/internal/port/reasoner"
)

// Built-in agent roles.
const (
	RoleSearch = "search"
	RoleHost   = "host"
)

// EmptyQueryText stands in for a task without a text part.
const EmptyQueryText = "No text provided"

// persona holds the fixed drawing and wording of one role.
type persona struct {
	intro       string // follows "I am the <name>"
	origin      float64
	color       string
	strokeWidth int
	mermaid     string
	mermaidAt   [2]float64
}

var personas = map[string]persona{
	RoleSearch: {
		origin:      100,
		color:       "#3b82f6",
		strokeWidth: 2,
		mermaid: "graph TD\n    A[Start] --> B[Process]\n    B --> C[Decision]\n" +
			"    C -->|Yes| D[Action 1]\n    C -->|No| E[Action 2]\n    D --> F[End]\n    E --> F[End]",
		mermaidAt: [2]float64{50, 50},
	},
	RoleHost: {
		intro:       ", a coordination agent",
		origin:      150,
		color:       "#10b981",
		strokeWidth: 3,
		mermaid: "graph LR\n    A[Input] --> B[Process]\n    B --> C[Validate]\n" +
			"    C -->|Valid| D[Output]\n    C -->|Invalid| E[Error]\n    E --> B",
		mermaidAt: [2]float64{100, 100},
	},
}

// BuiltinAgent answers tasks as one of the bundled agent personas. Drawing
// and diagram requests produce canvas actions. The host role may consult a
// reasoner and delegate to a remote agent.
type BuiltinAgent struct {
	role      string
	name      string
	intents   Classifier
	reasoner  reasoner.Reasoner
	opts      reasoner.Options
	delegator *Delegator
	remotes   *AgentRegistry
}

// BuiltinOption customizes a BuiltinAgent.
type BuiltinOption func(*BuiltinAgent)

// WithReasoner lets the host consult r before answering.
func WithReasoner(r reasoner.Reasoner, opts reasoner.Options) BuiltinOption {
	return func(a *BuiltinAgent) { a.reasoner, a.opts = r, opts }
}

// WithDelegation lets the host hand tasks to agents registered in remotes.
func WithDelegation(remotes *AgentRegistry, d *Delegator) BuiltinOption {
	return func(a *BuiltinAgent) { a.remotes, a.delegator = remotes, d }
}

// WithIntentClassifier replaces the keyword canvas classifier.
func WithIntentClassifier(c Classifier) BuiltinOption {
	return func(a *BuiltinAgent) { a.intents = c }
}

// NewBuiltinAgent creates an agent for role (search or host).
func NewBuiltinAgent(role, name string, opts ...BuiltinOption) (*BuiltinAgent, error) {
	if _, ok := personas[role]; !ok {
		return nil, fmt.Errorf("unknown agent role %q", role)
	}
	a := &BuiltinAgent{role: role, name: name, intents: NewCanvasClassifier()}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

var _ a2a.TaskHandler = (*BuiltinAgent)(nil)

// Name returns the agent name.
func (a *BuiltinAgent) Name() string { return a.name }

// Health is the body of the agent's health endpoint.
type Health struct {
	Status string `json:"status"`
	Agent  string `json:"agent"`
}

// Health reports the agent as healthy.
func (a *BuiltinAgent) Health() Health {
	return Health{Status: "healthy", Agent: a.name}
}

// HandleTask answers env. The first text part is the query.
func (a *BuiltinAgent) HandleTask(ctx context.Context, env task.Envelope) (*task.Result, error) {
	query := firstText(env)
	p := personas[a.role]

	switch a.intents.Classify(query).Kind {
	case IntentDraw:
		text := fmt.Sprintf("I am the %s%s. I've drawn a rectangle for you based on your request: '%s'. The drawing has been added to the canvas.",
			a.name, p.intro, query)
		return task.NewResult(env, task.StateCompleted,
			task.TextPart(text),
			task.DataPart(canvas.Payload(canvas.ActionDraw, a.name, p.rectangle())),
		), nil
	case IntentMermaid:
		text := fmt.Sprintf("I am the %s%s. I've created a Mermaid flowchart diagram for you based on your request: '%s'. The diagram has been added to the canvas.",
			a.name, p.intro, query)
		return task.NewResult(env, task.StateCompleted,
			task.TextPart(text),
			task.DataPart(canvas.Payload(canvas.ActionMermaid, a.name, map[string]any{
				"content":  p.mermaid,
				"position": map[string]any{"x": p.mermaidAt[0], "y": p.mermaidAt[1]},
			})),
		), nil
	}

	if a.role == RoleHost && a.reasoner != nil {
		return a.coordinate(ctx, env, query)
	}
	return task.NewResult(env, task.StateCompleted, task.TextPart(a.defaultText(query))), nil
}

// coordinate asks the reasoner what to do and follows a delegation intent.
func (a *BuiltinAgent) coordinate(ctx context.Context, env task.Envelope, query string) (*task.Result, error) {
	reasoning, err := a.reasoner.Generate(ctx, a.prompt(query), a.opts)
	if err != nil {
		slog.Warn("reasoner unavailable, answering directly", "agent", a.name, "error", err)
		return task.NewResult(env, task.StateCompleted, task.TextPart(a.defaultText(query))), nil
	}
	if a.delegator == nil {
		return task.NewResult(env, task.StateCompleted, task.TextPart(reasoning)), nil
	}

	out, err := a.delegator.Resolve(ctx, query, reasoning)
	if err != nil {
		slog.ErrorContext(ctx, "delegation failed", "agent", a.name, "error", err)
		return task.NewResult(env, task.StateFailed, task.TextPart("Error processing request: "+err.Error())), nil
	}
	if !out.Delegated {
		return task.NewResult(env, task.StateCompleted, task.TextPart(out.Text)), nil
	}

	state := task.StateCompleted
	if out.Escalate {
		state = task.StateInputRequired
	}
	text := fmt.Sprintf("Response from %s:\n%s", out.Target, out.Text)
	res := task.NewResult(env, state, task.TextPart(text))
	res.Metadata = map[string]any{
		"delegated_to":       out.Target,
		"delegated_task_id":  out.TaskID,
		"skip_summarization": out.SkipSummarization,
		"escalate":           out.Escalate,
	}
	return res, nil
}

func (a *BuiltinAgent) defaultText(query string) string {
	var b strings.Builder
	switch a.role {
	case RoleHost:
		fmt.Fprintf(&b, "I am the %s, a coordination agent. I received your request: '%s'. ", a.name, query)
		b.WriteString("I can help coordinate tasks between different agents. ")
		b.WriteString("For search-related questions, I can delegate to the search agent. ")
		b.WriteString("For complex tasks, I can break them down and coordinate with multiple agents.")
	default:
		fmt.Fprintf(&b, "I am the %s, a search specialist. I received your query: '%s'. ", a.name, query)
		lower := strings.ToLower(query)
		if strings.Contains(lower, "monument") || strings.Contains(lower, "landmark") {
			b.WriteString("The Statue of Liberty is one of the most iconic monuments in the US, located in New York Harbor. ")
			b.WriteString("Other famous US landmarks include the Washington Monument, Mount Rushmore, and the Golden Gate Bridge. ")
			b.WriteString("Each of these represents important aspects of American history and culture.")
		} else {
			b.WriteString("I can help you find information about popular topics, monuments, landmarks, and general knowledge questions. ")
			b.WriteString("I have access to a wide range of information and can provide detailed, accurate responses.")
		}
	}
	return b.String()
}

// prompt builds the host reasoning prompt listing the delegation targets.
func (a *BuiltinAgent) prompt(query string) string {
	var b strings.Builder
	b.WriteString("You are an expert delegator that can delegate the user request to the appropriate remote agents.\n\n")
	b.WriteString("Available tools:\n")
	b.WriteString("1. send_task(agent_name: string, message: string) - Send a task to a remote agent\n")
	b.WriteString("2. list_remote_agents() - List available remote agents\n\n")
	b.WriteString("Available agents:\n")
	if a.remotes != nil {
		for _, d := range a.remotes.List() {
			line, _ := json.Marshal(map[string]string{"name": d.Name, "description": d.Description})
			b.Write(line)
			b.WriteByte('\n')
		}
	}
	b.WriteString("\nInstructions: Use the send_task tool to delegate user requests to the appropriate agent. ")
	b.WriteString("If no agent fits, answer the user directly.\n\n")
	fmt.Fprintf(&b, "User: %s\nAssistant:", query)
	return b.String()
}

func (p persona) rectangle() map[string]any {
	lo, hi := p.origin, p.origin+100
	return map[string]any{
		"path": []any{
			map[string]any{"x": lo, "y": lo, "type": "move"},
			map[string]any{"x": hi, "y": lo, "type": "line"},
			map[string]any{"x": hi, "y": hi, "type": "line"},
			map[string]any{"x": lo, "y": hi, "type": "line"},
			map[string]any{"x": lo, "y": lo, "type": "line"},
		},
		"color":       p.color,
		"strokeWidth": p.strokeWidth,
	}
}

func firstText(env task.Envelope) string {
	if len(env.Message.Parts) == 0 {
		return EmptyQueryText
	}
	first := env.Message.Parts[0]
	if first.Kind != task.PartText || first.Text == "" {
		return EmptyQueryText
	}
	return first.Text
}

// LoadRemoteAgents fetches the card at each address and registers the agent
// under its card name. Unreachable addresses are logged and skipped.
func LoadRemoteAgents(ctx context.Context, registry *AgentRegistry, fetcher a2a.CardFetcher, addresses []string) []agent.Descriptor {
	var loaded []agent.Descriptor
	for _, addr := range addresses {
		card, err := fetcher.FetchCard(ctx, addr)
		if err != nil {
			slog.Warn("remote agent unavailable", "url", addr, "error", err)
			continue
		}
		d, _, err := registry.Ensure(agent.Descriptor{
			Name:        card.Name,
			Description: card.Description,
			ServerURL:   strings.TrimRight(addr, "/"),
			IsActive:    true,
			Source:      agent.SourceDiscovered,
		})
		if err != nil {
			slog.Warn("remote agent not registered", "url", addr, "name", card.Name, "error", err)
			continue
		}
		slog.Info("remote agent loaded", "name", d.Name, "url", d.ServerURL)
		loaded = append(loaded, d)
	}
	return loaded
}
