package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	cfotel "github.com/Strob0t/AgentCanvas/internal/adapter/otel"
	"github.com/Strob0t/AgentCanvas/internal/domain"
	"github.com/Strob0t/AgentCanvas/internal/domain/task"
)

// DelegationOutcome is the answer a coordinator gives for one task.
type DelegationOutcome struct {
	Text      string
	Delegated bool
	Target    string
	TaskID    string
	State     task.State
	// Escalate asks for a human; SkipSummarization stops further
	// automated processing of Text.
	Escalate          bool
	SkipSummarization bool
}

// Delegator decides whether a coordinator answers a task itself or hands
// it to exactly one registered agent.
type Delegator struct {
	registry    *AgentRegistry
	classifier  Classifier
	outputModes []string
}

// NewDelegator creates a delegator over registry. A nil classifier matches
// the send_task trigger against the registry's names.
func NewDelegator(registry *AgentRegistry, classifier Classifier, outputModes []string) *Delegator {
	if classifier == nil {
		classifier = NewDelegationClassifier(registry.Names)
	}
	return &Delegator{registry: registry, classifier: classifier, outputModes: outputModes}
}

// Resolve classifies reasoning. Without a delegation intent for a
// registered agent the reasoning is returned verbatim and nothing is sent.
// Otherwise the original query goes to the target.
func (d *Delegator) Resolve(ctx context.Context, query, reasoning string) (DelegationOutcome, error) {
	intent := d.classifier.Classify(reasoning)
	if intent.Kind != IntentDelegate {
		return DelegationOutcome{Text: reasoning}, nil
	}

	out, err := d.Send(ctx, intent.Target, query)
	if errors.Is(err, domain.ErrNotFound) {
		slog.Info("delegation target not registered", "target", intent.Target)
		return DelegationOutcome{Text: reasoning}, nil
	}
	return out, err
}

// Send delivers message to the agent called name and interprets the result.
// Unknown names fail with ErrNotFound, transport failures match
// ErrSendFailed, and canceled or failed tasks match ErrDelegationFailed.
func (d *Delegator) Send(ctx context.Context, name, message string) (DelegationOutcome, error) {
	b, err := d.registry.Lookup(name)
	if err != nil {
		return DelegationOutcome{}, err
	}
	if b.Conn == nil {
		return DelegationOutcome{}, fmt.Errorf("%w: agent %s has no server address", domain.ErrNotFound, name)
	}

	ctx, span := cfotel.StartDelegationSpan(ctx, name)
	defer span.End()

	env, err := task.NewQueryEnvelope(message, task.WithAcceptedOutputModes(d.outputModes...))
	if err != nil {
		return DelegationOutcome{}, err
	}

	res, err := b.Conn.SendTask(ctx, env)
	if err != nil {
		span.RecordError(err)
		return DelegationOutcome{}, fmt.Errorf("delegate to %s: %w", name, err)
	}

	out := DelegationOutcome{
		Delegated: true,
		Target:    name,
		TaskID:    res.ID,
		State:     res.Status.State,
	}
	switch res.Status.State {
	case task.StateCanceled:
		return out, fmt.Errorf("%w: agent %s task %s is cancelled", domain.ErrDelegationFailed, name, res.ID)
	case task.StateFailed:
		return out, fmt.Errorf("%w: agent %s task %s failed", domain.ErrDelegationFailed, name, res.ID)
	case task.StateInputRequired:
		out.Escalate = true
		out.SkipSummarization = true
	}
	out.Text = strings.Join(res.Flatten(), "\n")

	slog.Info("task delegated", "target", name, "task_id", res.ID, "state", res.Status.State)
	return out, nil
}
