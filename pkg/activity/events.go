package activity

import (
	"errors"
	"strings"
	"time"

	"github.com/goliatone/go-traverse/internal/clone"
)

// Verbs emitted over a traversal context lifecycle.
const (
	VerbTraversalInitialized = "traversal.initialized"
	VerbTraversalCompleted   = "traversal.completed"
	VerbTraversalFailed      = "traversal.failed"
)

// ObjectTypeTraversal is the object type of every traversal event.
const ObjectTypeTraversal = "traversal"

// TraversalEventInput describes the state of a traversal context at the time
// an event is built.
type TraversalEventInput struct {
	ContextID     string
	ActorID       string
	TenantID      string
	Channel       string
	Format        string
	Version       string
	Groups        []string
	Attributes    map[string]any
	SerializeNull bool
	Rules         int
	Duration      time.Duration
	Err           error
	OccurredAt    time.Time
}

// BuildTraversalInitializedEvent reports that a context froze its configuration.
func BuildTraversalInitializedEvent(input TraversalEventInput) Event {
	return buildTraversalEvent(VerbTraversalInitialized, input)
}

// BuildTraversalCompletedEvent reports a top-level traversal that returned
// with a balanced metadata stack.
func BuildTraversalCompletedEvent(input TraversalEventInput) Event {
	return buildTraversalEvent(VerbTraversalCompleted, input)
}

// BuildTraversalFailedEvent reports a top-level traversal that returned an
// error. The error text is recorded under the "error" metadata key, and
// "error_kind" names the traverse error class when it can be told apart.
func BuildTraversalFailedEvent(input TraversalEventInput) Event {
	return buildTraversalEvent(VerbTraversalFailed, input)
}

func buildTraversalEvent(verb string, input TraversalEventInput) Event {
	metadata := map[string]any{
		"format":         strings.TrimSpace(input.Format),
		"serialize_null": input.SerializeNull,
		"rules":          input.Rules,
	}
	if input.Version != "" {
		metadata["version"] = input.Version
	}
	if len(input.Groups) > 0 {
		metadata["groups"] = append([]string{}, input.Groups...)
	}
	if len(input.Attributes) > 0 {
		metadata["attributes"] = clone.Map(input.Attributes)
	}
	if input.Duration > 0 {
		metadata["duration_ms"] = input.Duration.Milliseconds()
	}
	if input.Err != nil {
		metadata["error"] = input.Err.Error()
		if kind := errorKind(input.Err); kind != "" {
			metadata["error_kind"] = kind
		}
	}

	objectID := strings.TrimSpace(input.ContextID)
	if objectID == "" {
		objectID = ObjectTypeTraversal
	}

	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		TenantID:   strings.TrimSpace(input.TenantID),
		ObjectType: ObjectTypeTraversal,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

// errorKind classifies err by its Kind method when one is reachable through
// the unwrap chain.
func errorKind(err error) string {
	var kinded interface{ Kind() string }
	if errors.As(err, &kinded) {
		return kinded.Kind()
	}
	return ""
}
