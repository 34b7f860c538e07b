package usersink_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-traverse/pkg/activity"
	"github.com/goliatone/go-traverse/pkg/activity/usersink"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	records []usertypes.ActivityRecord
	err     error
}

func (s *recordingSink) Log(_ context.Context, record usertypes.ActivityRecord) error {
	s.records = append(s.records, record)
	return s.err
}

func TestHookNotifyMapsTraversalEvent(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	actorID := uuid.New()
	tenantID := uuid.New()
	contextID := uuid.NewString()

	event := activity.BuildTraversalCompletedEvent(activity.TraversalEventInput{
		ContextID:  contextID,
		ActorID:    actorID.String(),
		TenantID:   tenantID.String(),
		Channel:    "serializer",
		Format:     "json",
		Version:    "2",
		Groups:     []string{"public"},
		Duration:   1500 * time.Millisecond,
		OccurredAt: now,
	})

	require.NoError(t, hook.Notify(context.Background(), event))
	require.Len(t, sink.records, 1)

	record := sink.records[0]
	assert.Equal(t, actorID, record.ActorID)
	assert.Equal(t, tenantID, record.TenantID)
	assert.Equal(t, activity.VerbTraversalCompleted, record.Verb)
	assert.Equal(t, activity.ObjectTypeTraversal, record.ObjectType)
	assert.Equal(t, contextID, record.ObjectID)
	assert.Equal(t, "serializer", record.Channel)
	assert.Equal(t, now, record.OccurredAt)
	assert.Equal(t, contextID, record.Data["context_id"])
	assert.Equal(t, "json", record.Data["format"])
	assert.Equal(t, "2", record.Data["version"])
	assert.Equal(t, []string{"public"}, record.Data["groups"])
	assert.Equal(t, int64(1500), record.Data["duration_ms"])
}

func TestHookNotifyInvalidIDsFallBackToNil(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	err := hook.Notify(context.Background(), activity.Event{
		Verb:       activity.VerbTraversalInitialized,
		ActorID:    "not-a-uuid",
		ObjectType: activity.ObjectTypeTraversal,
		ObjectID:   "ctx-1",
	})
	require.NoError(t, err)
	require.Len(t, sink.records, 1)
	assert.Equal(t, uuid.Nil, sink.records[0].ActorID)
	assert.False(t, sink.records[0].OccurredAt.IsZero())
}

func TestHookNotifySkipsIncompleteEventsAndPropagatesSinkErrors(t *testing.T) {
	boom := errors.New("sink down")
	sink := &recordingSink{err: boom}
	hook := usersink.Hook{Sink: sink}

	require.NoError(t, hook.Notify(context.Background(), activity.Event{Verb: "traversal.completed"}))
	assert.Empty(t, sink.records)

	err := hook.Notify(context.Background(), activity.BuildTraversalFailedEvent(activity.TraversalEventInput{ContextID: "ctx-2"}))
	assert.ErrorIs(t, err, boom)

	var nilSinkHook usersink.Hook
	assert.NoError(t, nilSinkHook.Notify(context.Background(), activity.Event{Verb: "x", ObjectType: "y", ObjectID: "z"}))
}
