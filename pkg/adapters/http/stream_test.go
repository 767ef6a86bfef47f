package http

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/govform/pkg/domain"
)

func TestStreamManager_SubscribeAndCancel(t *testing.T) {
	sm := NewStreamManager(nil)
	ch, cancel := sm.Subscribe("s1")
	assert.Equal(t, 1, sm.Subscribers("s1"))

	sm.Broadcast("s1", Message{Event: EventDiff, Data: "{}"})
	sm.Broadcast("other", Message{Event: EventDiff, Data: "{}"})
	assert.Equal(t, Message{Event: EventDiff, Data: "{}"}, <-ch)

	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)
	assert.Zero(t, sm.Subscribers("s1"))
	assert.Empty(t, sm.subscribers)
}

func TestStreamManager_SlowClientDrops(t *testing.T) {
	sm := NewStreamManager(nil)
	ch, cancel := sm.Subscribe("s1")
	defer cancel()

	for i := 0; i < 20; i++ {
		sm.Broadcast("s1", Message{Event: EventDiff})
	}
	assert.Len(t, ch, cap(ch))
}

func TestStreamManager_BroadcastDiff(t *testing.T) {
	sm := NewStreamManager(nil)
	ch, cancel := sm.Subscribe("s1")
	defer cancel()

	before := domain.Snapshot{SessionID: "s1", Data: domain.NewFormData()}
	sm.BroadcastDiff(&before, &before)
	assert.Empty(t, ch)

	after := before
	after.Data = before.Data.Clone()
	after.Data.City = "Springfield"
	after.CurrentStep = domain.StepAddress
	sm.BroadcastDiff(&before, &after)

	msg := <-ch
	assert.Equal(t, EventDiff, msg.Event)
	var diff domain.SnapshotDiff
	require.NoError(t, json.Unmarshal([]byte(msg.Data), &diff))
	require.NotNil(t, diff.CurrentStep)
	assert.Equal(t, domain.StepAddress, *diff.CurrentStep)
	assert.Equal(t, "Springfield", diff.Fields[domain.FieldCity])
}

func TestStreamManager_Notify(t *testing.T) {
	sm := NewStreamManager(nil)
	ch, cancel := sm.Subscribe("s1")
	defer cancel()

	sm.Notify(context.Background(), domain.Notification{SessionID: "s1", Kind: domain.NotifyUploadAccepted, Title: "File uploaded successfully"})
	msg := <-ch
	assert.Equal(t, EventNotification, msg.Event)
	assert.Contains(t, msg.Data, "File uploaded successfully")
}
