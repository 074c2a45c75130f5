package room

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/immxrtalbeast/skillsync/internal/config"
	"github.com/immxrtalbeast/skillsync/internal/domain"
)

func testRegistry() *Registry {
	return NewRegistry(config.RoomConfig{
		HistoryLimit:  50,
		EvictionGrace: 10 * time.Minute,
		SweepInterval: time.Minute,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func drainEvents(c *domain.Client) []domain.Event {
	var events []domain.Event
	for {
		select {
		case event, ok := <-c.Events:
			if !ok {
				return events
			}
			events = append(events, event)
		default:
			return events
		}
	}
}

func TestAppendMessageCapsHistory(t *testing.T) {
	rm := testRegistry().GetOrCreate("r1")

	for i := 0; i < 60; i++ {
		_, ok := rm.AppendMessage("alice", fmt.Sprintf("msg-%d", i))
		require.True(t, ok)
	}

	history := rm.History()
	require.Len(t, history, 50)
	assert.Equal(t, "msg-10", history[0].Message)
	assert.Equal(t, "msg-59", history[49].Message)
}

func TestAppendMessageRejectsEmptyText(t *testing.T) {
	rm := testRegistry().GetOrCreate("r1")

	_, ok := rm.AppendMessage("alice", "")
	assert.False(t, ok)
	_, ok = rm.AppendMessage("alice", "   ")
	assert.False(t, ok)
	assert.Empty(t, rm.History())
}

func TestAppendMessageDefaultsAuthor(t *testing.T) {
	rm := testRegistry().GetOrCreate("r1")

	msg, ok := rm.AppendMessage("", "hello")
	require.True(t, ok)
	assert.Equal(t, "Anon", msg.User)
	assert.NotEmpty(t, msg.ID)
}

func TestJoinDeliversHistoryBeforeBroadcasts(t *testing.T) {
	rm := testRegistry().GetOrCreate("r1")

	alice := domain.NewClient(nil)
	rm.Join(alice)
	drainEvents(alice)

	_, ok := rm.AppendMessage("alice", "hi")
	require.True(t, ok)
	drainEvents(alice)

	bob := domain.NewClient(nil)
	rm.Join(bob)

	bobEvents := drainEvents(bob)
	require.NotEmpty(t, bobEvents)
	assert.Equal(t, domain.EventChatHistory, bobEvents[0].Type)

	var history []domain.ChatMessage
	require.NoError(t, json.Unmarshal(bobEvents[0].Payload, &history))
	require.Len(t, history, 1)
	assert.Equal(t, "hi", history[0].Message)

	aliceEvents := drainEvents(alice)
	require.Len(t, aliceEvents, 1)
	assert.Equal(t, domain.EventUserJoined, aliceEvents[0].Type)

	var joinedID string
	require.NoError(t, json.Unmarshal(aliceEvents[0].Payload, &joinedID))
	assert.Equal(t, bob.ID, joinedID)
}

func TestChatMessageBroadcastIncludesSender(t *testing.T) {
	rm := testRegistry().GetOrCreate("r1")

	alice := domain.NewClient(nil)
	bob := domain.NewClient(nil)
	rm.Join(alice)
	rm.Join(bob)
	drainEvents(alice)
	drainEvents(bob)

	sent, ok := rm.AppendMessage("alice", "hi")
	require.True(t, ok)

	for _, c := range []*domain.Client{alice, bob} {
		events := drainEvents(c)
		require.Len(t, events, 1)
		assert.Equal(t, domain.EventChatMessage, events[0].Type)

		var msg domain.ChatMessage
		require.NoError(t, json.Unmarshal(events[0].Payload, &msg))
		assert.Equal(t, sent.ID, msg.ID)
		assert.Equal(t, "alice", msg.User)
		assert.Equal(t, "hi", msg.Message)
	}
}

func TestRelayExcludesSender(t *testing.T) {
	rm := testRegistry().GetOrCreate("r1")

	alice := domain.NewClient(nil)
	bob := domain.NewClient(nil)
	rm.Join(alice)
	rm.Join(bob)
	drainEvents(alice)
	drainEvents(bob)

	payload := json.RawMessage(`{"sdp":"v=0","type":"offer"}`)
	rm.Relay(alice.ID, domain.Event{Type: domain.EventReceiveOffer, Room: "r1", Payload: payload})

	assert.Empty(t, drainEvents(alice))

	bobEvents := drainEvents(bob)
	require.Len(t, bobEvents, 1)
	assert.Equal(t, domain.EventReceiveOffer, bobEvents[0].Type)
	assert.JSONEq(t, string(payload), string(bobEvents[0].Payload))
}

func TestRelayWithoutOtherMembersIsSilent(t *testing.T) {
	rm := testRegistry().GetOrCreate("r1")

	alice := domain.NewClient(nil)
	rm.Join(alice)
	drainEvents(alice)

	rm.Relay(alice.ID, domain.Event{Type: domain.EventReceiveOffer, Room: "r1"})
	assert.Empty(t, drainEvents(alice))
}

func TestSetNameBroadcastsFullPresenceList(t *testing.T) {
	rm := testRegistry().GetOrCreate("r1")

	alice := domain.NewClient(nil)
	bob := domain.NewClient(nil)
	rm.Join(alice)
	rm.Join(bob)
	rm.SetName(alice.ID, "alice")
	drainEvents(alice)
	drainEvents(bob)

	rm.SetName(bob.ID, "bob")

	events := drainEvents(alice)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventPresenceUpdate, events[0].Type)

	var users []string
	require.NoError(t, json.Unmarshal(events[0].Payload, &users))
	assert.ElementsMatch(t, []string{"alice", "bob"}, users)

	// Setting the same name again is harmless.
	rm.SetName(bob.ID, "bob")
	assert.ElementsMatch(t, []string{"alice", "bob"}, rm.Presence())
}

func TestLeaveRemovesPresenceAndNotifiesRemaining(t *testing.T) {
	rm := testRegistry().GetOrCreate("r1")

	alice := domain.NewClient(nil)
	bob := domain.NewClient(nil)
	rm.Join(alice)
	rm.Join(bob)
	rm.SetName(alice.ID, "alice")
	rm.SetName(bob.ID, "bob")
	drainEvents(alice)
	drainEvents(bob)

	rm.Leave(alice.ID)

	assert.Empty(t, drainEvents(alice))

	bobEvents := drainEvents(bob)
	require.Len(t, bobEvents, 1)
	assert.Equal(t, domain.EventPresenceUpdate, bobEvents[0].Type)

	var users []string
	require.NoError(t, json.Unmarshal(bobEvents[0].Payload, &users))
	assert.Equal(t, []string{"bob"}, users)

	// Leaving twice is a no-op.
	rm.Leave(alice.ID)
	assert.Empty(t, drainEvents(bob))
}

func TestLeaveLastMemberMarksRoomIdle(t *testing.T) {
	rm := testRegistry().GetOrCreate("r1")

	alice := domain.NewClient(nil)
	rm.Join(alice)
	assert.True(t, rm.IdleSince().IsZero())

	rm.Leave(alice.ID)
	assert.False(t, rm.IdleSince().IsZero())
	assert.Zero(t, rm.MemberCount())
}

func TestEvictIdleRespectsGraceAndMembers(t *testing.T) {
	registry := testRegistry()

	idle := registry.GetOrCreate("idle")
	alice := domain.NewClient(nil)
	idle.Join(alice)
	idle.Leave(alice.ID)

	busy := registry.GetOrCreate("busy")
	bob := domain.NewClient(nil)
	busy.Join(bob)

	// Still within the grace period.
	assert.Zero(t, registry.EvictIdle(time.Now()))
	require.Equal(t, 2, registry.Len())

	evicted := registry.EvictIdle(time.Now().Add(11 * time.Minute))
	assert.Equal(t, 1, evicted)
	require.Equal(t, 1, registry.Len())

	_, ok := registry.Get("busy")
	assert.True(t, ok)
	_, ok = registry.Get("idle")
	assert.False(t, ok)
}

func TestEnqueueToClosedClientIsDropped(t *testing.T) {
	rm := testRegistry().GetOrCreate("r1")

	alice := domain.NewClient(nil)
	bob := domain.NewClient(nil)
	rm.Join(alice)
	rm.Join(bob)
	drainEvents(alice)
	drainEvents(bob)

	bob.CloseEvents()

	// Must not panic on the closed channel.
	_, ok := rm.AppendMessage("alice", "hi")
	require.True(t, ok)

	events := drainEvents(alice)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventChatMessage, events[0].Type)
}
