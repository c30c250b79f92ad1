package adapters

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syncpad/syncpad/internal/app"
	"github.com/syncpad/syncpad/internal/config"
	"github.com/syncpad/syncpad/internal/core"
	"github.com/syncpad/syncpad/internal/domain"
	"github.com/syncpad/syncpad/internal/protocol"
)

type fakeLink struct {
	mu     sync.Mutex
	frames []core.Frame
}

func (l *fakeLink) TrySend(f core.Frame) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.frames = append(l.frames, f)
	return nil
}

func (l *fakeLink) Close() {}

func (l *fakeLink) events() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.frames))
	for _, f := range l.frames {
		var env protocol.Envelope
		if err := json.Unmarshal(f, &env); err == nil {
			out = append(out, env.Event)
		}
	}
	return out
}

func newController() (*WSController, *app.Coordinator) {
	cfg := &config.Config{
		ReadLimit:    1 << 20,
		PingPeriod:   54 * time.Second,
		WriteTimeout: 5 * time.Second,
		SendBuffer:   16,
	}
	coord := app.NewCoordinator(app.NewRegistry(), app.NewRoomDirectory(100), app.LossyPolicy{}, 1)
	return NewWSController(coord, cfg), coord
}

func bind(coord *app.Coordinator, id domain.ConnID) *fakeLink {
	link := &fakeLink{}
	coord.Register(id, link, func() {})
	return link
}

func event(t *testing.T, name string, payload any) []byte {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	raw, err := json.Marshal(protocol.Envelope{Event: name, Data: data})
	require.NoError(t, err)
	return raw
}

func TestHandleEventDispatchesJoin(t *testing.T) {
	ctl, coord := newController()
	link := bind(coord, "A")

	ctl.handleEvent("A", event(t, protocol.EventJoin, protocol.JoinPayload{
		RoomID:      "r1",
		DisplayName: "alice",
	}))

	assert.Equal(t, []string{protocol.EventJoined}, link.events())
	_, ok := coord.Rooms.Get("r1")
	assert.True(t, ok)
}

func TestHandleEventDropsMalformedJSON(t *testing.T) {
	ctl, coord := newController()
	link := bind(coord, "A")

	ctl.handleEvent("A", []byte("{not json"))
	ctl.handleEvent("A", []byte(`{"event":"join","data":"not an object"}`))

	assert.Empty(t, link.events())
	assert.Empty(t, coord.Rooms.List())
}

func TestHandleEventDropsInvalidPayload(t *testing.T) {
	ctl, coord := newController()
	link := bind(coord, "A")

	// displayName missing: validation failure, no mutation, no answer.
	ctl.handleEvent("A", event(t, protocol.EventJoin, map[string]string{"roomId": "r1"}))

	assert.Empty(t, link.events())
	_, ok := coord.Rooms.Get("r1")
	assert.False(t, ok)
}

func TestHandleEventDropsNonStringCode(t *testing.T) {
	ctl, coord := newController()
	bind(coord, "A")
	ctl.handleEvent("A", event(t, protocol.EventJoin, protocol.JoinPayload{RoomID: "r1", DisplayName: "alice"}))

	ctl.handleEvent("A", []byte(`{"event":"sync-code","data":{"roomId":"r1","code":42}}`))
	ctl.handleEvent("A", []byte(`{"event":"sync-code","data":{"roomId":"r1"}}`))

	room, ok := coord.Rooms.Get("r1")
	require.True(t, ok)
	_, hasSnapshot := room.Snapshot()
	assert.False(t, hasSnapshot, "rejected updates never touch the snapshot")
}

func TestHandleEventAcceptsEmptyCode(t *testing.T) {
	ctl, coord := newController()
	bind(coord, "A")
	ctl.handleEvent("A", event(t, protocol.EventJoin, protocol.JoinPayload{RoomID: "r1", DisplayName: "alice"}))

	ctl.handleEvent("A", []byte(`{"event":"sync-code","data":{"roomId":"r1","code":""}}`))

	room, ok := coord.Rooms.Get("r1")
	require.True(t, ok)
	code, hasSnapshot := room.Snapshot()
	assert.True(t, hasSnapshot, "an explicitly empty document is a valid update")
	assert.Empty(t, code)
}

func TestHandleEventDropsUnknownEvent(t *testing.T) {
	ctl, coord := newController()
	link := bind(coord, "A")

	ctl.handleEvent("A", event(t, "rename", map[string]string{"name": "eve"}))

	assert.Empty(t, link.events())
	assert.Empty(t, coord.Rooms.List())
}

func TestPeerTrySendRefusesWhenFull(t *testing.T) {
	p := &wsPeer{send: make(chan core.Frame, 1)}

	require.NoError(t, p.TrySend(core.Frame("one")))
	assert.ErrorIs(t, p.TrySend(core.Frame("two")), ErrBackpressure)
}
