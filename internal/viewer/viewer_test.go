package viewer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeusync/crowdnav/internal/core/observability/log"
	"github.com/zeusync/crowdnav/internal/core/sim"
	"github.com/zeusync/crowdnav/pkg/geom"
)

type fakeSource struct {
	frame sim.Frame
	err   error
}

func (f *fakeSource) Snapshot() (sim.Frame, error) { return f.frame, f.err }
func (f *fakeSource) Rooms() []string              { return []string{"simple", "mall"} }

func sampleFrame(tick uint64) sim.Frame {
	return sim.Frame{
		Tick:   tick,
		Room:   "simple",
		Width:  360,
		Height: 240,
		Agents: []sim.AgentState{{ID: uuid.New(), Position: geom.V(10, 20), Radius: 5}},
	}
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		conn.Close()
		if resp != nil {
			resp.Body.Close()
		}
	})
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	var m message
	require.NoError(t, json.Unmarshal(payload, &m))
	return m
}

func TestFeed(t *testing.T) {
	source := &fakeSource{frame: sampleFrame(1)}
	s := New(source, log.Nop())
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	conn := dial(t, srv)
	hello := readMessage(t, conn)
	assert.Equal(t, "hello", hello.Type)
	assert.Equal(t, []string{"simple", "mall"}, hello.Rooms)
	require.NotNil(t, hello.Frame)
	assert.Equal(t, uint64(1), hello.Frame.Tick)

	require.Eventually(t, func() bool { return s.Clients() == 1 }, 5*time.Second, 10*time.Millisecond)

	next := sampleFrame(2)
	s.Publish(next)
	m := readMessage(t, conn)
	assert.Equal(t, "frame", m.Type)
	require.NotNil(t, m.Frame)
	assert.Equal(t, next.Tick, m.Frame.Tick)
	assert.Equal(t, next.Agents, m.Frame.Agents)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return s.Clients() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestHelloWithoutRoom(t *testing.T) {
	s := New(&fakeSource{err: sim.ErrNoActiveRoom}, log.Nop())
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	hello := readMessage(t, dial(t, srv))
	assert.Equal(t, "hello", hello.Type)
	assert.Nil(t, hello.Frame)
}

func TestState(t *testing.T) {
	source := &fakeSource{frame: sampleFrame(7)}
	srv := httptest.NewServer(New(source, log.Nop()).Handler())
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/state")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var f sim.Frame
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&f))
	assert.Equal(t, uint64(7), f.Tick)

	source.err = sim.ErrNoActiveRoom
	resp2, err := http.Get(srv.URL + "/state")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp2.StatusCode)
}

func TestStartStop(t *testing.T) {
	s := New(&fakeSource{frame: sampleFrame(1)}, log.Nop())
	require.NoError(t, s.Start("127.0.0.1:0"))
	require.NotEmpty(t, s.Addr())

	conn, resp, err := websocket.DefaultDialer.Dial("ws://"+s.Addr()+"/ws", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()
	_ = readMessage(t, conn)
	require.Eventually(t, func() bool { return s.Clients() == 1 }, 5*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.Zero(t, s.Clients())
}

func TestSlowClientDropsFrames(t *testing.T) {
	s := New(&fakeSource{frame: sampleFrame(1)}, log.Nop())
	c := &client{send: make(chan []byte, sendBuffer)}
	s.clients[c] = struct{}{}

	for i := range sendBuffer + 3 {
		s.Publish(sampleFrame(uint64(i)))
	}
	assert.Equal(t, uint64(3), s.Dropped())
	assert.Len(t, c.send, sendBuffer)
}
