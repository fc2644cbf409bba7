package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/who-spies/internal/game/room"
	"github.com/palemoky/who-spies/internal/protocol"
)

func dialStream(t *testing.T, ts *httptest.Server, id, player string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/" + id + "?player=" + player
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) *protocol.Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg protocol.Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return &msg
}

func TestStream_PushesStateAndClose(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, nil, nil, nil)
	ts := httptest.NewServer(e.server.Handler())
	defer ts.Close()

	id := e.createRoom(t, "alice")
	conn := dialStream(t, ts, id, "alice")

	msg := readMessage(t, conn)
	require.Equal(t, protocol.MsgRoomState, msg.Type)
	var v room.View
	require.NoError(t, msg.Decode(&v))
	assert.Equal(t, "alice", v.Viewer)
	assert.Equal(t, 1, v.PlayerCount)

	// A change is pushed on the next poll
	require.NoError(t, e.repo.JoinRoom(context.Background(), id, "bob", false))
	msg = readMessage(t, conn)
	require.Equal(t, protocol.MsgRoomState, msg.Type)
	require.NoError(t, msg.Decode(&v))
	assert.Equal(t, 2, v.PlayerCount)

	require.NoError(t, e.repo.LeaveRoom(context.Background(), id, "bob"))
	readMessage(t, conn)
	require.NoError(t, e.repo.LeaveRoom(context.Background(), id, "alice"))

	msg = readMessage(t, conn)
	require.Equal(t, protocol.MsgRoomClosed, msg.Type)
	var closed protocol.RoomClosedPayload
	require.NoError(t, msg.Decode(&closed))
	assert.Equal(t, id, closed.RoomID)

	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestStream_UnknownRoom(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, nil, nil, nil)
	code, env := e.do(t, http.MethodGet, "/ws/NOPE00", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, protocol.ErrCodeRoomNotFound, env.Code)
}

func TestStream_ShutdownClosesStreams(t *testing.T) {
	t.Parallel()

	e := newTestEnv(t, nil, nil, nil)
	ts := httptest.NewServer(e.server.Handler())
	defer ts.Close()

	id := e.createRoom(t, "alice")
	conn := dialStream(t, ts, id, "alice")
	readMessage(t, conn)
	assert.Equal(t, 1, e.server.StreamCount())

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	require.NoError(t, e.server.Shutdown(ctx))
	assert.Zero(t, e.server.StreamCount())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}
