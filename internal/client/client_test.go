package client

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/lox/doudizhu/protocol"
	"github.com/lox/doudizhu/room"
	"github.com/lox/doudizhu/server"
)

func startTestServer(t *testing.T) string {
	t.Helper()
	manager := room.NewManager(zerolog.Nop(), 1)
	srv := server.NewServer(zerolog.Nop(), manager, quartz.NewReal())

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return "http" + strings.TrimPrefix(ts.URL, "http")
}

func recvTyped(t *testing.T, c *Client, want protocol.MessageType) protocol.Message {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case msg, ok := <-c.Receive:
			require.True(t, ok, "receive channel closed before %s arrived", want)
			if msg.Type == want {
				return *msg
			}
		case <-deadline:
			t.Fatalf("timed out waiting for message type %s", want)
		}
	}
}

func TestConnectReceivesWelcome(t *testing.T) {
	t.Parallel()
	baseURL := startTestServer(t)

	c := New(baseURL, zerolog.Nop())
	require.NoError(t, c.Connect())
	defer c.Close()

	msg := recvTyped(t, c, protocol.MessageTypeWelcome)
	var data protocol.WelcomeData
	require.NoError(t, json.Unmarshal(msg.Data, &data))
	require.NotZero(t, data.UserID)
}

func TestSendCreateRoomRoundTrip(t *testing.T) {
	t.Parallel()
	baseURL := startTestServer(t)

	c := New(baseURL, zerolog.Nop())
	require.NoError(t, c.Connect())
	defer c.Close()

	recvTyped(t, c, protocol.MessageTypeWelcome)

	require.NoError(t, c.Send(protocol.MessageTypeCreateRoom, nil))

	msg := recvTyped(t, c, protocol.MessageTypeRoomCreated)
	var data protocol.RoomCreatedData
	require.NoError(t, json.Unmarshal(msg.Data, &data))
	require.Len(t, data.RoomID, 6)
}

func TestCloseStopsReceiveLoop(t *testing.T) {
	t.Parallel()
	baseURL := startTestServer(t)

	c := New(baseURL, zerolog.Nop())
	require.NoError(t, c.Connect())

	recvTyped(t, c, protocol.MessageTypeWelcome)
	c.Close()

	// Drain anything buffered before the close; the channel must then close.
	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-c.Receive:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("receive channel never closed")
		}
	}
}
