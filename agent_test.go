package main

import (
	"fmt"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotside-studios/nfc-reader-bridge/bridge"
	"github.com/dotside-studios/nfc-reader-bridge/nfc"
	"github.com/dotside-studios/nfc-reader-bridge/protocol"
	"github.com/dotside-studios/nfc-reader-bridge/server"
)

func TestAgentLifecycle(t *testing.T) {
	manager := nfc.NewMockManager()
	agent := NewAgent(manager)
	agent.Port = 0
	agent.PollInterval = 5 * time.Millisecond

	notices := make(chan bridge.Notice, 1)
	agent.AddNotifier(bridge.NotifierFunc(func(n bridge.Notice) { notices <- n }))

	require.NoError(t, agent.Start(""))
	assert.True(t, agent.Running())
	assert.NoError(t, agent.Start(""), "starting again on the same device is a no-op")
	assert.Error(t, agent.Start("pcsc:other"))

	st := agent.Status()
	require.True(t, st.Running)
	require.NotZero(t, st.Port)
	assert.Equal(t, "ws", st.Scheme)
	assert.False(t, st.Connected)

	conn, _, err := websocket.DefaultDialer.Dial(wsURLForPort(st.Port), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(protocol.NewCall("w", bridge.MethodWrite, nil)))
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var msg protocol.Response
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, protocol.TypeNotice, msg.Type)
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "w", msg.ID)

	select {
	case n := <-notices:
		assert.Equal(t, bridge.WriteUnsupportedMessage, n.Message)
	case <-time.After(time.Second):
		t.Fatal("notifier was not called")
	}

	agent.Stop()
	assert.False(t, agent.Running())
	assert.False(t, agent.Status().Running)
}

func TestDiscIcon(t *testing.T) {
	for _, icon := range [][]byte{iconData, iconDataConnected, iconDataReading, iconDataError, iconDataStopped} {
		require.Greater(t, len(icon), 8)
		assert.Equal(t, []byte("\x89PNG\r\n\x1a\n"), icon[:8])
	}
}

func wsURLForPort(port int) string {
	return fmt.Sprintf("ws://127.0.0.1:%d%s", port, server.PathWebSocket)
}
