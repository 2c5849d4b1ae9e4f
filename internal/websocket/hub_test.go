package websocket

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(hub *Hub, userID string, buffer int) *Client {
	return NewClient(hub, nil, userID, ClientConfig{BufferSize: buffer})
}

func readEvent(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case raw := <-c.send:
		var ev Event
		require.NoError(t, json.Unmarshal(raw, &ev))
		return ev
	default:
		t.Fatal("ожидалось сообщение в буфере клиента")
		return Event{}
	}
}

func TestHub_SendToUserReachesAllConnections(t *testing.T) {
	// Arrange
	hub := NewHub()
	phone := newTestClient(hub, "1", 4)
	tablet := newTestClient(hub, "1", 4)
	other := newTestClient(hub, "2", 4)
	hub.RegisterClient(phone)
	hub.RegisterClient(tablet)
	hub.RegisterClient(other)

	// Act
	delivered := hub.SendToUser("1", []byte(`{"type":"ping"}`))

	// Assert
	assert.True(t, delivered)
	assert.Len(t, phone.send, 1)
	assert.Len(t, tablet.send, 1)
	assert.Len(t, other.send, 0)
	assert.Equal(t, 3, hub.ClientCount())
}

func TestHub_SendToUnknownUser(t *testing.T) {
	hub := NewHub()
	assert.False(t, hub.SendToUser("404", []byte("x")))
	assert.NoError(t, hub.SendJSONToUser("404", Event{Type: "x"}))
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	hub := NewHub()
	c := newTestClient(hub, "1", 1)
	hub.RegisterClient(c)

	hub.UnregisterClient(c)
	hub.UnregisterClient(c) // повторный вызов безопасен

	assert.True(t, c.IsSendClosed())
	assert.Equal(t, 0, hub.ClientCount())
	assert.False(t, hub.SendToUser("1", []byte("x")))
}

func TestHub_SlowClientIsDisconnected(t *testing.T) {
	// Arrange: буфер на одно сообщение, которое никто не читает
	hub := NewHub()
	c := newTestClient(hub, "1", 1)
	hub.RegisterClient(c)
	require.True(t, hub.SendToUser("1", []byte("first")))

	// Act
	for i := 0; i < maxBufferWarnings; i++ {
		hub.SendToUser("1", []byte("overflow"))
	}

	// Assert
	assert.True(t, c.IsSendClosed())
	assert.Equal(t, 0, hub.ClientCount())
	assert.Equal(t, int64(maxBufferWarnings), hub.GetMetrics()["messages_dropped"])
}

func TestHub_DisconnectUser(t *testing.T) {
	hub := NewHub()
	a := newTestClient(hub, "1", 1)
	b := newTestClient(hub, "1", 1)
	keep := newTestClient(hub, "2", 1)
	hub.RegisterClient(a)
	hub.RegisterClient(b)
	hub.RegisterClient(keep)

	assert.Equal(t, 2, hub.DisconnectUser("1"))
	assert.True(t, a.IsSendClosed())
	assert.True(t, b.IsSendClosed())
	assert.False(t, keep.IsSendClosed())
	assert.Equal(t, 1, hub.ClientCount())
}

func TestManager_HandleMessage(t *testing.T) {
	hub := NewHub()
	manager := NewManager(hub)
	c := newTestClient(hub, "1", 4)
	hub.RegisterClient(c)

	var got json.RawMessage
	manager.RegisterHandler(USER_HEARTBEAT, func(data json.RawMessage, client *Client) error {
		got = data
		manager.SendToClient(client, SERVER_HEARTBEAT, nil)
		return nil
	})
	manager.RegisterHandler("fail", func(json.RawMessage, *Client) error {
		return errors.New("boom")
	})

	t.Run("известный тип", func(t *testing.T) {
		require.NoError(t, manager.HandleMessage([]byte(`{"type":"user:heartbeat","data":{"seq":1}}`), c))
		assert.JSONEq(t, `{"seq":1}`, string(got))
		assert.Equal(t, SERVER_HEARTBEAT, readEvent(t, c).Type)
	})

	t.Run("неизвестный тип не закрывает соединение", func(t *testing.T) {
		require.NoError(t, manager.HandleMessage([]byte(`{"type":"nope"}`), c))
		ev := readEvent(t, c)
		assert.Equal(t, SERVER_ERROR, ev.Type)
		assert.Equal(t, "unknown_message_type", ev.Data.(map[string]interface{})["code"])
	})

	t.Run("некорректный JSON", func(t *testing.T) {
		assert.Error(t, manager.HandleMessage([]byte(`{`), c))
		assert.Equal(t, SERVER_ERROR, readEvent(t, c).Type)
	})

	t.Run("ошибка обработчика", func(t *testing.T) {
		assert.EqualError(t, manager.HandleMessage([]byte(`{"type":"fail"}`), c), "boom")
	})
}

func TestManager_RevokeUserSessions(t *testing.T) {
	hub := NewHub()
	manager := NewManager(hub)
	c := newTestClient(hub, "9", 2)
	hub.RegisterClient(c)

	closed := manager.RevokeUserSessions("9", "password_changed")

	assert.Equal(t, 1, closed)
	// Уведомление остаётся в буфере и будет отправлено перед закрытием
	ev := readEvent(t, c)
	assert.Equal(t, SESSION_REVOKED, ev.Type)
	assert.True(t, c.IsSendClosed())
}

func TestSafeHandleMessage_RecoversPanic(t *testing.T) {
	c := newTestClient(NewHub(), "1", 1)
	err := safeHandleMessage([]byte("x"), c, func([]byte, *Client) error {
		panic("handler panic")
	})
	assert.ErrorContains(t, err, "panic recovered")
}

func TestClientConfig_Normalized(t *testing.T) {
	cfg := ClientConfig{PongWait: 0, PingInterval: 120}.normalized()
	assert.Equal(t, defaultClientBufferSize, cfg.BufferSize)
	assert.Equal(t, defaultPongWait, cfg.PongWait)
	assert.Less(t, cfg.PingInterval, cfg.PongWait)
}
