package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yourusername/stoolpool-api/internal/websocket"
	"github.com/yourusername/stoolpool-api/pkg/auth"
)

func newTestWSHandler(tickets TicketParser) *WSHandler {
	hub := websocket.NewHub()
	return NewWSHandler(hub, websocket.NewManager(hub), tickets, websocket.DefaultClientConfig(), nil)
}

func TestWSHandler_HandleConnection_MissingTicket(t *testing.T) {
	tickets := new(MockTicketParser)
	h := newTestWSHandler(tickets)

	c, w := newTestGinContext("GET", "/ws", nil)
	h.HandleConnection(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	tickets.AssertNotCalled(t, "ParseWSTicket", "")
}

func TestWSHandler_HandleConnection_InvalidTicket(t *testing.T) {
	tickets := new(MockTicketParser)
	h := newTestWSHandler(tickets)
	tickets.On("ParseWSTicket", "used-ticket").Return(nil, auth.ErrTicketUsed)

	c, w := newTestGinContext("GET", "/ws?ticket=used-ticket", nil)
	h.HandleConnection(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	resp := parseJSONResponse(t, w)
	assert.Equal(t, "Invalid or expired ticket", resp["error"])
	tickets.AssertExpectations(t)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"http://localhost:8081"})

	req := httptest.NewRequest("GET", "/ws", nil)
	assert.True(t, check(req), "без Origin - мобильное приложение")

	req.Header.Set("Origin", "http://localhost:8081")
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, check(req))
}
