package hub

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/restaurant-pos/cart"
	"github.com/yeremiapane/restaurant-pos/models"
)

var upgrader = websocket.Upgrader{}

// dial starts a server registering each connection under deviceID and
// returns the client side once the hub has it.
func dial(t *testing.T, h *Hub, deviceID string) *websocket.Conn {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		h.RegisterClient(conn, deviceID)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.UnregisterClient(conn)
				return
			}
		}
	}))
	t.Cleanup(srv.Close)

	before := h.ClientCount()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.Eventually(t, func() bool { return h.ClientCount() == before+1 }, time.Second, 10*time.Millisecond)
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	conn.SetReadDeadline(time.Now().Add(time.Second))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestStatusChangeReachesEveryone(t *testing.T) {
	h := New()
	staff := dial(t, h, "")
	device := dial(t, h, "dev-1")

	err := h.PublishStatusChange(context.Background(), models.StatusChange{
		Kind: models.KindTable, UnitID: 3, From: models.StatusEmpty, To: models.StatusReserved,
	})
	require.NoError(t, err)

	assert.Equal(t, EventUnitStatusChanged, readMessage(t, staff).Event)
	assert.Equal(t, EventUnitStatusChanged, readMessage(t, device).Event)
}

func TestCartChangesOnlyReachTheirDevice(t *testing.T) {
	h := New()
	staff := dial(t, h, "")
	mine := dial(t, h, "dev-1")
	other := dial(t, h, "dev-2")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes := make(chan cart.Change, 1)
	go h.ForwardCartChanges(ctx, changes)

	changes <- cart.Change{DeviceID: "dev-1", Items: []int{4}}

	assert.Equal(t, EventCartChanged, readMessage(t, mine).Event)
	assert.Equal(t, EventCartChanged, readMessage(t, staff).Event)

	other.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err := other.ReadMessage()
	assert.Error(t, err)
}
