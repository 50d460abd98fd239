package hub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/restaurant-pos/cart"
	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/utils"
)

// Event types
const (
	EventUnitStatusChanged = "unit_status_changed"
	EventUnitCreate        = "unit_create"
	EventUnitDelete        = "unit_delete"
	EventCartChanged       = "cart_changed"
	EventOrderCreated      = "order_created"
	EventBasketUpdate      = "basket_update"
)

const writeWait = 5 * time.Second

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type client struct {
	// DeviceID is empty for staff consoles, which receive everything.
	deviceID string
}

// Hub keeps the connected consoles and devices and fans events out to them.
type Hub struct {
	clients map[*websocket.Conn]client
	mutex   sync.Mutex
}

func New() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]client)}
}

func (h *Hub) RegisterClient(conn *websocket.Conn, deviceID string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.clients[conn] = client{deviceID: deviceID}
}

func (h *Hub) UnregisterClient(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if _, ok := h.clients[conn]; !ok {
		return
	}
	delete(h.clients, conn)
	conn.Close()
}

func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// PublishStatusChange lets the hub sit next to the other status sinks.
func (h *Hub) PublishStatusChange(_ context.Context, change models.StatusChange) error {
	h.Broadcast(Message{Event: EventUnitStatusChanged, Data: change})
	return nil
}

func (h *Hub) BroadcastUnitCreate(unit models.SeatingUnit) {
	h.Broadcast(Message{Event: EventUnitCreate, Data: unitPayload(unit)})
}

func (h *Hub) BroadcastUnitDelete(kind models.UnitKind, id int) {
	h.Broadcast(Message{Event: EventUnitDelete, Data: map[string]interface{}{"kind": kind, "id": id}})
}

func (h *Hub) BroadcastOrderCreated(kind models.UnitKind, basket models.Basket) {
	h.Broadcast(Message{Event: EventOrderCreated, Data: map[string]interface{}{"kind": kind, "basket": basket}})
}

func (h *Hub) BroadcastBasketUpdate(kind models.UnitKind, basket models.Basket) {
	h.Broadcast(Message{Event: EventBasketUpdate, Data: map[string]interface{}{"kind": kind, "basket": basket}})
}

// ForwardCartChanges relays cart changes to the device they belong to
// until ctx ends.
func (h *Hub) ForwardCartChanges(ctx context.Context, changes <-chan cart.Change) {
	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-changes:
			if !ok {
				return
			}
			h.send(Message{Event: EventCartChanged, Data: change}, change.DeviceID)
		}
	}
}

func (h *Hub) Broadcast(msg Message) {
	h.send(msg, "")
}

// send delivers msg to staff consoles and, when deviceID is set, to that
// device only. An empty deviceID reaches every client.
func (h *Hub) send(msg Message, deviceID string) {
	data, err := json.Marshal(msg)
	if err != nil {
		utils.ErrorLogger.Printf("Error marshaling message: %v", err)
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	for conn, c := range h.clients {
		if deviceID != "" && c.deviceID != "" && c.deviceID != deviceID {
			continue
		}
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			utils.ErrorLogger.WithFields(logrus.Fields{
				"event": msg.Event,
				"error": err.Error(),
			}).Warn("dropping websocket client")
			delete(h.clients, conn)
			conn.Close()
		}
	}
}

func unitPayload(unit models.SeatingUnit) interface{} {
	return map[string]interface{}{"kind": unit.Kind, "unit": unit}
}
