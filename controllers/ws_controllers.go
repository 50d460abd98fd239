package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/yeremiapane/restaurant-pos/hub"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

type WSController struct {
	Hub      *hub.Hub
	upgrader websocket.Upgrader
}

// NewWSController accepts upgrades from origins the CORS policy allows.
func NewWSController(h *hub.Hub, allowOrigin func(origin string) bool) *WSController {
	return &WSController{
		Hub: h,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowOrigin == nil || allowOrigin(origin)
			},
		},
	}
}

// CustomerStream receives status changes plus the device's own cart
// changes.
func (wc *WSController) CustomerStream(c *gin.Context) {
	deviceID, ok := deviceFrom(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	wc.serve(c, deviceID)
}

// StaffStream receives every event.
func (wc *WSController) StaffStream(c *gin.Context) {
	wc.serve(c, "")
}

func (wc *WSController) serve(c *gin.Context, deviceID string) {
	ws, err := wc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	wc.Hub.RegisterClient(ws, deviceID)
	defer wc.Hub.UnregisterClient(ws)

	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}
}
