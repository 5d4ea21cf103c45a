package live

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/otaviofreire/comanda-app/models"
	"github.com/otaviofreire/comanda-app/utils"
)

// Event types
const (
	EventTabUpdate   = "tab_update"
	EventTabDelete   = "tab_delete"
	EventItemUpdate  = "item_update"
	EventItemDelete  = "item_delete"
	EventClaimUpdate = "claim_update"
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub holds every connected device. Each committed tab change is fanned out
// to all of them, including the device that initiated it, which re-renders
// from the broadcast snapshot like any other subscriber.
type Hub struct {
	clients map[*websocket.Conn]string // conn -> device id
	mutex   sync.Mutex
}

var hub = Hub{
	clients: make(map[*websocket.Conn]string),
}

// RegisterClient adds a device connection to the fan-out set.
func RegisterClient(conn *websocket.Conn, deviceID string) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	hub.clients[conn] = deviceID
}

// UnregisterClient drops a connection, closing it.
func UnregisterClient(conn *websocket.Conn) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	delete(hub.clients, conn)
	conn.Close()
}

// BroadcastTabUpdate pushes the latest tab snapshot to every device.
func BroadcastTabUpdate(tab models.Tab) {
	broadcast(Message{
		Event: EventTabUpdate,
		Data:  tab,
	})
}

// BroadcastTabDelete announces a cancelled tab.
func BroadcastTabDelete(tabID string) {
	broadcast(Message{
		Event: EventTabDelete,
		Data:  map[string]string{"tab_id": tabID},
	})
}

// BroadcastItemUpdate pushes one changed line item. Devices viewing another
// tab ignore it by tab id.
func BroadcastItemUpdate(item models.TabItem) {
	broadcast(Message{
		Event: EventItemUpdate,
		Data:  item,
	})
}

// BroadcastItemDelete announces a removed line item.
func BroadcastItemDelete(tabID, productID string) {
	broadcast(Message{
		Event: EventItemDelete,
		Data:  map[string]string{"tab_id": tabID, "product_id": productID},
	})
}

// BroadcastClaimUpdate announces a session claim change so a device whose
// claim was taken over can log itself out.
func BroadcastClaimUpdate(claim models.SessionClaim) {
	broadcast(Message{
		Event: EventClaimUpdate,
		Data:  claim,
	})
}

func broadcast(msg Message) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()

	data, err := json.Marshal(msg)
	if err != nil {
		utils.ErrorLogger.Printf("marshal broadcast: %v", err)
		return
	}

	for conn, deviceID := range hub.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			utils.ErrorLogger.Printf("send to device %s: %v", deviceID, err)
		}
	}
}
