package notify

import (
	"encoding/json"

	"backend/internal/model"
	ws "backend/internal/websocket"
)

// HubNotifier pushes alerts to connected dashboard clients through the
// websocket hub.
type HubNotifier struct {
	hub *ws.Hub
}

func NewHubNotifier(hub *ws.Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) Send(alertKind, subjectLabel, storeLabel string, details model.AlertDetails) error {
	payload, err := json.Marshal(map[string]interface{}{
		"event": "alert.created",
		"data": map[string]interface{}{
			"type":    alertKind,
			"subject": subjectLabel,
			"store":   storeLabel,
			"details": details,
		},
	})
	if err != nil {
		return err
	}

	select {
	case n.hub.Broadcast <- payload:
	default:
		// No running hub or no readers; alert push is best effort.
	}
	return nil
}
