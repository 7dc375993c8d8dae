package service

import (
	"sketch_web/pkg/config"
)

type Services struct {
	Room      *RoomService
	WebSocket *WebSocketManager
}

func NewServices(cfg config.GameConfig) *Services {
	wsManager := NewWebSocketManager()
	roomService := NewRoomService(wsManager, cfg)
	wsManager.SetHandler(roomService)

	return &Services{
		Room:      roomService,
		WebSocket: wsManager,
	}
}
