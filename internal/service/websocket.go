package service

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"sketch_web/internal/models"
)

// EventHandler 是入站事件的處理介面，由 RoomService 實作
type EventHandler interface {
	HandleCreateRoom(connID string, p models.CreateRoomPayload)
	HandleJoinRoom(connID string, p models.JoinRoomPayload)
	HandleChooseWord(connID, word string)
	HandleChat(connID, text string)
	HandleDraw(connID string, msg models.Envelope)
	HandleClearCanvas(connID string)
	HandleDisconnect(connID string)
}

// Client 代表一個 WebSocket 客戶端連接
type Client struct {
	Conn     *websocket.Conn      // WebSocket 連接
	ID       string               // 連線期間有效的臨時身份
	SendChan chan models.Envelope // 消息發送通道，用於異步傳送消息
	done     chan struct{}        // 連線收尾信號，關閉後 writePump 結束
	limiter  *rate.Limiter        // 聊天頻率限制
}

// WebSocketManager 管理所有的 WebSocket 連接和消息傳遞
// 同時充當連線註冊表：index 記錄每個連線目前所屬的房間，
// 加入與離開時同步更新，事件處理直接查表而不是檢查傳輸層的頻道
type WebSocketManager struct {
	clients    map[string]*Client            // 連線 ID -> 客戶端
	rooms      map[string]map[string]*Client // 房間代碼 -> 連線 ID -> 客戶端
	index      map[string]string             // 連線 ID -> 房間代碼
	clientsMux sync.RWMutex                  // 保護上面三個 map 的讀寫鎖
	handler    EventHandler
}

// NewWebSocketManager 創建並初始化新的 WebSocket 服務
func NewWebSocketManager() *WebSocketManager {
	return &WebSocketManager{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]*Client),
		index:   make(map[string]string),
	}
}

// SetHandler 設定入站事件的處理者，必須在接受連線之前完成
func (m *WebSocketManager) SetHandler(handler EventHandler) {
	m.handler = handler
}

// HandleConnection 處理新的 WebSocket 連接請求，阻塞直到連線關閉
func (m *WebSocketManager) HandleConnection(conn *websocket.Conn, connID string) {
	client := &Client{
		Conn:     conn,
		ID:       connID,
		SendChan: make(chan models.Envelope, 256),
		done:     make(chan struct{}),
		limiter:  rate.NewLimiter(1, 5),
	}

	m.clientsMux.Lock()
	m.clients[connID] = client
	m.clientsMux.Unlock()

	// 確保連接關閉時清理資源
	defer func() {
		m.unregister(client)
		conn.Close()
	}()

	go m.writePump(client)
	m.readPump(client)
}

// unregister 移除客戶端並通知 writePump 收尾
// SendChan 永不關閉：搶在移除之前取得快照的廣播
// 晚一步寫入，也只是寫進即將被回收的通道
func (m *WebSocketManager) unregister(client *Client) {
	m.handler.HandleDisconnect(client.ID)
	m.clientsMux.Lock()
	delete(m.clients, client.ID)
	m.clientsMux.Unlock()
	close(client.done)
}

// readPump 持續監聽並處理從客戶端接收的消息
func (m *WebSocketManager) readPump(client *Client) {
	client.Conn.SetReadLimit(4096)
	client.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket unexpected close error: %v", err)
			}
			break
		}

		var env models.Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			log.Printf("message parse error: %v", err)
			continue
		}

		m.dispatch(client, env)
	}
}

// dispatch 依事件類型呼叫對應的處理函式
func (m *WebSocketManager) dispatch(client *Client, env models.Envelope) {
	switch env.Type {
	case models.EventCreateRoom:
		var p models.CreateRoomPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return
		}
		m.handler.HandleCreateRoom(client.ID, p)

	case models.EventJoinRoom:
		var p models.JoinRoomPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return
		}
		m.handler.HandleJoinRoom(client.ID, p)

	case models.EventChooseWord:
		var p models.ChooseWordPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return
		}
		m.handler.HandleChooseWord(client.ID, p.Word)

	case models.EventDraw:
		// 筆畫不經解碼直接轉發
		m.handler.HandleDraw(client.ID, env)

	case models.EventClearCanvas:
		m.handler.HandleClearCanvas(client.ID)

	case models.EventChatMessage:
		if !client.limiter.Allow() {
			return
		}
		var p models.ChatMessagePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return
		}
		m.handler.HandleChat(client.ID, p.Text)

	default:
		log.Printf("unknown event type: %s", env.Type)
	}
}

// writePump 處理向客戶端發送消息的邏輯
func (m *WebSocketManager) writePump(client *Client) {
	// 設置心跳檢查計時器
	ticker := time.NewTicker(54 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-client.done:
			client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-client.SendChan:
			client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			messageBytes, err := json.Marshal(message)
			if err != nil {
				log.Printf("message encoding error: %v", err)
				continue
			}
			if err := client.Conn.WriteMessage(websocket.TextMessage, messageBytes); err != nil {
				return
			}

		case <-ticker.C:
			// 發送心跳包
			client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// JoinRoom 將連線登記到房間並更新註冊表
func (m *WebSocketManager) JoinRoom(connID, code string) {
	m.clientsMux.Lock()
	defer m.clientsMux.Unlock()

	client, ok := m.clients[connID]
	if !ok {
		return
	}
	if m.rooms[code] == nil {
		m.rooms[code] = make(map[string]*Client)
	}
	m.rooms[code][connID] = client
	m.index[connID] = code
}

// LeaveRoom 將連線自其房間移除，未加入任何房間時不做任何事
func (m *WebSocketManager) LeaveRoom(connID string) {
	m.clientsMux.Lock()
	defer m.clientsMux.Unlock()

	code, ok := m.index[connID]
	if !ok {
		return
	}
	delete(m.index, connID)
	if members, ok := m.rooms[code]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(m.rooms, code)
		}
	}
}

// RoomOf 查詢連線目前所屬的房間
func (m *WebSocketManager) RoomOf(connID string) (string, bool) {
	m.clientsMux.RLock()
	defer m.clientsMux.RUnlock()

	code, ok := m.index[connID]
	return code, ok
}

// BroadcastToRoom 向房間內的所有客戶端廣播消息
func (m *WebSocketManager) BroadcastToRoom(code string, msg models.Envelope) {
	m.broadcast(code, "", msg)
}

// BroadcastToRoomExcept 向房間內除指定連線外的客戶端廣播消息
func (m *WebSocketManager) BroadcastToRoomExcept(code, exceptID string, msg models.Envelope) {
	m.broadcast(code, exceptID, msg)
}

func (m *WebSocketManager) broadcast(code, exceptID string, msg models.Envelope) {
	m.clientsMux.RLock()
	members := make([]*Client, 0, len(m.rooms[code]))
	for id, client := range m.rooms[code] {
		if id != exceptID {
			members = append(members, client)
		}
	}
	m.clientsMux.RUnlock()

	for _, client := range members {
		select {
		case client.SendChan <- msg:
			// 消息成功加入發送隊列
		default:
			// 客戶端消息隊列已滿，關閉連接讓讀取端走正常清理流程
			client.Conn.Close()
		}
	}
}

// SendToConn 向單一連線發送消息
func (m *WebSocketManager) SendToConn(connID string, msg models.Envelope) {
	m.clientsMux.RLock()
	client, ok := m.clients[connID]
	m.clientsMux.RUnlock()
	if !ok {
		return
	}

	select {
	case client.SendChan <- msg:
	default:
		client.Conn.Close()
	}
}

// BroadcastSystemMessage 發送系統消息到指定房間
func (m *WebSocketManager) BroadcastSystemMessage(code, text string) {
	m.BroadcastToRoom(code, models.NewSystemMessage(text))
}
