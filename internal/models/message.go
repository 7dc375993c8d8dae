package models

import (
	"encoding/json"
)

// 客戶端送往伺服器的事件類型
const (
	EventCreateRoom  = "createRoom"
	EventJoinRoom    = "joinRoom"
	EventChooseWord  = "chooseWord"
	EventDraw        = "draw"
	EventClearCanvas = "clearCanvas"
	EventChatMessage = "chatMessage"
)

// 伺服器送往客戶端的事件類型
const (
	EventRoomJoined    = "roomJoined"
	EventUpdatePlayers = "updatePlayers"
	EventMessage       = "message"
	EventNewRound      = "newRound"
	EventYourTurn      = "yourTurn"
	EventWordHint      = "wordHint"
	EventTimer         = "timer"
	EventCorrectGuess  = "correctGuess"
	EventWordReveal    = "wordReveal"
	EventGameOver      = "gameOver"
	EventErrorMsg      = "errorMsg"
)

// Envelope 代表 WebSocket 上傳輸的統一消息結構
// 所有事件都以 {"type": ..., "payload": ...} 的形式編碼
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEnvelope 建立一個指定類型的消息，payload 編碼失敗時送出空 payload
func NewEnvelope(eventType string, payload any) Envelope {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{Type: eventType}
	}
	return Envelope{Type: eventType, Payload: data}
}

// NewSystemMessage 建立一條顯示在聊天區的系統消息
func NewSystemMessage(text string) Envelope {
	return NewEnvelope(EventMessage, ChatPayload{User: "System", Text: text})
}

// NewPrivateMessage 建立一條只給單一玩家看的提示消息
func NewPrivateMessage(text string) Envelope {
	return NewEnvelope(EventMessage, ChatPayload{User: "Private", Text: text})
}

// NewChatMessage 建立一條署名的聊天消息
func NewChatMessage(user, text string) Envelope {
	return NewEnvelope(EventMessage, ChatPayload{User: user, Text: text})
}

// NewErrorMessage 建立一條拒絕通知
func NewErrorMessage(text string) Envelope {
	return NewEnvelope(EventErrorMsg, ErrorPayload{Message: text})
}

// CreateRoomPayload 對應 createRoom 事件
// Rounds 保持未定型別，非數值輸入會在服務層換成預設回合數
type CreateRoomPayload struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Rounds any    `json:"rounds"`
}

// JoinRoomPayload 對應 joinRoom 事件
type JoinRoomPayload struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// ChooseWordPayload 對應 chooseWord 事件
type ChooseWordPayload struct {
	Word string `json:"word"`
}

// ChatMessagePayload 對應 chatMessage 事件
type ChatMessagePayload struct {
	Text string `json:"text"`
}

// DrawPayload 描述一段筆畫，伺服器不解讀內容、只負責轉發
type DrawPayload struct {
	X0    float64 `json:"x0"`
	Y0    float64 `json:"y0"`
	X1    float64 `json:"x1"`
	Y1    float64 `json:"y1"`
	Color string  `json:"color"`
	Size  float64 `json:"size"`
}

// ChatPayload 用於聊天與系統消息
type ChatPayload struct {
	User string `json:"user"`
	Text string `json:"text"`
}

// ErrorPayload 用於被拒絕動作的通知
type ErrorPayload struct {
	Message string `json:"message"`
}

// RoomJoinedPayload 加入成功的確認，只發給加入者本人
type RoomJoinedPayload struct {
	Code      string   `json:"code"`
	Players   []Player `json:"players"`
	MaxRounds int      `json:"maxRounds"`
}

// PlayersPayload 房間名單與分數的快照
type PlayersPayload struct {
	Players []Player `json:"players"`
}

// NewRoundPayload 回合開始的中繼資料
type NewRoundPayload struct {
	Round      int    `json:"round"`
	MaxRounds  int    `json:"maxRounds"`
	DrawerID   string `json:"drawerId"`
	DrawerName string `json:"drawerName"`
}

// WordChoicesPayload 只發給畫者的候選詞
type WordChoicesPayload struct {
	Words []string `json:"words"`
}

// WordHintPayload 遮罩後的提示字串
type WordHintPayload struct {
	Hint string `json:"hint"`
}

// TimerPayload 剩餘秒數
type TimerPayload struct {
	Seconds int `json:"seconds"`
}

// CorrectGuessPayload 猜中通知
type CorrectGuessPayload struct {
	Name        string `json:"name"`
	Points      int    `json:"points"`
	DrawerBonus int    `json:"drawerBonus"`
}

// WordRevealPayload 公佈正確答案
type WordRevealPayload struct {
	Word string `json:"word"`
}

// GameOverPayload 終局排行榜
type GameOverPayload struct {
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

// LeaderboardEntry 排行榜中的一列
type LeaderboardEntry struct {
	Rank  int    `json:"rank"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}
